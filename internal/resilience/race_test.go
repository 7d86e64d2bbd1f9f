package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/apperr"
)

func TestRace_ResultBeforeBudget(t *testing.T) {
	got, err := Race(context.Background(), "test", time.Second, func(_ context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestRace_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Race(context.Background(), "test", time.Second, func(_ context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRace_BudgetExpires(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	got, err := Race(context.Background(), "stage", 30*time.Millisecond, func(_ context.Context) (int, error) {
		<-release // never settles within the budget, ignores its context
		return 7, nil
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(err))
	assert.Zero(t, got, "late result must be dropped")
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestRace_CancelsCallContextOnTimeout(t *testing.T) {
	cancelled := make(chan struct{})
	_, err := Race(context.Background(), "stage", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(cancelled)
		return 0, ctx.Err()
	})
	require.Error(t, err)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("call context was not cancelled")
	}
}

func TestRace_ParentDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := Race(ctx, "outer", time.Minute, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(5 * time.Millisecond)
		return 1, nil
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTimeout))
}
