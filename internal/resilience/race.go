package resilience

import (
	"context"
	"time"

	"github.com/sells-group/lead-enrich/internal/apperr"
)

// Race runs fn under a budget and returns whichever settles first: fn's
// result or the timer. fn receives a context that is cancelled when the
// budget expires, but Race does not wait for it to return; a result that
// arrives late is dropped. A non-positive budget only inherits ctx.
//
// When the budget (not the parent) expires the error is a timeout-kind apperr.
func Race[T any](ctx context.Context, op string, budget time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	callCtx, cancel := context.WithCancel(ctx)
	var timer <-chan time.Time
	if budget > 0 {
		t := time.NewTimer(budget)
		defer t.Stop()
		timer = t.C
	}

	type outcome struct {
		val T
		err error
	}
	// Buffered so a late sender never blocks after we stop listening.
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(callCtx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		cancel()
		return o.val, o.err
	case <-timer:
		cancel()
		return zero, apperr.New(apperr.KindTimeout, op, "exceeded "+budget.String()+" budget")
	case <-ctx.Done():
		cancel()
		return zero, apperr.Wrap(apperr.KindTimeout, op, ctx.Err())
	}
}
