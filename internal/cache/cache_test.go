package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/config"
	"github.com/sells-group/lead-enrich/internal/model"
)

func sampleResult() model.EnrichmentResult {
	return model.EnrichmentResult{
		Success: true,
		Leads:   []model.Lead{{ID: "1", Name: "Jane Doe", Title: "CEO"}},
		CompanyInfo: &model.CompanyInfo{
			Name:   "Acme",
			Domain: "acme.com",
		},
		Metadata: model.Metadata{Source: "hybrid", ProcessingTimeMs: 1200},
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "lead-enrich:domain:acme.com", Key("domain", "acme.com"))
	assert.Equal(t, "lead-enrich:email:jane@acme.com", Key("email", " Jane@Acme.com "))
}

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var miss model.EnrichmentResult
	ok, err := m.Get(ctx, "k", &miss)
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleResult()
	require.NoError(t, m.Set(ctx, "k", want, time.Hour))

	var got model.EnrichmentResult
	ok, err = m.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Set(ctx, "k", "v", 50*time.Millisecond))

	var s string
	ok, err := m.Get(ctx, "k", &s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", s)

	assert.Eventually(t, func() bool {
		ok, err := m.Get(ctx, "k", &s)
		return err == nil && !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMemory_HitDoesNotExtendTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Set(ctx, "k", 1, 150*time.Millisecond))
	deadline := time.Now().Add(150 * time.Millisecond)

	var n int
	for time.Now().Before(deadline.Add(-30 * time.Millisecond)) {
		_, _ = m.Get(ctx, "k", &n)
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	ok, err := m.Get(ctx, "k", &n)
	require.NoError(t, err)
	assert.False(t, ok, "reads must not keep an entry alive")
}

func TestMemory_ValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	want := sampleResult()
	require.NoError(t, m.Set(ctx, "k", want, time.Hour))
	want.Leads[0].Name = "Changed"

	var got model.EnrichmentResult
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", got.Leads[0].Name)
}

func TestMemory_NoTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", 42, 0))

	var n int
	ok, err := m.Get(ctx, "k", &n)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, n)
}

func TestMemory_EncodeError(t *testing.T) {
	err := NewMemory().Set(context.Background(), "k", make(chan int), time.Minute)
	assert.Error(t, err)
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), mr
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	want := sampleResult()
	require.NoError(t, r.Set(ctx, Key("domain", "acme.com"), want, time.Hour))
	assert.True(t, mr.Exists("lead-enrich:domain:acme.com"))
	assert.Equal(t, time.Hour, mr.TTL("lead-enrich:domain:acme.com"))

	var got model.EnrichmentResult
	ok, err := r.Get(ctx, Key("domain", "acme.com"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedis_MissAndExpiry(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	var s string
	ok, err := r.Get(ctx, "missing", &s)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)
	ok, err = r.Get(ctx, "k", &s)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_DecodeError(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)
	require.NoError(t, mr.Set("k", "not json"))

	var v model.EnrichmentResult
	ok, err := r.Get(ctx, "k", &v)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedis_ServerDown(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)
	mr.Close()

	var s string
	_, err := r.Get(ctx, "k", &s)
	assert.Error(t, err)
	assert.Error(t, r.Set(ctx, "k", "v", time.Minute))
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, config.CacheConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	c, err = New(ctx, config.CacheConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, c)

	mr := miniredis.RunT(t)
	c, err = New(ctx, config.CacheConfig{Driver: "redis", RedisURL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	require.IsType(t, &Redis{}, c)
	t.Cleanup(func() { _ = c.(*Redis).Close() })

	_, err = New(ctx, config.CacheConfig{Driver: "redis", RedisURL: "::bad"})
	assert.Error(t, err)

	_, err = New(ctx, config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)
}
