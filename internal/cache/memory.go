package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rotisserie/eris"
)

// Memory is a process-local Cache. Values are stored JSON-encoded so a reader
// never shares memory with the writer.
type Memory struct {
	items *ttlcache.Cache[string, []byte]
}

// NewMemory creates an empty in-process cache and starts its expiry loop.
// Close stops the loop.
func NewMemory() *Memory {
	items := ttlcache.New[string, []byte](
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()
	return &Memory{items: items}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	item := m.items.Get(key)
	if item == nil || item.IsExpired() {
		return false, nil
	}
	if err := json.Unmarshal(item.Value(), dst); err != nil {
		return false, eris.Wrapf(err, "cache: decode %s", key)
	}
	return true, nil
}

// Set implements Cache. A non-positive ttl keeps the entry until the process
// exits.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return eris.Wrapf(err, "cache: encode %s", key)
	}
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	m.items.Set(key, data, ttl)
	return nil
}

// Close stops the expiry loop.
func (m *Memory) Close() error {
	m.items.Stop()
	return nil
}

// Len returns the number of stored entries, including expired ones the
// expiry loop has not removed yet.
func (m *Memory) Len() int {
	return m.items.Len()
}
