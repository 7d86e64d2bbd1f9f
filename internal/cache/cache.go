// Package cache stores successful enrichment results for a limited time.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/internal/config"
)

// Cache is a TTL key/value store for JSON-serializable values.
type Cache interface {
	// Get decodes the value stored under key into dst. It reports false on a
	// miss or an expired entry.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

const keyPrefix = "lead-enrich"

// Key builds the cache key for an endpoint and its normalized subject, e.g.
// Key("domain", "acme.com") is "lead-enrich:domain:acme.com".
func Key(endpoint, subject string) string {
	return keyPrefix + ":" + endpoint + ":" + strings.ToLower(strings.TrimSpace(subject))
}

// New builds the cache selected by cfg.Driver. "none" returns a nil Cache,
// which callers treat as caching disabled.
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "none":
		return nil, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, eris.Wrap(err, "cache: parse redis url")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, eris.Wrap(err, "cache: ping redis")
		}
		return NewRedis(client), nil
	default:
		return nil, eris.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}
