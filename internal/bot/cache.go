package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "talentfit:"

// cached returns the value stored under key, or loads it and keeps it for ttl.
// Cache failures are logged and never fail the request.
func cached[T any](
	ctx context.Context,
	b *Bot,
	key string,
	ttl time.Duration,
	load func(context.Context) (T, error),
) (T, error) {
	if b.redisClient == nil {
		return load(ctx)
	}

	key = cachePrefix + key
	raw, err := b.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var value T
		if err = json.Unmarshal(raw, &value); err == nil {
			b.log.DebugContext(ctx, "Found in cache", "key", key)
			b.metrics.CacheOps.WithLabelValues("get", "hit").Inc()
			return value, nil
		}
		b.log.WarnContext(ctx, "Dropping unreadable cache entry", "key", key, "error", err)
	case !errors.Is(err, redis.Nil):
		b.log.WarnContext(ctx, "Failed to read cache", "key", key, "error", err)
	}
	b.metrics.CacheOps.WithLabelValues("get", "miss").Inc()

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	b.cacheSet(ctx, key, value, ttl)
	return value, nil
}

// cacheSet stores value as JSON under an already prefixed key.
func (b *Bot) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		b.metrics.CacheOps.WithLabelValues("set", "error").Inc()
		b.log.ErrorContext(ctx, "Failed to marshal value for caching", "key", key, "error", err)
		return
	}
	if err = b.redisClient.Set(ctx, key, payload, ttl).Err(); err != nil {
		b.metrics.CacheOps.WithLabelValues("set", "error").Inc()
		b.log.ErrorContext(ctx, "Failed to save value to cache", "key", key, "error", err)
		return
	}
	b.metrics.CacheOps.WithLabelValues("set", "success").Inc()
}

// invalidate drops cached entries after a write made them stale.
func (b *Bot) invalidate(ctx context.Context, keys ...string) {
	if b.redisClient == nil || len(keys) == 0 {
		return
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, cachePrefix+key)
	}
	if err := b.redisClient.Del(ctx, prefixed...).Err(); err != nil {
		b.log.WarnContext(ctx, "Failed to invalidate cache", "keys", prefixed, "error", err)
	}
}
