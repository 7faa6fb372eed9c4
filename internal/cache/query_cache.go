package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/observability"
)

// KeyPrefix namespaces every key written by the gateway.
const KeyPrefix = "promata"

const scanBatch = 200

// setIfGeneration writes KEYS[2] only when the counter in KEYS[1] still equals ARGV[1].
var setIfGeneration = redis.NewScript(`
if (redis.call("GET", KEYS[1]) or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// QueryCache stores normalized backend reads in Redis, keyed by resource and query.
// A nil client disables caching; every method then reports a miss.
type QueryCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewQueryCache wraps client. client may be nil.
func NewQueryCache(client *redis.Client, logger zerolog.Logger) *QueryCache {
	return &QueryCache{
		client: client,
		logger: logger.With().Str("component", "query_cache").Logger(),
	}
}

// Enabled reports whether a Redis client is configured.
func (c *QueryCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Key builds promata:<resource>:<hash> from the parts identifying a read.
func Key(resource string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return KeyPrefix + ":" + resource + ":" + hex.EncodeToString(hash[:12])
}

func generationKey(resource string) string {
	return KeyPrefix + ":generation:" + resource
}

// Get decodes the cached value for key into out. It reports whether a value was found.
func (c *QueryCache) Get(ctx context.Context, resource, key string, out any) bool {
	if !c.Enabled() {
		return false
	}

	cached, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to read cache")
			observability.CacheResults().WithLabelValues(resource, "error").Inc()
			return false
		}
		observability.CacheResults().WithLabelValues(resource, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(cached, out); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		observability.CacheResults().WithLabelValues(resource, "error").Inc()
		_ = c.client.Del(ctx, key).Err()
		return false
	}

	observability.CacheResults().WithLabelValues(resource, "hit").Inc()
	return true
}

// Generation returns the invalidation counter of resource. ok is false when the cache is
// disabled or the counter could not be read; callers must not write in that case.
func (c *QueryCache) Generation(ctx context.Context, resource string) (gen int64, ok bool) {
	if !c.Enabled() {
		return 0, false
	}
	gen, err := c.client.Get(ctx, generationKey(resource)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Str("resource", resource).Msg("failed to read cache generation")
		return 0, false
	}
	return gen, true
}

// Set stores value under key for ttl only while resource is still at generation gen, so a
// read that overlapped an Invalidate never writes back what it loaded before it. It reports
// whether the entry was stored. Failures are logged and swallowed.
func (c *QueryCache) Set(ctx context.Context, resource, key string, value any, ttl time.Duration, gen int64) bool {
	if !c.Enabled() || ttl <= 0 {
		return false
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return false
	}
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{generationKey(resource), key},
		strconv.FormatInt(gen, 10), payload, ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to store cache entry")
		return false
	}
	if stored == 0 {
		c.logger.Debug().Str("resource", resource).Int64("generation", gen).Msg("skipping stale cache entry")
	}
	return stored == 1
}

// Invalidate bumps the generation of resource, then drops every entry stored for it. It
// returns how many keys were removed.
func (c *QueryCache) Invalidate(ctx context.Context, resource string) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}

	if err := c.client.Incr(ctx, generationKey(resource)).Err(); err != nil {
		return 0, err
	}

	pattern := KeyPrefix + ":" + resource + ":*"
	removed := 0
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(deleted)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug().Str("resource", resource).Int("removed", removed).Msg("cache invalidated")
	return removed, nil
}
