package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"fmt"           // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9"   // Redis client
	"github.com/sirupsen/logrus"     // Logging cache failures
	"golang.org/x/sync/singleflight" // Collapse concurrent misses
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// LedgerCache caches derived balances and history pages per user. Entries are
// keyed by a per-user generation that every committed mutation bumps, so a value
// loaded before a mutation can only ever land under a generation nobody reads.
type LedgerCache struct {
	rdb   *redis.Client      // Redis client, nil disables caching
	ttl   time.Duration      // Entry lifetime
	group singleflight.Group // One loader per key at a time
}

// NewLedgerCache creates a cache; a nil client turns every call into a pass-through
func NewLedgerCache(rdb *redis.Client, ttl time.Duration) *LedgerCache {
	return &LedgerCache{rdb: rdb, ttl: ttl}
}

// GenerationKey holds the user's cache generation. It has no TTL.
func GenerationKey(userID uint) string {
	return fmt.Sprintf("cachegen:user:%d", userID)
}

// BalanceKey is the cache key of a user's current balance in generation gen
func BalanceKey(userID uint, gen uint64) string {
	return fmt.Sprintf("balance:user:%d:gen:%d", userID, gen)
}

// HistoryKey is the hash holding every cached history page of a user in generation gen
func HistoryKey(userID uint, gen uint64) string {
	return fmt.Sprintf("txhistory:user:%d:gen:%d", userID, gen)
}

// generation reads the user's current generation. A missing key is generation 0;
// ok is false when Redis cannot answer, and the caller must not cache.
func (c *LedgerCache) generation(ctx context.Context, userID uint) (gen uint64, ok bool) {
	if c.rdb == nil {
		return 0, false
	}
	gen, err := c.rdb.Get(ctx, GenerationKey(userID)).Uint64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache generation read failed")
		return 0, false
	}
	return gen, true
}

// Balance returns the cached current balance of userID or loads, caches and returns
// it. The generation is read before loading, so a load that races a mutation is
// stored under the superseded generation. Concurrent misses share one load.
func (c *LedgerCache) Balance(ctx context.Context, userID uint, dest any, load func() (any, error)) (cached bool, err error) {
	gen, ok := c.generation(ctx, userID)
	if !ok {
		v, err := load()
		if err != nil {
			return false, err
		}
		return false, remarshal(v, dest)
	}
	key := BalanceKey(userID, gen)
	found, err := GetCache(ctx, c.rdb, key, dest)
	if err == nil && found {
		return true, nil
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		if err := SetCache(ctx, c.rdb, key, v, c.ttl); err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
		}
		return v, nil
	})
	if err != nil {
		return false, err
	}
	return false, remarshal(v, dest)
}

// History returns a cached history page for field or loads, caches and returns it,
// under the same generation rule as Balance
func (c *LedgerCache) History(ctx context.Context, userID uint, field string, dest any, load func() (any, error)) (cached bool, err error) {
	gen, ok := c.generation(ctx, userID)
	if !ok {
		v, err := load()
		if err != nil {
			return false, err
		}
		return false, remarshal(v, dest)
	}
	key := HistoryKey(userID, gen)
	val, err := c.rdb.HGet(ctx, key, field).Result()
	if err == nil && json.Unmarshal([]byte(val), dest) == nil {
		return true, nil
	}
	if err != nil && err != redis.Nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
	}
	v, err := load()
	if err != nil {
		return false, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, field, b)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
	}
	return false, json.Unmarshal(b, dest)
}

// Invalidate moves userID to a new generation and drops the entries of the old one
func (c *LedgerCache) Invalidate(ctx context.Context, userID uint) {
	if c.rdb == nil {
		return
	}
	gen, _ := c.generation(ctx, userID) // Old entries expire on their own if unknown
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, GenerationKey(userID))
	pipe.Del(ctx, BalanceKey(userID, gen), HistoryKey(userID, gen))
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}

// remarshal copies a loaded value into dest through JSON, the same path a cache hit takes
func remarshal(v, dest any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}
