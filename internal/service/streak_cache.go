package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreakCache caches a user's streak for one UTC day
type StreakCache interface {
	Get(ctx context.Context, userID string, day time.Time) (int, bool, error)
	Set(ctx context.Context, userID string, day time.Time, streak int) error
	Invalidate(ctx context.Context, userID string, day time.Time) error
}

// NopStreakCache never caches
type NopStreakCache struct{}

func (NopStreakCache) Get(context.Context, string, time.Time) (int, bool, error) { return 0, false, nil }
func (NopStreakCache) Set(context.Context, string, time.Time, int) error         { return nil }
func (NopStreakCache) Invalidate(context.Context, string, time.Time) error       { return nil }

// RedisStreakCache stores streaks under streak:<user>:<YYYY-MM-DD>,
// expiring at the next UTC midnight
type RedisStreakCache struct {
	rdb *redis.Client
}

// NewRedisStreakCache creates a Redis-backed streak cache
func NewRedisStreakCache(rdb *redis.Client) *RedisStreakCache {
	return &RedisStreakCache{rdb: rdb}
}

func streakKey(userID string, day time.Time) string {
	return fmt.Sprintf("streak:%s:%s", userID, DateKey(day))
}

func (c *RedisStreakCache) Get(ctx context.Context, userID string, day time.Time) (int, bool, error) {
	n, err := c.rdb.Get(ctx, streakKey(userID, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get streak: %w", err)
	}
	return n, true, nil
}

func (c *RedisStreakCache) Set(ctx context.Context, userID string, day time.Time, streak int) error {
	ttl := time.Until(DayStart(day).Add(24 * time.Hour))
	if ttl <= 0 {
		return nil
	}
	if err := c.rdb.Set(ctx, streakKey(userID, day), streak, ttl).Err(); err != nil {
		return fmt.Errorf("redis set streak: %w", err)
	}
	return nil
}

func (c *RedisStreakCache) Invalidate(ctx context.Context, userID string, day time.Time) error {
	if err := c.rdb.Del(ctx, streakKey(userID, day)).Err(); err != nil {
		return fmt.Errorf("redis delete streak: %w", err)
	}
	return nil
}
