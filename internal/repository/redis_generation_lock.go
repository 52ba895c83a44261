package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ GenerationLocker = (*redisGenerationLock)(nil)

// redisGenerationLock serializes generation per user: SETNX with a TTL so an
// orphaned lock (crashed worker) expires on its own.
type redisGenerationLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGenerationLock creates a Redis-backed GenerationLocker.
func NewRedisGenerationLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) GenerationLocker {
	return &redisGenerationLock{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisGenLock"),
	}
}

func generationLockKey(userID string) string {
	return fmt.Sprintf("generation_lock:%s", userID)
}

// Acquire attempts to take the per-user lock. Returns false without error when
// another generation for the same user is already in flight.
func (l *redisGenerationLock) Acquire(ctx context.Context, userID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, generationLockKey(userID), time.Now().Unix(), l.ttl).Result()
	if err != nil {
		l.logger.Error("Failed to acquire generation lock", zap.String("userID", userID), zap.Error(err))
		return false, fmt.Errorf("failed to acquire generation lock in redis: %w", err)
	}
	if !ok {
		l.logger.Warn("Generation already in progress for user", zap.String("userID", userID))
	}
	return ok, nil
}

// Release drops the lock. Best effort: on error the TTL still bounds the hold.
func (l *redisGenerationLock) Release(ctx context.Context, userID string) {
	if err := l.client.Del(ctx, generationLockKey(userID)).Err(); err != nil {
		l.logger.Warn("Failed to release generation lock", zap.String("userID", userID), zap.Error(err))
	}
}
