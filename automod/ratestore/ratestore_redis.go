package ratestore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisRatePrefix string = "rate/"

// Uses key expiry for the cooldown, so 'at' only matters for the in-memory implementation.
type RedisRateStore struct {
	Client *redis.Client
}

var _ RateStore = (*RedisRateStore)(nil)

func NewRedisRateStore(redisURL string) (*RedisRateStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisRateStore{
		Client: rdb,
	}, nil
}

func (s *RedisRateStore) Allow(ctx context.Context, key string, cooldown time.Duration, at time.Time) (bool, error) {
	if cooldown <= 0 {
		return true, nil
	}
	return s.Client.SetNX(ctx, redisRatePrefix+key, at.UnixMilli(), cooldown).Result()
}
