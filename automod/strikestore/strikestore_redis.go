package strikestore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisStrikePrefix string = "strike/"
var redisStrikeUsers string = "strike-users"

// Each user is a redis hash with 'count' and 'last' (unix millis) fields.
type RedisStrikeStore struct {
	Client *redis.Client
}

var _ StrikeStore = (*RedisStrikeStore)(nil)

func NewRedisStrikeStore(redisURL string) (*RedisStrikeStore, error) {
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
	return &RedisStrikeStore{
		Client: rdb,
	}, nil
}

func redisStrikeKey(userID int64) string {
	return fmt.Sprintf("%s%d", redisStrikePrefix, userID)
}

func (s *RedisStrikeStore) Get(ctx context.Context, userID int64) (Record, error) {
	vals, err := s.Client.HGetAll(ctx, redisStrikeKey(userID)).Result()
	if err == redis.Nil {
		return Record{}, nil
	} else if err != nil {
		return Record{}, err
	}
	var rec Record
	if v, ok := vals["count"]; ok {
		c, err := strconv.Atoi(v)
		if err != nil {
			return Record{}, fmt.Errorf("parsing strike count: %w", err)
		}
		rec.Count = c
	}
	if v, ok := vals["last"]; ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("parsing strike time: %w", err)
		}
		rec.LastStrikeAt = time.UnixMilli(ms)
	}
	return rec, nil
}

func (s *RedisStrikeStore) RecordStrike(ctx context.Context, userID int64, at time.Time) (int, error) {
	key := redisStrikeKey(userID)

	// count and timestamp move together
	var incr *redis.IntCmd
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, "count", 1)
		pipe.HSet(ctx, key, "last", at.UnixMilli())
		pipe.SAdd(ctx, redisStrikeUsers, userID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *RedisStrikeStore) Reset(ctx context.Context, userID int64) error {
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisStrikeKey(userID))
		pipe.SRem(ctx, redisStrikeUsers, userID)
		return nil
	})
	return err
}

func (s *RedisStrikeStore) Count(ctx context.Context) (int, error) {
	n, err := s.Client.SCard(ctx, redisStrikeUsers).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
