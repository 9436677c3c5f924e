package setstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

var redisSetPrefix string = "set/"

type RedisSetStore struct {
	Client *redis.Client
}

var _ SetStore = (*RedisSetStore)(nil)

func NewRedisSetStore(redisURL string) (*RedisSetStore, error) {
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
	return &RedisSetStore{
		Client: rdb,
	}, nil
}

func (s *RedisSetStore) InSet(ctx context.Context, name, val string) (bool, error) {
	return s.Client.SIsMember(ctx, redisSetPrefix+name, val).Result()
}

func (s *RedisSetStore) Add(ctx context.Context, name, val string) error {
	return s.Client.SAdd(ctx, redisSetPrefix+name, val).Err()
}

func (s *RedisSetStore) Remove(ctx context.Context, name, val string) error {
	return s.Client.SRem(ctx, redisSetPrefix+name, val).Err()
}

func (s *RedisSetStore) Size(ctx context.Context, name string) (int, error) {
	n, err := s.Client.SCard(ctx, redisSetPrefix+name).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
