package pendingstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisPendingPrefix string = "pending/"
var redisPendingUsers string = "pending-users"

type RedisPendingStore struct {
	Client *redis.Client
	// kept past the deadline so a late timer still finds the record
	Grace time.Duration
}

var _ PendingStore = (*RedisPendingStore)(nil)

func NewRedisPendingStore(redisURL string) (*RedisPendingStore, error) {
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
	return &RedisPendingStore{
		Client: rdb,
		Grace:  time.Hour,
	}, nil
}

func redisPendingKey(userID int64) string {
	return fmt.Sprintf("%s%d", redisPendingPrefix, userID)
}

func (s *RedisPendingStore) Put(ctx context.Context, p Pending) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ttl := time.Until(p.Deadline) + s.Grace
	if ttl <= 0 {
		ttl = s.Grace
	}
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisPendingKey(p.UserID), b, ttl)
		pipe.SAdd(ctx, redisPendingUsers, p.UserID)
		return nil
	})
	return err
}

func decodePending(raw string) (*Pending, error) {
	var p Pending
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decoding pending confirmation: %w", err)
	}
	return &p, nil
}

func (s *RedisPendingStore) Get(ctx context.Context, userID int64) (*Pending, error) {
	raw, err := s.Client.Get(ctx, redisPendingKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return decodePending(raw)
}

func (s *RedisPendingStore) Take(ctx context.Context, userID int64) (*Pending, error) {
	var get *redis.StringCmd
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.GetDel(ctx, redisPendingKey(userID))
		pipe.SRem(ctx, redisPendingUsers, userID)
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, err
	}
	raw, err := get.Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return decodePending(raw)
}

// Counts the index set, which can include users whose record has expired without being taken.
func (s *RedisPendingStore) Count(ctx context.Context) (int, error) {
	n, err := s.Client.SCard(ctx, redisPendingUsers).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
