package contextstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bluesky-social/chatmod/automod/classify"

	"github.com/redis/go-redis/v9"
)

var redisContextPrefix string = "context/"
var redisContextChats string = "context-chats"

// Stores each chat window as a redis list, newest entry at the head.
//
// Append is not atomic across processes; callers are expected to serialize writes for a single chat (the engine does).
type RedisContextStore struct {
	Client *redis.Client
	// windows for idle chats expire after this long
	TTL time.Duration
}

var _ ContextStore = (*RedisContextStore)(nil)

func NewRedisContextStore(redisURL string, ttl time.Duration) (*RedisContextStore, error) {
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
	return &RedisContextStore{
		Client: rdb,
		TTL:    ttl,
	}, nil
}

func redisContextKey(chatID int64) string {
	return fmt.Sprintf("%s%d", redisContextPrefix, chatID)
}

func (s *RedisContextStore) Append(ctx context.Context, chatID int64, e Entry, capacity int) (Entry, error) {
	if capacity < 1 {
		capacity = 1
	}
	key := redisContextKey(chatID)

	raw, err := s.Client.LIndex(ctx, key, 0).Bytes()
	if err != nil && err != redis.Nil {
		return e, err
	}
	if err == nil {
		var newest Entry
		if err := json.Unmarshal(raw, &newest); err != nil {
			return e, fmt.Errorf("decoding context entry: %w", err)
		}
		if e.Time.Before(newest.Time) {
			e.Time = newest.Time
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return e, err
	}

	// push, trim, and refresh expiry in a single round-trip
	multi := s.Client.TxPipeline()
	multi.LPush(ctx, key, b)
	multi.LTrim(ctx, key, 0, int64(capacity-1))
	if s.TTL > 0 {
		multi.Expire(ctx, key, s.TTL)
	}
	multi.SAdd(ctx, redisContextChats, chatID)
	_, err = multi.Exec(ctx)
	return e, err
}

func (s *RedisContextStore) newestFirst(ctx context.Context, chatID int64) ([]Entry, error) {
	vals, err := s.Client.LRange(ctx, redisContextKey(chatID), 0, -1).Result()
	if err == redis.Nil {
		return []Entry{}, nil
	} else if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(vals))
	for _, v := range vals {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("decoding context entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisContextStore) HasTagWithin(ctx context.Context, chatID int64, tag classify.Tag, since time.Time, excludeAuthor *int64) (bool, error) {
	entries, err := s.newestFirst(ctx, chatID)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Time.Before(since) {
			return false, nil
		}
		if excludeAuthor != nil && e.UserID == *excludeAuthor {
			continue
		}
		if e.Tags.Has(tag) {
			return true, nil
		}
	}
	return false, nil
}

func (s *RedisContextStore) Window(ctx context.Context, chatID int64) ([]Entry, error) {
	entries, err := s.newestFirst(ctx, chatID)
	if err != nil {
		return nil, err
	}
	// oldest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (s *RedisContextStore) Len(ctx context.Context, chatID int64) (int, error) {
	n, err := s.Client.LLen(ctx, redisContextKey(chatID)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *RedisContextStore) Chats(ctx context.Context) (int, error) {
	n, err := s.Client.SCard(ctx, redisContextChats).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
