package ratestore

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type MemRateStore struct {
	mu   sync.Mutex
	Data *expirable.LRU[string, time.Time]
}

var _ RateStore = (*MemRateStore)(nil)

// 'ttl' should be at least the longest cooldown in use; older entries are forgotten.
func NewMemRateStore(capacity int, ttl time.Duration) *MemRateStore {
	return &MemRateStore{
		Data: expirable.NewLRU[string, time.Time](capacity, nil, ttl),
	}
}

func (s *MemRateStore) Allow(ctx context.Context, key string, cooldown time.Duration, at time.Time) (bool, error) {
	if cooldown <= 0 {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.Data.Get(key)
	if ok && at.Sub(last) < cooldown {
		return false, nil
	}
	s.Data.Add(key, at)
	return true, nil
}
