package strikestore

import (
	"context"
	"sync"
	"time"
)

type MemStrikeStore struct {
	mu      sync.Mutex
	Records map[int64]Record
}

var _ StrikeStore = (*MemStrikeStore)(nil)

func NewMemStrikeStore() *MemStrikeStore {
	return &MemStrikeStore{
		Records: make(map[int64]Record),
	}
}

func (s *MemStrikeStore) Get(ctx context.Context, userID int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Records[userID], nil
}

func (s *MemStrikeStore) RecordStrike(ctx context.Context, userID int64, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.Records[userID]
	rec.Count++
	rec.LastStrikeAt = at
	s.Records[userID] = rec
	return rec.Count, nil
}

func (s *MemStrikeStore) Reset(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Records, userID)
	return nil
}

func (s *MemStrikeStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Records), nil
}
