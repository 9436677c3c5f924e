package pendingstore

import (
	"context"
	"sync"
)

type MemPendingStore struct {
	mu   sync.Mutex
	Data map[int64]Pending
}

var _ PendingStore = (*MemPendingStore)(nil)

func NewMemPendingStore() *MemPendingStore {
	return &MemPendingStore{
		Data: make(map[int64]Pending),
	}
}

func (s *MemPendingStore) Put(ctx context.Context, p Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Data[p.UserID] = p
	return nil
}

func (s *MemPendingStore) Get(ctx context.Context, userID int64) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Data[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemPendingStore) Take(ctx context.Context, userID int64) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Data[userID]
	if !ok {
		return nil, nil
	}
	delete(s.Data, userID)
	return &p, nil
}

func (s *MemPendingStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Data), nil
}
