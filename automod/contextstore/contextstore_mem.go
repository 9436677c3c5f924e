package contextstore

import (
	"context"
	"sync"
	"time"

	"github.com/bluesky-social/chatmod/automod/classify"

	"github.com/puzpuzpuz/xsync/v3"
)

// Bounded ring of entries for a single chat. Storage grows as entries arrive, up to capacity; once full the oldest entry is overwritten.
type ring struct {
	mu       sync.Mutex
	entries  []Entry
	head     int // index of the oldest entry
	capacity int
}

// Changes the capacity, keeping the newest entries. Caller must hold the lock.
func (r *ring) resize(capacity int) {
	keep := len(r.entries)
	if keep > capacity {
		keep = capacity
	}
	out := make([]Entry, 0, keep)
	for i := len(r.entries) - keep; i < len(r.entries); i++ {
		out = append(out, r.at(i))
	}
	r.entries = out
	r.head = 0
	r.capacity = capacity
}

// i-th entry counting from the oldest. Caller must hold the lock.
func (r *ring) at(i int) Entry {
	return r.entries[(r.head+i)%len(r.entries)]
}

func (r *ring) push(e Entry) {
	if len(r.entries) < r.capacity {
		// only a grown ring can have a non-zero head while not full
		if r.head != 0 {
			r.resize(r.capacity)
		}
		r.entries = append(r.entries, e)
		return
	}
	// full: overwrite oldest
	r.entries[r.head] = e
	r.head = (r.head + 1) % len(r.entries)
}

type MemContextStore struct {
	Windows *xsync.MapOf[int64, *ring]
}

var _ ContextStore = (*MemContextStore)(nil)

func NewMemContextStore() MemContextStore {
	return MemContextStore{
		Windows: xsync.NewMapOf[int64, *ring](),
	}
}

func (s MemContextStore) Append(ctx context.Context, chatID int64, e Entry, capacity int) (Entry, error) {
	if capacity < 1 {
		capacity = 1
	}
	r, _ := s.Windows.LoadOrCompute(chatID, func() *ring {
		return &ring{capacity: capacity}
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capacity != capacity {
		r.resize(capacity)
	}
	if len(r.entries) > 0 {
		newest := r.at(len(r.entries) - 1)
		if e.Time.Before(newest.Time) {
			e.Time = newest.Time
		}
	}
	r.push(e)
	return e, nil
}

func (s MemContextStore) HasTagWithin(ctx context.Context, chatID int64, tag classify.Tag, since time.Time, excludeAuthor *int64) (bool, error) {
	r, ok := s.Windows.Load(chatID)
	if !ok {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.at(i)
		if e.Time.Before(since) {
			break
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

func (s MemContextStore) Window(ctx context.Context, chatID int64) ([]Entry, error) {
	out := []Entry{}
	r, ok := s.Windows.Load(chatID)
	if !ok {
		return out, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < len(r.entries); i++ {
		out = append(out, r.at(i))
	}
	return out, nil
}

func (s MemContextStore) Len(ctx context.Context, chatID int64) (int, error) {
	r, ok := s.Windows.Load(chatID)
	if !ok {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries), nil
}

func (s MemContextStore) Chats(ctx context.Context) (int, error) {
	return s.Windows.Size(), nil
}
