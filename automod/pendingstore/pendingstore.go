// Automod component holding open identity confirmations, at most one per user.
//
// A confirmation is resolved exactly once: both the confirming message and the expiry timer go through Take, and only one of them gets the record back.
package pendingstore

import (
	"context"
	"time"
)

type Pending struct {
	ChatID   int64     `json:"chat"`
	UserID   int64     `json:"user"`
	Deadline time.Time `json:"deadline"`
}

// True if the confirmation can still be accepted at 'at'.
func (p Pending) Open(at time.Time) bool {
	return at.Before(p.Deadline)
}

type PendingStore interface {
	// Opens (or replaces) the pending confirmation for p.UserID.
	Put(ctx context.Context, p Pending) error
	// Returns nil if the user has nothing pending.
	Get(ctx context.Context, userID int64) (*Pending, error)
	// Atomically removes and returns the pending confirmation, or nil if there was none.
	Take(ctx context.Context, userID int64) (*Pending, error)
	// Number of open confirmations.
	Count(ctx context.Context) (int, error)
}
