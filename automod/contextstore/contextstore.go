// Automod component holding a bounded, time-ordered window of recent messages for each chat.
//
// Includes an interface and implementations using redis and in-process memory.
//
// The rules engine uses this to link an answer message to a preceding question within a time bound. Entries are never mutated; eviction of the oldest entry is the only removal path.
package contextstore

import (
	"context"
	"time"

	"github.com/bluesky-social/chatmod/automod/classify"
)

// Immutable record of a single message, retained only for matching.
type Entry struct {
	Time     time.Time       `json:"time"`
	UserID   int64           `json:"user"`
	Tags     classify.TagSet `json:"tags"`
	Text     string          `json:"text"`
	Mentions []string        `json:"mentions,omitempty"`
}

type ContextStore interface {
	// Appends an entry to the chat window, evicting the oldest entries beyond capacity. If the entry is older than the newest entry in the window, its timestamp is clamped so that the window stays ordered. Returns the entry as stored.
	Append(ctx context.Context, chatID int64, e Entry, capacity int) (Entry, error)
	// Scans from newest to oldest, stopping at the first entry older than 'since'. If 'excludeAuthor' is non-nil, entries by that user are skipped.
	HasTagWithin(ctx context.Context, chatID int64, tag classify.Tag, since time.Time, excludeAuthor *int64) (bool, error)
	// Entries currently held for the chat, oldest first.
	Window(ctx context.Context, chatID int64) ([]Entry, error)
	// Number of entries currently held for the chat.
	Len(ctx context.Context, chatID int64) (int, error)
	// Number of chats with a window.
	Chats(ctx context.Context) (int, error)
}
