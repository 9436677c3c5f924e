// Automod component tracking per-user offense history for graduated enforcement.
//
// Strikes never decay by counter reset; escalation is decided from the time of the most recent strike, see IsEscalated.
package strikestore

import (
	"context"
	"time"
)

type Record struct {
	Count        int       `json:"count"`
	LastStrikeAt time.Time `json:"lastStrikeAt"`
}

type StrikeStore interface {
	// Returns the zero Record for users with no strikes.
	Get(ctx context.Context, userID int64) (Record, error)
	// Increments the count and sets the last strike time together. Returns the new count.
	RecordStrike(ctx context.Context, userID int64, at time.Time) (int, error)
	// Clears all strikes for the user. Does not error if there were none.
	Reset(ctx context.Context, userID int64) error
	// Number of users with at least one strike.
	Count(ctx context.Context) (int, error)
}

// True if 'rec' holds at least one earlier strike inside 'window' of 'at'. Evaluated before the current offense is recorded, this means the current offense is at least the second within the window.
func IsEscalated(rec Record, window time.Duration, at time.Time) bool {
	if rec.Count < 1 || rec.LastStrikeAt.IsZero() {
		return false
	}
	return at.Sub(rec.LastStrikeAt) <= window
}

type Decision string

const (
	DecisionWarn    Decision = "warn"
	DecisionEnforce Decision = "enforce"
)

// Enforce when the user is escalated at 'at', otherwise Warn.
func EscalationDecision(rec Record, window time.Duration, at time.Time) Decision {
	if IsEscalated(rec, window, at) {
		return DecisionEnforce
	}
	return DecisionWarn
}
