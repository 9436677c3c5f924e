// Automod component suppressing repeated notifications to the same key within a cooldown.
package ratestore

import (
	"context"
	"time"
)

type RateStore interface {
	// Returns true and records 'at' if nothing was allowed for 'key' within 'cooldown' before 'at'. A zero cooldown always allows.
	Allow(ctx context.Context, key string, cooldown time.Duration, at time.Time) (bool, error)
}
