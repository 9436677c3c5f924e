// Automod component for named sets of user identifiers, such as the admin, whitelist and banned role sets.
package setstore

import (
	"context"
)

type SetStore interface {
	InSet(ctx context.Context, name, val string) (bool, error)
	// Adds a value to the named set, creating the set if needed.
	Add(ctx context.Context, name, val string) error
	// Does not error if the value is not in the set.
	Remove(ctx context.Context, name, val string) error
	Size(ctx context.Context, name string) (int, error)
}
