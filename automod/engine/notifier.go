package engine

import (
	"context"
)

// Interface for a type that can handle sending moderator notifications about completed actions
type Notifier interface {
	SendAction(ctx context.Context, a Action) error
}
