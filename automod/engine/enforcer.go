package engine

import (
	"context"
	"fmt"
	"time"
)

// Outbound boundary to the chat platform. Implementations do I/O and may fail; the engine never retries.
type Enforcer interface {
	// Posts a visible notice in the chat.
	Notify(ctx context.Context, chatID int64, text string) error
	// Delivers a warning to the user, see WarnText.
	Warn(ctx context.Context, chatID, userID int64, reason string) error
	// Removes the user from the chat until 'until', or permanently if nil.
	Restrict(ctx context.Context, chatID, userID int64, until *time.Time, reason string) error
	Unrestrict(ctx context.Context, chatID, userID int64) error
}

func WarnText(userID int64, reason string) string {
	return fmt.Sprintf("Warning to user %d: %s. Repeat may lead to ban.", userID, reason)
}

func RestrictedText(userID int64, reason string) string {
	msg := fmt.Sprintf("User %d banned.", userID)
	if reason != "" {
		msg += " Reason: " + reason
	}
	return msg
}

func RestrictFailedText(userID int64, err error) string {
	return fmt.Sprintf("Failed to ban %d: %v", userID, err)
}

func WarnFailedText(userID int64, err error) string {
	return fmt.Sprintf("Failed to warn %d: %v", userID, err)
}

func PromptText(userID int64, timeout time.Duration) string {
	return fmt.Sprintf("User %d, your username suggests female identity. Please confirm within %ds by sending: I am not female", userID, int(timeout.Seconds()))
}

func ConfirmedText(userID int64) string {
	return fmt.Sprintf("Confirmation accepted for user %d.", userID)
}
