package engine

import (
	"context"
	"log/slog"
)

// Carries out the chosen action against the chat platform. Called without the engine lock held.
func (eng *Engine) executeActions(ctx context.Context, c *BaseContext) {
	a := c.effects.Action
	if a == nil || c.effects.Suppressed {
		return
	}
	eng.executeAction(ctx, c.Logger, *a)
}

// Failures are logged and counted, and warn or restrict failures are reported in the chat. Nothing is retried.
func (eng *Engine) executeAction(ctx context.Context, logger *slog.Logger, a Action) {
	actionCount.WithLabelValues(string(a.Kind)).Inc()
	switch a.Kind {
	case ActionConfirm:
		eng.notify(ctx, logger, a.ChatID, ConfirmedText(a.UserID))
	case ActionPrompt:
		eng.notify(ctx, logger, a.ChatID, PromptText(a.UserID, a.Timeout))
	case ActionWarn:
		if err := eng.Enforcer.Warn(ctx, a.ChatID, a.UserID, a.Reason); err != nil {
			enforcementFailureCount.WithLabelValues(string(ActionWarn)).Inc()
			logger.Error("failed to warn user", "err", err)
			eng.notify(ctx, logger, a.ChatID, WarnFailedText(a.UserID, err))
		}
	case ActionRestrict:
		eng.restrict(ctx, logger, a)
	default:
		logger.Warn("unhandled action kind", "kind", a.Kind)
	}
}

func (eng *Engine) restrict(ctx context.Context, logger *slog.Logger, a Action) {
	if err := eng.Enforcer.Restrict(ctx, a.ChatID, a.UserID, a.Until, a.Reason); err != nil {
		enforcementFailureCount.WithLabelValues(string(ActionRestrict)).Inc()
		logger.Error("failed to restrict user", "err", err, "permanent", a.Permanent())
		eng.notify(ctx, logger, a.ChatID, RestrictFailedText(a.UserID, err))
		return
	}
	logger.Info("user restricted", "reason", a.Reason, "permanent", a.Permanent(), "until", a.Until)

	eng.mu.Lock()
	err := eng.Sets.Add(ctx, SetBanned, userKey(a.UserID))
	eng.mu.Unlock()
	if err != nil {
		logger.Error("failed to record ban", "err", err)
	}

	eng.notify(ctx, logger, a.ChatID, RestrictedText(a.UserID, a.Reason))
	if eng.Notifier != nil {
		if err := eng.Notifier.SendAction(ctx, a); err != nil {
			logger.Error("failed to deliver moderator notification", "err", err)
		}
	}
}

func (eng *Engine) notify(ctx context.Context, logger *slog.Logger, chatID int64, text string) {
	if err := eng.Enforcer.Notify(ctx, chatID, text); err != nil {
		enforcementFailureCount.WithLabelValues("notify").Inc()
		logger.Error("failed to send chat notice", "err", err)
	}
}
