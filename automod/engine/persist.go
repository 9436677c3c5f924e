package engine

import (
	"fmt"
	"time"

	"github.com/bluesky-social/chatmod/automod/pendingstore"
	"github.com/bluesky-social/chatmod/automod/policy"
)

// Persists ledger changes implied by the chosen join action. Caller must hold the engine lock.
func (eng *Engine) persistJoinEffects(c *JoinContext) error {
	a := c.effects.Action
	if a == nil {
		return nil
	}
	switch a.Kind {
	case ActionPrompt:
		p := pendingstore.Pending{
			ChatID:   a.ChatID,
			UserID:   a.UserID,
			Deadline: a.Deadline,
		}
		if err := eng.Pending.Put(c.Ctx, p); err != nil {
			return fmt.Errorf("opening confirmation: %w", err)
		}
		eng.scheduleExpiryLocked(a.UserID, a.Deadline)
		confirmationCount.WithLabelValues("opened").Inc()
		c.Logger.Info("confirmation opened", "deadline", a.Deadline)
	}
	return nil
}

// Persists ledger changes implied by the chosen message action. Caller must hold the engine lock.
//
// Marks the action suppressed when it should not be delivered.
func (eng *Engine) persistMessageEffects(c *MessageContext) error {
	a := c.effects.Action
	if a == nil {
		return nil
	}
	switch a.Kind {
	case ActionConfirm:
		p, err := eng.Pending.Take(c.Ctx, c.UserID)
		if err != nil {
			return fmt.Errorf("resolving confirmation: %w", err)
		}
		if p == nil {
			// resolved elsewhere (eg, another process sharing the store)
			c.effects.Suppressed = true
			return nil
		}
		eng.cancelExpiryLocked(c.UserID)
		confirmationCount.WithLabelValues("confirmed").Inc()
	case ActionWarn:
		count, err := eng.Strikes.RecordStrike(c.Ctx, c.UserID, c.Time)
		if err != nil {
			return fmt.Errorf("recording strike: %w", err)
		}
		c.Logger.Info("strike recorded", "strikes", count)
		cooldown := eng.Policy.Duration(policy.RateLimitWarnS, time.Second)
		ok, err := eng.Rates.Allow(c.Ctx, rateKey(c.ChatID, c.UserID), cooldown, c.Time)
		if err != nil {
			return fmt.Errorf("checking warning rate limit: %w", err)
		}
		if !ok {
			c.effects.Suppressed = true
			warningsSuppressedCount.Inc()
		}
	}
	return nil
}
