package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/bluesky-social/chatmod/automod/policy"
)

type Timer interface {
	// Returns false if the timer already fired or was stopped.
	Stop() bool
}

// Runs a function after a delay. Abstracted so tests can fire timers by hand.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

const ReasonNoConfirmation = "No confirmation after join"

// Schedules expiry of the user's confirmation, replacing any earlier timer. Caller must hold the engine lock.
func (eng *Engine) scheduleExpiryLocked(userID int64, deadline time.Time) {
	eng.cancelExpiryLocked(userID)
	if eng.timers == nil {
		eng.timers = make(map[int64]scheduledExpiry)
	}
	d := deadline.Sub(eng.now())
	if d < 0 {
		d = 0
	}
	t := eng.Scheduler.AfterFunc(d, func() {
		if err := eng.ExpireConfirmation(context.Background(), userID); err != nil {
			eng.Logger.Error("confirmation expiry failed", "user", userID, "err", err)
		}
	})
	eng.timers[userID] = scheduledExpiry{timer: t, deadline: deadline}
}

// Caller must hold the engine lock.
func (eng *Engine) cancelExpiryLocked(userID int64) {
	se, ok := eng.timers[userID]
	if !ok {
		return
	}
	se.timer.Stop()
	delete(eng.timers, userID)
}

// Called when a confirmation timer fires. Resolves the user's confirmation as expired if it is still open and its deadline has passed; otherwise does nothing.
//
// Safe to call any number of times, concurrently with message processing: only one caller can take the record.
func (eng *Engine) ExpireConfirmation(ctx context.Context, userID int64) error {
	a, err := eng.takeExpired(ctx, userID)
	if err != nil {
		return err
	}
	if a == nil {
		return nil
	}
	logger := eng.Logger.With("chat", a.ChatID, "user", a.UserID)
	logger.Info("confirmation expired")
	eng.executeAction(ctx, logger, *a)
	return nil
}

func (eng *Engine) takeExpired(ctx context.Context, userID int64) (*Action, error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	now := eng.now()
	p, err := eng.Pending.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reading confirmation: %w", err)
	}
	if p == nil || p.Open(now) {
		return nil, nil
	}
	taken, err := eng.Pending.Take(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving confirmation: %w", err)
	}
	if taken == nil {
		return nil, nil
	}
	if se, ok := eng.timers[userID]; ok && se.deadline.Equal(taken.Deadline) {
		delete(eng.timers, userID)
	}
	confirmationCount.WithLabelValues("expired").Inc()

	// whitelisted while pending
	exempt, err := eng.IsExempt(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exempt {
		return nil, nil
	}
	until := now.Add(eng.Policy.Duration(policy.TempbanSeconds, time.Second))
	return &Action{
		Kind:   ActionRestrict,
		ChatID: taken.ChatID,
		UserID: taken.UserID,
		Until:  &until,
		Reason: ReasonNoConfirmation,
	}, nil
}
