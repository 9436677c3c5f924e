package engine

import (
	"time"
)

type ActionKind string

const (
	ActionConfirm  ActionKind = "confirm"
	ActionWarn     ActionKind = "warn"
	ActionRestrict ActionKind = "restrict"
	ActionPrompt   ActionKind = "prompt"
)

// A single enforcement or notification decision for one user in one chat.
type Action struct {
	Kind   ActionKind
	ChatID int64
	UserID int64
	Reason string
	// only for ActionRestrict; nil means permanent
	Until *time.Time
	// only for ActionPrompt
	Deadline time.Time
	Timeout  time.Duration
}

func (a Action) Permanent() bool {
	return a.Kind == ActionRestrict && a.Until == nil
}

// Mutable container for the outcome of rule execution on one event.
//
// At most one action is chosen per event: the first rule to pick one wins, and later rules are not called.
type Effects struct {
	Action *Action
	// Set when a rule stopped processing without an action
	HaltReason string
	// Result of the question lookback, if a rule ran it
	QuestionContext *bool
	// Set during persistence if the chosen action should not be delivered (eg, rate-limited warning, confirmation already resolved)
	Suppressed bool
}

func (e *Effects) setAction(a Action) {
	if e.Done() {
		return
	}
	e.Action = &a
}

func (e *Effects) halt(reason string) {
	if e.Done() {
		return
	}
	e.HaltReason = reason
}

func (e *Effects) Done() bool {
	return e.Action != nil || e.HaltReason != ""
}

func (e *Effects) actionKinds() []string {
	if e.Action == nil {
		return []string{}
	}
	return []string{string(e.Action.Kind)}
}
