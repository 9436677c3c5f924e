package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/bluesky-social/chatmod/automod/classify"
	"github.com/bluesky-social/chatmod/automod/pendingstore"
	"github.com/bluesky-social/chatmod/automod/policy"
	"github.com/bluesky-social/chatmod/automod/strikestore"
)

// The primary interface exposed to rules. All other contexts derive from this "base" struct.
//
// Rules run while the engine holds its ledger lock, so the ledger reads here are consistent with the effects that get persisted afterwards.
type BaseContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// Any errors encountered while processing methods on this struct (or sub-types) get rolled up in this nullable field
	Err error
	// slog logger handle, with event-specific structured fields pre-populated. Pointer, but expected to never be nil.
	Logger *slog.Logger

	ChatID int64
	UserID int64
	// Event time, after defaulting and clamping
	Time time.Time
	Tags classify.TagSet

	engine  *Engine // NOTE: pointer, but expected never to be nil
	effects *Effects
}

type JoinContext struct {
	BaseContext

	Join JoinEvent
}

type MessageContext struct {
	BaseContext

	Message  MessageEvent
	Mentions []string
}

func NewJoinContext(ctx context.Context, eng *Engine, evt JoinEvent) JoinContext {
	return JoinContext{
		BaseContext: BaseContext{
			Ctx:     ctx,
			Err:     nil,
			Logger:  eng.Logger.With("chat", evt.ChatID, "user", evt.UserID),
			ChatID:  evt.ChatID,
			UserID:  evt.UserID,
			Time:    evt.Time,
			Tags:    classify.Handle(evt.NameParts...),
			engine:  eng,
			effects: &Effects{},
		},
		Join: evt,
	}
}

func NewMessageContext(ctx context.Context, eng *Engine, evt MessageEvent) MessageContext {
	return MessageContext{
		BaseContext: BaseContext{
			Ctx:     ctx,
			Err:     nil,
			Logger:  eng.Logger.With("chat", evt.ChatID, "user", evt.UserID),
			ChatID:  evt.ChatID,
			UserID:  evt.UserID,
			Time:    evt.Time,
			Tags:    classify.Text(evt.Text),
			engine:  eng,
			effects: &Effects{},
		},
		Message:  evt,
		Mentions: classify.Mentions(evt.Text),
	}
}

func (c *BaseContext) setErr(err error) {
	if nil == c.Err {
		c.Err = err
	}
}

func (c *BaseContext) HasTag(t classify.Tag) bool {
	return c.Tags.Has(t)
}

func (c *BaseContext) InSet(name string, userID int64) bool {
	out, err := c.engine.InSet(c.Ctx, name, userID)
	if err != nil {
		c.setErr(err)
		return false
	}
	return out
}

// True if the acting user is an admin or whitelisted.
func (c *BaseContext) IsExempt() bool {
	out, err := c.engine.IsExempt(c.Ctx, c.UserID)
	if err != nil {
		c.setErr(err)
		return false
	}
	return out
}

func (c *BaseContext) PolicyBool(name string) bool {
	return c.engine.Policy.Bool(name)
}

func (c *BaseContext) PolicyInt(name string) int {
	return c.engine.Policy.Int(name)
}

func (c *BaseContext) PolicyDuration(name string, unit time.Duration) time.Duration {
	return c.engine.Policy.Duration(name, unit)
}

// The acting user's open confirmation, or nil.
func (c *BaseContext) PendingConfirmation() *pendingstore.Pending {
	p, err := c.engine.Pending.Get(c.Ctx, c.UserID)
	if err != nil {
		c.setErr(err)
		return nil
	}
	return p
}

func (c *BaseContext) StrikeRecord() strikestore.Record {
	rec, err := c.engine.Strikes.Get(c.Ctx, c.UserID)
	if err != nil {
		c.setErr(err)
		return strikestore.Record{}
	}
	return rec
}

// Whether the acting user's strike history calls for enforcement rather than a warning, over the strike_window_days window.
func (c *BaseContext) EscalationDecision() strikestore.Decision {
	window := c.PolicyDuration(policy.StrikeWindowDays, 24*time.Hour)
	return strikestore.EscalationDecision(c.StrikeRecord(), window, c.Time)
}

func (c *BaseContext) Escalated() bool {
	return c.EscalationDecision() == strikestore.DecisionEnforce
}

// Looks back through the chat window for a question within the link window. The result is recorded for logging and metrics.
func (c *MessageContext) QuestionContextFound() bool {
	since := c.Time.Add(-c.PolicyDuration(policy.ContextLinkWindowS, time.Second))
	found, err := c.engine.Contexts.HasTagWithin(c.Ctx, c.ChatID, classify.Question, since, nil)
	if err != nil {
		c.setErr(err)
		return false
	}
	c.effects.QuestionContext = &found
	if found {
		questionContextCount.WithLabelValues("found").Inc()
	} else {
		questionContextCount.WithLabelValues("missing").Inc()
	}
	return found
}

// Stops rule processing without any action.
func (c *BaseContext) Halt(reason string) {
	c.effects.halt(reason)
}

// True once an action has been chosen or processing was halted.
func (c *BaseContext) Done() bool {
	return c.effects.Done()
}

// Resolves the acting user's open confirmation as accepted.
func (c *BaseContext) ConfirmPending() {
	c.effects.setAction(Action{Kind: ActionConfirm, ChatID: c.ChatID, UserID: c.UserID})
}

func (c *BaseContext) Warn(reason string) {
	c.effects.setAction(Action{Kind: ActionWarn, ChatID: c.ChatID, UserID: c.UserID, Reason: reason})
}

// Removes the acting user from the chat until 'until', or permanently if nil.
func (c *BaseContext) Restrict(until *time.Time, reason string) {
	c.effects.setAction(Action{Kind: ActionRestrict, ChatID: c.ChatID, UserID: c.UserID, Until: until, Reason: reason})
}

func (c *BaseContext) TempRestrict(reason string) {
	until := c.Time.Add(c.PolicyDuration(policy.TempbanSeconds, time.Second))
	c.Restrict(&until, reason)
}

// Opens a confirmation for the joining user and prompts them in the chat.
func (c *JoinContext) PromptConfirmation() {
	timeout := c.PolicyDuration(policy.UsernameConfirmTimeoutS, time.Second)
	c.effects.setAction(Action{
		Kind:     ActionPrompt,
		ChatID:   c.ChatID,
		UserID:   c.UserID,
		Deadline: c.Time.Add(timeout),
		Timeout:  timeout,
	})
}

// Returns a pointer to the underlying automod engine. This usually should NOT be used in rules.
func (c *BaseContext) InternalEngine() *Engine {
	return c.engine
}

// The chosen action, if any. Intended for tests and logging.
func (c *BaseContext) Action() *Action {
	return c.effects.Action
}
