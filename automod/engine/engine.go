package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bluesky-social/chatmod/automod/contextstore"
	"github.com/bluesky-social/chatmod/automod/pendingstore"
	"github.com/bluesky-social/chatmod/automod/policy"
	"github.com/bluesky-social/chatmod/automod/ratestore"
	"github.com/bluesky-social/chatmod/automod/setstore"
	"github.com/bluesky-social/chatmod/automod/strikestore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("automod")

// Names of the role sets in the engine's SetStore. Members are decimal user IDs.
const (
	SetAdmins    = "admins"
	SetWhitelist = "whitelist"
	SetBanned    = "banned"
)

// runtime for executing rules, managing ledger state, and carrying out moderation actions.
//
// All ledger reads and writes made while deciding on a single event happen under one lock, which is released before any Enforcer or Notifier I/O.
//
// TODO: careful when initializing: several fields should not be null or zero, even though they are pointer type. Use NewEngine.
type Engine struct {
	Logger    *slog.Logger
	Rules     RuleSet
	Policy    *policy.Table
	Contexts  contextstore.ContextStore
	Strikes   strikestore.StrikeStore
	Pending   pendingstore.PendingStore
	Sets      setstore.SetStore
	Rates     ratestore.RateStore
	Enforcer  Enforcer
	Scheduler Scheduler
	// optional; notified of completed enforcement actions
	Notifier Notifier
	// wall clock; overridden in tests
	Clock func() time.Time

	mu     sync.Mutex
	timers map[int64]scheduledExpiry
}

type scheduledExpiry struct {
	timer    Timer
	deadline time.Time
}

type EngineConfig struct {
	Logger    *slog.Logger
	Rules     RuleSet
	Policy    *policy.Table
	Contexts  contextstore.ContextStore
	Strikes   strikestore.StrikeStore
	Pending   pendingstore.PendingStore
	Sets      setstore.SetStore
	Rates     ratestore.RateStore
	Enforcer  Enforcer
	Scheduler Scheduler
	Notifier  Notifier
	Clock     func() time.Time
}

// Fills in in-memory stores and defaults for any nil field, except Enforcer which is required.
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.Enforcer == nil {
		return nil, fmt.Errorf("engine requires an enforcer")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Policy == nil {
		config.Policy = policy.NewTable()
	}
	if config.Contexts == nil {
		config.Contexts = contextstore.NewMemContextStore()
	}
	if config.Strikes == nil {
		config.Strikes = strikestore.NewMemStrikeStore()
	}
	if config.Pending == nil {
		config.Pending = pendingstore.NewMemPendingStore()
	}
	if config.Sets == nil {
		config.Sets = setstore.NewMemSetStore()
	}
	if config.Rates == nil {
		config.Rates = ratestore.NewMemRateStore(100_000, policy.MaxDuration(policy.RateLimitWarnS, time.Second))
	}
	if config.Scheduler == nil {
		config.Scheduler = RealScheduler{}
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Engine{
		Logger:    config.Logger,
		Rules:     config.Rules,
		Policy:    config.Policy,
		Contexts:  config.Contexts,
		Strikes:   config.Strikes,
		Pending:   config.Pending,
		Sets:      config.Sets,
		Rates:     config.Rates,
		Enforcer:  config.Enforcer,
		Scheduler: config.Scheduler,
		Notifier:  config.Notifier,
		Clock:     config.Clock,
		timers:    make(map[int64]scheduledExpiry),
	}, nil
}

func (eng *Engine) now() time.Time {
	if eng.Clock == nil {
		return time.Now()
	}
	return eng.Clock()
}

// A member joined a chat. NameParts are the username and display name parts, any of which may be empty.
type JoinEvent struct {
	ChatID    int64     `json:"chat"`
	UserID    int64     `json:"user"`
	NameParts []string  `json:"nameParts"`
	Time      time.Time `json:"time"`
}

type MessageEvent struct {
	ChatID int64     `json:"chat"`
	UserID int64     `json:"user"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

func (eng *Engine) ProcessJoin(ctx context.Context, evt JoinEvent) (err error) {
	eventProcessCount.WithLabelValues("join").Inc()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("join").Observe(time.Since(start).Seconds())
		if err != nil {
			eventErrorCount.WithLabelValues("join").Inc()
		}
	}()
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod event execution exception", "err", r, "chat", evt.ChatID, "user", evt.UserID, "type", "join")
			eventErrorCount.WithLabelValues("join").Inc()
		}
	}()

	if evt.ChatID == 0 || evt.UserID == 0 {
		eng.Logger.Debug("ignoring join event without chat or user", "chat", evt.ChatID, "user", evt.UserID)
		return nil
	}
	if evt.Time.IsZero() {
		evt.Time = eng.now()
	}

	ctx, span := tracer.Start(ctx, "ProcessJoin")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat", evt.ChatID), attribute.Int64("user", evt.UserID))

	c, err := eng.decideJoin(ctx, evt)
	if err != nil {
		return err
	}

	eng.CanonicalLogLineJoin(c)
	eng.executeActions(ctx, &c.BaseContext)
	return nil
}

func (eng *Engine) ProcessMessage(ctx context.Context, evt MessageEvent) (err error) {
	eventProcessCount.WithLabelValues("message").Inc()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("message").Observe(time.Since(start).Seconds())
		if err != nil {
			eventErrorCount.WithLabelValues("message").Inc()
		}
	}()
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod event execution exception", "err", r, "chat", evt.ChatID, "user", evt.UserID, "type", "message")
			eventErrorCount.WithLabelValues("message").Inc()
		}
	}()

	if evt.ChatID == 0 || evt.UserID == 0 || strings.TrimSpace(evt.Text) == "" {
		eng.Logger.Debug("ignoring message event without chat, user, or text", "chat", evt.ChatID, "user", evt.UserID)
		return nil
	}
	if evt.Time.IsZero() {
		evt.Time = eng.now()
	}

	ctx, span := tracer.Start(ctx, "ProcessMessage")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat", evt.ChatID), attribute.Int64("user", evt.UserID))

	c, err := eng.decideMessage(ctx, evt)
	if err != nil {
		return err
	}

	eng.CanonicalLogLineMessage(c)
	eng.executeActions(ctx, &c.BaseContext)
	return nil
}

// Runs join rules and persists ledger changes, all under the engine lock.
func (eng *Engine) decideJoin(ctx context.Context, evt JoinEvent) (*JoinContext, error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	c := NewJoinContext(ctx, eng, evt)
	if err := eng.Rules.CallJoinRules(&c); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}
	if err := eng.persistJoinEffects(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Appends the message to its chat window, then runs message rules and persists ledger changes, all under the engine lock.
func (eng *Engine) decideMessage(ctx context.Context, evt MessageEvent) (*MessageContext, error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	c, err := eng.appendMessage(ctx, evt)
	if err != nil {
		return nil, err
	}
	if err := eng.Rules.CallMessageRules(c); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}
	if err := eng.persistMessageEffects(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Appends the message to its chat window before any rule sees it. Caller must hold the engine lock.
func (eng *Engine) appendMessage(ctx context.Context, evt MessageEvent) (*MessageContext, error) {
	c := NewMessageContext(ctx, eng, evt)
	entry := contextstore.Entry{
		Time:     evt.Time,
		UserID:   evt.UserID,
		Tags:     c.Tags,
		Text:     evt.Text,
		Mentions: c.Mentions,
	}
	stored, err := eng.Contexts.Append(ctx, evt.ChatID, entry, eng.Policy.Int(policy.ContextWindowMessages))
	if err != nil {
		return nil, fmt.Errorf("appending to chat context: %w", err)
	}
	// later lookbacks compare against the clamped timestamp
	c.Time = stored.Time
	c.Message.Time = stored.Time
	return &c, nil
}

// checks if `val` is an element of set `name`
func (eng *Engine) InSet(ctx context.Context, name string, userID int64) (bool, error) {
	return eng.Sets.InSet(ctx, name, userKey(userID))
}

// Admins and whitelisted users are never enforced against.
func (eng *Engine) IsExempt(ctx context.Context, userID int64) (bool, error) {
	admin, err := eng.InSet(ctx, SetAdmins, userID)
	if err != nil || admin {
		return admin, err
	}
	return eng.InSet(ctx, SetWhitelist, userID)
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func rateKey(chatID, userID int64) string {
	return fmt.Sprintf("%d/%d", chatID, userID)
}

func (eng *Engine) CanonicalLogLineJoin(c *JoinContext) {
	c.Logger.Info("canonical-event-line",
		"type", "join",
		"tags", c.Tags.String(),
		"actions", c.effects.actionKinds(),
		"halted", c.effects.HaltReason,
	)
}

func (eng *Engine) CanonicalLogLineMessage(c *MessageContext) {
	c.Logger.Info("canonical-event-line",
		"type", "message",
		"tags", c.Tags.String(),
		"mentions", len(c.Mentions),
		"questionContext", c.effects.QuestionContext,
		"actions", c.effects.actionKinds(),
		"suppressed", c.effects.Suppressed,
		"halted", c.effects.HaltReason,
	)
}
