package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bluesky-social/chatmod/automod/classify"
	"github.com/bluesky-social/chatmod/automod/contextstore"
	"github.com/bluesky-social/chatmod/automod/pendingstore"
	"github.com/bluesky-social/chatmod/automod/policy"
	"github.com/bluesky-social/chatmod/automod/ratestore"
	"github.com/bluesky-social/chatmod/automod/setstore"
	"github.com/bluesky-social/chatmod/automod/strikestore"
)

var _ JoinRuleFunc = simpleJoinRule
var _ MessageRuleFunc = simpleMessageRule

func simpleJoinRule(c *JoinContext) error {
	if c.HasTag(classify.HandleSignal) {
		c.PromptConfirmation()
	}
	return nil
}

func simpleMessageRule(c *MessageContext) error {
	if c.HasTag(classify.Negation) {
		if p := c.PendingConfirmation(); p != nil && p.Open(c.Time) {
			c.ConfirmPending()
			return nil
		}
	}
	if c.HasTag(classify.IdentityPronoun) {
		if c.Escalated() {
			c.TempRestrict("pronoun")
		} else {
			c.Warn("pronoun")
		}
	}
	return nil
}

// Admin user present in every test fixture engine.
const TestAdminID int64 = 1

// Test helper returning an engine with in-memory stores, a recording enforcer, a manual scheduler, and a controllable clock. Intentionally exported, for use in other packages.
//
// The rule set is a minimal one; tests in other packages usually replace it.
func EngineTestFixture() *Engine {
	rules := RuleSet{
		JoinRules:    []JoinRuleFunc{simpleJoinRule},
		MessageRules: []MessageRuleFunc{simpleMessageRule},
	}
	sets := setstore.NewMemSetStore()
	sets.Sets[SetAdmins] = map[string]bool{userKey(TestAdminID): true}
	clock := NewTestClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	eng := &Engine{
		Logger:    slog.Default(),
		Rules:     rules,
		Policy:    policy.NewTable(),
		Contexts:  contextstore.NewMemContextStore(),
		Strikes:   strikestore.NewMemStrikeStore(),
		Pending:   pendingstore.NewMemPendingStore(),
		Sets:      sets,
		Rates:     ratestore.NewMemRateStore(1000, policy.MaxDuration(policy.RateLimitWarnS, time.Second)),
		Enforcer:  &RecordingEnforcer{},
		Scheduler: &ManualScheduler{},
		Clock:     clock.Now,
		timers:    make(map[int64]scheduledExpiry),
	}
	return eng
}

// Helpers to reach the fixture's fakes without type assertions in every test.
func (eng *Engine) TestEnforcer() *RecordingEnforcer {
	return eng.Enforcer.(*RecordingEnforcer)
}

func (eng *Engine) TestScheduler() *ManualScheduler {
	return eng.Scheduler.(*ManualScheduler)
}

type EnforcerCall struct {
	Method string
	ChatID int64
	UserID int64
	Text   string
	Until  *time.Time
}

// Enforcer which records every call. Set the Fail* fields to make calls return errors.
type RecordingEnforcer struct {
	mu    sync.Mutex
	Calls []EnforcerCall

	FailWarn       error
	FailRestrict   error
	FailUnrestrict error
}

var _ Enforcer = (*RecordingEnforcer)(nil)

func (e *RecordingEnforcer) record(call EnforcerCall) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = append(e.Calls, call)
}

func (e *RecordingEnforcer) Notify(ctx context.Context, chatID int64, text string) error {
	e.record(EnforcerCall{Method: "notify", ChatID: chatID, Text: text})
	return nil
}

func (e *RecordingEnforcer) Warn(ctx context.Context, chatID, userID int64, reason string) error {
	if e.FailWarn != nil {
		return e.FailWarn
	}
	e.record(EnforcerCall{Method: "warn", ChatID: chatID, UserID: userID, Text: WarnText(userID, reason)})
	return nil
}

func (e *RecordingEnforcer) Restrict(ctx context.Context, chatID, userID int64, until *time.Time, reason string) error {
	if e.FailRestrict != nil {
		return e.FailRestrict
	}
	e.record(EnforcerCall{Method: "restrict", ChatID: chatID, UserID: userID, Text: reason, Until: until})
	return nil
}

func (e *RecordingEnforcer) Unrestrict(ctx context.Context, chatID, userID int64) error {
	if e.FailUnrestrict != nil {
		return e.FailUnrestrict
	}
	e.record(EnforcerCall{Method: "unrestrict", ChatID: chatID, UserID: userID})
	return nil
}

// Calls with the given method, in order.
func (e *RecordingEnforcer) CallsTo(method string) []EnforcerCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := []EnforcerCall{}
	for _, c := range e.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (e *RecordingEnforcer) Notices() []string {
	out := []string{}
	for _, c := range e.CallsTo("notify") {
		out = append(out, c.Text)
	}
	return out
}

func (e *RecordingEnforcer) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = nil
}

// Scheduler which never fires on its own; tests fire timers explicitly.
type ManualScheduler struct {
	mu     sync.Mutex
	Timers []*ManualTimer
}

var _ Scheduler = (*ManualScheduler)(nil)

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &ManualTimer{Delay: d, f: f}
	s.Timers = append(s.Timers, t)
	return t
}

// Timers which have neither fired nor been stopped.
func (s *ManualScheduler) Active() []*ManualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*ManualTimer{}
	for _, t := range s.Timers {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out
}

// Fires every active timer, in scheduling order.
func (s *ManualScheduler) FireAll() {
	for _, t := range s.Active() {
		t.Fire()
	}
}

type ManualTimer struct {
	Delay time.Duration

	mu      sync.Mutex
	f       func()
	stopped bool
	fired   bool
}

func (t *ManualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (t *ManualTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped && !t.fired
}

// Runs the callback unless the timer was stopped or already fired. The callback runs without the timer lock held.
func (t *ManualTimer) Fire() bool {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	f := t.f
	t.mu.Unlock()
	f()
	return true
}

// Concurrency-safe fake clock.
type TestClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewTestClock(start time.Time) *TestClock {
	return &TestClock{now: start}
}

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *TestClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Replaces the engine clock with a new TestClock starting at the current engine time, and returns it.
func (eng *Engine) UseTestClock() *TestClock {
	clock := NewTestClock(eng.now())
	eng.Clock = clock.Now
	return clock
}

func (e EnforcerCall) String() string {
	return fmt.Sprintf("%s(chat=%d user=%d %q)", e.Method, e.ChatID, e.UserID, e.Text)
}
