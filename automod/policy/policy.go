// Runtime-tunable moderation policy: a fixed set of named, typed options with defaults.
//
// Values can be changed at runtime from string input (admin commands); the set of option names and their types never change.
package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	AutobanOnAffirm         = "autoban_on_affirm_female"
	WarnThenBanPronouns     = "warn_then_ban_pronouns"
	UsernameHeuristics      = "username_heuristics"
	UsernameConfirmTimeoutS = "username_confirm_timeout_s"
	TempbanSeconds          = "tempban_seconds"
	StrikeWindowDays        = "strike_window_days"
	RateLimitWarnS          = "rate_limit_warn_s"
	ContextWindowMessages   = "context_window_messages"
	ContextLinkWindowS      = "context_link_window_s"
	RequireQuestionContext  = "require_question_context"
)

var (
	ErrUnknownOption = errors.New("unknown policy option")
	ErrInvalidValue  = errors.New("invalid policy value")
)

type Kind int

const (
	KindBool Kind = iota
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "unknown"
	}
}

type Option struct {
	Name string
	Kind Kind
	Bool bool
	Int  int
	// inclusive upper bound for integer options
	Max int
}

func (o Option) Value() string {
	if o.Kind == KindBool {
		return strconv.FormatBool(o.Bool)
	}
	return strconv.Itoa(o.Int)
}

// Option defaults, in display order.
func Defaults() []Option {
	return []Option{
		{Name: AutobanOnAffirm, Kind: KindBool, Bool: true},
		{Name: WarnThenBanPronouns, Kind: KindBool, Bool: true},
		{Name: UsernameHeuristics, Kind: KindBool, Bool: true},
		{Name: UsernameConfirmTimeoutS, Kind: KindInt, Int: 120, Max: 86400},
		{Name: TempbanSeconds, Kind: KindInt, Int: 86400, Max: 366 * 86400},
		{Name: StrikeWindowDays, Kind: KindInt, Int: 7, Max: 3650},
		{Name: RateLimitWarnS, Kind: KindInt, Int: 20, Max: 86400},
		{Name: ContextWindowMessages, Kind: KindInt, Int: 30, Max: 1000},
		{Name: ContextLinkWindowS, Kind: KindInt, Int: 180, Max: 86400},
		{Name: RequireQuestionContext, Kind: KindBool, Bool: false},
	}
}

// Upper bound of an integer option, or 0 for unknown and boolean options.
func Max(name string) int {
	for _, o := range Defaults() {
		if o.Name == name {
			return o.Max
		}
	}
	return 0
}

// Longest duration an integer option can hold, as a count of 'unit'.
func MaxDuration(name string, unit time.Duration) time.Duration {
	return time.Duration(Max(name)) * unit
}

// Concurrency-safe option table. The zero value is not usable; use NewTable.
type Table struct {
	mu    sync.RWMutex
	order []string
	opts  map[string]Option
}

func NewTable() *Table {
	t := &Table{
		opts: make(map[string]Option),
	}
	for _, o := range Defaults() {
		t.order = append(t.order, o.Name)
		t.opts[o.Name] = o
	}
	return t
}

func (t *Table) Names() []string {
	return append([]string{}, t.order...)
}

func (t *Table) Get(name string) (Option, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	o, ok := t.opts[name]
	if !ok {
		return Option{}, fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	return o, nil
}

// Returns false for unknown or non-boolean options.
func (t *Table) Bool(name string) bool {
	o, err := t.Get(name)
	if err != nil || o.Kind != KindBool {
		return false
	}
	return o.Bool
}

// Returns 0 for unknown or non-integer options.
func (t *Table) Int(name string) int {
	o, err := t.Get(name)
	if err != nil || o.Kind != KindInt {
		return 0
	}
	return o.Int
}

// Integer option interpreted as a count of 'unit'.
func (t *Table) Duration(name string, unit time.Duration) time.Duration {
	return time.Duration(t.Int(name)) * unit
}

// Parses 'raw' according to the option's type and stores it. On error nothing is changed.
func (t *Table) Set(name, raw string) (Option, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.opts[name]
	if !ok {
		return Option{}, fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	raw = strings.TrimSpace(raw)
	switch o.Kind {
	case KindBool:
		b, err := ParseBool(raw)
		if err != nil {
			return Option{}, fmt.Errorf("%s: %w", name, err)
		}
		o.Bool = b
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Option{}, fmt.Errorf("%w: %s expects a non-negative integer, got %q", ErrInvalidValue, name, raw)
		}
		if n > o.Max {
			return Option{}, fmt.Errorf("%w: %s must be at most %d, got %d", ErrInvalidValue, name, o.Max, n)
		}
		o.Int = n
	}
	t.opts[name] = o
	return o, nil
}

// Copy of all options, in display order.
func (t *Table) Snapshot() []Option {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Option, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.opts[name])
	}
	return out
}

func (t *Table) String() string {
	parts := []string{}
	for _, o := range t.Snapshot() {
		parts = append(parts, o.Name+"="+o.Value())
	}
	return strings.Join(parts, " ")
}

// Accepts 1/true/yes/on and 0/false/no/off, case-insensitive.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected a boolean, got %q", ErrInvalidValue, raw)
}
