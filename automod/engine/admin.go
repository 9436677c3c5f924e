package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bluesky-social/chatmod/automod/policy"
)

var (
	ErrNotAuthorized  = errors.New("caller is not an admin")
	ErrUsage          = errors.New("usage")
	ErrUnknownCommand = errors.New("unknown command")
)

type AdminCommand struct {
	ChatID   int64    `json:"chat"`
	CallerID int64    `json:"caller"`
	Name     string   `json:"name"`
	Args     []string `json:"args"`
}

type adminCommandInfo struct {
	Name  string
	Usage string
	Help  string
}

var adminCommands = []adminCommandInfo{
	{"setadmin", "/setadmin <user_id>", "grant admin"},
	{"unsetadmin", "/unsetadmin <user_id>", "revoke admin"},
	{"whitelist", "/whitelist <user_id>", "exempt a user from enforcement"},
	{"unwhitelist", "/unwhitelist <user_id>", "remove an exemption"},
	{"unban", "/unban <user_id>", "lift a ban in this chat"},
	{"resetstrikes", "/resetstrikes <user_id>", "clear a user's strike history"},
	{"status", "/status", "ledger counts and policy"},
	{"getpolicy", "/getpolicy [key]", "show policy options"},
	{"setpolicy", "/setpolicy <key> <value>", "change a policy option"},
	{"help", "/help", "this message"},
}

func commandUsage(name string) string {
	for _, info := range adminCommands {
		if info.Name == name {
			return info.Usage
		}
	}
	return ""
}

// Splits chat text like "/setpolicy@modbot tempban_seconds 3600" into a command. Returns false if the text is not a command.
func ParseAdminCommand(chatID, callerID int64, text string) (AdminCommand, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return AdminCommand{}, false
	}
	return AdminCommand{
		ChatID:   chatID,
		CallerID: callerID,
		Name:     fields[0],
		Args:     fields[1:],
	}, true
}

// Strips a leading slash and any "@botname" suffix.
func normalizeCommandName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

func parseUserArg(name string, args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: %s", ErrUsage, commandUsage(name))
	}
	uid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || uid == 0 {
		return 0, fmt.Errorf("%w: %s (invalid user id %q)", ErrUsage, commandUsage(name), args[0])
	}
	return uid, nil
}

// Runs an admin command and returns the reply text. Only admins may run commands; misuse returns a wrapped sentinel error and changes nothing.
func (eng *Engine) ProcessAdminCommand(ctx context.Context, cmd AdminCommand) (string, error) {
	name := normalizeCommandName(cmd.Name)
	out, err := eng.processAdminCommand(ctx, name, cmd)
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, ErrNotAuthorized) {
			status = "unauthorized"
		}
		eng.Logger.Warn("admin command failed", "command", name, "caller", cmd.CallerID, "chat", cmd.ChatID, "err", err)
	} else {
		eng.Logger.Info("admin command", "command", name, "caller", cmd.CallerID, "chat", cmd.ChatID, "args", cmd.Args)
	}
	if commandUsage(name) == "" {
		name = "unknown"
	}
	adminCommandCount.WithLabelValues(name, status).Inc()
	return out, err
}

func (eng *Engine) processAdminCommand(ctx context.Context, name string, cmd AdminCommand) (string, error) {
	admin, err := eng.InSet(ctx, SetAdmins, cmd.CallerID)
	if err != nil {
		return "", err
	}
	if !admin {
		return "", ErrNotAuthorized
	}

	switch name {
	case "setadmin", "unsetadmin", "whitelist", "unwhitelist", "unban", "resetstrikes":
		uid, err := parseUserArg(name, cmd.Args)
		if err != nil {
			return "", err
		}
		var reply string
		switch name {
		case "setadmin":
			reply, err = fmt.Sprintf("Admin added: %d", uid), eng.SetAdmin(ctx, uid)
		case "unsetadmin":
			reply, err = fmt.Sprintf("Admin removed: %d", uid), eng.UnsetAdmin(ctx, uid)
		case "whitelist":
			reply, err = fmt.Sprintf("Whitelisted %d", uid), eng.Whitelist(ctx, uid)
		case "unwhitelist":
			reply, err = fmt.Sprintf("Removed %d from whitelist", uid), eng.Unwhitelist(ctx, uid)
		case "unban":
			reply, err = fmt.Sprintf("Unbanned %d", uid), eng.Unban(ctx, cmd.ChatID, uid)
		case "resetstrikes":
			reply, err = fmt.Sprintf("Strikes reset for %d", uid), eng.ResetStrikes(ctx, uid)
		}
		if err != nil {
			return "", err
		}
		return reply, nil
	case "status":
		st, err := eng.Status(ctx)
		if err != nil {
			return "", err
		}
		return st.String(), nil
	case "getpolicy":
		if len(cmd.Args) == 0 {
			return "Policy: " + eng.Policy.String(), nil
		}
		o, err := eng.Policy.Get(cmd.Args[0])
		if err != nil {
			return "", fmt.Errorf("%w (keys: %s)", err, strings.Join(eng.Policy.Names(), ", "))
		}
		return fmt.Sprintf("%s = %s", o.Name, o.Value()), nil
	case "setpolicy":
		if len(cmd.Args) < 2 {
			return "", fmt.Errorf("%w: %s", ErrUsage, commandUsage(name))
		}
		o, err := eng.SetPolicy(cmd.Args[0], strings.Join(cmd.Args[1:], " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Policy updated: %s = %s", o.Name, o.Value()), nil
	case "help":
		lines := []string{}
		for _, info := range adminCommands {
			lines = append(lines, fmt.Sprintf("%s: %s", info.Usage, info.Help))
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

func (eng *Engine) SetAdmin(ctx context.Context, userID int64) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.Sets.Add(ctx, SetAdmins, userKey(userID))
}

func (eng *Engine) UnsetAdmin(ctx context.Context, userID int64) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.Sets.Remove(ctx, SetAdmins, userKey(userID))
}

func (eng *Engine) Whitelist(ctx context.Context, userID int64) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.Sets.Add(ctx, SetWhitelist, userKey(userID))
}

func (eng *Engine) Unwhitelist(ctx context.Context, userID int64) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.Sets.Remove(ctx, SetWhitelist, userKey(userID))
}

// Lifts a restriction through the Enforcer, then forgets the ban. On failure the banned set is left alone.
func (eng *Engine) Unban(ctx context.Context, chatID, userID int64) error {
	if err := eng.Enforcer.Unrestrict(ctx, chatID, userID); err != nil {
		enforcementFailureCount.WithLabelValues("unrestrict").Inc()
		return fmt.Errorf("unban %d: %w", userID, err)
	}
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.Sets.Remove(ctx, SetBanned, userKey(userID))
}

func (eng *Engine) ResetStrikes(ctx context.Context, userID int64) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.Strikes.Reset(ctx, userID)
}

func (eng *Engine) SetPolicy(name, raw string) (policy.Option, error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.Policy.Set(name, raw)
}

type Status struct {
	Admins    int
	Whitelist int
	Banned    int
	Strikes   int
	Pending   int
	Chats     int
	Policy    string
}

func (s Status) String() string {
	return fmt.Sprintf("Admins: %d; Whitelist: %d; Banned: %d; Strikes: %d; PendingConfirm: %d; Chats: %d\nPolicy: %s",
		s.Admins, s.Whitelist, s.Banned, s.Strikes, s.Pending, s.Chats, s.Policy)
}

func (eng *Engine) Status(ctx context.Context) (Status, error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	var st Status
	var err error
	if st.Admins, err = eng.Sets.Size(ctx, SetAdmins); err != nil {
		return st, err
	}
	if st.Whitelist, err = eng.Sets.Size(ctx, SetWhitelist); err != nil {
		return st, err
	}
	if st.Banned, err = eng.Sets.Size(ctx, SetBanned); err != nil {
		return st, err
	}
	if st.Strikes, err = eng.Strikes.Count(ctx); err != nil {
		return st, err
	}
	if st.Pending, err = eng.Pending.Count(ctx); err != nil {
		return st, err
	}
	if st.Chats, err = eng.Contexts.Chats(ctx); err != nil {
		return st, err
	}
	st.Policy = eng.Policy.String()
	return st, nil
}
