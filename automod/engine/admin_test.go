package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bluesky-social/chatmod/automod/policy"

	"github.com/stretchr/testify/assert"
)

func adminCmd(text string) AdminCommand {
	cmd, _ := ParseAdminCommand(testChat, TestAdminID, text)
	return cmd
}

func TestParseAdminCommand(t *testing.T) {
	assert := assert.New(t)

	cmd, ok := ParseAdminCommand(1, 2, "/setpolicy@modbot tempban_seconds  3600")
	assert.True(ok)
	assert.Equal("/setpolicy@modbot", cmd.Name)
	assert.Equal([]string{"tempban_seconds", "3600"}, cmd.Args)
	assert.Equal("setpolicy", normalizeCommandName(cmd.Name))

	_, ok = ParseAdminCommand(1, 2, "hello /status")
	assert.False(ok)
	_, ok = ParseAdminCommand(1, 2, "")
	assert.False(ok)
}

func TestAdminAuthorization(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := EngineTestFixture()

	_, err := eng.ProcessAdminCommand(ctx, AdminCommand{ChatID: testChat, CallerID: testUser, Name: "whitelist", Args: []string{"5"}})
	assert.ErrorIs(err, ErrNotAuthorized)
	ok, err := eng.InSet(ctx, SetWhitelist, 5)
	assert.NoError(err)
	assert.False(ok)

	// whitelisted users are not admins
	assert.NoError(eng.Whitelist(ctx, testUser))
	_, err = eng.ProcessAdminCommand(ctx, AdminCommand{ChatID: testChat, CallerID: testUser, Name: "status"})
	assert.ErrorIs(err, ErrNotAuthorized)
}

func TestAdminRoleCommands(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := EngineTestFixture()

	out, err := eng.ProcessAdminCommand(ctx, adminCmd("/setadmin 77"))
	assert.NoError(err)
	assert.Equal("Admin added: 77", out)
	ok, _ := eng.InSet(ctx, SetAdmins, 77)
	assert.True(ok)

	// the new admin can now run commands
	_, err = eng.ProcessAdminCommand(ctx, AdminCommand{ChatID: testChat, CallerID: 77, Name: "/whitelist", Args: []string{"88"}})
	assert.NoError(err)
	ok, _ = eng.InSet(ctx, SetWhitelist, 88)
	assert.True(ok)

	out, err = eng.ProcessAdminCommand(ctx, adminCmd("/unwhitelist 88"))
	assert.NoError(err)
	assert.Equal("Removed 88 from whitelist", out)
	ok, _ = eng.InSet(ctx, SetWhitelist, 88)
	assert.False(ok)

	out, err = eng.ProcessAdminCommand(ctx, adminCmd("/unsetadmin 77"))
	assert.NoError(err)
	assert.Equal("Admin removed: 77", out)
	ok, _ = eng.InSet(ctx, SetAdmins, 77)
	assert.False(ok)
}

func TestAdminUsageErrors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := EngineTestFixture()

	for _, text := range []string{"/setadmin", "/whitelist abc", "/unban", "/setpolicy tempban_seconds", "/resetstrikes 0"} {
		_, err := eng.ProcessAdminCommand(ctx, adminCmd(text))
		assert.ErrorIs(err, ErrUsage, text)
	}

	_, err := eng.ProcessAdminCommand(ctx, adminCmd("/frobnicate"))
	assert.ErrorIs(err, ErrUnknownCommand)

	n, err := eng.Sets.Size(ctx, SetWhitelist)
	assert.NoError(err)
	assert.Equal(0, n)
}

func TestAdminPolicyCommands(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := EngineTestFixture()

	out, err := eng.ProcessAdminCommand(ctx, adminCmd("/setpolicy autoban_on_affirm_female off"))
	assert.NoError(err)
	assert.Equal("Policy updated: autoban_on_affirm_female = false", out)
	assert.False(eng.Policy.Bool(policy.AutobanOnAffirm))

	_, err = eng.ProcessAdminCommand(ctx, adminCmd("/setpolicy autoban_on_affirm_female maybe"))
	assert.ErrorIs(err, policy.ErrInvalidValue)
	assert.False(eng.Policy.Bool(policy.AutobanOnAffirm))

	_, err = eng.ProcessAdminCommand(ctx, adminCmd("/setpolicy tempban_seconds -1"))
	assert.ErrorIs(err, policy.ErrInvalidValue)
	assert.Equal(86400, eng.Policy.Int(policy.TempbanSeconds))

	_, err = eng.ProcessAdminCommand(ctx, adminCmd("/setpolicy context_window_messages 100000000"))
	assert.ErrorIs(err, policy.ErrInvalidValue)
	assert.Equal(30, eng.Policy.Int(policy.ContextWindowMessages))

	_, err = eng.ProcessAdminCommand(ctx, adminCmd("/setpolicy no_such_key 1"))
	assert.ErrorIs(err, policy.ErrUnknownOption)

	out, err = eng.ProcessAdminCommand(ctx, adminCmd("/getpolicy tempban_seconds"))
	assert.NoError(err)
	assert.Equal("tempban_seconds = 86400", out)

	out, err = eng.ProcessAdminCommand(ctx, adminCmd("/getpolicy"))
	assert.NoError(err)
	assert.Contains(out, "autoban_on_affirm_female=false")

	_, err = eng.ProcessAdminCommand(ctx, adminCmd("/getpolicy nope"))
	assert.ErrorIs(err, policy.ErrUnknownOption)
}

func TestAdminUnban(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := EngineTestFixture()
	enf := eng.TestEnforcer()

	assert.NoError(eng.Sets.Add(ctx, SetBanned, "55"))
	out, err := eng.ProcessAdminCommand(ctx, adminCmd("/unban 55"))
	assert.NoError(err)
	assert.Equal("Unbanned 55", out)
	calls := enf.CallsTo("unrestrict")
	assert.Equal(1, len(calls))
	assert.Equal(testChat, calls[0].ChatID)
	ok, _ := eng.InSet(ctx, SetBanned, 55)
	assert.False(ok)

	// failed unrestrict leaves the banned set alone
	assert.NoError(eng.Sets.Add(ctx, SetBanned, "56"))
	enf.FailUnrestrict = errors.New("chat not found")
	_, err = eng.ProcessAdminCommand(ctx, adminCmd("/unban 56"))
	assert.ErrorIs(err, enf.FailUnrestrict)
	ok, _ = eng.InSet(ctx, SetBanned, 56)
	assert.True(ok)
}

func TestAdminResetStrikesAndStatus(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng := EngineTestFixture()

	_, err := eng.Strikes.RecordStrike(ctx, testUser, time.Now())
	assert.NoError(err)
	assert.NoError(eng.ProcessMessage(ctx, MessageEvent{ChatID: testChat, UserID: 9, Text: "hello"}))
	assert.NoError(eng.ProcessJoin(ctx, JoinEvent{ChatID: testChat, UserID: 10, NameParts: []string{"princess"}}))

	st, err := eng.Status(ctx)
	assert.NoError(err)
	assert.Equal(1, st.Admins)
	assert.Equal(1, st.Strikes)
	assert.Equal(1, st.Pending)
	assert.Equal(1, st.Chats)

	out, err := eng.ProcessAdminCommand(ctx, adminCmd("/resetstrikes 4242"))
	assert.NoError(err)
	assert.Equal("Strikes reset for 4242", out)

	out, err = eng.ProcessAdminCommand(ctx, adminCmd("/status"))
	assert.NoError(err)
	assert.True(strings.HasPrefix(out, "Admins: 1; Whitelist: 0; Banned: 0; Strikes: 0; PendingConfirm: 1; Chats: 1\nPolicy: "))

	out, err = eng.ProcessAdminCommand(ctx, adminCmd("/help"))
	assert.NoError(err)
	assert.Contains(out, "/setpolicy <key> <value>")
}
