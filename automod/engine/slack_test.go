package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlackNotifier(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var got SlackWebhookBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := SlackNotifier{SlackWebhookURL: srv.URL}
	until := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.NoError(n.SendAction(ctx, Action{Kind: ActionRestrict, ChatID: testChat, UserID: testUser, Until: &until, Reason: "pronoun"}))
	assert.Contains(got.Text, "user `4242`")
	assert.Contains(got.Text, "Banned until: 2024-03-02 12:00:00Z")
	assert.Contains(got.Text, "Reason: pronoun")

	assert.NoError(n.SendAction(ctx, Action{Kind: ActionRestrict, ChatID: testChat, UserID: testUser}))
	assert.Contains(got.Text, "Permanent ban")

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer bad.Close()
	n.SlackWebhookURL = bad.URL
	assert.Error(n.SendAction(ctx, Action{Kind: ActionWarn, ChatID: testChat, UserID: testUser}))
}

func TestNotificationTexts(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("User 7 banned. Reason: spam", RestrictedText(7, "spam"))
	assert.Equal("User 7 banned.", RestrictedText(7, ""))
	assert.Equal("Warning to user 7: rude. Repeat may lead to ban.", WarnText(7, "rude"))
	assert.Equal("User 7, your username suggests female identity. Please confirm within 120s by sending: I am not female", PromptText(7, 2*time.Minute))
	assert.Equal("Confirmation accepted for user 7.", ConfirmedText(7))
}
