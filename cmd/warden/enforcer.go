package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bluesky-social/chatmod/automod/engine"

	"golang.org/x/time/rate"
)

// Carries out actions by calling the chat platform binding's HTTP API.
type HTTPEnforcer struct {
	// method, hostname, and port of the binding, eg "http://localhost:3910"
	Host  string
	Token string
	// defaults to http.DefaultClient
	Client *http.Client
	// optional; shared across all action types
	Limiter *rate.Limiter
}

var _ engine.Enforcer = (*HTTPEnforcer)(nil)

type ActionRequest struct {
	Action string     `json:"action"`
	ChatID int64      `json:"chat"`
	UserID int64      `json:"user,omitempty"`
	Text   string     `json:"text,omitempty"`
	Reason string     `json:"reason,omitempty"`
	Until  *time.Time `json:"until,omitempty"`
}

func (e *HTTPEnforcer) Notify(ctx context.Context, chatID int64, text string) error {
	return e.send(ctx, ActionRequest{Action: "notify", ChatID: chatID, Text: text})
}

func (e *HTTPEnforcer) Warn(ctx context.Context, chatID, userID int64, reason string) error {
	return e.send(ctx, ActionRequest{Action: "warn", ChatID: chatID, UserID: userID, Reason: reason, Text: engine.WarnText(userID, reason)})
}

func (e *HTTPEnforcer) Restrict(ctx context.Context, chatID, userID int64, until *time.Time, reason string) error {
	return e.send(ctx, ActionRequest{Action: "restrict", ChatID: chatID, UserID: userID, Reason: reason, Until: until})
}

func (e *HTTPEnforcer) Unrestrict(ctx context.Context, chatID, userID int64) error {
	return e.send(ctx, ActionRequest{Action: "unrestrict", ChatID: chatID, UserID: userID})
}

func (e *HTTPEnforcer) send(ctx context.Context, ar ActionRequest) error {
	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("binding rate limit: %w", err)
		}
	}
	body, err := json.Marshal(ar)
	if err != nil {
		return err
	}
	u := strings.TrimSuffix(e.Host, "/") + "/v1/actions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.Token)
	}
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		bindingRequests.WithLabelValues(ar.Action, "error").Inc()
		return fmt.Errorf("%s request to binding: %w", ar.Action, err)
	}
	defer resp.Body.Close()

	bindingRequests.WithLabelValues(ar.Action, fmt.Sprint(resp.StatusCode)).Inc()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s rejected by binding: status=%d %s", ar.Action, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
