package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type SlackNotifier struct {
	SlackWebhookURL string
	// defaults to http.DefaultClient
	Client *http.Client
}

func (n *SlackNotifier) SendAction(ctx context.Context, a Action) error {
	return n.sendSlackMsg(ctx, slackBody("⚠️ Automod Chat Action ⚠️\n", a))
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	// loosely based on: https://golangcode.com/send-slack-messages-without-a-library/

	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

func slackBody(header string, a Action) string {
	msg := header
	msg += fmt.Sprintf("chat `%d` / user `%d`\n", a.ChatID, a.UserID)
	msg += fmt.Sprintf("Action: `%s`\n", a.Kind)
	if a.Kind == ActionRestrict {
		if a.Until == nil {
			msg += "Permanent ban\n"
		} else {
			msg += fmt.Sprintf("Banned until: %s\n", a.Until.UTC().Format("2006-01-02 15:04:05Z"))
		}
	}
	if a.Reason != "" {
		msg += fmt.Sprintf("Reason: %s\n", a.Reason)
	}
	return msg
}
