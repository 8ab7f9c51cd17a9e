package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const slackUsername = "interrogator"

var errSlackDisabled = errors.New("slack disabled")

// Slack posts to an incoming webhook.
type Slack struct {
	Webhook string
	Client  *http.Client
}

// NewSlack returns nil when no webhook is configured.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{Webhook: webhook, Client: &http.Client{Timeout: 10 * time.Second}}
}

type slackMessage struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// slackText bolds the title and puts the body in a code block so error
// strings from the driver render verbatim.
func slackText(title, text string) string {
	return "*" + title + "*\n```" + text + "```"
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	if s == nil || s.Webhook == "" {
		return errSlackDisabled
	}
	body, err := json.Marshal(slackMessage{Username: slackUsername, Text: slackText(title, text)})
	if err != nil {
		return fmt.Errorf("encode slack message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Slack explains rejections in a short plain-text body.
		reason, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("slack webhook returned %s: %s", resp.Status, bytes.TrimSpace(reason))
	}
	return nil
}
