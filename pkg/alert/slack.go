// Package alert posts pipeline failure notifications to a Slack incoming
// webhook.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// SlackNotifier delivers messages to a Slack incoming webhook URL.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewSlackNotifier creates a notifier for the given webhook URL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logrus.WithField("component", "slack-alert"),
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

// Notify posts the message as a Slack webhook payload. A non-2xx response
// counts as a delivery failure.
func (n *SlackNotifier) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(slackPayload{Text: message})
	if err != nil {
		return fmt.Errorf("failed to encode slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug("Notification delivered")
	return nil
}
