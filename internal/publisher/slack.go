package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tkamiya/daily-brief/internal/retry"
	"github.com/tkamiya/daily-brief/internal/summarizer"
)

type slackPayload struct {
	Text   string `json:"text"`
	Mrkdwn bool   `json:"mrkdwn"`
}

// SlackPublisher posts the digest to a Slack incoming webhook.
type SlackPublisher struct {
	webhookURL  string
	client      *http.Client
	retryConfig retry.Config
}

func NewSlackPublisher(webhookURL string) *SlackPublisher {
	return &SlackPublisher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryConfig: retry.Config{
			MaxRetries: 3,
			BaseDelay:  1 * time.Second,
		},
	}
}

func (p *SlackPublisher) Publish(ctx context.Context, digest *summarizer.Digest) error {
	payload := slackPayload{
		Text:   FormatMessage(digest),
		Mrkdwn: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack: marshal payload: %w", err)
	}

	err = retry.WithBackoff(ctx, p.retryConfig, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("slack: failed to post: %w", err)
	}
	return nil
}

// FormatMessage renders the digest as a Slack mrkdwn message with the dated
// header and, when posts were collected, the processing footer.
func FormatMessage(digest *summarizer.Digest) string {
	msg := fmt.Sprintf("*📰 Daily AI Summary - %s*\n\n%s", digest.Date.Format("2006-01-02"), digest.Summary)
	if digest.PostCount > 0 && digest.TotalAccounts > 0 {
		msg += fmt.Sprintf("\n\n_Processed %d/%d accounts • %d total posts_",
			digest.AccountsProcessed, digest.TotalAccounts, digest.PostCount)
	}
	return msg
}
