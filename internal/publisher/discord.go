package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tkamiya/daily-brief/internal/retry"
	"github.com/tkamiya/daily-brief/internal/summarizer"
)

type discordEmbedFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Discord limits: 4096 chars per embed description, 10 embeds and 6000
// total chars per message.
const (
	embedDescLimit   = 4096
	embedsPerMessage = 10
	messageCharLimit = 6000
)

// DiscordPublisher publishes the digest to a Discord channel via webhook.
type DiscordPublisher struct {
	webhookURL  string
	client      *http.Client
	retryConfig retry.Config
}

func NewDiscordPublisher(webhookURL string) *DiscordPublisher {
	return &DiscordPublisher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryConfig: retry.Config{
			MaxRetries: 3,
			BaseDelay:  1 * time.Second,
		},
	}
}

// Publish sends the digest as one or more embeds, batched under the
// webhook limits.
func (d *DiscordPublisher) Publish(ctx context.Context, digest *summarizer.Digest) error {
	batches := batchEmbeds(buildEmbeds(digest))

	for i, batch := range batches {
		err := retry.WithBackoff(ctx, d.retryConfig, func(ctx context.Context) error {
			return d.sendWebhook(ctx, batch)
		})
		if err != nil {
			return fmt.Errorf("discord: failed to send batch %d: %w", i+1, err)
		}

		// Delay between batches to avoid rate limits.
		if i < len(batches)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
	}
	return nil
}

// buildEmbeds splits the summary across embeds, the first carrying the
// title and footer stats.
func buildEmbeds(digest *summarizer.Digest) []discordEmbed {
	chunks := splitChunks(digest.Summary, embedDescLimit)

	embeds := make([]discordEmbed, 0, len(chunks))
	for i, chunk := range chunks {
		e := discordEmbed{
			Description: chunk,
			Color:       0x5865F2, // Discord blurple
		}
		if i == 0 {
			e.Title = fmt.Sprintf("📰 Daily AI Summary - %s", digest.Date.Format("2006-01-02"))
			e.Timestamp = digest.Date.Format(time.RFC3339)
		}
		if i == len(chunks)-1 && digest.PostCount > 0 && digest.TotalAccounts > 0 {
			e.Footer = &discordEmbedFooter{
				Text: fmt.Sprintf("%d/%d accounts • %d posts", digest.AccountsProcessed, digest.TotalAccounts, digest.PostCount),
			}
		}
		embeds = append(embeds, e)
	}
	return embeds
}

// splitChunks cuts s into pieces of at most max bytes, preferring newline
// boundaries and never splitting a rune.
func splitChunks(s string, max int) []string {
	var chunks []string
	for len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if idx := strings.LastIndexByte(s[:cut], '\n'); idx > max/2 {
			cut = idx
		}
		chunks = append(chunks, strings.TrimRight(s[:cut], "\n"))
		s = strings.TrimLeft(s[cut:], "\n")
	}
	return append(chunks, s)
}

// batchEmbeds groups embeds into webhook messages respecting Discord limits.
func batchEmbeds(embeds []discordEmbed) [][]discordEmbed {
	var batches [][]discordEmbed
	var current []discordEmbed
	currentChars := 0

	for _, e := range embeds {
		ec := embedCharCount(e)

		if len(current) > 0 && (len(current) >= embedsPerMessage || currentChars+ec > messageCharLimit) {
			batches = append(batches, current)
			current = nil
			currentChars = 0
		}

		current = append(current, e)
		currentChars += ec
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

func (d *DiscordPublisher) sendWebhook(ctx context.Context, embeds []discordEmbed) error {
	payload := discordWebhookPayload{Embeds: embeds}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}

func embedCharCount(e discordEmbed) int {
	n := len(e.Title) + len(e.Description)
	if e.Footer != nil {
		n += len(e.Footer.Text)
	}
	return n
}
