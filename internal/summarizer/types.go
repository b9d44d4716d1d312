package summarizer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tkamiya/daily-brief/internal/config"
	"github.com/tkamiya/daily-brief/internal/scraper"
)

// Digest is the generated daily summary for one run.
type Digest struct {
	Date      time.Time      `json:"date"`
	Window    scraper.Window `json:"-"`
	Summary   string         `json:"summary"`
	PostCount int            `json:"post_count"`
	// Fallback marks digests produced by the keyword-bucket summary
	// instead of the LLM.
	Fallback bool `json:"fallback"`

	AccountsProcessed int `json:"accounts_processed"`
	TotalAccounts     int `json:"total_accounts"`
}

// Summarizer turns collected posts into a digest.
type Summarizer interface {
	Summarize(ctx context.Context, posts []scraper.Post) (*Digest, error)
}

// New creates a summarizer based on the configuration. The LLM summarizer is
// wrapped so API failures degrade to the manual keyword summary rather than
// failing the run.
func New(cfg *config.Config) (Summarizer, error) {
	var primary Summarizer
	switch cfg.Summarizer.Type {
	case "openai":
		primary = NewOpenAISummarizer(cfg.Summarizer.APIKey, "", cfg.Summarizer.Model, cfg.Summarizer.MaxTokens, cfg.Summarizer.MaxPosts)
	case "anthropic":
		primary = NewAnthropicSummarizer(cfg.Summarizer.APIKey, cfg.Summarizer.Model, cfg.Summarizer.MaxTokens, cfg.Summarizer.MaxPosts)
	default:
		return nil, ErrUnsupportedSummarizerType
	}
	return WithFallback(primary, NewManualSummarizer()), nil
}

// ErrUnsupportedSummarizerType is returned when an unsupported summarizer type is specified
var ErrUnsupportedSummarizerType = fmt.Errorf("unsupported summarizer type")

type fallbackSummarizer struct {
	primary  Summarizer
	fallback Summarizer
}

// WithFallback returns a summarizer that tries primary and, on error,
// produces the fallback's digest instead.
func WithFallback(primary, fallback Summarizer) Summarizer {
	return &fallbackSummarizer{primary: primary, fallback: fallback}
}

func (f *fallbackSummarizer) Summarize(ctx context.Context, posts []scraper.Post) (*Digest, error) {
	digest, err := f.primary.Summarize(ctx, posts)
	if err == nil {
		return digest, nil
	}
	log.Printf("Summarizer failed, generating manual summary: %v", err)
	return f.fallback.Summarize(ctx, posts)
}
