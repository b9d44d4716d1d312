package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tkamiya/daily-brief/internal/scraper"
)

// topicBucket classifies posts for the manual summary. Buckets are ordered;
// a post lands in the first bucket whose any keyword appears in its text,
// case-insensitively.
type topicBucket struct {
	name     string
	keywords []string
}

var topicBuckets = []topicBucket{
	{"Model", []string{"gpt", "claude", "gemini", "llama", "mistral", "model"}},
	{"API", []string{"api", "endpoint", "integration", "developer"}},
	{"Research", []string{"research", "paper", "study", "breakthrough"}},
	{"Product", []string{"launch", "release", "announce", "new", "update"}},
	{"Partnership", []string{"partner", "collaboration", "team", "join"}},
}

const manualSummaryLimit = 20

// ManualSummarizer produces a keyword-bucket digest without any API calls.
// It is the last-resort output when the LLM is unreachable or out of quota.
type ManualSummarizer struct{}

func NewManualSummarizer() *ManualSummarizer {
	return &ManualSummarizer{}
}

func (m *ManualSummarizer) Summarize(_ context.Context, posts []scraper.Post) (*Digest, error) {
	if len(posts) == 0 {
		return emptyDigest(NoPostsMessage(true)), nil
	}

	counts := make(map[string]int)
	sample := posts
	if len(sample) > manualSummaryLimit {
		sample = sample[:manualSummaryLimit]
	}
	for _, p := range sample {
		if bucket, ok := classify(p.Text); ok {
			counts[bucket]++
		}
	}

	var sb strings.Builder
	sb.WriteString("**Daily AI Summary - Manual Overview**\n\n")

	if len(counts) > 0 {
		for _, bucket := range topicBuckets {
			if n := counts[bucket.name]; n > 0 {
				sb.WriteString(fmt.Sprintf("• **%s**: %d significant updates detected\n", bucket.name, n))
			}
		}
		sb.WriteString("\n**Activity Overview:**\n")
		sb.WriteString(fmt.Sprintf("• Total significant posts analyzed: %d\n", len(posts)))
		sb.WriteString(fmt.Sprintf("• Categories with activity: %d\n", len(counts)))
	} else {
		sb.WriteString("• Routine social media activity detected\n")
		sb.WriteString("• No major business developments identified\n")
		sb.WriteString(fmt.Sprintf("• %d posts analyzed from monitored companies\n", len(posts)))
	}

	sb.WriteString("\n*Note: Manual analysis performed due to AI service unavailability.*")

	return &Digest{
		Date:      time.Now().UTC(),
		Summary:   sb.String(),
		PostCount: len(posts),
		Fallback:  true,
	}, nil
}

// classify returns the first bucket matching the text, if any.
func classify(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, bucket := range topicBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.name, true
			}
		}
	}
	return "", false
}

// NoPostsMessage is the digest text for a run that found nothing. connected
// distinguishes "accounts were quiet" from "every mirror was down".
func NoPostsMessage(connected bool) string {
	if connected {
		return "No posts found from monitored AI companies in the last 24 hours. The monitoring system connected successfully but the accounts may not have posted recently."
	}
	return "No posts found from monitored AI companies in the last 24 hours. Mirror services are currently experiencing connectivity issues."
}
