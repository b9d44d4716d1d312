package summarizer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/tkamiya/daily-brief/internal/scraper"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text   string
		bucket string
		ok     bool
	}{
		{"GPT-5 is now available to everyone", "Model", true},
		{"Our new API endpoint supports streaming", "API", true},
		{"We published a research paper on alignment", "Research", true},
		{"Big launch day for the desktop app", "Product", true},
		{"Excited to partner with a university lab", "Partnership", true},
		{"Good morning everyone", "", false},
		// First matching bucket wins even when later buckets also match.
		{"New model launch with API access", "Model", true},
		{"Research paper about our latest launch", "Research", true},
		// Case-insensitive.
		{"CLAUDE gets a bigger context window", "Model", true},
	}

	for _, tt := range tests {
		bucket, ok := classify(tt.text)
		if ok != tt.ok || bucket != tt.bucket {
			t.Errorf("classify(%q) = (%q, %v), expected (%q, %v)", tt.text, bucket, ok, tt.bucket, tt.ok)
		}
	}
}

func TestManualSummarize(t *testing.T) {
	posts := []scraper.Post{
		{Account: "OpenAI", Text: "GPT model update rolling out"},
		{Account: "AnthropicAI", Text: "Claude now supports longer documents"},
		{Account: "GoogleDeepMind", Text: "New research paper on interpretability"},
	}

	m := NewManualSummarizer()
	digest, err := m.Summarize(context.Background(), posts)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if !digest.Fallback {
		t.Error("Expected manual digest to be marked Fallback")
	}
	if digest.PostCount != 3 {
		t.Errorf("Expected PostCount 3, got %d", digest.PostCount)
	}
	if !strings.Contains(digest.Summary, "**Model**: 2 significant updates detected") {
		t.Errorf("Expected Model bucket count in summary, got:\n%s", digest.Summary)
	}
	if !strings.Contains(digest.Summary, "**Research**: 1 significant updates detected") {
		t.Errorf("Expected Research bucket count in summary, got:\n%s", digest.Summary)
	}
	if !strings.Contains(digest.Summary, "Categories with activity: 2") {
		t.Errorf("Expected category count in summary, got:\n%s", digest.Summary)
	}
}

func TestManualSummarizeRoutineActivity(t *testing.T) {
	posts := []scraper.Post{
		{Account: "OpenAI", Text: "Good morning everyone"},
		{Account: "AnthropicAI", Text: "Happy Friday"},
	}

	m := NewManualSummarizer()
	digest, err := m.Summarize(context.Background(), posts)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if !strings.Contains(digest.Summary, "Routine social media activity detected") {
		t.Errorf("Expected routine-activity summary, got:\n%s", digest.Summary)
	}
	if !strings.Contains(digest.Summary, "2 posts analyzed") {
		t.Errorf("Expected post count in summary, got:\n%s", digest.Summary)
	}
}

func TestManualSummarizeNoPosts(t *testing.T) {
	m := NewManualSummarizer()
	digest, err := m.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if digest.Summary != NoPostsMessage(true) {
		t.Errorf("Unexpected empty-run summary: %q", digest.Summary)
	}
	if digest.PostCount != 0 {
		t.Errorf("Expected PostCount 0, got %d", digest.PostCount)
	}
}

type failingSummarizer struct{}

func (failingSummarizer) Summarize(context.Context, []scraper.Post) (*Digest, error) {
	return nil, fmt.Errorf("api unavailable")
}

func TestWithFallbackDegrades(t *testing.T) {
	s := WithFallback(failingSummarizer{}, NewManualSummarizer())

	posts := []scraper.Post{{Account: "OpenAI", Text: "New model release today"}}
	digest, err := s.Summarize(context.Background(), posts)
	if err != nil {
		t.Fatalf("Expected fallback digest, got error: %v", err)
	}
	if !digest.Fallback {
		t.Error("Expected degraded digest to be marked Fallback")
	}
}

func TestWithFallbackPrefersPrimary(t *testing.T) {
	s := WithFallback(NewManualSummarizer(), failingSummarizer{})

	digest, err := s.Summarize(context.Background(), []scraper.Post{{Account: "OpenAI", Text: "New model release today"}})
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if digest == nil || digest.PostCount != 1 {
		t.Errorf("Expected primary digest, got %+v", digest)
	}
}

func TestBuildPromptCapsPosts(t *testing.T) {
	posts := make([]scraper.Post, 5)
	for i := range posts {
		posts[i] = scraper.Post{Account: "OpenAI", Text: fmt.Sprintf("post number %d", i)}
	}

	prompt := buildPrompt(posts, 2)
	if !strings.Contains(prompt, "post number 1") {
		t.Error("Expected second post in prompt")
	}
	if strings.Contains(prompt, "post number 2") {
		t.Error("Expected posts beyond the cap to be excluded")
	}
	if !strings.Contains(prompt, "@OpenAI: post number 0") {
		t.Errorf("Expected account-prefixed lines, got:\n%s", prompt)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"```\nfenced\n```", "fenced"},
		{"```markdown\n- bullet\n```", "- bullet"},
		{"  padded  ", "padded"},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}
