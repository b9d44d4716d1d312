package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tkamiya/daily-brief/internal/scraper"
)

func openaiTestServer(t *testing.T, reply string) (*httptest.Server, *string) {
	t.Helper()
	var prompt string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(req.Messages) > 0 {
			prompt = req.Messages[0].Content
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
	return ts, &prompt
}

func TestOpenAISummarize(t *testing.T) {
	ts, prompt := openaiTestServer(t, "```markdown\n- OpenAI shipped a new model\n```")
	defer ts.Close()

	s := NewOpenAISummarizer("test-key", ts.URL+"/v1", "gpt-4o-mini", 600, 25)

	posts := []scraper.Post{
		{Account: "OpenAI", Text: "We are rolling out a new model today."},
	}
	digest, err := s.Summarize(context.Background(), posts)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if digest.Summary != "- OpenAI shipped a new model" {
		t.Errorf("Expected fences stripped, got %q", digest.Summary)
	}
	if digest.PostCount != 1 {
		t.Errorf("Expected PostCount 1, got %d", digest.PostCount)
	}
	if digest.Fallback {
		t.Error("LLM digest must not be marked Fallback")
	}
	if !strings.Contains(*prompt, "@OpenAI: We are rolling out a new model today.") {
		t.Errorf("Expected post in prompt, got:\n%s", *prompt)
	}
}

func TestOpenAISummarizeNoPosts(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	s := NewOpenAISummarizer("test-key", ts.URL+"/v1", "gpt-4o-mini", 600, 25)

	digest, err := s.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if called {
		t.Error("Expected no API call for an empty run")
	}
	if digest.Summary != NoPostsMessage(true) {
		t.Errorf("Unexpected empty-run summary: %q", digest.Summary)
	}
}

func TestOpenAISummarizeAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	}))
	defer ts.Close()

	s := NewOpenAISummarizer("test-key", ts.URL+"/v1", "gpt-4o-mini", 600, 25)

	_, err := s.Summarize(context.Background(), []scraper.Post{{Account: "OpenAI", Text: "hello world post"}})
	if err == nil {
		t.Fatal("Expected error for rate-limited response")
	}
}

func TestOpenAISummarizeBlankReply(t *testing.T) {
	ts, _ := openaiTestServer(t, "```\n```")
	defer ts.Close()

	s := NewOpenAISummarizer("test-key", ts.URL+"/v1", "gpt-4o-mini", 600, 25)

	_, err := s.Summarize(context.Background(), []scraper.Post{{Account: "OpenAI", Text: "hello world post"}})
	if err == nil {
		t.Fatal("Expected error for blank summary")
	}
}
