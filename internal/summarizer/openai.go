package summarizer

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tkamiya/daily-brief/internal/scraper"
)

// OpenAISummarizer summarizes posts with the OpenAI chat completions API.
type OpenAISummarizer struct {
	client    *openai.Client
	model     string
	maxTokens int
	maxPosts  int
}

// NewOpenAISummarizer creates an OpenAI-backed summarizer. baseURL overrides
// the API endpoint and is empty outside tests.
func NewOpenAISummarizer(apiKey, baseURL, model string, maxTokens, maxPosts int) *OpenAISummarizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAISummarizer{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
		maxPosts:  maxPosts,
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, posts []scraper.Post) (*Digest, error) {
	if len(posts) == 0 {
		return emptyDigest(NoPostsMessage(true)), nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(posts, s.maxPosts)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	summary := stripFences(resp.Choices[0].Message.Content)
	if summary == "" {
		return nil, fmt.Errorf("openai: blank summary in response")
	}

	return &Digest{
		Date:      time.Now().UTC(),
		Summary:   summary,
		PostCount: len(posts),
	}, nil
}
