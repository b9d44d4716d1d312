package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// guestBearer is the public web-client bearer token. It only authorizes
// guest-level, read-only calls.
const guestBearer = "Bearer AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"

const createdAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// GraphQLScraper reads timelines through the undocumented GraphQL API using
// a guest token instead of mirror scraping.
type GraphQLScraper struct {
	client     *http.Client
	apiBase    string
	gqlBase    string
	perAccount int

	guestToken string
}

func NewGraphQLScraper(perAccount int) *GraphQLScraper {
	return &GraphQLScraper{
		client:     &http.Client{Timeout: 30 * time.Second},
		apiBase:    "https://api.twitter.com",
		gqlBase:    "https://twitter.com/i/api/graphql",
		perAccount: perAccount,
	}
}

func (s *GraphQLScraper) Scrape(ctx context.Context, account string, window Window) ([]Post, error) {
	if s.guestToken == "" {
		if err := s.activate(ctx); err != nil {
			return nil, err
		}
	}

	userID, err := s.lookupUserID(ctx, account)
	if err != nil {
		return nil, err
	}

	posts, err := s.fetchTimeline(ctx, account, userID, window)
	if err != nil {
		return nil, err
	}

	log.Printf("Found %d posts for %s via GraphQL", len(posts), account)
	return posts, nil
}

// activate obtains a guest token for this session.
func (s *GraphQLScraper) activate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/1.1/guest/activate.json", nil)
	if err != nil {
		return fmt.Errorf("graphql: create activate request: %w", err)
	}
	req.Header.Set("Authorization", guestBearer)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("graphql: guest activation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql: guest activation: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		GuestToken string `json:"guest_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("graphql: parse activation response: %w", err)
	}
	if payload.GuestToken == "" {
		return fmt.Errorf("graphql: activation response missing guest token")
	}

	s.guestToken = payload.GuestToken
	return nil
}

func (s *GraphQLScraper) lookupUserID(ctx context.Context, account string) (string, error) {
	variables, err := json.Marshal(map[string]any{
		"screen_name":          account,
		"withHighlightedLabel": true,
	})
	if err != nil {
		return "", fmt.Errorf("graphql: marshal lookup variables: %w", err)
	}

	q := url.Values{}
	q.Set("variables", string(variables))

	body, err := s.get(ctx, s.gqlBase+"/4S2ihIKfF3xhp-ENxvUAfQ/UserByScreenName?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("graphql: user lookup for %s: %w", account, err)
	}

	var payload struct {
		Data struct {
			User struct {
				RestID string `json:"rest_id"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("graphql: parse user lookup for %s: %w", account, err)
	}
	if payload.Data.User.RestID == "" {
		return "", fmt.Errorf("graphql: no user ID for %s", account)
	}
	return payload.Data.User.RestID, nil
}

// Timeline response shape, trimmed to the fields the digest needs.

type timelineResponse struct {
	Data struct {
		User struct {
			Result struct {
				TimelineV2 struct {
					Timeline struct {
						Instructions []timelineInstruction `json:"instructions"`
					} `json:"timeline"`
				} `json:"timeline_v2"`
			} `json:"result"`
		} `json:"user"`
	} `json:"data"`
}

type timelineInstruction struct {
	Type    string          `json:"type"`
	Entries []timelineEntry `json:"entries"`
}

type timelineEntry struct {
	Content struct {
		ItemContent struct {
			TweetResults struct {
				Result struct {
					Legacy *legacyTweet `json:"legacy"`
				} `json:"result"`
			} `json:"tweet_results"`
		} `json:"itemContent"`
	} `json:"content"`
}

type legacyTweet struct {
	FullText  string `json:"full_text"`
	CreatedAt string `json:"created_at"`
}

func (s *GraphQLScraper) fetchTimeline(ctx context.Context, account, userID string, window Window) ([]Post, error) {
	variables, err := json.Marshal(map[string]any{
		"userId":                 userID,
		"count":                  s.perAccount * 2,
		"includePromotedContent": false,
		"withVoice":              true,
		"withV2Timeline":         true,
	})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal timeline variables: %w", err)
	}
	features, err := json.Marshal(map[string]any{
		"responsive_web_graphql_timeline_navigation_enabled":                      true,
		"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
		"responsive_web_graphql_exclude_directive_enabled":                        true,
	})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal timeline features: %w", err)
	}

	q := url.Values{}
	q.Set("variables", string(variables))
	q.Set("features", string(features))

	body, err := s.get(ctx, s.gqlBase+"/zICd6x_warY0bzMRm-piIg/UserTweets?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("graphql: timeline for %s: %w", account, err)
	}

	var payload timelineResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("graphql: parse timeline for %s: %w", account, err)
	}

	var posts []Post
	for _, instruction := range payload.Data.User.Result.TimelineV2.Timeline.Instructions {
		if instruction.Type != "TimelineAddEntries" {
			continue
		}
		for _, entry := range instruction.Entries {
			if len(posts) >= s.perAccount {
				return posts, nil
			}
			legacy := entry.Content.ItemContent.TweetResults.Result.Legacy
			if legacy == nil || legacy.FullText == "" {
				continue
			}
			posted, err := time.Parse(createdAtLayout, legacy.CreatedAt)
			if err != nil {
				log.Printf("Could not parse created_at %q for %s, including post anyway", legacy.CreatedAt, account)
				posts = append(posts, Post{Account: account, Text: legacy.FullText, Undated: true})
				continue
			}
			if !window.Contains(posted.UTC()) {
				continue
			}
			posts = append(posts, Post{
				Account: account,
				Text:    legacy.FullText,
				Posted:  posted.UTC(),
			})
		}
	}
	return posts, nil
}

// get performs an authenticated guest GET and returns the body.
func (s *GraphQLScraper) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", guestBearer)
	req.Header.Set("x-guest-token", s.guestToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
