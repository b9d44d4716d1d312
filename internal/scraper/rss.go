package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSScraper collects posts from the RSS feed mirrors expose at
// /<account>/rss. Feeds carry less markup than timeline pages and survive
// mirror redesigns better.
type RSSScraper struct {
	pool       *mirrorPool
	client     *http.Client
	parser     *gofeed.Parser
	perAccount int

	current string
}

func NewRSSScraper(mirrors []string, probeAccount string, perAccount int) *RSSScraper {
	client := &http.Client{Timeout: 30 * time.Second}
	return &RSSScraper{
		pool:       newMirrorPool(mirrors, probeAccount, client),
		client:     client,
		parser:     gofeed.NewParser(),
		perAccount: perAccount,
	}
}

func (s *RSSScraper) Scrape(ctx context.Context, account string, window Window) ([]Post, error) {
	if s.current == "" {
		mirror, err := s.pool.Pick(ctx)
		if err != nil {
			return nil, err
		}
		s.current = mirror
	}

	feedURL := fmt.Sprintf("%s/%s/rss", strings.TrimRight(s.current, "/"), account)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rss: create request for %s: %w", account, err)
	}
	setBrowserHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss: fetch %s: %w", account, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		s.pool.MarkCooldown(s.current, rateLimitCooldown)
		s.current = ""
		return nil, fmt.Errorf("rss: fetch %s: status 429", account)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss: fetch %s: unexpected status %d", account, resp.StatusCode)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rss: parse feed for %s: %w", account, err)
	}

	var posts []Post
	for _, item := range feed.Items {
		if len(posts) >= s.perAccount {
			break
		}
		text := strings.TrimSpace(item.Title)
		if text == "" {
			text = strings.TrimSpace(item.Description)
		}
		if len([]rune(text)) < minPostTextLen {
			continue
		}

		post := Post{
			Account: account,
			Text:    text,
			URL:     item.Link,
		}

		if item.PublishedParsed == nil {
			post.Undated = true
			posts = append(posts, post)
			continue
		}

		posted := item.PublishedParsed.UTC()
		if !window.Contains(posted) {
			continue
		}
		post.Posted = posted
		posts = append(posts, post)
	}

	log.Printf("Found %d posts for %s via RSS", len(posts), account)
	return posts, nil
}
