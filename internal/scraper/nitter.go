package scraper

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tkamiya/daily-brief/internal/retry"
)

// containerSelectors is the fallback chain for locating post containers.
// Mirrors run different Nitter versions with different markup.
var containerSelectors = []string{
	"div.timeline-item",
	"div.tweet",
	"article",
}

const minPostTextLen = 10

// NitterScraper scrapes account timelines from public Nitter mirrors.
type NitterScraper struct {
	pool        *mirrorPool
	client      *http.Client
	maxPages    int
	perAccount  int
	retryConfig retry.Config

	current string

	// pageDelay spaces out pagination requests; overridable in tests.
	pageDelay func() time.Duration
}

func NewNitterScraper(mirrors []string, probeAccount string, maxPages, perAccount int) *NitterScraper {
	client := &http.Client{Timeout: 30 * time.Second}
	return &NitterScraper{
		pool:        newMirrorPool(mirrors, probeAccount, client),
		client:      client,
		maxPages:    maxPages,
		perAccount:  perAccount,
		retryConfig: retry.Config{MaxRetries: 2, BaseDelay: 1 * time.Second},
		pageDelay: func() time.Duration {
			return time.Duration(1000+rand.Intn(1000)) * time.Millisecond
		},
	}
}

// Scrape fetches up to maxPages of an account's timeline and returns the
// posts inside the window. Posts whose date can't be parsed are included
// and flagged Undated.
func (s *NitterScraper) Scrape(ctx context.Context, account string, window Window) ([]Post, error) {
	if _, err := s.mirror(ctx); err != nil {
		return nil, err
	}

	var posts []Post
	path := "/" + account

	for page := 0; page < s.maxPages; page++ {
		doc, err := s.fetchPage(ctx, account, path)
		if err != nil {
			if len(posts) > 0 {
				// Keep what we have rather than losing the whole account.
				log.Printf("Page %d for %s failed, keeping %d posts: %v", page+1, account, len(posts), err)
				break
			}
			return nil, err
		}

		containers := findContainers(doc)
		if containers == nil {
			log.Printf("No post containers found for %s", account)
			break
		}

		done := false
		containers.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			post, ok := extractPost(sel, account, window)
			if ok {
				posts = append(posts, post)
			}
			if len(posts) >= s.perAccount {
				done = true
				return false
			}
			return true
		})
		if done {
			break
		}

		next := nextPagePath(doc, account)
		if next == "" {
			break
		}
		path = next

		select {
		case <-ctx.Done():
			return posts, ctx.Err()
		case <-time.After(s.pageDelay()):
		}
	}

	log.Printf("Found %d posts for %s", len(posts), account)
	return posts, nil
}

// mirror returns the mirror chosen for this scraper, probing for one on
// first use.
func (s *NitterScraper) mirror(ctx context.Context) (string, error) {
	if s.current != "" {
		return s.current, nil
	}
	mirror, err := s.pool.Pick(ctx)
	if err != nil {
		return "", err
	}
	s.current = mirror
	return mirror, nil
}

// fetchPage GETs a timeline path from the current mirror and parses it. Each
// attempt resolves the mirror fresh, so a 429 cools down the mirror that
// actually answered and the retry continues on a newly picked one.
func (s *NitterScraper) fetchPage(ctx context.Context, account, path string) (*goquery.Document, error) {
	var doc *goquery.Document

	err := retry.WithBackoff(ctx, s.retryConfig, func(ctx context.Context) error {
		mirror, err := s.mirror(ctx)
		if err != nil {
			return fmt.Errorf("pick mirror: %w", err)
		}
		pageURL := strings.TrimRight(mirror, "/") + path

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		setBrowserHeaders(req)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", account, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			s.pool.MarkCooldown(mirror, rateLimitCooldown)
			s.current = ""
			return fmt.Errorf("rate limited on %s: status 429", mirror)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fetch %s: unexpected status %d", account, resp.StatusCode)
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return fmt.Errorf("parse HTML for %s: %w", account, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// findContainers tries the selector chain and returns the first selection
// that matches anything.
func findContainers(doc *goquery.Document) *goquery.Selection {
	for _, selector := range containerSelectors {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// extractPost pulls text and timestamp out of one post container and decides
// whether it belongs in the window.
func extractPost(sel *goquery.Selection, account string, window Window) (Post, bool) {
	content := sel.Find("div.tweet-content").First()
	if content.Length() == 0 {
		content = sel.Find("p").First()
	}
	text := strings.TrimSpace(content.Text())
	if len([]rune(text)) < minPostTextLen {
		return Post{}, false
	}

	postURL := ""
	if href, ok := sel.Find("span.tweet-date a").First().Attr("href"); ok {
		postURL = href
	}

	dateStr := ""
	if title, ok := sel.Find("span.tweet-date a").First().Attr("title"); ok {
		dateStr = title
	} else if dt, ok := sel.Find("time").First().Attr("datetime"); ok {
		dateStr = dt
	} else if t := sel.Find("time").First(); t.Length() > 0 {
		dateStr = strings.TrimSpace(t.Text())
	}

	post := Post{
		Account: account,
		Text:    text,
		URL:     postURL,
	}

	if dateStr == "" {
		post.Undated = true
		return post, true
	}

	posted, err := ParseTweetDate(dateStr)
	if err != nil {
		// Unparseable dates are included rather than dropped: a markup
		// change must not empty the digest.
		log.Printf("Could not parse date %q for %s, including post anyway", dateStr, account)
		post.Undated = true
		return post, true
	}

	post.Posted = posted
	return post, window.Contains(posted)
}

// nextPagePath extracts the show-more cursor, if any. The path is relative
// so pagination survives a mid-run mirror switch.
func nextPagePath(doc *goquery.Document, account string) string {
	href, ok := doc.Find("div.show-more a").First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	cursor := strings.TrimPrefix(href, "?")
	return fmt.Sprintf("/%s?%s", account, cursor)
}
