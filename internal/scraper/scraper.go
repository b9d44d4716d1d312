package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/tkamiya/daily-brief/internal/config"
)

// Post is a single social-media post collected for one run.
type Post struct {
	Account string
	Text    string
	URL     string
	Posted  time.Time
	// Undated marks posts whose timestamp could not be parsed. They are
	// kept anyway so a mirror markup change doesn't silently empty the digest.
	Undated bool
}

// Scraper collects a user's recent posts that fall inside the window.
type Scraper interface {
	Scrape(ctx context.Context, account string, window Window) ([]Post, error)
}

// New creates a scraper based on the configuration.
func New(cfg *config.Config) (Scraper, error) {
	switch cfg.Scraper.Type {
	case "nitter":
		return NewNitterScraper(cfg.Scraper.Mirrors, cfg.Accounts[0], cfg.Scraper.MaxPages, cfg.Scraper.PostsPerAccount), nil
	case "rss":
		return NewRSSScraper(cfg.Scraper.Mirrors, cfg.Accounts[0], cfg.Scraper.PostsPerAccount), nil
	case "graphql":
		return NewGraphQLScraper(cfg.Scraper.PostsPerAccount), nil
	default:
		return nil, ErrUnsupportedScraperType
	}
}

// ErrUnsupportedScraperType is returned when an unsupported scraper type is specified
var ErrUnsupportedScraperType = fmt.Errorf("unsupported scraper type")
