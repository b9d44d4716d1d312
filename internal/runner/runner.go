package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/tkamiya/daily-brief/internal/publisher"
	"github.com/tkamiya/daily-brief/internal/scraper"
	"github.com/tkamiya/daily-brief/internal/summarizer"
)

// Runner orchestrates the scrape -> summarize -> publish pipeline.
type Runner struct {
	accounts   []string
	scraper    scraper.Scraper
	summarizer summarizer.Summarizer
	publishers []publisher.Publisher

	// accountDelay spaces out requests between accounts so a single run
	// doesn't hammer the mirror; overridable in tests.
	accountDelay func() time.Duration

	now func() time.Time
}

func New(accounts []string, s scraper.Scraper, sum summarizer.Summarizer, pubs []publisher.Publisher) *Runner {
	return &Runner{
		accounts:   accounts,
		scraper:    s,
		summarizer: sum,
		publishers: pubs,
		accountDelay: func() time.Duration {
			return time.Duration(3000+rand.Intn(2000)) * time.Millisecond
		},
		now: time.Now,
	}
}

// Run executes the full pipeline once for the previous UTC day.
func (r *Runner) Run(ctx context.Context) error {
	window := scraper.PreviousDay(r.now())
	log.Printf("Starting pipeline for %d accounts, window %s", len(r.accounts), window)

	posts, processed, mirrorsDown := r.collect(ctx, window)
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("Collected %d posts from %d/%d accounts", len(posts), processed, len(r.accounts))

	var digest *summarizer.Digest
	if len(posts) == 0 && mirrorsDown {
		// Don't burn an API call describing an empty day we couldn't even see.
		digest = &summarizer.Digest{
			Date:    r.now().UTC(),
			Summary: summarizer.NoPostsMessage(false),
		}
	} else {
		var err error
		digest, err = r.summarizer.Summarize(ctx, posts)
		if err != nil {
			return fmt.Errorf("runner: summarize failed: %w", err)
		}
	}

	digest.Window = window
	digest.AccountsProcessed = processed
	digest.TotalAccounts = len(r.accounts)

	// Publish - continue with other publishers even if one fails.
	var publishErrors []error
	for _, pub := range r.publishers {
		log.Printf("Publishing via %T...", pub)
		if err := pub.Publish(ctx, digest); err != nil {
			publishError := fmt.Errorf("publish via %T failed: %w", pub, err)
			publishErrors = append(publishErrors, publishError)
			log.Printf("WARNING: %v", publishError)
		} else {
			log.Printf("Successfully published via %T", pub)
		}
	}

	if len(publishErrors) == len(r.publishers) && len(r.publishers) > 0 {
		return fmt.Errorf("runner: all publishers failed: %v", publishErrors)
	}

	if len(publishErrors) > 0 {
		log.Printf("Pipeline completed with %d publisher failures out of %d publishers", len(publishErrors), len(r.publishers))
	} else {
		log.Println("Pipeline completed successfully")
	}

	return nil
}

// collect scrapes each account in turn. Per-account failures are logged and
// skipped; mirrorsDown reports whether every failure was mirror exhaustion.
func (r *Runner) collect(ctx context.Context, window scraper.Window) (posts []scraper.Post, processed int, mirrorsDown bool) {
	mirrorsDown = true

	for i, account := range r.accounts {
		if ctx.Err() != nil {
			return posts, processed, false
		}

		log.Printf("Processing %s...", account)
		accountPosts, err := r.scraper.Scrape(ctx, account, window)
		if err != nil {
			if !errors.Is(err, scraper.ErrNoWorkingMirror) {
				mirrorsDown = false
			}
			log.Printf("Failed to process %s: %v", account, err)
		} else {
			mirrorsDown = false
			processed++
			if len(accountPosts) == 0 {
				log.Printf("No posts found for %s", account)
			}
			posts = append(posts, accountPosts...)
		}

		if i < len(r.accounts)-1 {
			select {
			case <-ctx.Done():
				return posts, processed, false
			case <-time.After(r.accountDelay()):
			}
		}
	}

	return posts, processed, mirrorsDown
}
