package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/tkamiya/daily-brief/internal/summarizer"
)

// StdoutPublisher prints the digest to stdout.
type StdoutPublisher struct{}

func NewStdoutPublisher() *StdoutPublisher {
	return &StdoutPublisher{}
}

func (p *StdoutPublisher) Publish(_ context.Context, digest *summarizer.Digest) error {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("Daily AI Summary: %s\n", digest.Date.Format("2006-01-02"))
	if !digest.Window.Start.IsZero() {
		fmt.Printf("Window: %s\n", digest.Window)
	}
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
	fmt.Println(digest.Summary)
	fmt.Println()

	if digest.TotalAccounts > 0 {
		fmt.Printf("Processed %d/%d accounts, %d posts", digest.AccountsProcessed, digest.TotalAccounts, digest.PostCount)
		if digest.Fallback {
			fmt.Print(" (manual summary)")
		}
		fmt.Println()
	}
	fmt.Println(strings.Repeat("=", 72))
	return nil
}
