package scraper

import (
	"fmt"
	"strings"
	"time"
)

// tweetDateLayouts are the timestamp formats Nitter mirrors have been seen
// using, tried in order. The first successful parse wins.
var tweetDateLayouts = []string{
	"Jan 2, 2006 · 3:04 PM UTC",
	"Jan 2, 2006 · 15:04 UTC",
	"3:04 PM · Jan 2, 2006",
	"15:04 · Jan 2, 2006",
	"Jan 2, 2006 at 3:04 PM UTC",
	"Jan 2, 2006 at 15:04 UTC",
	"2006-01-02 15:04:05 UTC",
	time.RFC3339, // <time datetime="..."> attributes
	"Jan 2, 2006",
}

// ParseTweetDate parses a mirror timestamp string. Layouts without zone
// information are treated as UTC.
func ParseTweetDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, layout := range tweetDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
