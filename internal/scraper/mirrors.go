package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrNoWorkingMirror is returned when every candidate mirror is down,
// rate limited, or serving something that doesn't look like a timeline.
var ErrNoWorkingMirror = fmt.Errorf("no working mirror instance found")

const (
	rateLimitCooldown = 5 * time.Minute
	probeBodyLimit    = 256 << 10
)

// suspiciousHosts are redirect targets that mean a mirror is dead or
// hijacked even though it answers with 200.
var suspiciousHosts = []string{
	"status.d420.de",
	"coaufu.com",
	"blocked",
	"error",
	"maintenance",
	"redirect",
	"spam",
}

// timelineIndicators are markup fragments expected on a real mirror page.
// A probe passes when at least two appear in the lowercased body.
var timelineIndicators = []string{
	"nitter",
	"twitter",
	"tweet",
	"timeline",
	"profile",
}

// mirrorPool walks an ordered list of mirror base URLs, remembering which
// ones are cooling down after a rate limit.
type mirrorPool struct {
	mirrors      []string
	probeAccount string
	client       *http.Client

	mu        sync.Mutex
	cooldowns map[string]time.Time

	now func() time.Time
}

func newMirrorPool(mirrors []string, probeAccount string, client *http.Client) *mirrorPool {
	return &mirrorPool{
		mirrors:      mirrors,
		probeAccount: probeAccount,
		client:       client,
		cooldowns:    make(map[string]time.Time),
		now:          time.Now,
	}
}

// Pick probes the candidates in order and returns the first working mirror.
func (p *mirrorPool) Pick(ctx context.Context) (string, error) {
	for _, mirror := range p.mirrors {
		if p.coolingDown(mirror) {
			log.Printf("Mirror %s in cooldown, skipping", mirror)
			continue
		}
		ok, err := p.probe(ctx, mirror)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Printf("Mirror %s not working: %v", mirror, err)
			continue
		}
		if ok {
			log.Printf("Using mirror instance: %s", mirror)
			return mirror, nil
		}
	}
	return "", ErrNoWorkingMirror
}

// MarkCooldown takes a mirror out of rotation for d.
func (p *mirrorPool) MarkCooldown(mirror string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	until := p.now().Add(d)
	p.cooldowns[mirror] = until
	log.Printf("Mirror %s rate limited, cooling down until %s", mirror, until.Format(time.RFC3339))
}

func (p *mirrorPool) coolingDown(mirror string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	until, ok := p.cooldowns[mirror]
	return ok && p.now().Before(until)
}

// probe fetches the probe account's timeline from the mirror and checks that
// the response actually looks like a timeline page.
func (p *mirrorPool) probe(ctx context.Context, mirror string) (bool, error) {
	probeURL := fmt.Sprintf("%s/%s", strings.TrimRight(mirror, "/"), p.probeAccount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return false, fmt.Errorf("create probe request: %w", err)
	}
	setBrowserHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	// Redirects to health-check or parked domains mean the instance is gone.
	finalURL := strings.ToLower(resp.Request.URL.String())
	for _, host := range suspiciousHosts {
		if strings.Contains(finalURL, host) {
			return false, fmt.Errorf("redirected to suspicious host: %s", resp.Request.URL)
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		p.MarkCooldown(mirror, rateLimitCooldown)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("probe returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, probeBodyLimit))
	if err != nil {
		return false, fmt.Errorf("read probe body: %w", err)
	}

	content := strings.ToLower(string(body))
	found := 0
	for _, indicator := range timelineIndicators {
		if strings.Contains(content, indicator) {
			found++
		}
	}
	if found < 2 {
		return false, fmt.Errorf("page does not look like a timeline (%d/%d indicators)", found, len(timelineIndicators))
	}
	return true, nil
}

// setBrowserHeaders makes requests look like a regular desktop browser.
// Mirrors aggressively block default Go user agents.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
}
