package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/tkamiya/daily-brief/internal/scraper"
)

const promptHeader = `Analyze these posts from AI companies and create a concise daily summary:

Key points to extract:
- New product announcements
- Technical breakthroughs
- Important partnerships
- Notable research findings
- Significant company updates
- Industry trends and insights

Please format the summary in clear bullet points with the most important information first.

Posts:
`

// buildPrompt joins up to maxPosts posts into the summarization prompt.
func buildPrompt(posts []scraper.Post, maxPosts int) string {
	if maxPosts > 0 && len(posts) > maxPosts {
		posts = posts[:maxPosts]
	}

	lines := make([]string, 0, len(posts))
	for _, p := range posts {
		lines = append(lines, fmt.Sprintf("@%s: %s", p.Account, p.Text))
	}

	var sb strings.Builder
	sb.WriteString(promptHeader)
	sb.WriteString("\n")
	sb.WriteString(strings.Join(lines, "\n\n"))
	sb.WriteString("\n\nSummary:")
	return sb.String()
}

// stripFences removes markdown code fences models sometimes wrap output in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// emptyDigest is returned when a run collected nothing; the API is not called.
func emptyDigest(message string) *Digest {
	return &Digest{
		Date:    time.Now().UTC(),
		Summary: message,
	}
}
