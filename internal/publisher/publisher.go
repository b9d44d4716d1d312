package publisher

import (
	"context"

	"github.com/tkamiya/daily-brief/internal/summarizer"
)

// Publisher publishes a digest to some output destination.
type Publisher interface {
	Publish(ctx context.Context, digest *summarizer.Digest) error
}
