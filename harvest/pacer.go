package harvest

import (
	"context"

	"golang.org/x/time/rate"
)

// Default pacing rates, equivalent to the collector's historical fixed
// sleeps: one statistics lookup every 100ms, one search page every 10s.
const (
	DefaultVideosPerSecond = 10.0
	DefaultPagesPerSecond  = 0.1
)

// Pacer spaces out remote calls to stay under the API's informal rate
// expectations. It is cooperative delay, not backoff: rates never change in
// response to errors or latency.
type Pacer interface {
	// Video blocks until the next per-video slot is available.
	Video(ctx context.Context) error
	// Page blocks until the next per-page slot is available.
	Page(ctx context.Context) error
}

// TokenBucketPacer implements Pacer with two token buckets.
type TokenBucketPacer struct {
	videos *rate.Limiter
	pages  *rate.Limiter
}

// NewTokenBucketPacer builds a pacer allowing videosPerSecond statistics
// lookups and pagesPerSecond search pages. Nonpositive rates fall back to
// the defaults.
func NewTokenBucketPacer(videosPerSecond, pagesPerSecond float64) *TokenBucketPacer {
	if videosPerSecond <= 0 {
		videosPerSecond = DefaultVideosPerSecond
	}
	if pagesPerSecond <= 0 {
		pagesPerSecond = DefaultPagesPerSecond
	}
	return &TokenBucketPacer{
		videos: rate.NewLimiter(rate.Limit(videosPerSecond), 1),
		pages:  rate.NewLimiter(rate.Limit(pagesPerSecond), 1),
	}
}

// Video waits for the per-video token bucket.
func (p *TokenBucketPacer) Video(ctx context.Context) error {
	return p.videos.Wait(ctx)
}

// Page waits for the per-page token bucket.
func (p *TokenBucketPacer) Page(ctx context.Context) error {
	return p.pages.Wait(ctx)
}

// NopPacer never waits. Used in tests and when pacing is disabled.
type NopPacer struct{}

func (NopPacer) Video(ctx context.Context) error { return nil }
func (NopPacer) Page(ctx context.Context) error  { return nil }
