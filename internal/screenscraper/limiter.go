package screenscraper

import (
	"context"
	"time"

	"github.com/franz/retro-scraper/internal/util"
	"golang.org/x/time/rate"
)

// DefaultMinInterval is the spacing Screenscraper tolerates for a single dev account
const DefaultMinInterval = 1200 * time.Millisecond

// Limiter gates every upstream request. Acquire blocks until the caller may start its request.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// IntervalLimiter spaces the start of consecutive requests by at least a fixed interval.
// A burst of one makes the underlying token bucket behave as a single shared
// "last request" clock; rate.Limiter serializes concurrent callers.
type IntervalLimiter struct {
	limiter *rate.Limiter
}

// NewIntervalLimiter creates a limiter; a non-positive interval disables spacing
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &IntervalLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Acquire waits for the next request slot
func (l *IntervalLimiter) Acquire(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > 10*time.Millisecond {
		util.DebugLog("Rate limit: waited %v before upstream request", waited.Round(time.Millisecond))
	}
	return nil
}
