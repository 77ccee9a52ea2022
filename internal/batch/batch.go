// Package batch drives importer calls over a list of upstream ids in
// fixed-size batches with retries, a continue-on-error policy and
// aggregate statistics.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/franz/retro-scraper/internal/importer"
	"github.com/franz/retro-scraper/internal/metrics"
	"github.com/franz/retro-scraper/internal/report"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/panics"
)

// Item categories
const (
	CategoryConsoles = "consoles"
	CategoryGames    = "games"
)

// Defaults applied when a Config field is left zero
const (
	DefaultBatchSize  = 50
	DefaultBatchPause = 2 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 5 * time.Second
)

// Item is one upstream id to import
type Item struct {
	ID       int64
	Category string
	Label    string // display name when known before the import
	Priority int    // lower runs first when sorting is enabled
	Critical bool
}

// ImportFunc performs one idempotent import
type ImportFunc func(ctx context.Context, item Item) (*importer.Result, error)

// Config holds orchestrator configuration
type Config struct {
	BatchSize      int
	BatchPause     time.Duration
	MaxRetries     int // extra attempts after the first
	RetryDelay     time.Duration
	StrictFail     bool // a failed critical item aborts the run
	SortByPriority bool
	ShowProgress   bool // render a progress bar when stderr is a terminal
}

// DefaultConfig returns the default batch policy
func DefaultConfig() *Config {
	return &Config{
		BatchSize:    DefaultBatchSize,
		BatchPause:   DefaultBatchPause,
		MaxRetries:   DefaultMaxRetries,
		RetryDelay:   DefaultRetryDelay,
		ShowProgress: true,
	}
}

// Orchestrator runs items sequentially. The upstream limiter spaces every
// request globally, so items never run concurrently.
type Orchestrator struct {
	cfg    Config
	events *report.EventLogger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator. events may be nil.
func New(cfg *Config, events *report.EventLogger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return &Orchestrator{
		cfg:    c,
		events: events,
		sleep:  util.Sleep,
	}
}

// Run processes items and returns aggregate statistics. Stats are returned
// even when the run stops early; the error is non-nil only for a critical
// failure under the strict policy or a cancelled context.
func (o *Orchestrator) Run(ctx context.Context, items []Item, fn ImportFunc) (*Stats, error) {
	stats := newStats()
	defer stats.Finish()

	if o.cfg.SortByPriority {
		items = append([]Item(nil), items...)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Priority < items[j].Priority
		})
	}

	total := len(items)
	if total == 0 {
		return stats, nil
	}
	batches := (total + o.cfg.BatchSize - 1) / o.cfg.BatchSize

	var bar *progressbar.ProgressBar
	if o.cfg.ShowProgress && util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Importing"),
			progressbar.OptionSetWidth(min(40, util.GetTerminalWidth()/3)),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("items"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
		defer bar.Finish()
	}

	for b := 0; b < batches; b++ {
		start := b * o.cfg.BatchSize
		end := min(start+o.cfg.BatchSize, total)

		if b > 0 && o.cfg.BatchPause > 0 {
			util.DebugLog("Pausing %v before batch %d/%d", o.cfg.BatchPause, b+1, batches)
			if err := o.sleep(ctx, o.cfg.BatchPause); err != nil {
				stats.Aborted = "interrupted"
				return stats, err
			}
		}
		o.events.LogBatch(b+1, batches, end-start)

		for _, item := range items[start:end] {
			if err := ctx.Err(); err != nil {
				stats.Aborted = "interrupted"
				return stats, err
			}

			err := o.runItem(ctx, item, fn, stats)
			if bar != nil {
				_ = bar.Add(1)
				failed := stats.Totals().Failed
				bar.Describe(fmt.Sprintf("Importing | %d/%d batch | %d failed", b+1, batches, failed))
			}
			if err != nil {
				stats.Aborted = err.Error()
				return stats, err
			}
		}

		if bar == nil {
			t := stats.Totals()
			util.InfoLog("Progress: batch %d/%d, processed %d/%d (succeeded: %d, skipped: %d, failed: %d)",
				b+1, batches, t.Processed, total, t.Succeeded(), t.Skipped, t.Failed)
		}
	}

	return stats, nil
}

// runItem imports one item with retries and records its outcome. It returns
// an error only when the failure must abort the run.
func (o *Orchestrator) runItem(ctx context.Context, item Item, fn ImportFunc, stats *Stats) error {
	// An item that has started always runs to completion
	itemCtx := context.WithoutCancel(ctx)
	started := time.Now()

	attempts := 0
	var lastErr error
	retryCfg := util.FixedRetryConfig(o.cfg.MaxRetries, o.cfg.RetryDelay)
	result, err := util.RetryWithBackoff(itemCtx, retryCfg, func() (*importer.Result, error) {
		attempts++
		if attempts > 1 {
			stats.Retries++
			metrics.RecordRetry(item.Category)
			o.events.LogRetry(item.Category, item.ID, attempts, lastErr)
		}
		res, err := attempt(itemCtx, item, fn)
		lastErr = err
		return res, err
	}, fmt.Sprintf("%s %d", item.Category, item.ID))

	counts := stats.category(item.Category)
	counts.Processed++

	if err == nil && result == nil {
		err = errors.New("import returned no result")
	}
	if err != nil {
		counts.Failed++
		metrics.RecordImport(item.Category, "failed", time.Since(started))
		label := item.Label
		if result != nil && result.Title != "" {
			label = result.Title
		}
		stats.Errors = append(stats.Errors, report.ItemError{
			Category:   item.Category,
			UpstreamID: item.ID,
			Label:      label,
			Attempts:   attempts,
			Error:      err.Error(),
		})
		util.ErrorLog("Failed %s %d%s after %d attempt(s): %v", item.Category, item.ID, labelSuffix(label), attempts, err)
		o.events.LogError(item.Category, item.ID, label, attempts, err)

		if item.Critical && o.cfg.StrictFail {
			return fmt.Errorf("%w: %s %d: %v", util.ErrCriticalFailure, item.Category, item.ID, err)
		}
		return nil
	}

	metrics.RecordImport(item.Category, string(result.Status), time.Since(started))
	switch result.Status {
	case importer.StatusCreated:
		counts.Created++
	case importer.StatusUpdated:
		counts.Updated++
	case importer.StatusExists:
		counts.Exists++
	case importer.StatusSkipped:
		counts.Skipped++
		title := result.Title
		if title == "" {
			title = item.Label
		}
		util.InfoLog("Skipped %s %d%s: %s", item.Category, item.ID, labelSuffix(title), result.Reason)
		o.events.LogSkip(item.Category, item.ID, title, result.Reason)
		return nil
	}

	util.DebugLog("%s %s %d (%s)", result.Status, item.Category, item.ID, result.Title)
	o.events.LogImport(item.Category, item.ID, result.EntityID, result.Title, string(result.Status), time.Since(started))
	if result.MediaKept+result.MediaRejected+result.MediaFailed > 0 {
		o.events.LogMedia(entityType(item.Category), result.EntityID, result.MediaKept, result.MediaRejected, result.MediaFailed)
		metrics.RecordMedia(result.MediaKept, result.MediaRejected, result.MediaFailed)
	}
	return nil
}

// attempt runs fn once, turning a panic into an error
func attempt(ctx context.Context, item Item, fn ImportFunc) (*importer.Result, error) {
	var result *importer.Result
	var err error

	var pc panics.Catcher
	pc.Try(func() {
		result, err = fn(ctx, item)
	})
	if r := pc.Recovered(); r != nil {
		return nil, r.AsError()
	}
	return result, err
}

func entityType(category string) string {
	if category == CategoryConsoles {
		return store.EntityConsole
	}
	return store.EntityGame
}

func labelSuffix(label string) string {
	if label == "" {
		return ""
	}
	return " (" + label + ")"
}
