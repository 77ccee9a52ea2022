// Package importer turns one upstream game or system into a persisted
// catalog aggregate: the entity row, its regional children, its genre and
// company links, and its media cache rows.
package importer

import (
	"context"

	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/screenscraper"
)

// Upstream is the subset of the Screenscraper client the importers need
type Upstream interface {
	GameInfo(ctx context.Context, gameID, systemID int64) (*screenscraper.Game, error)
	Systems(ctx context.Context) ([]screenscraper.System, error)
}

// Status is the outcome of one import
type Status string

// Import statuses
const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusSkipped Status = "skipped"
	StatusExists  Status = "exists"
)

// Result describes one import. Failures are returned as errors instead.
type Result struct {
	Status     Status
	UpstreamID int64
	EntityID   int64 // 0 when skipped
	Title      string
	Reason     string // why the item was skipped

	MediaKept     int
	MediaRejected int
	MediaFailed   int
}

// Succeeded reports whether the entity is present in the catalog after the import
func (r *Result) Succeeded() bool {
	return r.Status == StatusCreated || r.Status == StatusUpdated || r.Status == StatusExists
}

// Options controls import behaviour shared by both importers
type Options struct {
	UpdateExisting  bool
	PreferredRegion string
	Priorities      normalize.Priorities
}

func (o Options) chains() ([]string, []string) {
	priorities := o.Priorities
	if priorities == nil {
		priorities = normalize.DefaultPriorities()
	}
	return priorities.Chain(o.PreferredRegion), normalize.LanguageChain(o.PreferredRegion)
}
