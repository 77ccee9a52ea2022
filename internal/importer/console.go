package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/franz/retro-scraper/internal/media"
	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/screenscraper"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
)

// ConsoleImporter imports upstream systems as consoles
type ConsoleImporter struct {
	store     *store.Store
	upstream  Upstream
	media     *media.Cache
	opts      Options
	chain     []string
	languages []string

	mu      sync.Mutex
	systems map[int64]*screenscraper.System
}

// NewConsoleImporter creates a console importer
func NewConsoleImporter(s *store.Store, upstream Upstream, cache *media.Cache, opts Options) *ConsoleImporter {
	chain, languages := opts.chains()
	return &ConsoleImporter{
		store:     s,
		upstream:  upstream,
		media:     cache,
		opts:      opts,
		chain:     chain,
		languages: languages,
	}
}

// SystemIDs returns every upstream system id, sorted
func (ci *ConsoleImporter) SystemIDs(ctx context.Context) ([]int64, error) {
	if err := ci.loadSystems(ctx); err != nil {
		return nil, err
	}
	ci.mu.Lock()
	defer ci.mu.Unlock()

	ids := make([]int64, 0, len(ci.systems))
	for id := range ci.systems {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// loadSystems fetches the system list once per importer
func (ci *ConsoleImporter) loadSystems(ctx context.Context) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if ci.systems != nil {
		return nil
	}

	systems, err := ci.upstream.Systems(ctx)
	if err != nil {
		return fmt.Errorf("fetch system list: %w", err)
	}
	byID := make(map[int64]*screenscraper.System, len(systems))
	for i := range systems {
		s := normalize.NormalizeSystem(&systems[i], 0)
		if s.UpstreamID > 0 {
			byID[s.UpstreamID] = &systems[i]
		}
	}
	ci.systems = byID
	util.DebugLog("Loaded %d upstream systems", len(byID))
	return nil
}

func (ci *ConsoleImporter) system(ctx context.Context, id int64) (*screenscraper.System, error) {
	if err := ci.loadSystems(ctx); err != nil {
		return nil, err
	}
	ci.mu.Lock()
	defer ci.mu.Unlock()
	raw, ok := ci.systems[id]
	if !ok {
		return nil, fmt.Errorf("system %d: %w", id, util.ErrNotFound)
	}
	return raw, nil
}

// Import creates, or with updates enabled refreshes, one console
func (ci *ConsoleImporter) Import(ctx context.Context, upstreamSystemID int64) (*Result, error) {
	result := &Result{UpstreamID: upstreamSystemID}

	existing, err := ci.store.ConsoleByUpstreamID(ctx, upstreamSystemID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !ci.opts.UpdateExisting {
		result.Status = StatusExists
		result.EntityID = existing.ID
		result.Title = existing.Name
		return result, nil
	}

	raw, err := ci.system(ctx, upstreamSystemID)
	if err != nil {
		return nil, err
	}
	sys := normalize.NormalizeSystem(raw, upstreamSystemID)
	result.Title = sys.Name(ci.chain)

	row := &store.Console{
		UpstreamID:   upstreamSystemID,
		Name:         result.Title,
		Manufacturer: sys.Company,
		Type:         sys.Type,
		ReleaseYear:  sys.ReleaseYear(),
		Description:  sys.Description(ci.languages),
	}

	err = ci.store.Transaction(ctx, func(q *store.Queries) error {
		current, err := q.ConsoleByUpstreamID(ctx, upstreamSystemID)
		if err != nil {
			return err
		}

		switch {
		case current != nil && !ci.opts.UpdateExisting:
			result.Status = StatusExists
			result.EntityID = current.ID
			return nil
		case current != nil:
			row.ID = current.ID
			row.Slug = current.Slug
			if err := q.UpdateConsole(ctx, row); err != nil {
				return err
			}
			result.Status = StatusUpdated
		default:
			slug, err := q.UniqueConsoleSlug(ctx, normalize.Slugify(row.Name))
			if err != nil {
				return err
			}
			row.Slug = slug
			if err := q.CreateConsole(ctx, row); err != nil {
				return err
			}
			result.Status = StatusCreated
		}
		result.EntityID = row.ID

		mediaResult, err := ci.media.Replace(ctx, q, store.EntityConsole, row.ID, upstreamSystemID, sys.Media)
		if err != nil {
			return err
		}
		result.MediaKept = mediaResult.Kept
		result.MediaRejected = len(mediaResult.Rejected)
		result.MediaFailed = len(mediaResult.Failed)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist console %d: %w", upstreamSystemID, err)
	}

	return result, nil
}

// EnsureConsole returns the local console for an upstream system, importing it when missing
func (ci *ConsoleImporter) EnsureConsole(ctx context.Context, upstreamSystemID int64) (*store.Console, error) {
	console, err := ci.store.ConsoleByUpstreamID(ctx, upstreamSystemID)
	if err != nil || console != nil {
		return console, err
	}

	result, err := ci.Import(ctx, upstreamSystemID)
	if err != nil {
		return nil, err
	}
	util.InfoLog("Imported console %d: %s", upstreamSystemID, result.Title)
	return ci.store.ConsoleByID(ctx, result.EntityID)
}

// Media returns the normalized media list of an upstream system
func (ci *ConsoleImporter) Media(ctx context.Context, upstreamSystemID int64) ([]normalize.MediaItem, error) {
	raw, err := ci.system(ctx, upstreamSystemID)
	if err != nil {
		return nil, err
	}
	return normalize.NormalizeSystem(raw, upstreamSystemID).Media, nil
}
