package importer

import (
	"context"
	"fmt"

	"github.com/franz/retro-scraper/internal/media"
	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/resolve"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
)

// GameImporter imports single games into a console
type GameImporter struct {
	store     *store.Store
	upstream  Upstream
	resolver  *resolve.Resolver
	media     *media.Cache
	opts      Options
	chain     []string
	languages []string
}

// NewGameImporter creates a game importer
func NewGameImporter(s *store.Store, upstream Upstream, resolver *resolve.Resolver, cache *media.Cache, opts Options) *GameImporter {
	chain, languages := opts.chains()
	return &GameImporter{
		store:     s,
		upstream:  upstream,
		resolver:  resolver,
		media:     cache,
		opts:      opts,
		chain:     chain,
		languages: languages,
	}
}

// Import fetches, validates and persists one upstream game. With updates
// disabled an already imported game returns StatusExists without any
// upstream call.
func (gi *GameImporter) Import(ctx context.Context, console *store.Console, upstreamGameID int64) (*Result, error) {
	result := &Result{UpstreamID: upstreamGameID}

	existing, err := gi.store.GameByUpstreamID(ctx, console.ID, upstreamGameID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !gi.opts.UpdateExisting {
		result.Status = StatusExists
		result.EntityID = existing.ID
		result.Title = existing.Title
		return result, nil
	}

	raw, err := gi.upstream.GameInfo(ctx, upstreamGameID, console.UpstreamID)
	if err != nil {
		return nil, fmt.Errorf("fetch game %d: %w", upstreamGameID, err)
	}

	g := normalize.NormalizeGame(raw, upstreamGameID)
	g.UpstreamID = upstreamGameID
	result.Title = g.Title(gi.chain)

	if reason := g.Skippable(); reason != "" {
		result.Status = StatusSkipped
		result.Reason = reason
		util.DebugLog("Game %d (%s) skipped: %s", upstreamGameID, result.Title, reason)
		return result, nil
	}

	// Shared entities commit on their own: they are deduplicated, so a later
	// failure of this game leaves nothing orphaned.
	developerID, err := gi.resolver.Corporation(ctx, g.Developer, store.RoleDeveloper)
	if err != nil {
		return nil, fmt.Errorf("resolve developer: %w", err)
	}
	publisherID, err := gi.resolver.Corporation(ctx, g.Publisher, store.RolePublisher)
	if err != nil {
		return nil, fmt.Errorf("resolve publisher: %w", err)
	}
	familyID, err := gi.resolver.Family(ctx, normalize.Principal(g.Families))
	if err != nil {
		return nil, fmt.Errorf("resolve family: %w", err)
	}
	genreID, err := gi.resolver.Genre(ctx, g.Genres)
	if err != nil {
		return nil, fmt.Errorf("resolve genre: %w", err)
	}

	row := &store.Game{
		ConsoleID:   console.ID,
		UpstreamID:  upstreamGameID,
		Title:       result.Title,
		ReleaseYear: g.ReleaseYear(gi.chain),
		Description: g.Description(gi.languages),
		Rating:      g.Rating,
		Players:     g.Players,
		Rotation:    g.Rotation,
		Resolution:  g.Resolution,
		TopStaff:    g.TopStaff,
		DeveloperID: developerID,
		PublisherID: publisherID,
		FamilyID:    familyID,
		GenreID:     genreID,
	}

	err = gi.store.Transaction(ctx, func(q *store.Queries) error {
		current, err := q.GameByUpstreamID(ctx, console.ID, upstreamGameID)
		if err != nil {
			return err
		}

		switch {
		case current != nil && !gi.opts.UpdateExisting:
			// Created since the first check
			result.Status = StatusExists
			result.EntityID = current.ID
			return nil
		case current != nil:
			row.ID = current.ID
			row.Slug = current.Slug
			if err := q.UpdateGame(ctx, row); err != nil {
				return err
			}
			result.Status = StatusUpdated
		default:
			slug, err := q.UniqueGameSlug(ctx, console.ID, normalize.Slugify(row.Title))
			if err != nil {
				return err
			}
			row.Slug = slug
			if err := q.CreateGame(ctx, row); err != nil {
				return err
			}
			result.Status = StatusCreated
		}
		result.EntityID = row.ID

		if err := q.ReplaceGameTitles(ctx, row.ID, regionalTitles(&g)); err != nil {
			return err
		}
		if err := q.ReplaceGameDates(ctx, row.ID, regionalDates(&g)); err != nil {
			return err
		}

		mediaResult, err := gi.media.Replace(ctx, q, store.EntityGame, row.ID, upstreamGameID, g.Media)
		if err != nil {
			return err
		}
		result.MediaKept = mediaResult.Kept
		result.MediaRejected = len(mediaResult.Rejected)
		result.MediaFailed = len(mediaResult.Failed)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist game %d: %w", upstreamGameID, err)
	}

	return result, nil
}

// Media fetches a game and returns its normalized media list
func (gi *GameImporter) Media(ctx context.Context, console *store.Console, upstreamGameID int64) ([]normalize.MediaItem, error) {
	raw, err := gi.upstream.GameInfo(ctx, upstreamGameID, console.UpstreamID)
	if err != nil {
		return nil, fmt.Errorf("fetch game %d: %w", upstreamGameID, err)
	}
	return normalize.NormalizeGame(raw, upstreamGameID).Media, nil
}

func regionalTitles(g *normalize.Game) []store.RegionalTitle {
	var titles []store.RegionalTitle
	for _, t := range g.RegionalTitles() {
		titles = append(titles, store.RegionalTitle{Region: t.Region, Title: t.Text})
	}
	return titles
}

func regionalDates(g *normalize.Game) []store.RegionalDate {
	var dates []store.RegionalDate
	for _, d := range g.RegionalDates() {
		dates = append(dates, store.RegionalDate{Region: d.Region, ReleaseDate: d.Date.String(), Year: d.Date.Year})
	}
	return dates
}
