package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/franz/retro-scraper/internal/media"
	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/resolve"
	"github.com/franz/retro-scraper/internal/screenscraper"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/goccy/go-json"
)

type fakeUpstream struct {
	games       map[int64]string
	systems     string
	gameCalls   int
	systemCalls int
}

func (f *fakeUpstream) GameInfo(ctx context.Context, gameID, systemID int64) (*screenscraper.Game, error) {
	f.gameCalls++
	payload, ok := f.games[gameID]
	if !ok {
		return nil, fmt.Errorf("game %d: %w", gameID, util.ErrNotFound)
	}
	var g screenscraper.Game
	if err := json.Unmarshal([]byte(payload), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (f *fakeUpstream) Systems(ctx context.Context) ([]screenscraper.System, error) {
	f.systemCalls++
	var systems []screenscraper.System
	if err := json.Unmarshal([]byte(f.systems), &systems); err != nil {
		return nil, err
	}
	return systems, nil
}

const sonicPayload = `{
	"id": 5,
	"noms": [{"region":"eu","text":"Sonic the Hedgehog"}],
	"notgame": false,
	"cloneof": 0,
	"developpeur": {"text":"Sega"},
	"genres": [{"id":7,"principale":"1"}],
	"dates": [{"region":"eu","text":"1991-06-23"}],
	"medias": [
		{"type":"box-2D","region":"eu","url":"https://example.test/box.png","format":"png"},
		{"type":"box-texture","region":"eu","url":"https://example.test/texture.png","format":"png"},
		{"type":"wheel","region":"eu","url":"https://example.test/wheel.png","format":"png"}
	]
}`

const systemsPayload = `[
	{"id":1,"noms":{"nom_eu":"Megadrive","nom_us":"Genesis"},"compagnie":"Sega","type":"Console","datedebut":"1988",
	 "medias":[{"type":"wheel","region":"wor","url":"https://example.test/md-wheel.png"}]},
	{"id":2,"noms":{"nom_eu":"Master System"},"compagnie":"Sega"},
	{"id":3}
]`

type fixture struct {
	store    *store.Store
	upstream *fakeUpstream
	games    *GameImporter
	consoles *ConsoleImporter
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	upstream := &fakeUpstream{
		games: map[int64]string{
			5:  sonicPayload,
			6:  `{"id":6,"noms":[{"region":"eu","text":"Demo Disc"}],"notgame":"1","developpeur":{"text":"Sega"}}`,
			42: `{"id":42,"noms":[{"region":"eu","text":"Sonic (Rev 1)"}],"cloneof":42}`,
		},
		systems: systemsPayload,
	}
	if opts.PreferredRegion == "" {
		opts.PreferredRegion = "fr"
	}
	cache := media.NewCache(media.DefaultPolicy())
	chain := normalize.DefaultPriorities().Chain(opts.PreferredRegion)

	return &fixture{
		store:    s,
		upstream: upstream,
		games:    NewGameImporter(s, upstream, resolve.New(s.Queries, nil, chain), cache, opts),
		consoles: NewConsoleImporter(s, upstream, cache, opts),
	}
}

func (f *fixture) console(t *testing.T) *store.Console {
	t.Helper()
	c, err := f.consoles.EnsureConsole(context.Background(), 1)
	if err != nil {
		t.Fatalf("EnsureConsole failed: %v", err)
	}
	return c
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := f.store.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestImportGameEndToEnd(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	console := f.console(t)

	if _, err := f.store.UpsertGenre(ctx, &store.Genre{ID: 7, Name: "Platform", IsMain: true}); err != nil {
		t.Fatalf("UpsertGenre failed: %v", err)
	}

	result, err := f.games.Import(ctx, console, 5)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Status != StatusCreated {
		t.Fatalf("status = %s, want created", result.Status)
	}

	game, err := f.store.GameByID(ctx, result.EntityID)
	if err != nil || game == nil {
		t.Fatalf("GameByID = %v, %v", game, err)
	}
	if game.Title != "Sonic the Hedgehog" || game.Slug != "sonic-the-hedgehog" {
		t.Errorf("title/slug = %q / %q", game.Title, game.Slug)
	}
	if game.GenreID == nil || *game.GenreID != 7 {
		t.Errorf("GenreID = %v, want 7", game.GenreID)
	}
	if game.ReleaseYear == nil || *game.ReleaseYear != 1991 {
		t.Errorf("ReleaseYear = %v", game.ReleaseYear)
	}

	sega, err := f.store.CorporationByName(ctx, "Sega")
	if err != nil || sega == nil {
		t.Fatalf("Sega corporation missing: %v", err)
	}
	if game.DeveloperID == nil || *game.DeveloperID != sega.ID {
		t.Errorf("DeveloperID = %v, want %d", game.DeveloperID, sega.ID)
	}
	roles, _ := f.store.CorporationRoles(ctx, sega.ID)
	if len(roles) != 1 || roles[0] != store.RoleDeveloper {
		t.Errorf("roles = %v", roles)
	}

	titles, _ := f.store.GameTitles(ctx, game.ID)
	if len(titles) != 1 || titles[0].Region != "eu" {
		t.Errorf("titles = %v", titles)
	}
	dates, _ := f.store.GameDates(ctx, game.ID)
	if len(dates) != 1 || dates[0].ReleaseDate != "1991-06-23" {
		t.Errorf("dates = %v", dates)
	}

	if result.MediaKept != 2 || result.MediaRejected != 1 {
		t.Errorf("media kept/rejected = %d/%d", result.MediaKept, result.MediaRejected)
	}
	rows, _ := f.store.MediaCache(ctx, store.EntityGame, game.ID)
	if len(rows) != 2 {
		t.Errorf("media rows = %d, want 2", len(rows))
	}
}

func TestImportGameWithoutSyncedGenre(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	result, err := f.games.Import(ctx, f.console(t), 5)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	game, _ := f.store.GameByID(ctx, result.EntityID)
	if game == nil || game.GenreID != nil {
		t.Errorf("expected game without genre, got %+v", game)
	}
}

func TestImportGameIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	console := f.console(t)

	first, err := f.games.Import(ctx, console, 5)
	if err != nil {
		t.Fatalf("first Import failed: %v", err)
	}
	calls := f.upstream.gameCalls

	second, err := f.games.Import(ctx, console, 5)
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}

	if second.Status != StatusExists || second.EntityID != first.EntityID {
		t.Errorf("second import = %+v, want exists %d", second, first.EntityID)
	}
	if f.upstream.gameCalls != calls {
		t.Errorf("second import fetched upstream (%d calls, want %d)", f.upstream.gameCalls, calls)
	}
	if n := f.count(t, "games"); n != 1 {
		t.Errorf("expected 1 game row, got %d", n)
	}
	if n := f.count(t, "corporations"); n != 1 {
		t.Errorf("expected 1 corporation row, got %d", n)
	}
}

func TestImportGameUpdateReplacesChildren(t *testing.T) {
	f := newFixture(t, Options{UpdateExisting: true})
	ctx := context.Background()
	console := f.console(t)

	first, err := f.games.Import(ctx, console, 5)
	if err != nil {
		t.Fatalf("first Import failed: %v", err)
	}

	f.upstream.games[5] = `{
		"id": 5,
		"noms": [{"region":"us","text":"Sonic"}],
		"medias": [{"type":"wheel","region":"eu","url":"https://example.test/wheel.png"}]
	}`
	second, err := f.games.Import(ctx, console, 5)
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}
	if second.Status != StatusUpdated || second.EntityID != first.EntityID {
		t.Fatalf("second import = %+v", second)
	}

	game, _ := f.store.GameByID(ctx, first.EntityID)
	if game.Title != "Sonic" || game.Slug != "sonic-the-hedgehog" {
		t.Errorf("expected new title with kept slug, got %q / %q", game.Title, game.Slug)
	}
	titles, _ := f.store.GameTitles(ctx, game.ID)
	if len(titles) != 1 || titles[0].Region != "us" {
		t.Errorf("stale titles remain: %v", titles)
	}
	rows, _ := f.store.MediaCache(ctx, store.EntityGame, game.ID)
	if len(rows) != 1 || rows[0].MediaType != "wheel" {
		t.Errorf("stale media remains: %+v", rows)
	}
	if n := f.count(t, "game_regional_dates"); n != 0 {
		t.Errorf("stale dates remain: %d", n)
	}
}

func TestImportGameSkips(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	console := f.console(t)

	for _, id := range []int64{6, 42} {
		result, err := f.games.Import(ctx, console, id)
		if err != nil {
			t.Fatalf("Import(%d) failed: %v", id, err)
		}
		if result.Status != StatusSkipped || result.Reason == "" || result.EntityID != 0 {
			t.Errorf("Import(%d) = %+v, want skipped", id, result)
		}
	}

	if n := f.count(t, "games"); n != 0 {
		t.Errorf("skipped games were persisted: %d", n)
	}
	// Developer of a skipped game is not resolved
	if n := f.count(t, "corporations"); n != 0 {
		t.Errorf("skipped game created corporations: %d", n)
	}
}

func TestImportGameSlugCollision(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	console := f.console(t)

	f.upstream.games[50] = `{"id":50,"noms":[{"region":"eu","text":"Sonic the Hedgehog"}]}`
	if _, err := f.games.Import(ctx, console, 5); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	result, err := f.games.Import(ctx, console, 50)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	game, _ := f.store.GameByID(ctx, result.EntityID)
	if game.Slug != "sonic-the-hedgehog-2" {
		t.Errorf("slug = %q, want sonic-the-hedgehog-2", game.Slug)
	}
}

func TestImportGameFetchFailure(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.games.Import(context.Background(), f.console(t), 999)
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected wrapped ErrNotFound, got %v", err)
	}
	if n := f.count(t, "games"); n != 0 {
		t.Errorf("failed import persisted rows: %d", n)
	}
}

func TestImportConsole(t *testing.T) {
	f := newFixture(t, Options{PreferredRegion: "us"})
	ctx := context.Background()

	result, err := f.consoles.Import(ctx, 1)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Status != StatusCreated || result.Title != "Genesis" || result.MediaKept != 1 {
		t.Errorf("result = %+v", result)
	}

	console, _ := f.store.ConsoleByUpstreamID(ctx, 1)
	if console == nil || console.Slug != "genesis" || console.Manufacturer != "Sega" {
		t.Fatalf("console = %+v", console)
	}
	if console.ReleaseYear == nil || *console.ReleaseYear != 1988 {
		t.Errorf("ReleaseYear = %v", console.ReleaseYear)
	}

	again, err := f.consoles.Import(ctx, 1)
	if err != nil || again.Status != StatusExists || again.EntityID != console.ID {
		t.Errorf("second import = %+v, %v", again, err)
	}

	placeholder, err := f.consoles.Import(ctx, 3)
	if err != nil || placeholder.Title != "System #3" {
		t.Errorf("placeholder import = %+v, %v", placeholder, err)
	}

	if _, err := f.consoles.Import(ctx, 77); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown system, got %v", err)
	}

	if f.upstream.systemCalls != 1 {
		t.Errorf("system list fetched %d times, want 1", f.upstream.systemCalls)
	}
}

func TestImportConsoleUpdate(t *testing.T) {
	f := newFixture(t, Options{UpdateExisting: true})
	ctx := context.Background()

	first, err := f.consoles.Import(ctx, 2)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	second, err := f.consoles.Import(ctx, 2)
	if err != nil || second.Status != StatusUpdated || second.EntityID != first.EntityID {
		t.Errorf("update = %+v, %v", second, err)
	}
	if n := f.count(t, "consoles"); n != 1 {
		t.Errorf("expected 1 console, got %d", n)
	}
}

func TestSystemIDs(t *testing.T) {
	f := newFixture(t, Options{})
	ids, err := f.consoles.SystemIDs(context.Background())
	if err != nil {
		t.Fatalf("SystemIDs failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("ids = %v", ids)
	}
}
