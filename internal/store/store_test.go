package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestConsole(t *testing.T, store *Store) *Console {
	t.Helper()
	c := &Console{UpstreamID: 1, Name: "Megadrive", Slug: "megadrive", Manufacturer: "Sega"}
	if err := store.CreateConsole(context.Background(), c); err != nil {
		t.Fatalf("failed to create console: %v", err)
	}
	return c
}

func TestStoreOpenAndMigrate(t *testing.T) {
	store := openTestStore(t)

	version, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}

	tables := []string{
		"consoles", "games", "game_regional_titles", "game_regional_dates",
		"corporations", "corporation_roles", "families", "genres", "media_url_cache", "schema_version",
	}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	if err := store.CheckIntegrity(); err != nil {
		t.Errorf("integrity check failed: %v", err)
	}
}

func TestOpenNetworkOptimized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.db")

	tests := []struct {
		name      string
		optimized bool
		want      int // PRAGMA temp_store: 0 DEFAULT, 2 MEMORY
	}{
		{"default", false, 0},
		{"network", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := OpenWithOptions(path, &OpenOptions{NetworkOptimized: tt.optimized})
			if err != nil {
				t.Fatalf("OpenWithOptions failed: %v", err)
			}
			defer db.Close()

			var tempStore int
			if err := db.db.QueryRow("PRAGMA temp_store").Scan(&tempStore); err != nil {
				t.Fatalf("failed to read temp_store pragma: %v", err)
			}
			if tempStore != tt.want {
				t.Errorf("temp_store = %d, want %d", tempStore, tt.want)
			}
		})
	}
}

func TestStoreReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	createTestConsole(t, store)
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store.Close()

	c, err := store.ConsoleByUpstreamID(context.Background(), 1)
	if err != nil || c == nil {
		t.Fatalf("expected console after reopen, got %v, %v", c, err)
	}
}

func TestConsoleLookupNotFound(t *testing.T) {
	store := openTestStore(t)

	c, err := store.ConsoleByUpstreamID(context.Background(), 404)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil console, got %+v", c)
	}
}

func TestUniqueSlugSuffixes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, want := range []string{"konami", "konami-2", "konami-3"} {
		slug, err := store.UniqueCorporationSlug(ctx, "konami")
		if err != nil {
			t.Fatalf("UniqueCorporationSlug failed: %v", err)
		}
		if slug != want {
			t.Errorf("slug %d = %q, want %q", i, slug, want)
		}
		name := "Konami " + slug
		if err := store.CreateCorporation(ctx, &Corporation{Name: name, Slug: slug}); err != nil {
			t.Fatalf("CreateCorporation failed: %v", err)
		}
	}
}

func TestGameSlugScopedToConsole(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	md := createTestConsole(t, store)
	ms := &Console{UpstreamID: 2, Name: "Master System", Slug: "master-system"}
	if err := store.CreateConsole(ctx, ms); err != nil {
		t.Fatalf("failed to create console: %v", err)
	}

	if err := store.CreateGame(ctx, &Game{ConsoleID: md.ID, UpstreamID: 5, Title: "Sonic", Slug: "sonic"}); err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	slug, err := store.UniqueGameSlug(ctx, md.ID, "sonic")
	if err != nil || slug != "sonic-2" {
		t.Errorf("same console slug = %q, %v; want sonic-2", slug, err)
	}
	slug, err = store.UniqueGameSlug(ctx, ms.ID, "sonic")
	if err != nil || slug != "sonic" {
		t.Errorf("other console slug = %q, %v; want sonic", slug, err)
	}
}

func TestGameCreateAndRetrieve(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	console := createTestConsole(t, store)

	year := 1991
	rating := int64(16)
	game := &Game{
		ConsoleID:   console.ID,
		UpstreamID:  5,
		Title:       "Sonic the Hedgehog",
		Slug:        "sonic-the-hedgehog",
		ReleaseYear: &year,
		Rating:      &rating,
		TopStaff:    true,
	}
	if err := store.CreateGame(ctx, game); err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if game.ID == 0 {
		t.Error("expected game ID to be set after insert")
	}

	got, err := store.GameByUpstreamID(ctx, console.ID, 5)
	if err != nil || got == nil {
		t.Fatalf("GameByUpstreamID = %v, %v", got, err)
	}
	if got.Title != game.Title || got.ReleaseYear == nil || *got.ReleaseYear != 1991 {
		t.Errorf("unexpected game: %+v", got)
	}
	if got.Rating == nil || *got.Rating != 16 || !got.TopStaff {
		t.Errorf("unexpected flags: %+v", got)
	}
	if got.DeveloperID != nil || got.GenreID != nil {
		t.Errorf("expected nil relations, got %+v", got)
	}

	dup := &Game{ConsoleID: console.ID, UpstreamID: 5, Title: "Dup", Slug: "dup"}
	if err := store.CreateGame(ctx, dup); err == nil {
		t.Error("expected unique violation for duplicate (console, upstream id)")
	}
}

func TestReplaceGameChildren(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	console := createTestConsole(t, store)

	game := &Game{ConsoleID: console.ID, UpstreamID: 5, Title: "Sonic", Slug: "sonic"}
	if err := store.CreateGame(ctx, game); err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	first := []RegionalTitle{{Region: "eu", Title: "Sonic"}, {Region: "jp", Title: "Sonic JP"}}
	if err := store.ReplaceGameTitles(ctx, game.ID, first); err != nil {
		t.Fatalf("ReplaceGameTitles failed: %v", err)
	}
	if err := store.ReplaceGameTitles(ctx, game.ID, []RegionalTitle{{Region: "us", Title: "Sonic US"}}); err != nil {
		t.Fatalf("ReplaceGameTitles failed: %v", err)
	}

	titles, err := store.GameTitles(ctx, game.ID)
	if err != nil {
		t.Fatalf("GameTitles failed: %v", err)
	}
	if len(titles) != 1 || titles[0].Region != "us" {
		t.Errorf("expected only the us title, got %v", titles)
	}

	if err := store.ReplaceGameDates(ctx, game.ID, []RegionalDate{{Region: "eu", ReleaseDate: "1991-06-23", Year: 1991}}); err != nil {
		t.Fatalf("ReplaceGameDates failed: %v", err)
	}
	dates, err := store.GameDates(ctx, game.ID)
	if err != nil || len(dates) != 1 || dates[0].Year != 1991 {
		t.Errorf("GameDates = %v, %v", dates, err)
	}
}

func TestTransactionRollback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	console := createTestConsole(t, store)

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(q *Queries) error {
		game := &Game{ConsoleID: console.ID, UpstreamID: 5, Title: "Sonic", Slug: "sonic"}
		if err := q.CreateGame(ctx, game); err != nil {
			return err
		}
		if err := q.ReplaceGameTitles(ctx, game.ID, []RegionalTitle{{Region: "eu", Title: "Sonic"}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	game, err := store.GameByUpstreamID(ctx, console.ID, 5)
	if err != nil {
		t.Fatalf("GameByUpstreamID failed: %v", err)
	}
	if game != nil {
		t.Error("rolled back game should not exist")
	}

	var titles int
	store.db.QueryRow("SELECT COUNT(*) FROM game_regional_titles").Scan(&titles)
	if titles != 0 {
		t.Errorf("expected no orphaned titles, got %d", titles)
	}
}

func TestCorporationRolesAndBackfill(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	corp := &Corporation{Name: "Sega", Slug: "sega"}
	if err := store.CreateCorporation(ctx, corp); err != nil {
		t.Fatalf("CreateCorporation failed: %v", err)
	}

	for _, role := range []string{RoleDeveloper, RolePublisher, RoleDeveloper} {
		if err := store.AddCorporationRole(ctx, corp.ID, role); err != nil {
			t.Fatalf("AddCorporationRole failed: %v", err)
		}
	}
	roles, err := store.CorporationRoles(ctx, corp.ID)
	if err != nil {
		t.Fatalf("CorporationRoles failed: %v", err)
	}
	if len(roles) != 2 || roles[0] != RoleDeveloper || roles[1] != RolePublisher {
		t.Errorf("roles = %v", roles)
	}

	if err := store.SetCorporationUpstreamID(ctx, corp.ID, 3); err != nil {
		t.Fatalf("SetCorporationUpstreamID failed: %v", err)
	}
	byID, err := store.CorporationByUpstreamID(ctx, 3)
	if err != nil || byID == nil || byID.ID != corp.ID {
		t.Errorf("CorporationByUpstreamID = %v, %v", byID, err)
	}

	// An upstream id already set is never overwritten
	if err := store.SetCorporationUpstreamID(ctx, corp.ID, 99); err != nil {
		t.Fatalf("SetCorporationUpstreamID failed: %v", err)
	}
	if c, _ := store.CorporationByName(ctx, "Sega"); c == nil || c.UpstreamID == nil || *c.UpstreamID != 3 {
		t.Errorf("upstream id changed: %+v", c)
	}
}

func TestUpsertGenre(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.UpsertGenre(ctx, &Genre{ID: 7, Name: "Platform", IsMain: true, Color: "#e6194b"})
	if err != nil || !created {
		t.Fatalf("UpsertGenre = %v, %v; want created", created, err)
	}
	created, err = store.UpsertGenre(ctx, &Genre{ID: 7, Name: "Plateforme", IsMain: true})
	if err != nil || created {
		t.Fatalf("UpsertGenre = %v, %v; want update", created, err)
	}

	g, err := store.GenreByID(ctx, 7)
	if err != nil || g == nil || g.Name != "Plateforme" || !g.IsMain {
		t.Errorf("GenreByID = %+v, %v", g, err)
	}
}

func TestMediaCacheUniqueness(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry := &MediaCacheEntry{
		EntityType: EntityGame,
		EntityID:   1,
		MediaType:  "wheel",
		Region:     "eu",
		URL:        "https://example.test/wheel.png",
		UpstreamID: 5,
	}
	if err := store.InsertMediaCache(ctx, entry); err != nil {
		t.Fatalf("InsertMediaCache failed: %v", err)
	}
	dup := *entry
	if err := store.InsertMediaCache(ctx, &dup); err == nil {
		t.Error("expected unique violation for duplicate (entity, type, region)")
	}

	n, err := store.DeleteMediaCache(ctx, EntityGame, 1)
	if err != nil || n != 1 {
		t.Errorf("DeleteMediaCache = %d, %v", n, err)
	}
}

func TestCatalogCounts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	console := createTestConsole(t, store)

	if err := store.CreateGame(ctx, &Game{ConsoleID: console.ID, UpstreamID: 5, Title: "Sonic", Slug: "sonic"}); err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	counts, err := store.CatalogCounts(ctx)
	if err != nil {
		t.Fatalf("CatalogCounts failed: %v", err)
	}
	if counts.Consoles != 1 || counts.Games != 1 || counts.GamesNoGenre != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}

	per, err := store.GamesPerConsole(ctx)
	if err != nil || len(per) != 1 || per[0].Games != 1 {
		t.Errorf("GamesPerConsole = %v, %v", per, err)
	}
}
