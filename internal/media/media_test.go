package media

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/store"
)

func size(n int64) *int64 { return &n }

func item(mediaType, region string) normalize.MediaItem {
	return normalize.MediaItem{
		Type:   mediaType,
		Region: region,
		URL:    "https://example.test/" + mediaType + "-" + region + ".png",
		Format: "png",
	}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestClassify(t *testing.T) {
	policy := DefaultPolicy()

	big := item("video", "wor")
	big.Size = size(60_000_000)
	small := item("video-normalized", "wor")
	small.Size = size(10_000_000)

	tests := []struct {
		name string
		item normalize.MediaItem
		keep bool
	}{
		{"box", item("box-2D", "eu"), true},
		{"texture", item("box-texture", "eu"), false},
		{"bezel prefix", item("bezel-16-9", "wor"), false},
		{"type case-insensitive", item("Overlay", "wor"), false},
		{"excluded region", item("wheel", "kr"), false},
		{"no region", item("wheel", ""), true},
		{"too large", big, false},
		{"under size limit", small, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, rejected := policy.Classify([]normalize.MediaItem{tt.item})
			if got := len(kept) == 1; got != tt.keep {
				t.Errorf("kept = %v, want %v (rejected %+v)", got, tt.keep, rejected)
			}
		})
	}
}

func TestClassifyOnePerTypeAndRegion(t *testing.T) {
	first := item("wheel", "eu")
	second := item("wheel", "eu")
	second.URL = "https://example.test/other.png"

	kept, rejected := DefaultPolicy().Classify([]normalize.MediaItem{first, second, item("wheel", "us")})
	if len(kept) != 2 || kept[0].URL != first.URL {
		t.Errorf("kept = %+v", kept)
	}
	if len(rejected) != 1 || rejected[0].Reason != "duplicate type and region" {
		t.Errorf("rejected = %+v", rejected)
	}
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(nil, []string{}, "")
	if err != nil {
		t.Fatalf("NewPolicy failed: %v", err)
	}
	if len(p.ExcludedTypes) != len(DefaultExcludedTypes) {
		t.Errorf("nil types should keep defaults, got %v", p.ExcludedTypes)
	}
	if len(p.ExcludedRegions) != 0 {
		t.Errorf("empty regions should disable the filter, got %v", p.ExcludedRegions)
	}
	if p.MaxSize != 50_000_000 {
		t.Errorf("MaxSize = %d, want 50MB", p.MaxSize)
	}

	p, err = NewPolicy([]string{" Fanart "}, nil, "2 MiB")
	if err != nil {
		t.Fatalf("NewPolicy failed: %v", err)
	}
	if p.ExcludedTypes[0] != "fanart" || p.MaxSize != 2<<20 {
		t.Errorf("unexpected policy: %+v", p)
	}

	if _, err := NewPolicy(nil, nil, "huge"); err == nil {
		t.Error("expected error for invalid max size")
	}
}

func TestRescrapeRemovesStaleRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cache := NewCache(DefaultPolicy())

	if _, err := cache.Rescrape(ctx, s, store.EntityGame, 1, 5, []normalize.MediaItem{item("box-2D", "eu"), item("wheel", "eu")}); err != nil {
		t.Fatalf("first scrape failed: %v", err)
	}
	result, err := cache.Rescrape(ctx, s, store.EntityGame, 1, 5, []normalize.MediaItem{item("wheel", "eu")})
	if err != nil {
		t.Fatalf("re-scrape failed: %v", err)
	}
	if result.Deleted != 2 || result.Kept != 1 {
		t.Errorf("result = %+v", result)
	}

	rows, err := s.MediaCache(ctx, store.EntityGame, 1)
	if err != nil {
		t.Fatalf("MediaCache failed: %v", err)
	}
	if len(rows) != 1 || rows[0].MediaType != "wheel" {
		t.Errorf("expected only the wheel row, got %+v", rows)
	}
}

func TestReplaceRecordsInvalidItems(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cache := NewCache(DefaultPolicy())

	bad := item("screenshot", "eu")
	bad.URL = "not a url"
	ftp := item("fanart", "eu")
	ftp.URL = "ftp://example.test/fanart.png"

	result, err := cache.Rescrape(ctx, s, store.EntityConsole, 1, 1, []normalize.MediaItem{bad, ftp, item("wheel", "wor")})
	if err != nil {
		t.Fatalf("Rescrape failed: %v", err)
	}
	if result.Kept != 1 || len(result.Failed) != 2 {
		t.Errorf("result = %+v", result)
	}

	result, err = cache.Rescrape(ctx, s, store.EntityConsole, 2, 0, []normalize.MediaItem{item("wheel", "wor")})
	if err != nil {
		t.Fatalf("Rescrape failed: %v", err)
	}
	if result.Kept != 0 || len(result.Failed) != 1 || result.Failed[0].Reason != "missing upstream id" {
		t.Errorf("result = %+v", result)
	}
}

func TestReplaceUnknownEntityType(t *testing.T) {
	s := openTestStore(t)
	if _, err := NewCache(DefaultPolicy()).Rescrape(context.Background(), s, "company", 1, 1, nil); err == nil {
		t.Error("expected error for unknown entity type")
	}
}
