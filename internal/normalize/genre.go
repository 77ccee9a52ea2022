package normalize

import (
	"fmt"

	"github.com/franz/retro-scraper/internal/screenscraper"
)

// Genre is one entry of the genre reference list
type Genre struct {
	UpstreamID int64
	ParentID   int64
	ShortName  string
	Names      []RegionalText
}

// IsMain reports whether the genre is a top-level genre
func (g *Genre) IsMain() bool {
	return g.ParentID == 0
}

// Name resolves the genre name through a language chain
func (g *Genre) Name(languages []string) string {
	if name, _, ok := ResolveText(g.Names, languages); ok {
		return name
	}
	if g.ShortName != "" {
		return g.ShortName
	}
	return fmt.Sprintf("Genre #%d", g.UpstreamID)
}

// NormalizeGenre converts a raw genre entry; ok is false without a usable id
func NormalizeGenre(raw *screenscraper.Genre) (Genre, bool) {
	if raw == nil {
		return Genre{}, false
	}
	id := Int(raw.ID)
	if id == nil || *id <= 0 {
		return Genre{}, false
	}

	g := Genre{
		UpstreamID: *id,
		ShortName:  Text(raw.ShortName),
		Names:      RegionalTexts(raw.Names),
	}
	if parent := Int(raw.ParentID); parent != nil && *parent > 0 {
		g.ParentID = *parent
	}
	return g, true
}
