package normalize

import (
	"fmt"

	"github.com/franz/retro-scraper/internal/screenscraper"
)

// Game is the canonical form of a jeuInfos payload
type Game struct {
	UpstreamID int64
	SystemID   *int64
	NotGame    bool
	IsClone    bool
	CloneOf    *int64
	Names      []RegionalText
	Synopsis   []RegionalText
	Dates      []RegionalText
	Developer  *EntityRef
	Publisher  *EntityRef
	Players    *int64
	Rating     *int64 // 0-20
	Rotation   *int64
	Resolution string
	TopStaff   bool
	Genres     []ListEntry
	Families   []ListEntry
	Media      []MediaItem
}

// NormalizeGame converts a raw game payload. fallbackID is used when the
// payload carries no parseable id.
func NormalizeGame(raw *screenscraper.Game, fallbackID int64) Game {
	if raw == nil {
		return Game{UpstreamID: fallbackID}
	}

	g := Game{
		UpstreamID: fallbackID,
		NotGame:    Flag(raw.NotGame),
		Synopsis:   RegionalTexts(raw.Synopsis),
		Developer:  Ref(raw.Developer),
		Publisher:  Ref(raw.Publisher),
		Players:    Players(raw.Players),
		Rotation:   Int(raw.Rotation),
		Resolution: Text(raw.Resolution),
		TopStaff:   Flag(raw.TopStaff),
		Genres:     ListEntries(raw.Genres),
		Families:   ListEntries(raw.Families),
		Media:      Media(raw.Medias),
	}
	if id := Int(raw.ID); id != nil && *id > 0 {
		g.UpstreamID = *id
	}

	g.Names = RegionalTexts(raw.Names)
	if len(g.Names) == 0 {
		g.Names = RegionalTexts(raw.Name)
	}

	g.IsClone, g.CloneOf = cloneOf(raw.CloneOf)

	if sys := Ref(raw.System); sys != nil {
		g.SystemID = sys.UpstreamID
	} else if id := Int(raw.System); id != nil && *id > 0 {
		g.SystemID = id
	}

	if r := Int(raw.Rating); r != nil && *r >= 0 && *r <= 20 {
		g.Rating = r
	}

	g.Dates = RegionalTexts(raw.Dates)
	if len(g.Dates) == 0 {
		g.Dates = RegionalTexts(raw.Date)
	}

	return g
}

// cloneOf is a clone iff the field is present and not 0, "0", null or empty
func cloneOf(raw []byte) (bool, *int64) {
	s, ok := Scalar(raw)
	if !ok || s == "" || s == "0" {
		return false, nil
	}
	return true, Int(raw)
}

// Skippable reports why a game must never be persisted, or "" when it may be
func (g *Game) Skippable() string {
	switch {
	case g.NotGame:
		return "not a game"
	case g.IsClone && g.CloneOf != nil:
		return fmt.Sprintf("clone of %d", *g.CloneOf)
	case g.IsClone:
		return "clone"
	}
	return ""
}

// Title resolves the display title, falling back to a placeholder
func (g *Game) Title(chain []string) string {
	if title, _, ok := ResolveText(g.Names, chain); ok {
		return title
	}
	return fmt.Sprintf("Game #%d", g.UpstreamID)
}

// ReleaseYear resolves the release year through the date chain
func (g *Game) ReleaseYear(chain []string) *int {
	d, _, ok := ResolveDate(g.Dates, chain)
	if !ok {
		return nil
	}
	return &d.Year
}

// Description resolves the synopsis through a language chain
func (g *Game) Description(languages []string) string {
	text, _, _ := ResolveText(g.Synopsis, languages)
	return text
}

// RegionalTitles keeps one title per region, first wins
func (g *Game) RegionalTitles() []RegionalText {
	return onePerRegion(g.Names, nonEmpty)
}

// RegionalDates keeps one parseable date per region, first wins
func (g *Game) RegionalDates() []RegionalDate {
	var out []RegionalDate
	seen := make(map[string]bool)
	for _, c := range g.Dates {
		region := normalizeRegion(c.Region)
		if region == "" || seen[region] {
			continue
		}
		d, ok := ParseDate(c.Text)
		if !ok {
			continue
		}
		seen[region] = true
		out = append(out, RegionalDate{Region: region, Date: d})
	}
	return out
}

// RegionalDate is one parsed date for a region
type RegionalDate struct {
	Region string
	Date   Date
}

func onePerRegion(candidates []RegionalText, accept func(string) (string, bool)) []RegionalText {
	var out []RegionalText
	seen := make(map[string]bool)
	for _, c := range candidates {
		region := normalizeRegion(c.Region)
		if region == "" || seen[region] {
			continue
		}
		text, ok := accept(c.Text)
		if !ok {
			continue
		}
		seen[region] = true
		out = append(out, RegionalText{Region: region, Text: text})
	}
	return out
}
