package normalize

import (
	"fmt"

	"github.com/franz/retro-scraper/internal/screenscraper"
)

// System is the canonical form of a systemesListe entry
type System struct {
	UpstreamID int64
	ParentID   *int64
	Names      []RegionalText
	Company    string
	Type       string
	StartDate  string
	EndDate    string
	Synopsis   []RegionalText
	Media      []MediaItem
}

// NormalizeSystem converts a raw system payload
func NormalizeSystem(raw *screenscraper.System, fallbackID int64) System {
	if raw == nil {
		return System{UpstreamID: fallbackID}
	}

	s := System{
		UpstreamID: fallbackID,
		Type:       Text(raw.Type),
		StartDate:  Text(raw.StartDate),
		EndDate:    Text(raw.EndDate),
		Synopsis:   RegionalTexts(raw.Synopsis),
		Media:      Media(raw.Medias),
	}
	if id := Int(raw.ID); id != nil && *id > 0 {
		s.UpstreamID = *id
	}
	if id := Int(raw.ParentID); id != nil && *id > 0 {
		s.ParentID = id
	}

	s.Names = RegionalTexts(raw.Names)
	if len(s.Names) == 0 {
		s.Names = RegionalTexts(raw.Name)
	}

	if ref := Ref(raw.Company); ref != nil {
		s.Company = ref.Name
	}

	return s
}

// Name resolves the display name, falling back to a placeholder
func (s *System) Name(chain []string) string {
	if name, _, ok := ResolveText(s.Names, chain); ok {
		return name
	}
	return fmt.Sprintf("System #%d", s.UpstreamID)
}

// ReleaseYear is the year of the start date when it parses
func (s *System) ReleaseYear() *int {
	d, ok := ParseDate(s.StartDate)
	if !ok {
		return nil
	}
	return &d.Year
}

// Description resolves the synopsis through a language chain
func (s *System) Description(languages []string) string {
	text, _, _ := ResolveText(s.Synopsis, languages)
	return text
}
