package resolve

import (
	"context"

	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/store"
)

// palette assigns display colours to genres by upstream id
var palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080", "#e6beff",
	"#9a6324", "#800000", "#aaffc3", "#808000", "#000075", "#808080",
}

// GenreColor returns the display colour for an upstream genre id
func GenreColor(id int64) string {
	if id < 0 {
		id = -id
	}
	return palette[id%int64(len(palette))]
}

// SyncResult counts the outcome of a genre synchronization
type SyncResult struct {
	Created int
	Updated int
}

// SyncGenres upserts the genre reference table in one transaction
func SyncGenres(ctx context.Context, s *store.Store, genres []normalize.Genre, languages []string) (SyncResult, error) {
	var result SyncResult
	err := s.Transaction(ctx, func(q *store.Queries) error {
		result = SyncResult{}
		for i := range genres {
			g := &genres[i]
			created, err := q.UpsertGenre(ctx, &store.Genre{
				ID:        g.UpstreamID,
				Name:      g.Name(languages),
				ShortName: g.ShortName,
				ParentID:  g.ParentID,
				IsMain:    g.IsMain(),
				Color:     GenreColor(g.UpstreamID),
			})
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	return result, err
}
