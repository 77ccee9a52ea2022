package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GenreByID finds a genre by its upstream genre id
func (q *Queries) GenreByID(ctx context.Context, id int64) (*Genre, error) {
	g := &Genre{}
	var isMain int
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(short_name, ''), parent_id, is_main, COALESCE(color, '')
		FROM genres WHERE id = ?
	`, id).Scan(&g.ID, &g.Name, &g.ShortName, &g.ParentID, &isMain, &g.Color)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get genre: %w", err)
	}
	g.IsMain = isMain != 0
	return g, nil
}

// UpsertGenre inserts or refreshes a genre reference row. It reports whether the row was new.
func (q *Queries) UpsertGenre(ctx context.Context, g *Genre) (bool, error) {
	existed, err := q.exists(ctx, "SELECT 1 FROM genres WHERE id = ?", g.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check genre: %w", err)
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO genres (id, name, short_name, parent_id, is_main, color)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			short_name = excluded.short_name,
			parent_id = excluded.parent_id,
			is_main = excluded.is_main,
			color = excluded.color
	`, g.ID, g.Name, g.ShortName, g.ParentID, boolInt(g.IsMain), g.Color)
	if err != nil {
		return false, fmt.Errorf("failed to upsert genre %d: %w", g.ID, err)
	}
	return !existed, nil
}
