package store

import (
	"context"
	"fmt"
)

// Counts summarizes the catalog contents
type Counts struct {
	Consoles     int64
	Games        int64
	Corporations int64
	Families     int64
	Genres       int64
	MediaEntries int64
	GamesNoGenre int64
}

// CatalogCounts counts the rows of every catalog table
func (q *Queries) CatalogCounts(ctx context.Context) (*Counts, error) {
	c := &Counts{}
	queries := []struct {
		dest  *int64
		query string
	}{
		{&c.Consoles, "SELECT COUNT(*) FROM consoles"},
		{&c.Games, "SELECT COUNT(*) FROM games"},
		{&c.Corporations, "SELECT COUNT(*) FROM corporations"},
		{&c.Families, "SELECT COUNT(*) FROM families"},
		{&c.Genres, "SELECT COUNT(*) FROM genres"},
		{&c.MediaEntries, "SELECT COUNT(*) FROM media_url_cache"},
		{&c.GamesNoGenre, "SELECT COUNT(*) FROM games WHERE genre_id IS NULL"},
	}

	for _, item := range queries {
		if err := q.db.QueryRowContext(ctx, item.query).Scan(item.dest); err != nil {
			return nil, fmt.Errorf("failed to count (%s): %w", item.query, err)
		}
	}
	return c, nil
}

// ConsoleGameCount is the number of games imported for one console
type ConsoleGameCount struct {
	ConsoleID int64
	Name      string
	Games     int64
}

// GamesPerConsole counts games grouped by console, largest first
func (q *Queries) GamesPerConsole(ctx context.Context) ([]ConsoleGameCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.name, COUNT(g.id)
		FROM consoles c
		LEFT JOIN games g ON g.console_id = c.id
		GROUP BY c.id, c.name
		ORDER BY COUNT(g.id) DESC, c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count games per console: %w", err)
	}
	defer rows.Close()

	var counts []ConsoleGameCount
	for rows.Next() {
		var c ConsoleGameCount
		if err := rows.Scan(&c.ConsoleID, &c.Name, &c.Games); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
