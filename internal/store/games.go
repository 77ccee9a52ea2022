package store

import (
	"context"
	"database/sql"
	"fmt"
)

const gameColumns = `id, console_id, upstream_id, title, slug, release_year, COALESCE(description, ''),
	rating, players, rotation, COALESCE(resolution, ''), top_staff,
	developer_id, publisher_id, family_id, genre_id, created_at, updated_at`

func scanGame(row interface{ Scan(...interface{}) error }) (*Game, error) {
	g := &Game{}
	var year, rating, players, rotation, developer, publisher, family, genre sql.NullInt64
	var topStaff int
	err := row.Scan(&g.ID, &g.ConsoleID, &g.UpstreamID, &g.Title, &g.Slug, &year, &g.Description,
		&rating, &players, &rotation, &g.Resolution, &topStaff,
		&developer, &publisher, &family, &genre, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.ReleaseYear = intPtr(year)
	g.Rating = int64Ptr(rating)
	g.Players = int64Ptr(players)
	g.Rotation = int64Ptr(rotation)
	g.TopStaff = topStaff != 0
	g.DeveloperID = int64Ptr(developer)
	g.PublisherID = int64Ptr(publisher)
	g.FamilyID = int64Ptr(family)
	g.GenreID = int64Ptr(genre)
	return g, nil
}

// GameByUpstreamID finds a game by (console, upstream id)
func (q *Queries) GameByUpstreamID(ctx context.Context, consoleID, upstreamID int64) (*Game, error) {
	g, err := scanGame(q.db.QueryRowContext(ctx,
		"SELECT "+gameColumns+" FROM games WHERE console_id = ? AND upstream_id = ?", consoleID, upstreamID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// GameByID finds a game by local id
func (q *Queries) GameByID(ctx context.Context, id int64) (*Game, error) {
	g, err := scanGame(q.db.QueryRowContext(ctx, "SELECT "+gameColumns+" FROM games WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// GameUpstreamIDs lists the upstream ids already imported for a console
func (q *Queries) GameUpstreamIDs(ctx context.Context, consoleID int64) (map[int64]bool, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT upstream_id FROM games WHERE console_id = ?", consoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list game ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan game id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// UniqueGameSlug returns a slug derived from base that is free within the console
func (q *Queries) UniqueGameSlug(ctx context.Context, consoleID int64, base string) (string, error) {
	return uniqueSlug(ctx, base, func(ctx context.Context, slug string) (bool, error) {
		return q.exists(ctx, "SELECT 1 FROM games WHERE console_id = ? AND slug = ?", consoleID, slug)
	})
}

// CreateGame inserts a game and sets its ID
func (q *Queries) CreateGame(ctx context.Context, g *Game) error {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO games (console_id, upstream_id, title, slug, release_year, description,
			rating, players, rotation, resolution, top_staff,
			developer_id, publisher_id, family_id, genre_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ConsoleID, g.UpstreamID, g.Title, g.Slug, nullInt(g.ReleaseYear), g.Description,
		nullInt64(g.Rating), nullInt64(g.Players), nullInt64(g.Rotation), g.Resolution, boolInt(g.TopStaff),
		nullInt64(g.DeveloperID), nullInt64(g.PublisherID), nullInt64(g.FamilyID), nullInt64(g.GenreID))
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	g.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get game ID: %w", err)
	}
	return nil
}

// UpdateGame rewrites a game's fields; the slug is kept
func (q *Queries) UpdateGame(ctx context.Context, g *Game) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE games SET title = ?, release_year = ?, description = ?,
			rating = ?, players = ?, rotation = ?, resolution = ?, top_staff = ?,
			developer_id = ?, publisher_id = ?, family_id = ?, genre_id = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, g.Title, nullInt(g.ReleaseYear), g.Description,
		nullInt64(g.Rating), nullInt64(g.Players), nullInt64(g.Rotation), g.Resolution, boolInt(g.TopStaff),
		nullInt64(g.DeveloperID), nullInt64(g.PublisherID), nullInt64(g.FamilyID), nullInt64(g.GenreID),
		g.ID)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

// ReplaceGameTitles deletes a game's regional titles and inserts the given set
func (q *Queries) ReplaceGameTitles(ctx context.Context, gameID int64, titles []RegionalTitle) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM game_regional_titles WHERE game_id = ?", gameID); err != nil {
		return fmt.Errorf("failed to delete regional titles: %w", err)
	}
	for _, t := range titles {
		if _, err := q.db.ExecContext(ctx,
			"INSERT INTO game_regional_titles (game_id, region, title) VALUES (?, ?, ?)",
			gameID, t.Region, t.Title); err != nil {
			return fmt.Errorf("failed to insert regional title %s: %w", t.Region, err)
		}
	}
	return nil
}

// ReplaceGameDates deletes a game's regional dates and inserts the given set
func (q *Queries) ReplaceGameDates(ctx context.Context, gameID int64, dates []RegionalDate) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM game_regional_dates WHERE game_id = ?", gameID); err != nil {
		return fmt.Errorf("failed to delete regional dates: %w", err)
	}
	for _, d := range dates {
		if _, err := q.db.ExecContext(ctx,
			"INSERT INTO game_regional_dates (game_id, region, release_date, year) VALUES (?, ?, ?, ?)",
			gameID, d.Region, d.ReleaseDate, d.Year); err != nil {
			return fmt.Errorf("failed to insert regional date %s: %w", d.Region, err)
		}
	}
	return nil
}

// GameTitles returns a game's regional titles ordered by region
func (q *Queries) GameTitles(ctx context.Context, gameID int64) ([]RegionalTitle, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT region, title FROM game_regional_titles WHERE game_id = ? ORDER BY region", gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get regional titles: %w", err)
	}
	defer rows.Close()

	var titles []RegionalTitle
	for rows.Next() {
		var t RegionalTitle
		if err := rows.Scan(&t.Region, &t.Title); err != nil {
			return nil, fmt.Errorf("failed to scan regional title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// GameDates returns a game's regional dates ordered by region
func (q *Queries) GameDates(ctx context.Context, gameID int64) ([]RegionalDate, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT region, release_date, year FROM game_regional_dates WHERE game_id = ? ORDER BY region", gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get regional dates: %w", err)
	}
	defer rows.Close()

	var dates []RegionalDate
	for rows.Next() {
		var d RegionalDate
		if err := rows.Scan(&d.Region, &d.ReleaseDate, &d.Year); err != nil {
			return nil, fmt.Errorf("failed to scan regional date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
