package store

import (
	"context"
	"database/sql"
	"fmt"
)

const consoleColumns = `id, upstream_id, name, slug, COALESCE(manufacturer, ''), COALESCE(type, ''),
	release_year, COALESCE(description, ''), created_at, updated_at`

func scanConsole(row interface{ Scan(...interface{}) error }) (*Console, error) {
	c := &Console{}
	var year sql.NullInt64
	err := row.Scan(&c.ID, &c.UpstreamID, &c.Name, &c.Slug, &c.Manufacturer, &c.Type,
		&year, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ReleaseYear = intPtr(year)
	return c, nil
}

// ConsoleByUpstreamID finds a console by its upstream system id
func (q *Queries) ConsoleByUpstreamID(ctx context.Context, upstreamID int64) (*Console, error) {
	c, err := scanConsole(q.db.QueryRowContext(ctx,
		"SELECT "+consoleColumns+" FROM consoles WHERE upstream_id = ?", upstreamID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get console: %w", err)
	}
	return c, nil
}

// ConsoleByID finds a console by local id
func (q *Queries) ConsoleByID(ctx context.Context, id int64) (*Console, error) {
	c, err := scanConsole(q.db.QueryRowContext(ctx,
		"SELECT "+consoleColumns+" FROM consoles WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get console: %w", err)
	}
	return c, nil
}

// ListConsoles returns all consoles ordered by name
func (q *Queries) ListConsoles(ctx context.Context) ([]*Console, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+consoleColumns+" FROM consoles ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list consoles: %w", err)
	}
	defer rows.Close()

	var consoles []*Console
	for rows.Next() {
		c, err := scanConsole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan console: %w", err)
		}
		consoles = append(consoles, c)
	}
	return consoles, rows.Err()
}

// UniqueConsoleSlug returns a console slug derived from base that is not taken
func (q *Queries) UniqueConsoleSlug(ctx context.Context, base string) (string, error) {
	return uniqueSlug(ctx, base, func(ctx context.Context, slug string) (bool, error) {
		return q.exists(ctx, "SELECT 1 FROM consoles WHERE slug = ?", slug)
	})
}

// CreateConsole inserts a console and sets its ID
func (q *Queries) CreateConsole(ctx context.Context, c *Console) error {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO consoles (upstream_id, name, slug, manufacturer, type, release_year, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.UpstreamID, c.Name, c.Slug, c.Manufacturer, c.Type, nullInt(c.ReleaseYear), c.Description)
	if err != nil {
		return fmt.Errorf("failed to insert console: %w", err)
	}

	c.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get console ID: %w", err)
	}
	return nil
}

// UpdateConsole rewrites a console's descriptive fields; the slug is kept
func (q *Queries) UpdateConsole(ctx context.Context, c *Console) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE consoles SET name = ?, manufacturer = ?, type = ?, release_year = ?,
			description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, c.Name, c.Manufacturer, c.Type, nullInt(c.ReleaseYear), c.Description, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update console: %w", err)
	}
	return nil
}
