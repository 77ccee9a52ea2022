package store

import (
	"context"
	"database/sql"
	"fmt"
)

func scanCorporation(row *sql.Row) (*Corporation, error) {
	c := &Corporation{}
	var upstream sql.NullInt64
	err := row.Scan(&c.ID, &upstream, &c.Name, &c.Slug, &c.LogoURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get corporation: %w", err)
	}
	c.UpstreamID = int64Ptr(upstream)
	return c, nil
}

// CorporationByUpstreamID finds a corporation by upstream company id
func (q *Queries) CorporationByUpstreamID(ctx context.Context, upstreamID int64) (*Corporation, error) {
	return scanCorporation(q.db.QueryRowContext(ctx, `
		SELECT id, upstream_id, name, slug, COALESCE(logo_url, '')
		FROM corporations WHERE upstream_id = ?
	`, upstreamID))
}

// CorporationByName finds a corporation by exact name
func (q *Queries) CorporationByName(ctx context.Context, name string) (*Corporation, error) {
	return scanCorporation(q.db.QueryRowContext(ctx, `
		SELECT id, upstream_id, name, slug, COALESCE(logo_url, '')
		FROM corporations WHERE name = ?
	`, name))
}

// UniqueCorporationSlug returns a corporation slug derived from base that is not taken
func (q *Queries) UniqueCorporationSlug(ctx context.Context, base string) (string, error) {
	return uniqueSlug(ctx, base, func(ctx context.Context, slug string) (bool, error) {
		return q.exists(ctx, "SELECT 1 FROM corporations WHERE slug = ?", slug)
	})
}

// CreateCorporation inserts a corporation and sets its ID
func (q *Queries) CreateCorporation(ctx context.Context, c *Corporation) error {
	var logo sql.NullString
	if c.LogoURL != "" {
		logo = sql.NullString{String: c.LogoURL, Valid: true}
	}
	result, err := q.db.ExecContext(ctx,
		"INSERT INTO corporations (upstream_id, name, slug, logo_url) VALUES (?, ?, ?, ?)",
		nullInt64(c.UpstreamID), c.Name, c.Slug, logo)
	if err != nil {
		return fmt.Errorf("failed to insert corporation: %w", err)
	}

	c.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get corporation ID: %w", err)
	}
	return nil
}

// SetCorporationUpstreamID backfills the upstream id of a corporation found by name
func (q *Queries) SetCorporationUpstreamID(ctx context.Context, id, upstreamID int64) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE corporations SET upstream_id = ? WHERE id = ? AND upstream_id IS NULL", upstreamID, id)
	if err != nil {
		return fmt.Errorf("failed to set corporation upstream id: %w", err)
	}
	return nil
}

// SetCorporationLogo records a corporation's logo URL
func (q *Queries) SetCorporationLogo(ctx context.Context, id int64, logoURL string) error {
	_, err := q.db.ExecContext(ctx, "UPDATE corporations SET logo_url = ? WHERE id = ?", logoURL, id)
	if err != nil {
		return fmt.Errorf("failed to set corporation logo: %w", err)
	}
	return nil
}

// AddCorporationRole links a role to a corporation; an existing pair is left alone
func (q *Queries) AddCorporationRole(ctx context.Context, corporationID int64, role string) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO corporation_roles (corporation_id, role) VALUES (?, ?)", corporationID, role)
	if err != nil {
		return fmt.Errorf("failed to add corporation role: %w", err)
	}
	return nil
}

// CorporationRoles lists the roles of a corporation, sorted
func (q *Queries) CorporationRoles(ctx context.Context, corporationID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT role FROM corporation_roles WHERE corporation_id = ? ORDER BY role", corporationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get corporation roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func scanFamily(row *sql.Row) (*Family, error) {
	f := &Family{}
	var upstream sql.NullInt64
	err := row.Scan(&f.ID, &upstream, &f.Name, &f.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	f.UpstreamID = int64Ptr(upstream)
	return f, nil
}

// FamilyByUpstreamID finds a family by upstream id
func (q *Queries) FamilyByUpstreamID(ctx context.Context, upstreamID int64) (*Family, error) {
	return scanFamily(q.db.QueryRowContext(ctx,
		"SELECT id, upstream_id, name, slug FROM families WHERE upstream_id = ?", upstreamID))
}

// FamilyByName finds a family by exact name
func (q *Queries) FamilyByName(ctx context.Context, name string) (*Family, error) {
	return scanFamily(q.db.QueryRowContext(ctx,
		"SELECT id, upstream_id, name, slug FROM families WHERE name = ?", name))
}

// UniqueFamilySlug returns a family slug derived from base that is not taken
func (q *Queries) UniqueFamilySlug(ctx context.Context, base string) (string, error) {
	return uniqueSlug(ctx, base, func(ctx context.Context, slug string) (bool, error) {
		return q.exists(ctx, "SELECT 1 FROM families WHERE slug = ?", slug)
	})
}

// CreateFamily inserts a family and sets its ID
func (q *Queries) CreateFamily(ctx context.Context, f *Family) error {
	result, err := q.db.ExecContext(ctx,
		"INSERT INTO families (upstream_id, name, slug) VALUES (?, ?, ?)",
		nullInt64(f.UpstreamID), f.Name, f.Slug)
	if err != nil {
		return fmt.Errorf("failed to insert family: %w", err)
	}

	f.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get family ID: %w", err)
	}
	return nil
}

// SetFamilyUpstreamID backfills the upstream id of a family found by name
func (q *Queries) SetFamilyUpstreamID(ctx context.Context, id, upstreamID int64) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE families SET upstream_id = ? WHERE id = ? AND upstream_id IS NULL", upstreamID, id)
	if err != nil {
		return fmt.Errorf("failed to set family upstream id: %w", err)
	}
	return nil
}
