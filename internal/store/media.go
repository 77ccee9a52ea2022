package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DeleteMediaCache removes every cached media row of an entity and returns how many were removed
func (q *Queries) DeleteMediaCache(ctx context.Context, entityType string, entityID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		"DELETE FROM media_url_cache WHERE entity_type = ? AND entity_id = ?", entityType, entityID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete media cache: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// InsertMediaCache writes one media pointer and sets its ID
func (q *Queries) InsertMediaCache(ctx context.Context, e *MediaCacheEntry) error {
	var format sql.NullString
	if e.Format != "" {
		format = sql.NullString{String: e.Format, Valid: true}
	}
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO media_url_cache (entity_type, entity_id, media_type, region, url, upstream_id, format, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.EntityType, e.EntityID, e.MediaType, e.Region, e.URL, e.UpstreamID, format, nullInt64(e.SizeBytes))
	if err != nil {
		return fmt.Errorf("failed to insert media cache %s/%s: %w", e.MediaType, e.Region, err)
	}

	e.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get media cache ID: %w", err)
	}
	return nil
}

// MediaCache lists the cached media rows of an entity ordered by type and region
func (q *Queries) MediaCache(ctx context.Context, entityType string, entityID int64) ([]*MediaCacheEntry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, media_type, region, url, upstream_id,
		       COALESCE(format, ''), size_bytes, cached_at
		FROM media_url_cache
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY media_type, region
	`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media cache: %w", err)
	}
	defer rows.Close()

	var entries []*MediaCacheEntry
	for rows.Next() {
		e := &MediaCacheEntry{}
		var size sql.NullInt64
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.MediaType, &e.Region, &e.URL,
			&e.UpstreamID, &e.Format, &size, &e.CachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media cache: %w", err)
		}
		e.SizeBytes = int64Ptr(size)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
