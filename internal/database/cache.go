package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PageCache is the TTL cache of raw page markup, backed by the StateDB.
// Entries older than the TTL are invalid: a read treats them as a miss,
// and Prune deletes them in bulk.
//
// Invalidation is passive. Nothing expires entries in the background;
// staleness is checked against the stored creation time on each read,
// so a long-idle database needs no maintenance to stay correct.
type PageCache struct {
	sdb *StateDB
	ttl time.Duration
}

// NewPageCache wraps a StateDB as a page cache with the given TTL.
// A TTL of zero or less means entries never expire.
func NewPageCache(sdb *StateDB, ttl time.Duration) *PageCache {
	return &PageCache{sdb: sdb, ttl: ttl}
}

// Get returns the cached payload for a title. Expired entries report a
// miss; they stay on disk until the next Prune.
func (pc *PageCache) Get(ctx context.Context, title string) (string, bool, error) {
	var payload, created string
	err := pc.sdb.db.QueryRowContext(ctx,
		`SELECT payload, created FROM page_cache WHERE title = ?`, title,
	).Scan(&payload, &created)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read page cache: %w", err)
	}

	if pc.ttl > 0 {
		createdAt := parseTimestamp(created)
		if createdAt.IsZero() || time.Since(createdAt) > pc.ttl {
			return "", false, nil
		}
	}

	return payload, true, nil
}

// Put stores the payload for a title, replacing any older entry and
// resetting its age.
func (pc *PageCache) Put(ctx context.Context, title, payload string) error {
	_, err := pc.sdb.db.ExecContext(ctx, `
	INSERT INTO page_cache (title, payload)
	VALUES (?, ?)
	ON CONFLICT(title) DO UPDATE SET
		payload = excluded.payload,
		created = CURRENT_TIMESTAMP
	`, title, payload)
	if err != nil {
		return fmt.Errorf("failed to write page cache: %w", err)
	}
	return nil
}

// Prune deletes entries older than the TTL and returns how many were
// removed. With a non-positive TTL it does nothing.
func (pc *PageCache) Prune(ctx context.Context) (int64, error) {
	if pc.ttl <= 0 {
		return 0, nil
	}

	modifier := fmt.Sprintf("-%d seconds", int(pc.ttl.Seconds()))
	result, err := pc.sdb.db.ExecContext(ctx,
		`DELETE FROM page_cache WHERE created <= datetime('now', ?)`, modifier)
	if err != nil {
		return 0, fmt.Errorf("failed to prune page cache: %w", err)
	}
	return result.RowsAffected()
}
