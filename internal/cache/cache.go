// Package cache persists the last committed activity timeline so the
// stream renders instantly on startup while the first reset load is in
// flight.
//
// The cache is never authoritative: every committed load overwrites it
// wholesale, and it is purged on logout. This is a render warm start, not
// offline support.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/ebranlund/circlet/internal/activity"
	"github.com/ebranlund/circlet/internal/api"
)

// Cache is the SQLite-backed timeline snapshot.
type Cache struct {
	db *sql.DB
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// WAL keeps the UI goroutine from blocking on background writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return c, nil
}

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS timeline (
		username TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		cached_at DATETIME NOT NULL,
		PRIMARY KEY (username, position)
	);

	CREATE INDEX IF NOT EXISTS idx_timeline_user ON timeline(username);
	`
	_, err := c.db.Exec(schema)
	return err
}

// ReplaceTimeline atomically swaps the cached timeline for a user with
// the given merged, sorted items.
func (c *Cache) ReplaceTimeline(username string, items []activity.Item) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM timeline WHERE username = ?", username); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO timeline (username, position, kind, payload, cached_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, it := range items {
		payload, err := marshalItem(it)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(username, i, it.Kind.String(), payload, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Timeline returns the cached items in their committed order. An unknown
// user yields an empty timeline, not an error.
func (c *Cache) Timeline(username string) ([]activity.Item, error) {
	rows, err := c.db.Query(`
		SELECT kind, payload FROM timeline
		WHERE username = ? ORDER BY position`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []activity.Item
	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, err
		}
		it, err := unmarshalItem(kind, payload)
		if err != nil {
			// A single corrupt row should not break warm start.
			continue
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Purge removes a user's cached timeline. Called on logout.
func (c *Cache) Purge(username string) error {
	_, err := c.db.Exec("DELETE FROM timeline WHERE username = ?", username)
	return err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func marshalItem(it activity.Item) (string, error) {
	var v any
	switch it.Kind {
	case activity.KindInvite:
		v = it.Invite
	case activity.KindNotification:
		v = it.Notification
	case activity.KindEvent:
		v = it.Event
	default:
		return "", fmt.Errorf("unknown item kind %d", it.Kind)
	}
	data, err := json.Marshal(v)
	return string(data), err
}

func unmarshalItem(kind, payload string) (activity.Item, error) {
	switch kind {
	case activity.KindInvite.String():
		var inv api.Invitation
		if err := json.Unmarshal([]byte(payload), &inv); err != nil {
			return activity.Item{}, err
		}
		return activity.NewInvite(inv), nil
	case activity.KindNotification.String():
		var n api.Notification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			return activity.Item{}, err
		}
		return activity.NewNotification(n), nil
	case activity.KindEvent.String():
		var ev api.ActivityEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return activity.Item{}, err
		}
		return activity.NewEvent(ev), nil
	default:
		return activity.Item{}, fmt.Errorf("unknown cached kind %q", kind)
	}
}
