// Package seen implements the durable seen-set: the record of posting
// identities that have already been processed (filtered out or notified).
//
// At-most-once notification depends on this store. Every mutation commits
// before the call returns, and rows are never updated or deleted, so a
// UID present here is permanently suppressed. Storage failures have no
// safe degraded mode and are surfaced to the caller as errors; the run
// loop treats them as fatal.
package seen

import (
	"database/sql"
	"time"

	"github.com/ncurl/jobwatch/errors"
)

// Store tracks seen posting UIDs to prevent duplicate notifications.
// Safe for concurrent use; serialization is provided by database/sql
// and SQLite's own locking.
type Store struct {
	db *sql.DB
}

// NewStore creates a seen-set store over an opened database.
// The seen_items table is created by the db package migrations.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// IsSeen reports whether a UID has already been processed.
func (s *Store) IsSeen(uid string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM seen_items WHERE uid = ?", uid).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "seen lookup for %s", uid)
	}
	return true, nil
}

// MarkSeen records a UID as processed. Idempotent via INSERT OR IGNORE:
// re-marking an existing UID is a no-op and the first-seen timestamp is
// never overwritten.
func (s *Store) MarkSeen(uid, sourceGroup, url string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO seen_items (uid, first_seen_ts, source_group, url) VALUES (?, ?, ?, ?)",
		uid, time.Now().UTC().Format(time.RFC3339), sourceGroup, url,
	)
	if err != nil {
		return errors.Wrapf(err, "mark seen for %s", uid)
	}
	return nil
}

// Count returns the total number of seen records. Operational visibility only.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM seen_items").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count seen items")
	}
	return n, nil
}
