// Package store persists the reply ledger: the set of comment ids this bot
// has already answered. The ledger is append-only and the primary key on
// comment_id is the final guard against double replies.
package store

import (
	"database/sql"
	"fmt"
	"strings"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Contains reports whether a reply has already been recorded for commentID.
func (s *Store) Contains(commentID string) (bool, error) {
	var found string
	err := s.db.QueryRow(`SELECT comment_id FROM comments WHERE comment_id = ?`, commentID).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ledger for %s: %w", commentID, err)
	}
	return true, nil
}

// Record marks commentID as handled. Inserting an id that is already present
// violates the primary key and returns an error without touching the store.
func (s *Store) Record(commentID string) error {
	_, err := s.db.Exec(`INSERT INTO comments (comment_id) VALUES (?)`, commentID)
	if err != nil {
		return fmt.Errorf("record %s in ledger: %w", commentID, err)
	}
	return nil
}

// IsDuplicate reports whether err is a uniqueness violation from Record,
// meaning the comment was already in the ledger.
func IsDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Count returns the number of comments replied to over the ledger's lifetime.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return n, nil
}

// Ping verifies the underlying database handle is still usable.
func (s *Store) Ping() error {
	return s.db.Ping()
}
