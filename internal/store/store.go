// Package store persists specimen records in the SQLite catalog,
// stamping UUIDs, friendly IDs and timestamps and logging every change.
package store

import (
	"database/sql"
	"fmt"

	"github.com/lherron/taxomobile/internal/db"
	"github.com/lherron/taxomobile/internal/events"
)

// Store is the root store that provides access to domain-specific stores.
type Store struct {
	db *db.DB

	Specimens *SpecimenStore
}

// New creates a new Store wrapping the given database connection.
func New(database *db.DB) *Store {
	s := &Store{db: database}
	s.Specimens = &SpecimenStore{store: s}
	return s
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// Events returns the most recent catalog events, newest first.
func (s *Store) Events(uuid string, limit int) ([]events.Event, error) {
	return events.List(s.db.DB, uuid, limit)
}

// withTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back.
func (s *Store) withTx(fn func(tx *sql.Tx, ew *events.Writer) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ew := events.NewWriter(s.db.DB)
	if err := fn(tx, ew); err != nil {
		return err
	}

	return tx.Commit()
}
