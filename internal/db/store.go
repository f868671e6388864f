package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roasbeef/propsum/internal/db/sqlc"
)

// Store wraps the sqlc Queries together with the connection they run on.
// The embedded Queries let a Store be used anywhere a sqlc.Querier is
// expected.
type Store struct {
	db *sql.DB

	*sqlc.Queries
}

// NewStore creates a new Store instance wrapping the given database
// connection.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		Queries: sqlc.New(db),
	}
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks that the underlying connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsNoRows reports whether err is the "no such row" signal from a :one
// query.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
