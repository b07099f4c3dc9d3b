package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Single connection: sqlite allows one writer at a time, and the FK
	// pragma below is per-connection.
	db.SetMaxOpenConns(1)

	// Enforce FKs so course deletion cascades assignments and submissions.
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for migrations and test fixtures.
func (s *Store) DB() *sql.DB { return s.db }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Users() store.Users             { return &usersRepo{db: s.db} }
func (s *Store) Courses() store.Courses         { return &coursesRepo{db: s.db} }
func (s *Store) Assignments() store.Assignments { return &assignmentsRepo{db: s.db} }
func (s *Store) Submissions() store.Submissions { return &submissionsRepo{db: s.db} }

// mapNotFound converts sql.ErrNoRows into the store-level sentinel.
func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
