package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
	_ "modernc.org/sqlite"
)

type Store struct {
	db    *sql.DB
	codec *store.Codec
}

// NewStore opens the database at dsn. Session payloads are written through codec.
func NewStore(dsn string, codec *store.Codec) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single writer keeps compare-and-swap updates serialised and avoids
	// SQLITE_BUSY under concurrent refreshes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, codec: codec}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Sessions() store.Sessions { return &sessionsRepo{db: s.db, codec: s.codec} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
