package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrConflict      = errors.New("store: version conflict")
	// ErrCorrupt marks a stored record that can no longer be opened or
	// decoded, for example after the sealing secret changed.
	ErrCorrupt = errors.New("store: unreadable record")
)

// Store is the root data access interface implemented by the sqlite, redis
// and memory drivers.
type Store interface {
	Sessions() Sessions

	// ApplyMigrations prepares the backing schema. Drivers without a schema
	// treat it as a no-op.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Sessions persists immutable session snapshots. Writers never mutate a
// stored snapshot in place: they replace it with a new one whose Version is
// exactly one higher, and the replace only succeeds if nobody else got there
// first.
type Sessions interface {
	// GetSession returns the current snapshot for key.
	GetSession(ctx context.Context, key string) (domain.Session, error)

	// CreateSession inserts a new session. Returns ErrAlreadyExists if the key
	// is taken. A session whose ExpiresAt has passed is still stored; readers
	// treat it as expired until it is purged or evicted.
	CreateSession(ctx context.Context, s domain.Session) error

	// ReplaceSession stores next if the stored version still equals expected.
	// Returns ErrConflict when it does not and ErrNotFound when the session is gone.
	ReplaceSession(ctx context.Context, expected int64, next domain.Session) error

	// DeleteSession removes a session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, key string) error

	// DeleteExpiredSessions removes sessions whose ExpiresAt is at or before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
