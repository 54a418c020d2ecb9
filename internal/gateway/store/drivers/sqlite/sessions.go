package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
)

type sessionsRepo struct {
	db    *sql.DB
	codec *store.Codec
}

const (
	getSession = `SELECT payload FROM sessions WHERE key = ?`

	createSession = `
INSERT INTO sessions (key, id, user_id, version, payload, expires_at_ms, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (key) DO NOTHING`

	replaceSession = `
UPDATE sessions
SET version = ?, payload = ?, expires_at_ms = ?, updated_at_ms = ?
WHERE key = ? AND version = ?`

	sessionExists = `SELECT 1 FROM sessions WHERE key = ?`

	deleteSession = `DELETE FROM sessions WHERE key = ?`

	deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at_ms <= ?`
)

func (r *sessionsRepo) GetSession(ctx context.Context, key string) (domain.Session, error) {
	var payload []byte
	if err := r.db.QueryRowContext(ctx, getSession, key).Scan(&payload); err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return r.codec.Decode(key, payload)
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	payload, err := r.codec.Encode(s)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, createSession,
		s.Key, s.ID, s.User.ID, s.Version, payload,
		s.ExpiresAt.UnixMilli(), s.CreatedAt.UnixMilli(), s.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *sessionsRepo) ReplaceSession(ctx context.Context, expected int64, next domain.Session) error {
	payload, err := r.codec.Encode(next)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, replaceSession,
		next.Version, payload, next.ExpiresAt.UnixMilli(), next.UpdatedAt.UnixMilli(),
		next.Key, expected,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Nothing matched: tell a lost race apart from a deleted session.
	var one int
	if err := r.db.QueryRowContext(ctx, sessionExists, next.Key).Scan(&one); err != nil {
		return mapNotFound(err)
	}
	return store.ErrConflict
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, deleteSession, key)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredSessions, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
