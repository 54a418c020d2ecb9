// Package memory is a process-local session store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]domain.Session)}
}

func (s *Store) Sessions() store.Sessions       { return s }
func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) GetSession(ctx context.Context, key string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok {
		return domain.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (s *Store) CreateSession(ctx context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.Key]; ok {
		return store.ErrAlreadyExists
	}
	s.sessions[sess.Key] = sess
	return nil
}

func (s *Store) ReplaceSession(ctx context.Context, expected int64, next domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[next.Key]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != expected {
		return store.ErrConflict
	}
	s.sessions[next.Key] = next
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key)
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, key)
			n++
		}
	}
	return n, nil
}
