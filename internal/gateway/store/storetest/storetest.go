// Package storetest holds the behaviour every session store driver must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
)

// NewSession returns a version 1 session expiring one hour from now.
func NewSession(key string) domain.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.Session{
		ID:        "id-" + key,
		Key:       key,
		User:      domain.User{ID: "user-" + key, Name: "Test User"},
		Token:     domain.Token{AccessToken: "at", RefreshToken: "rt", ExpiresAt: now.Add(5 * time.Minute).UnixMilli()},
		ClientID:  "client",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

// RunSessions exercises a Sessions implementation. newStore must return a
// fresh, migrated store for every call.
func RunSessions(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := NewSession("k1")
		require.NoError(t, s.Sessions().CreateSession(ctx, in))

		got, err := s.Sessions().GetSession(ctx, "k1")
		require.NoError(t, err)
		require.Equal(t, in.ID, got.ID)
		require.Equal(t, in.Token, got.Token)
		require.Equal(t, in.User, got.User)
		require.Equal(t, int64(1), got.Version)
		require.True(t, in.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("create already expired is stored", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := NewSession("stale")
		in.ExpiresAt = time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond)
		require.NoError(t, s.Sessions().CreateSession(ctx, in))

		got, err := s.Sessions().GetSession(ctx, "stale")
		require.NoError(t, err)
		require.True(t, got.ExpiresAt.Equal(in.ExpiresAt))
		require.True(t, got.Expired(time.Now()))

		err = s.Sessions().CreateSession(ctx, NewSession("stale"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Sessions().GetSession(context.Background(), "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("create duplicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Sessions().CreateSession(ctx, NewSession("dup")))
		err := s.Sessions().CreateSession(ctx, NewSession("dup"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("replace bumps version", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := NewSession("k2")
		require.NoError(t, s.Sessions().CreateSession(ctx, in))

		next := in
		next.Version = 2
		next.Token.AccessToken = "at-2"
		require.NoError(t, s.Sessions().ReplaceSession(ctx, 1, next))

		got, err := s.Sessions().GetSession(ctx, "k2")
		require.NoError(t, err)
		require.Equal(t, int64(2), got.Version)
		require.Equal(t, "at-2", got.Token.AccessToken)
	})

	t.Run("replace with stale version conflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := NewSession("k3")
		require.NoError(t, s.Sessions().CreateSession(ctx, in))

		winner := in
		winner.Version = 2
		winner.Token.AccessToken = "winner"
		require.NoError(t, s.Sessions().ReplaceSession(ctx, 1, winner))

		loser := in
		loser.Version = 2
		loser.Token.AccessToken = "loser"
		err := s.Sessions().ReplaceSession(ctx, 1, loser)
		require.ErrorIs(t, err, store.ErrConflict)

		got, err := s.Sessions().GetSession(ctx, "k3")
		require.NoError(t, err)
		require.Equal(t, "winner", got.Token.AccessToken)
	})

	t.Run("replace missing", func(t *testing.T) {
		s := newStore(t)

		next := NewSession("gone")
		next.Version = 2
		err := s.Sessions().ReplaceSession(context.Background(), 1, next)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("concurrent replace has one winner", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := NewSession("k4")
		require.NoError(t, s.Sessions().CreateSession(ctx, in))

		const writers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				next := in
				next.Version = 2
				next.Token.AccessToken = "writer-" + string(rune('a'+i))
				if err := s.Sessions().ReplaceSession(ctx, 1, next); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, wins)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Sessions().CreateSession(ctx, NewSession("k5")))
		require.NoError(t, s.Sessions().DeleteSession(ctx, "k5"))
		require.NoError(t, s.Sessions().DeleteSession(ctx, "k5"))

		_, err := s.Sessions().GetSession(ctx, "k5")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Ping(context.Background()))
	})
}

// RunExpiry checks DeleteExpiredSessions for drivers that purge explicitly.
func RunExpiry(t *testing.T, newStore func(t *testing.T) store.Store) {
	s := newStore(t)
	ctx := context.Background()

	live := NewSession("live")
	expired := NewSession("expired")
	expired.ExpiresAt = time.Now().Add(-time.Minute).UTC()

	require.NoError(t, s.Sessions().CreateSession(ctx, live))
	require.NoError(t, s.Sessions().CreateSession(ctx, expired))

	n, err := s.Sessions().DeleteExpiredSessions(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = s.Sessions().GetSession(ctx, "expired")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Sessions().GetSession(ctx, "live")
	require.NoError(t, err)
}
