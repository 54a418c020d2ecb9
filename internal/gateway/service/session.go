package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
	"github.com/aussiebroadwan/grantgate/pkg/cryptox"
	"github.com/aussiebroadwan/grantgate/pkg/idx"
	"github.com/aussiebroadwan/grantgate/pkg/slogx"
)

const (
	DefaultSessionTTL     = 30 * 24 * time.Hour
	DefaultRefreshTimeout = 10 * time.Second

	// maxWriteAttempts bounds compare-and-swap retries when concurrent
	// writers keep replacing the snapshot underneath us.
	maxWriteAttempts = 3
)

var ErrSessionContention = errors.New("session is being modified concurrently")

// SessionService owns the token lifecycle of a session: it serves the access
// token while it is valid, refreshes it when it is not, and writes every
// change back as a new versioned snapshot.
type SessionService struct {
	Store     store.Store
	Refresher Refresher
	Identity  IdentityVerifier
	ClientID  string
	Metrics   *metrics.Metrics

	// TTL is the absolute lifetime of a session from login.
	TTL time.Duration
	// RefreshTimeout bounds a refresh, which runs detached from the request.
	RefreshTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time

	refreshes singleflight.Group
}

// EstablishParams is the result of a completed login.
type EstablishParams struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration

	// ExistingCookie is the session cookie the browser already holds, if any.
	ExistingCookie string
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Establish creates a session from a completed login and returns the cookie
// value that identifies it.
//
// When the caller already holds a live session for the same user, that
// session is populated instead. Token fields it already has are kept, so
// repeated or concurrent logins converge on the first writer's values. A
// session whose token has errored is repopulated from the login.
func (s *SessionService) Establish(ctx context.Context, p EstablishParams) (string, domain.Session, error) {
	if strings.TrimSpace(p.IDToken) == "" || strings.TrimSpace(p.AccessToken) == "" {
		return "", domain.Session{}, fmt.Errorf("%w: id_token and access_token are required", domain.ErrInvalidRequest)
	}

	user, err := s.Identity.VerifyIdentity(ctx, p.IDToken)
	if err != nil {
		return "", domain.Session{}, err
	}
	if user.ID == "" {
		return "", domain.Session{}, fmt.Errorf("%w: id token has no subject", domain.ErrInvalidCredential)
	}

	now := s.now()
	login := domain.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    now.Add(p.ExpiresIn).UnixMilli(),
	}

	log := slogx.FromContext(ctx)

	if p.ExistingCookie != "" {
		sess, err := s.repopulate(ctx, cryptox.FingerprintToken(p.ExistingCookie), user, login)
		switch {
		case err == nil:
			log.Info("session repopulated", "session_id", sess.ID, "user_id", user.ID)
			return p.ExistingCookie, sess, nil
		case !errors.Is(err, domain.ErrUnauthenticated):
			return "", domain.Session{}, err
		}
	}

	cookie, err := cryptox.GenerateToken(cryptox.SessionTokenSize)
	if err != nil {
		return "", domain.Session{}, err
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	sess := domain.Session{
		ID:        idx.NewAt(now).String(),
		Key:       cryptox.FingerprintToken(cookie),
		User:      user,
		Token:     domain.MergeToken(domain.Token{}, login),
		ClientID:  s.ClientID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return "", domain.Session{}, fmt.Errorf("create session: %w", err)
	}

	log.Info("session established", "session_id", sess.ID, "user_id", user.ID)
	return cookie, sess, nil
}

// repopulate merges a login into the live session at key. It returns
// domain.ErrUnauthenticated when there is no live session for this user.
func (s *SessionService) repopulate(ctx context.Context, key string, user domain.User, login domain.Token) (domain.Session, error) {
	for range maxWriteAttempts {
		cur, err := s.load(ctx, key)
		if err != nil {
			return domain.Session{}, err
		}
		if cur.User.ID != user.ID {
			return domain.Session{}, domain.ErrUnauthenticated
		}

		next := cur
		if cur.Token.Error != "" {
			next.Token = login
		} else {
			next.Token = domain.MergeToken(cur.Token, login)
		}
		next.Version = cur.Version + 1
		next.UpdatedAt = s.now()

		err = s.Store.Sessions().ReplaceSession(ctx, cur.Version, next)
		switch {
		case err == nil:
			return next, nil
		case errors.Is(err, store.ErrNotFound):
			return domain.Session{}, domain.ErrUnauthenticated
		case !errors.Is(err, store.ErrConflict):
			return domain.Session{}, err
		}
	}
	return domain.Session{}, ErrSessionContention
}

// Resolve returns the session for cookie with a valid access token, or with
// the token's error tag set when it could not be refreshed.
//
// A valid token is served from the snapshot without contacting the identity
// provider. Otherwise one refresh runs per session at a time in this process.
// The refresh is not tied to ctx: if the caller goes away the result is still
// written back, and the caller gets ctx.Err().
func (s *SessionService) Resolve(ctx context.Context, cookie string) (domain.Session, error) {
	if cookie == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	key := cryptox.FingerprintToken(cookie)

	sess, err := s.load(ctx, key)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.Token.Valid(s.now()) {
		return sess, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.refreshes.DoChan(key, func() (any, error) {
		return s.refresh(detached, key)
	})

	select {
	case <-ctx.Done():
		return domain.Session{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Session{}, res.Err
		}
		return res.Val.(domain.Session), nil
	}
}

func (s *SessionService) refresh(ctx context.Context, key string) (domain.Session, error) {
	timeout := s.RefreshTimeout
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := slogx.FromContext(ctx)

	base, err := s.load(ctx, key)
	if err != nil {
		return domain.Session{}, err
	}
	if base.Token.Valid(s.now()) {
		return base, nil
	}

	tok, err := s.Refresher.Refresh(ctx, base.Token)
	switch {
	case err == nil:
		s.Metrics.ObserveRefresh("success")
	case errors.Is(err, domain.ErrInvalidCredential):
		s.Metrics.ObserveRefresh("no_refresh_token")
		log.Info("session has no refresh token", "session_id", base.ID)
		tok = base.Token
		tok.Error = domain.TokenErrorInvalidCredential
	default:
		s.Metrics.ObserveRefresh("failed")
		log.Warn("session token refresh failed", "session_id", base.ID, "error", err)
		if tok.Error == "" {
			tok = base.Token
			tok.Error = domain.TokenErrorRefreshFailed
		}
	}

	return s.write(ctx, base, tok)
}

// write stores tok as the session's next snapshot. If another writer got
// there first and already holds a valid token, theirs is kept.
func (s *SessionService) write(ctx context.Context, cur domain.Session, tok domain.Token) (domain.Session, error) {
	for range maxWriteAttempts {
		next := cur
		next.Token = tok
		next.Version = cur.Version + 1
		next.UpdatedAt = s.now()

		err := s.Store.Sessions().ReplaceSession(ctx, cur.Version, next)
		switch {
		case err == nil:
			return next, nil
		case errors.Is(err, store.ErrNotFound):
			return domain.Session{}, domain.ErrUnauthenticated
		case !errors.Is(err, store.ErrConflict):
			return domain.Session{}, fmt.Errorf("store session: %w", err)
		}

		latest, err := s.load(ctx, cur.Key)
		if err != nil {
			return domain.Session{}, err
		}
		if latest.Token.Valid(s.now()) {
			return latest, nil
		}
		cur = latest
	}
	return domain.Session{}, ErrSessionContention
}

// Destroy ends the session identified by cookie.
func (s *SessionService) Destroy(ctx context.Context, cookie string) error {
	if cookie == "" {
		return nil
	}
	return s.Store.Sessions().DeleteSession(ctx, cryptox.FingerprintToken(cookie))
}

func (s *SessionService) load(ctx context.Context, key string) (domain.Session, error) {
	sess, err := s.Store.Sessions().GetSession(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	if errors.Is(err, store.ErrCorrupt) {
		log := slogx.FromContext(ctx)
		log.Warn("dropping unreadable session", "error", err)
		if err := s.Store.Sessions().DeleteSession(ctx, key); err != nil {
			log.Error("failed to delete unreadable session", "error", err)
		}
		return domain.Session{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(s.now()) {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	return sess, nil
}
