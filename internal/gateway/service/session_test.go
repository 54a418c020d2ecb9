package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/service/mocks"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store/drivers/memory"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/grantgate/pkg/cryptox"
)

var testUser = domain.User{ID: "user-1", Name: "Ada"}

type sessionFixture struct {
	svc       *SessionService
	store     *memory.Store
	refresher *mocks.MockRefresher
	identity  *mocks.MockIdentityVerifier
	now       time.Time
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &sessionFixture{
		store:     memory.NewStore(),
		refresher: mocks.NewMockRefresher(ctrl),
		identity:  mocks.NewMockIdentityVerifier(ctrl),
		now:       time.Now(),
	}
	f.svc = &SessionService{
		Store:     f.store,
		Refresher: f.refresher,
		Identity:  f.identity,
		ClientID:  "client-1",
		TTL:       time.Hour,
		Now:       func() time.Time { return f.now },
	}
	return f
}

// seed stores a session with tok and returns its cookie.
func (f *sessionFixture) seed(t *testing.T, tok domain.Token) string {
	t.Helper()

	cookie := "cookie-" + t.Name()
	require.NoError(t, f.store.CreateSession(context.Background(), domain.Session{
		ID:        "sess-1",
		Key:       cryptox.FingerprintToken(cookie),
		User:      testUser,
		Token:     tok,
		ClientID:  "client-1",
		Version:   1,
		CreatedAt: f.now,
		UpdatedAt: f.now,
		ExpiresAt: f.now.Add(time.Hour),
	}))
	return cookie
}

func (f *sessionFixture) stored(t *testing.T, cookie string) domain.Session {
	t.Helper()
	sess, err := f.store.GetSession(context.Background(), cryptox.FingerprintToken(cookie))
	require.NoError(t, err)
	return sess
}

func validToken(now time.Time) domain.Token {
	return domain.Token{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: now.Add(time.Minute).UnixMilli()}
}

func expiredToken(now time.Time) domain.Token {
	return domain.Token{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: now.Add(-time.Second).UnixMilli()}
}

func TestResolve_ValidTokenSkipsRefresh(t *testing.T) {
	f := newSessionFixture(t)
	cookie := f.seed(t, validToken(f.now))
	f.refresher.EXPECT().Refresh(gomock.Any(), gomock.Any()).Times(0)

	sess, err := f.svc.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	require.Equal(t, "a1", sess.Token.AccessToken)
	require.Equal(t, int64(1), sess.Version)
}

func TestResolve_ExpiredTokenRefreshes(t *testing.T) {
	f := newSessionFixture(t)
	cookie := f.seed(t, expiredToken(f.now))

	fresh := domain.Token{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: f.now.Add(time.Hour).UnixMilli()}
	f.refresher.EXPECT().Refresh(gomock.Any(), expiredToken(f.now)).Return(fresh, nil).Times(1)

	sess, err := f.svc.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	require.Equal(t, fresh, sess.Token)
	require.Equal(t, int64(2), sess.Version)

	stored := f.stored(t, cookie)
	require.Equal(t, fresh, stored.Token)
	require.Equal(t, int64(2), stored.Version)
}

func TestResolve_ErroredTokenRefreshesEvenIfUnexpired(t *testing.T) {
	f := newSessionFixture(t)
	tok := validToken(f.now)
	tok.Error = domain.TokenErrorRefreshFailed
	cookie := f.seed(t, tok)

	fresh := domain.Token{AccessToken: "a2", RefreshToken: "r1", ExpiresAt: f.now.Add(time.Hour).UnixMilli()}
	f.refresher.EXPECT().Refresh(gomock.Any(), tok).Return(fresh, nil).Times(1)

	sess, err := f.svc.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	require.Empty(t, sess.Token.Error)
	require.Equal(t, "a2", sess.Token.AccessToken)
}

func TestResolve_RefreshFailureTagsToken(t *testing.T) {
	f := newSessionFixture(t)
	in := expiredToken(f.now)
	cookie := f.seed(t, in)

	failed := in
	failed.Error = domain.TokenErrorRefreshFailed
	f.refresher.EXPECT().Refresh(gomock.Any(), in).
		Return(failed, domain.ErrRefreshFailed).Times(1)

	sess, err := f.svc.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	require.Equal(t, domain.TokenErrorRefreshFailed, sess.Token.Error)
	require.Equal(t, in.AccessToken, sess.Token.AccessToken)
	require.Equal(t, in.RefreshToken, sess.Token.RefreshToken)
	require.Equal(t, in.ExpiresAt, sess.Token.ExpiresAt)
	require.False(t, sess.Token.Usable())

	// The errored state persists and the next access tries again.
	require.Equal(t, domain.TokenErrorRefreshFailed, f.stored(t, cookie).Token.Error)

	f.refresher.EXPECT().Refresh(gomock.Any(), failed).
		Return(failed, domain.ErrRefreshFailed).Times(1)
	_, err = f.svc.Resolve(context.Background(), cookie)
	require.NoError(t, err)
}

func TestResolve_MissingRefreshToken(t *testing.T) {
	f := newSessionFixture(t)
	in := domain.Token{AccessToken: "a1", ExpiresAt: f.now.Add(-time.Second).UnixMilli()}
	cookie := f.seed(t, in)

	f.refresher.EXPECT().Refresh(gomock.Any(), in).Return(in, domain.ErrInvalidCredential).Times(1)

	sess, err := f.svc.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	require.Equal(t, domain.TokenErrorInvalidCredential, sess.Token.Error)
}

func TestResolve_UnknownOrExpiredSession(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.Resolve(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.svc.Resolve(context.Background(), "never-issued")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	cookie := f.seed(t, validToken(f.now))
	f.now = f.now.Add(2 * time.Hour)
	_, err = f.svc.Resolve(context.Background(), cookie)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestResolve_UnreadableSessionIsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.db")
	ctx := context.Background()
	now := time.Now()

	openStore := func() *sqlite.Store {
		sealer, err := cryptox.NewSealer(nil, "session")
		require.NoError(t, err)
		st, err := sqlite.NewStore(path, store.NewCodec(sealer))
		require.NoError(t, err)
		require.NoError(t, st.ApplyMigrations())
		t.Cleanup(func() { _ = st.Close() })
		return st
	}

	cookie := "cookie-before-restart"
	key := cryptox.FingerprintToken(cookie)

	before := openStore()
	require.NoError(t, before.Sessions().CreateSession(ctx, domain.Session{
		ID:        "sess-1",
		Key:       key,
		User:      testUser,
		Token:     validToken(now),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, before.Close())

	ctrl := gomock.NewController(t)
	svc := &SessionService{
		Store:     openStore(),
		Refresher: mocks.NewMockRefresher(ctrl),
		Identity:  mocks.NewMockIdentityVerifier(ctrl),
	}

	_, err := svc.Resolve(ctx, cookie)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Store.Sessions().GetSession(ctx, key)
	require.ErrorIs(t, err, store.ErrNotFound, "unreadable record is removed")
}

func TestResolve_ConcurrentWriterWins(t *testing.T) {
	f := newSessionFixture(t)
	cookie := f.seed(t, expiredToken(f.now))

	winner := domain.Token{AccessToken: "from-other-replica", RefreshToken: "r9", ExpiresAt: f.now.Add(time.Hour).UnixMilli()}
	ours := domain.Token{AccessToken: "ours", RefreshToken: "r2", ExpiresAt: f.now.Add(time.Hour).UnixMilli()}

	f.refresher.EXPECT().Refresh(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tok domain.Token) (domain.Token, error) {
			// Another replica lands its refresh while ours is in flight.
			cur, err := f.store.GetSession(ctx, cryptox.FingerprintToken(cookie))
			assert.NoError(t, err)
			next := cur
			next.Token = winner
			next.Version = cur.Version + 1
			assert.NoError(t, f.store.ReplaceSession(ctx, cur.Version, next))
			return ours, nil
		}).Times(1)

	sess, err := f.svc.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	require.Equal(t, winner, sess.Token)
	require.Equal(t, winner, f.stored(t, cookie).Token)
}

func TestResolve_ConcurrentFailedWriterIsOverwritten(t *testing.T) {
	f := newSessionFixture(t)
	in := expiredToken(f.now)
	cookie := f.seed(t, in)

	ours := domain.Token{AccessToken: "ours", RefreshToken: "r2", ExpiresAt: f.now.Add(time.Hour).UnixMilli()}

	f.refresher.EXPECT().Refresh(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tok domain.Token) (domain.Token, error) {
			cur, err := f.store.GetSession(ctx, cryptox.FingerprintToken(cookie))
			assert.NoError(t, err)
			next := cur
			next.Token.Error = domain.TokenErrorRefreshFailed
			next.Version = cur.Version + 1
			assert.NoError(t, f.store.ReplaceSession(ctx, cur.Version, next))
			return ours, nil
		}).Times(1)

	sess, err := f.svc.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	require.Equal(t, ours, sess.Token)
	require.Equal(t, int64(3), f.stored(t, cookie).Version)
}

func TestResolve_ConcurrentRequestsCoalesce(t *testing.T) {
	f := newSessionFixture(t)
	cookie := f.seed(t, expiredToken(f.now))

	fresh := domain.Token{AccessToken: "a2", RefreshToken: "r1", ExpiresAt: f.now.Add(time.Hour).UnixMilli()}
	f.refresher.EXPECT().Refresh(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tok domain.Token) (domain.Token, error) {
			time.Sleep(50 * time.Millisecond)
			return fresh, nil
		}).MinTimes(1).MaxTimes(2)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]domain.Session, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.svc.Resolve(context.Background(), cookie)
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		require.Equal(t, "a2", results[i].Token.AccessToken)
	}
}

func TestResolve_CancelledCallerStillPersistsRefresh(t *testing.T) {
	f := newSessionFixture(t)
	cookie := f.seed(t, expiredToken(f.now))

	entered := make(chan struct{})
	release := make(chan struct{})
	fresh := domain.Token{AccessToken: "a2", RefreshToken: "r1", ExpiresAt: f.now.Add(time.Hour).UnixMilli()}

	f.refresher.EXPECT().Refresh(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tok domain.Token) (domain.Token, error) {
			close(entered)
			<-release
			assert.NoError(t, ctx.Err(), "refresh must not inherit the caller's cancellation")
			return fresh, nil
		}).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Resolve(ctx, cookie)
		done <- err
	}()

	<-entered
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		return f.stored(t, cookie).Token.AccessToken == "a2"
	}, time.Second, 10*time.Millisecond)
}

func TestEstablish_NewSession(t *testing.T) {
	f := newSessionFixture(t)
	f.identity.EXPECT().VerifyIdentity(gomock.Any(), "id-token").Return(testUser, nil)

	cookie, sess, err := f.svc.Establish(context.Background(), EstablishParams{
		IDToken:      "id-token",
		AccessToken:  "a1",
		RefreshToken: "r1",
		ExpiresIn:    time.Hour,
	})
	require.NoError(t, err)
	require.Len(t, cookie, 43)
	require.Equal(t, cryptox.FingerprintToken(cookie), sess.Key)
	require.Equal(t, testUser, sess.User)
	require.Equal(t, "client-1", sess.ClientID)
	require.Equal(t, f.now.Add(time.Hour).UnixMilli(), sess.Token.ExpiresAt)
	require.Equal(t, int64(1), sess.Version)

	stored := f.stored(t, cookie)
	require.Equal(t, sess.Token, stored.Token)
	require.NotContains(t, stored.Key, cookie)
}

func TestEstablish_RepopulateKeepsExistingFields(t *testing.T) {
	f := newSessionFixture(t)
	cookie := f.seed(t, domain.Token{AccessToken: "first", ExpiresAt: f.now.Add(time.Minute).UnixMilli()})
	f.identity.EXPECT().VerifyIdentity(gomock.Any(), "id-token").Return(testUser, nil)

	got, sess, err := f.svc.Establish(context.Background(), EstablishParams{
		IDToken:        "id-token",
		AccessToken:    "second",
		RefreshToken:   "r2",
		ExpiresIn:      time.Hour,
		ExistingCookie: cookie,
	})
	require.NoError(t, err)
	require.Equal(t, cookie, got)
	require.Equal(t, "first", sess.Token.AccessToken)
	require.Equal(t, "r2", sess.Token.RefreshToken)
	require.Equal(t, f.now.Add(time.Minute).UnixMilli(), sess.Token.ExpiresAt)
	require.Equal(t, int64(2), sess.Version)
}

func TestEstablish_RepopulateReplacesErroredToken(t *testing.T) {
	f := newSessionFixture(t)
	cookie := f.seed(t, domain.Token{AccessToken: "stale", RefreshToken: "r1", Error: domain.TokenErrorRefreshFailed})
	f.identity.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).Return(testUser, nil)

	_, sess, err := f.svc.Establish(context.Background(), EstablishParams{
		IDToken:        "id-token",
		AccessToken:    "fresh",
		RefreshToken:   "r2",
		ExpiresIn:      time.Hour,
		ExistingCookie: cookie,
	})
	require.NoError(t, err)
	require.Equal(t, "fresh", sess.Token.AccessToken)
	require.Empty(t, sess.Token.Error)
}

func TestEstablish_DifferentUserGetsNewSession(t *testing.T) {
	f := newSessionFixture(t)
	cookie := f.seed(t, validToken(f.now))
	f.identity.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).Return(domain.User{ID: "user-2"}, nil)

	got, sess, err := f.svc.Establish(context.Background(), EstablishParams{
		IDToken:        "id-token",
		AccessToken:    "a",
		ExistingCookie: cookie,
	})
	require.NoError(t, err)
	require.NotEqual(t, cookie, got)
	require.Equal(t, "user-2", sess.User.ID)
}

func TestEstablish_Rejections(t *testing.T) {
	f := newSessionFixture(t)

	_, _, err := f.svc.Establish(context.Background(), EstablishParams{AccessToken: "a"})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, _, err = f.svc.Establish(context.Background(), EstablishParams{IDToken: "x"})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	f.identity.EXPECT().VerifyIdentity(gomock.Any(), "bad").
		Return(domain.User{}, errors.Join(domain.ErrInvalidCredential, errors.New("bad signature")))
	_, _, err = f.svc.Establish(context.Background(), EstablishParams{IDToken: "bad", AccessToken: "a"})
	require.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestDestroy(t *testing.T) {
	f := newSessionFixture(t)
	cookie := f.seed(t, validToken(f.now))

	require.NoError(t, f.svc.Destroy(context.Background(), cookie))
	require.NoError(t, f.svc.Destroy(context.Background(), ""))

	_, err := f.svc.Resolve(context.Background(), cookie)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}
