package auth_test

import (
	"context"
	stderrors "errors"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/auth/authfake"
	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/webstorage"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type testFixture struct {
	storage  *webstorage.Memory
	store    *session.Store
	provider *authfake.Provider
	manager  *auth.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	storage := webstorage.NewMemory()
	store := session.NewStore(storage, "https://idp.example.com", "spa-client")
	provider := authfake.NewProvider(store)

	return &testFixture{
		storage:  storage,
		store:    store,
		provider: provider,
		manager:  auth.NewManager(provider, store, auth.WithClock(func() time.Time { return testNow })),
	}
}

func validSession(accessToken string) *session.Session {
	return &session.Session{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		IDToken:     "id-" + accessToken,
		ExpiresAt:   testNow.Add(time.Hour),
		Profile:     session.Profile{Subject: "user-1"},
	}
}

func TestManager_CurrentSession(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		f := setupTestFixture(t)
		sess, err := f.manager.CurrentSession(ctx)
		require.NoError(t, err)
		require.Nil(t, sess)
		require.Equal(t, auth.StateAnonymous, f.manager.State(ctx))
	})

	t.Run("valid", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Save(ctx, validSession("abc")))

		sess, err := f.manager.CurrentSession(ctx)
		require.NoError(t, err)
		require.Equal(t, "abc", sess.AccessToken)
		require.Equal(t, auth.StateAuthenticated, f.manager.State(ctx))
	})

	t.Run("expired is indistinguishable from absent", func(t *testing.T) {
		f := setupTestFixture(t)
		expired := validSession("abc")
		expired.ExpiresAt = testNow.Add(-time.Second)
		require.NoError(t, f.store.Save(ctx, expired))

		sess, err := f.manager.CurrentSession(ctx)
		require.NoError(t, err)
		require.Nil(t, sess)

		// No side effects: the record is still there for logout hints
		persisted, err := f.manager.PersistedSession(ctx)
		require.NoError(t, err)
		require.NotNil(t, persisted)
	})
}

func TestManager_EnsureAuthenticated(t *testing.T) {
	ctx := context.Background()

	t.Run("returns valid session without redirect", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Save(ctx, validSession("abc")))

		sess, err := f.manager.EnsureAuthenticated(ctx)
		require.NoError(t, err)
		require.Equal(t, "abc", sess.AccessToken)
		require.Empty(t, f.provider.Nav.Targets())
	})

	t.Run("redirects when anonymous", func(t *testing.T) {
		f := setupTestFixture(t)

		sess, err := f.manager.EnsureAuthenticated(ctx)
		require.Nil(t, sess)
		require.ErrorIs(t, err, navigation.ErrRedirected)
		require.Equal(t, []string{authfake.AuthorizeURL}, f.provider.Nav.Targets())
		require.Equal(t, auth.StateRedirecting, f.manager.State(ctx))
	})

	t.Run("redirect failure surfaces", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.BeginErr = stderrors.New("storage down")

		_, err := f.manager.EnsureAuthenticated(ctx)
		require.Error(t, err)
		require.False(t, navigation.IsRedirect(err))
		require.Equal(t, auth.StateAnonymous, f.manager.State(ctx))
	})
}

func TestManager_Reauthenticate(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	require.NoError(t, f.store.Save(ctx, validSession("abc")))
	require.Equal(t, auth.StateAuthenticated, f.manager.State(ctx))

	err := f.manager.Reauthenticate(ctx)
	require.ErrorIs(t, err, navigation.ErrRedirected)
	require.Equal(t, []string{authfake.AuthorizeURL}, f.provider.Nav.Targets())
	require.Equal(t, auth.StateRedirecting, f.manager.State(ctx))

	// The session is left for the caller to purge
	persisted, err := f.manager.PersistedSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, persisted)
}

func TestManager_CompleteSigninCallback(t *testing.T) {
	ctx := context.Background()
	callback := &url.URL{Path: "/signin-callback", RawQuery: "code=c&state=s"}

	t.Run("persists session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.CallbackSession = validSession("abc")

		sess, err := f.manager.CompleteSigninCallback(ctx, callback)
		require.NoError(t, err)
		require.Equal(t, "abc", sess.AccessToken)
		require.Equal(t, callback, f.provider.CallbackURL())

		current, err := f.manager.CurrentSession(ctx)
		require.NoError(t, err)
		require.Equal(t, "abc", current.AccessToken)
	})

	t.Run("provider failure is a CallbackError", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.CallbackErr = errors.ErrUnknownState

		sess, err := f.manager.CompleteSigninCallback(ctx, callback)
		require.Nil(t, sess)

		var cbErr *auth.CallbackError
		require.ErrorAs(t, err, &cbErr)
		require.ErrorIs(t, err, errors.ErrUnknownState)
		require.Contains(t, cbErr.Reason, "forged")

		current, err := f.manager.CurrentSession(ctx)
		require.NoError(t, err)
		require.Nil(t, current)
	})

	t.Run("already expired session is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		expired := validSession("abc")
		expired.ExpiresAt = testNow.Add(-time.Minute)
		f.provider.CallbackSession = expired

		_, err := f.manager.CompleteSigninCallback(ctx, callback)
		var cbErr *auth.CallbackError
		require.ErrorAs(t, err, &cbErr)

		persisted, err := f.manager.PersistedSession(ctx)
		require.NoError(t, err)
		require.Nil(t, persisted)
	})
}

func TestManager_InitiateSignout(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	err := f.manager.InitiateSignout(ctx, auth.SignoutOptions{
		IDTokenHint:      "id-abc",
		PostLogoutTarget: "http://app.example.com/logged-out",
	})
	require.ErrorIs(t, err, navigation.ErrRedirected)

	hint, target := f.provider.EndSession()
	require.Equal(t, "id-abc", hint)
	require.Equal(t, "http://app.example.com/logged-out", target)
	require.Equal(t, auth.StateRedirecting, f.manager.State(ctx))
}

func TestManager_PurgeSession(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	require.NoError(t, f.store.Save(ctx, validSession("abc")))

	require.NoError(t, f.manager.PurgeSession(ctx))

	persisted, err := f.manager.PersistedSession(ctx)
	require.NoError(t, err)
	require.Nil(t, persisted)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "anonymous", auth.StateAnonymous.String())
	require.Equal(t, "redirecting", auth.StateRedirecting.String())
	require.Equal(t, "authenticated", auth.StateAuthenticated.String())
}
