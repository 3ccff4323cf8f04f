package guard_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/auth/authfake"
	"github.com/jrsteele09/go-auth-session/guard"
	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/webstorage"
	"github.com/stretchr/testify/require"
)

var routes = guard.Routes{
	{Name: "home", Path: "/"},
	{Name: "accounts", Path: "/accounts", RequiresAuth: true},
	{Name: "transfers", Path: "/transfers", RequiresAuth: true},
}

type testFixture struct {
	storage  *webstorage.Memory
	store    *session.Store
	provider *authfake.Provider
	pending  *guard.PendingDestination
	guard    *guard.Guard
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	storage := webstorage.NewMemory()
	store := session.NewStore(storage, "https://idp.example.com", "spa-client")
	provider := authfake.NewProvider(store)
	pending := guard.NewPendingDestination(storage)

	return &testFixture{
		storage:  storage,
		store:    store,
		provider: provider,
		pending:  pending,
		guard:    guard.New(auth.NewManager(provider, store), pending, routes),
	}
}

func (f *testFixture) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), &session.Session{
		AccessToken: "abc",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestGuard_Unprotected(t *testing.T) {
	f := setupTestFixture(t)

	for _, target := range []string{"/", "/unknown"} {
		decision, err := f.guard.BeforeNavigate(context.Background(), mustParse(t, target))
		require.NoError(t, err)
		require.True(t, decision.Proceed)
	}
	require.Empty(t, f.provider.Calls())
	require.Equal(t, 0, f.storage.Len())
}

func TestGuard_Protected(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous user is redirected after recording destination", func(t *testing.T) {
		f := setupTestFixture(t)

		var pendingAtRedirect string
		f.provider.Nav.OnRedirect = func(string) {
			pendingAtRedirect, _, _ = f.storage.Get(ctx, "auth.return_to")
		}

		_, err := f.guard.BeforeNavigate(ctx, mustParse(t, "/transfers?from=acc-1"))
		require.ErrorIs(t, err, navigation.ErrRedirected)
		require.Equal(t, "/transfers?from=acc-1", pendingAtRedirect)
		require.Equal(t, []string{authfake.AuthorizeURL}, f.provider.Nav.Targets())
	})

	t.Run("authenticated user proceeds", func(t *testing.T) {
		f := setupTestFixture(t)
		f.signIn(t)

		decision, err := f.guard.BeforeNavigate(ctx, mustParse(t, "/accounts"))
		require.NoError(t, err)
		require.True(t, decision.Proceed)
		require.Equal(t, "abc", decision.Session.AccessToken)
		require.Empty(t, f.provider.Nav.Targets())

		// The destination is recorded regardless of session state
		dest, ok, err := f.pending.Take(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "/accounts", dest)
	})
}

func TestGuard_SigninCallback(t *testing.T) {
	ctx := context.Background()
	callback := "/signin-callback?code=c&state=s"

	t.Run("lands on pending destination once", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.CallbackSession = &session.Session{AccessToken: "abc", ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(t, f.pending.Set(ctx, "/transfers"))

		decision, err := f.guard.BeforeNavigate(ctx, mustParse(t, callback))
		require.NoError(t, err)
		require.False(t, decision.Proceed)
		require.Equal(t, "/transfers", decision.Redirect)

		_, ok, err := f.pending.Take(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("falls back to accounts", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.CallbackSession = &session.Session{AccessToken: "abc", ExpiresAt: time.Now().Add(time.Hour)}

		decision, err := f.guard.BeforeNavigate(ctx, mustParse(t, callback))
		require.NoError(t, err)
		require.Equal(t, guard.DefaultFallbackPath, decision.Redirect)
	})

	t.Run("callback failure propagates", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.CallbackErr = errors.ErrUnknownState
		require.NoError(t, f.pending.Set(ctx, "/transfers"))

		_, err := f.guard.BeforeNavigate(ctx, mustParse(t, callback))
		var cbErr *auth.CallbackError
		require.ErrorAs(t, err, &cbErr)

		// Destination is kept for the next attempt
		dest, ok, err := f.pending.Take(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "/transfers", dest)
	})
}

func TestPendingDestination(t *testing.T) {
	ctx := context.Background()
	pending := guard.NewPendingDestination(webstorage.NewMemory())

	t.Run("only local paths", func(t *testing.T) {
		for _, dest := range []string{"https://evil.example.com", "//evil.example.com", "/\\evil.example.com", "accounts", ""} {
			require.ErrorIs(t, pending.Set(ctx, dest), errors.ErrInvalidDestination, dest)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		require.NoError(t, pending.Set(ctx, "/accounts"))
		require.NoError(t, pending.Set(ctx, "/transfers"))

		dest, ok, err := pending.Take(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "/transfers", dest)
	})
}

func TestRoutes_Match(t *testing.T) {
	route, ok := routes.Match("/accounts")
	require.True(t, ok)
	require.Equal(t, "accounts", route.Name)
	require.True(t, route.RequiresAuth)

	_, ok = routes.Match("/accounts/extra")
	require.False(t, ok)
}
