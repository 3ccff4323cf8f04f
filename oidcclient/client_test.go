package oidcclient_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/navigation/navfake"
	"github.com/jrsteele09/go-auth-session/oidcclient"
	"github.com/jrsteele09/go-auth-session/oidcclient/oidcfake"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/webstorage"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "spa-client"
	testRedirectURL = "http://app.example.com/signin-callback"
)

type testFixture struct {
	idp      *oidcfake.Server
	provider *oidcclient.Provider
	store    *session.Store
	nav      *navfake.Recorder
	client   *oidcclient.Client
}

func setupTestFixture(t *testing.T, configure ...func(*oidcfake.Server)) *testFixture {
	t.Helper()

	idp, err := oidcfake.New(testClientID)
	require.NoError(t, err)
	t.Cleanup(idp.Close)
	for _, fn := range configure {
		fn(idp)
	}

	provider, err := oidcclient.NewProvider(context.Background(), oidcclient.Config{
		Issuer:      idp.Issuer(),
		ClientID:    testClientID,
		RedirectURL: testRedirectURL,
		HTTPClient:  idp.Client(),
	})
	require.NoError(t, err)

	store := session.NewStore(webstorage.NewMemory(), provider.Issuer(), provider.ClientID())
	flows := provider.NewFlowStateRepo(webstorage.NewMemory())
	nav := navfake.NewRecorder()

	return &testFixture{
		idp:      idp,
		provider: provider,
		store:    store,
		nav:      nav,
		client:   provider.NewClient(store, flows, nav),
	}
}

// beginSignIn starts a flow and returns the provider's callback URL
func (f *testFixture) beginSignIn(t *testing.T) (*url.URL, url.Values) {
	t.Helper()

	err := f.client.BeginAuthRedirect(context.Background())
	require.True(t, navigation.IsRedirect(err), "expected redirect, got %v", err)

	authURL, err := url.Parse(f.nav.Last())
	require.NoError(t, err)

	callback, err := f.idp.SignIn(f.nav.Last())
	require.NoError(t, err)
	return callback, authURL.Query()
}

func TestNewProvider_RequiresConfig(t *testing.T) {
	_, err := oidcclient.NewProvider(context.Background(), oidcclient.Config{ClientID: testClientID})
	require.Error(t, err)
}

func TestClient_BeginAuthRedirect(t *testing.T) {
	f := setupTestFixture(t)

	err := f.client.BeginAuthRedirect(context.Background())
	require.ErrorIs(t, err, navigation.ErrRedirected)

	authURL, err := url.Parse(f.nav.Last())
	require.NoError(t, err)
	require.Equal(t, f.idp.Issuer()+"/authorize", authURL.Scheme+"://"+authURL.Host+authURL.Path)

	q := authURL.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, testRedirectURL, q.Get("redirect_uri"))
	require.Equal(t, "openid profile email", q.Get("scope"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))
	require.NotEmpty(t, q.Get("state"))
	require.NotEmpty(t, q.Get("nonce"))

	// Each attempt gets its own state
	require.ErrorIs(t, f.client.BeginAuthRedirect(context.Background()), navigation.ErrRedirected)
	second, err := url.Parse(f.nav.Last())
	require.NoError(t, err)
	require.NotEqual(t, q.Get("state"), second.Query().Get("state"))
}

func TestClient_CompleteAuthCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t, func(s *oidcfake.Server) { s.AccessToken = "abc" })
		callback, _ := f.beginSignIn(t)

		before := time.Now()
		sess, err := f.client.CompleteAuthCallback(ctx, callback)
		require.NoError(t, err)
		require.Equal(t, "abc", sess.AccessToken)
		require.Equal(t, "Bearer", sess.TokenType)
		require.NotEmpty(t, sess.IDToken)
		require.Equal(t, "user-1", sess.Profile.Subject)
		require.Equal(t, "john.doe@example.com", sess.Profile.Email)
		require.Equal(t, "openid profile email", sess.Scope)
		require.WithinDuration(t, before.Add(time.Hour), sess.ExpiresAt, time.Minute)

		// The client never persists on its own
		persisted, err := f.client.GetPersistedUser(ctx)
		require.NoError(t, err)
		require.Nil(t, persisted)
	})

	t.Run("replayed state is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		callback, _ := f.beginSignIn(t)

		_, err := f.client.CompleteAuthCallback(ctx, callback)
		require.NoError(t, err)

		_, err = f.client.CompleteAuthCallback(ctx, callback)
		require.ErrorIs(t, err, errors.ErrUnknownState)
	})

	t.Run("forged state is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		callback, _ := f.beginSignIn(t)

		q := callback.Query()
		q.Set("state", "forged")
		callback.RawQuery = q.Encode()

		_, err := f.client.CompleteAuthCallback(ctx, callback)
		require.ErrorIs(t, err, errors.ErrUnknownState)
	})

	t.Run("missing code", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.client.CompleteAuthCallback(ctx, &url.URL{Path: "/signin-callback", RawQuery: "state=abc"})
		require.ErrorIs(t, err, errors.ErrMissingCode)
	})

	t.Run("provider error", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.client.CompleteAuthCallback(ctx, &url.URL{
			Path:     "/signin-callback",
			RawQuery: "error=access_denied&error_description=User+cancelled",
		})
		require.ErrorIs(t, err, errors.ErrProviderError)
		require.Contains(t, err.Error(), "access_denied")
	})

	t.Run("token endpoint rejects exchange", func(t *testing.T) {
		f := setupTestFixture(t, func(s *oidcfake.Server) { s.FailExchange = true })
		callback, _ := f.beginSignIn(t)

		_, err := f.client.CompleteAuthCallback(ctx, callback)
		require.ErrorIs(t, err, errors.ErrTokenExchange)
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		f := setupTestFixture(t, func(s *oidcfake.Server) { s.NonceOverride = "replayed-nonce" })
		callback, _ := f.beginSignIn(t)

		_, err := f.client.CompleteAuthCallback(ctx, callback)
		require.ErrorIs(t, err, errors.ErrNonceMismatch)
	})

	t.Run("missing id_token", func(t *testing.T) {
		f := setupTestFixture(t, func(s *oidcfake.Server) { s.OmitIDToken = true })
		callback, _ := f.beginSignIn(t)

		_, err := f.client.CompleteAuthCallback(ctx, callback)
		require.ErrorIs(t, err, errors.ErrMissingIDToken)
	})

	t.Run("expiry falls back to access token exp", func(t *testing.T) {
		f := setupTestFixture(t, func(s *oidcfake.Server) { s.AccessTokenTTL = 0 })
		callback, _ := f.beginSignIn(t)

		sess, err := f.client.CompleteAuthCallback(ctx, callback)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)
	})

	t.Run("expiry falls back to default lifetime", func(t *testing.T) {
		f := setupTestFixture(t, func(s *oidcfake.Server) {
			s.AccessTokenTTL = 0
			s.AccessToken = "opaque-token"
		})
		callback, _ := f.beginSignIn(t)

		sess, err := f.client.CompleteAuthCallback(ctx, callback)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(oidcclient.DefaultTokenLifetime), sess.ExpiresAt, time.Minute)
	})
}

func TestClient_BeginEndSessionRedirect(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	t.Run("with id token hint", func(t *testing.T) {
		err := f.client.BeginEndSessionRedirect(ctx, "id-token-1", "http://app.example.com/logged-out")
		require.ErrorIs(t, err, navigation.ErrRedirected)

		target, err := url.Parse(f.nav.Last())
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(f.nav.Last(), f.idp.Issuer()+"/logout?"))
		require.Equal(t, "id-token-1", target.Query().Get("id_token_hint"))
		require.Equal(t, "http://app.example.com/logged-out", target.Query().Get("post_logout_redirect_uri"))
		require.Equal(t, testClientID, target.Query().Get("client_id"))
	})

	t.Run("without hint", func(t *testing.T) {
		err := f.client.BeginEndSessionRedirect(ctx, "", "http://app.example.com/logged-out")
		require.ErrorIs(t, err, navigation.ErrRedirected)

		target, err := url.Parse(f.nav.Last())
		require.NoError(t, err)
		require.False(t, target.Query().Has("id_token_hint"))
	})
}

func TestClient_PersistedUser(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	require.NoError(t, f.store.Save(ctx, &session.Session{
		AccessToken: "abc",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))

	// Expired sessions are still returned; expiry is the manager's concern
	sess, err := f.client.GetPersistedUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "abc", sess.AccessToken)

	require.NoError(t, f.client.ClearPersistedUser(ctx))
	sess, err = f.client.GetPersistedUser(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)
}
