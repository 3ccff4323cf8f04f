package oidcclient

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Client drives the authorization-code + PKCE flow for one page.
type Client struct {
	provider *Provider
	store    *session.Store
	flows    *FlowStateRepo
	nav      navigation.Navigator
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oidcclient: failed to generate random string: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// BeginAuthRedirect persists a fresh state, nonce and PKCE verifier and
// sends the page to the authorization endpoint. On success it returns
// navigation.ErrRedirected.
func (c *Client) BeginAuthRedirect(ctx context.Context) error {
	state, err := generateRandomString(32)
	if err != nil {
		return err
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return err
	}
	verifier := oauth2.GenerateVerifier()

	if err := c.flows.Save(ctx, state, FlowState{
		CodeVerifier: verifier,
		Nonce:        nonce,
		CreatedAt:    c.provider.now(),
	}); err != nil {
		return errors.Wrapf(err, "oidcclient: persist flow state")
	}

	authURL := c.provider.oauth2Config.AuthCodeURL(
		state,
		oauth2.S256ChallengeOption(verifier),
		oidc.Nonce(nonce),
	)
	return navigation.RedirectTo(ctx, c.nav, authURL)
}

// CompleteAuthCallback redeems the code and state carried by callbackURL
// and returns the resulting session. It does not persist the session.
func (c *Client) CompleteAuthCallback(ctx context.Context, callbackURL *url.URL) (*session.Session, error) {
	query := callbackURL.Query()

	// Check for authorization errors
	if errorParam := query.Get("error"); errorParam != "" {
		return nil, fmt.Errorf("%w: %s - %s", errors.ErrProviderError, errorParam, query.Get("error_description"))
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		return nil, errors.ErrMissingCode
	}

	flow, err := c.flows.Take(ctx, state)
	if err != nil {
		return nil, err
	}

	ctx = c.provider.exchangeContext(ctx)
	token, err := c.provider.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrTokenExchange, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.ErrMissingIDToken
	}

	idToken, err := c.provider.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("oidcclient: id_token verification failed: %w", err)
	}
	if idToken.Nonce != flow.Nonce {
		return nil, errors.ErrNonceMismatch
	}

	var profile session.Profile
	if err := idToken.Claims(&profile); err != nil {
		return nil, fmt.Errorf("oidcclient: failed to extract claims: %w", err)
	}

	scope, _ := token.Extra("scope").(string)
	if scope == "" {
		scope = strings.Join(c.provider.oauth2Config.Scopes, " ")
	}

	return &session.Session{
		AccessToken:  token.AccessToken,
		TokenType:    token.Type(),
		IDToken:      rawIDToken,
		RefreshToken: token.RefreshToken,
		Scope:        scope,
		ExpiresAt:    c.expiry(token),
		Profile:      profile,
	}, nil
}

// expiry prefers the token response's expires_in, then the access token's
// own exp claim, then the configured default lifetime.
func (c *Client) expiry(token *oauth2.Token) time.Time {
	if !token.Expiry.IsZero() {
		return token.Expiry
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.AccessToken, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}

	log.Debug().Dur("lifetime", c.provider.tokenLifetime).Msg("Token response has no expiry, using default lifetime")
	return c.provider.now().Add(c.provider.tokenLifetime)
}

// BeginEndSessionRedirect sends the page to the provider's end-session
// endpoint. On success it returns navigation.ErrRedirected.
func (c *Client) BeginEndSessionRedirect(ctx context.Context, idTokenHint, postLogoutRedirectURI string) error {
	if c.provider.endSessionURL == "" {
		return errors.ErrNoEndSession
	}

	endSession, err := url.Parse(c.provider.endSessionURL)
	if err != nil {
		return fmt.Errorf("oidcclient: invalid end_session_endpoint: %w", err)
	}

	query := endSession.Query()
	query.Set("client_id", c.provider.oauth2Config.ClientID)
	if idTokenHint != "" {
		query.Set("id_token_hint", idTokenHint)
	}
	if postLogoutRedirectURI != "" {
		query.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}
	endSession.RawQuery = query.Encode()

	return navigation.RedirectTo(ctx, c.nav, endSession.String())
}

// GetPersistedUser returns the stored session without checking expiry.
func (c *Client) GetPersistedUser(ctx context.Context) (*session.Session, error) {
	return c.store.Load(ctx)
}

// ClearPersistedUser removes the stored session.
func (c *Client) ClearPersistedUser(ctx context.Context) error {
	return c.store.Remove(ctx)
}
