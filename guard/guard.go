package guard

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-auth-session/session"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCallbackPath = "/signin-callback"
	DefaultFallbackPath = "/accounts"
)

// Authenticator is the part of the auth manager the guard depends on.
type Authenticator interface {
	EnsureAuthenticated(ctx context.Context) (*session.Session, error)
	CompleteSigninCallback(ctx context.Context, callbackURL *url.URL) (*session.Session, error)
}

// Decision is the outcome of a navigation check. Either the navigation
// proceeds, or the page should be sent to Redirect instead.
type Decision struct {
	Proceed  bool
	Redirect string
	Session  *session.Session
}

type Guard struct {
	auth         Authenticator
	pending      *PendingDestination
	routes       Routes
	callbackPath string
	fallbackPath string
}

type Option func(*Guard)

func WithCallbackPath(path string) Option {
	return func(g *Guard) {
		g.callbackPath = path
	}
}

func WithFallbackPath(path string) Option {
	return func(g *Guard) {
		g.fallbackPath = path
	}
}

func New(auth Authenticator, pending *PendingDestination, routes Routes, options ...Option) *Guard {
	g := &Guard{
		auth:         auth,
		pending:      pending,
		routes:       routes,
		callbackPath: DefaultCallbackPath,
		fallbackPath: DefaultFallbackPath,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// BeforeNavigate decides whether navigation to target may proceed.
//
// The sign-in callback is completed here and resolves to the pending
// destination. For protected routes the destination is recorded before
// authentication is checked, so it survives the round trip to the
// identity provider. A navigation.ErrRedirected error means the page is
// already leaving and the caller must stop.
func (g *Guard) BeforeNavigate(ctx context.Context, target *url.URL) (Decision, error) {
	if target.Path == g.callbackPath {
		return g.completeSignin(ctx, target)
	}

	route, ok := g.routes.Match(target.Path)
	if !ok || !route.RequiresAuth {
		return Decision{Proceed: true}, nil
	}

	if err := g.pending.Set(ctx, target.RequestURI()); err != nil {
		log.Warn().Err(err).Str("route", route.Name).Msg("Failed to record pending destination")
	}

	sess, err := g.auth.EnsureAuthenticated(ctx)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Proceed: true, Session: sess}, nil
}

func (g *Guard) completeSignin(ctx context.Context, callbackURL *url.URL) (Decision, error) {
	sess, err := g.auth.CompleteSigninCallback(ctx, callbackURL)
	if err != nil {
		return Decision{}, err
	}

	dest, ok, err := g.pending.Take(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read pending destination")
	}
	if !ok {
		dest = g.fallbackPath
	}
	return Decision{Redirect: dest, Session: sess}, nil
}
