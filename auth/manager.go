package auth

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/rs/zerolog/log"
)

// IdentityProvider is the redirect contract of an OIDC provider client.
// The Begin* operations are terminal: on success they return
// navigation.ErrRedirected.
type IdentityProvider interface {
	BeginAuthRedirect(ctx context.Context) error
	CompleteAuthCallback(ctx context.Context, callbackURL *url.URL) (*session.Session, error)
	BeginEndSessionRedirect(ctx context.Context, idTokenHint, postLogoutRedirectURI string) error
	GetPersistedUser(ctx context.Context) (*session.Session, error)
	ClearPersistedUser(ctx context.Context) error
}

// State is the sign-in state of a page
type State int

const (
	StateAnonymous State = iota
	StateRedirecting
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateRedirecting:
		return "redirecting"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// SignoutOptions configure the end-session redirect
type SignoutOptions struct {
	IDTokenHint      string
	PostLogoutTarget string
}

// Manager owns the sign-in and sign-out exchanges with the identity
// provider and is the only component that changes the persisted session.
type Manager struct {
	provider IdentityProvider
	store    *session.Store
	now      func() time.Time

	mu          sync.Mutex
	redirecting bool
}

type Option func(*Manager)

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(provider IdentityProvider, store *session.Store, options ...Option) *Manager {
	m := &Manager{
		provider: provider,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// CurrentSession returns the persisted session if it is complete and
// unexpired, or nil otherwise. It never modifies persisted state.
func (m *Manager) CurrentSession(ctx context.Context) (*session.Session, error) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.Valid(m.now()) {
		return nil, nil
	}
	return sess, nil
}

// EnsureAuthenticated returns the current session, or sends the page to
// the identity provider and returns navigation.ErrRedirected.
func (m *Manager) EnsureAuthenticated(ctx context.Context) (*session.Session, error) {
	sess, err := m.CurrentSession(ctx)
	if err != nil {
		// An unreadable session is treated as absent
		log.Warn().Err(err).Msg("Failed to read session, starting sign-in")
	}
	if sess != nil {
		return sess, nil
	}
	return nil, m.Reauthenticate(ctx)
}

// Reauthenticate sends the page to the identity provider regardless of
// any session currently persisted.
func (m *Manager) Reauthenticate(ctx context.Context) error {
	err := m.provider.BeginAuthRedirect(ctx)
	if navigation.IsRedirect(err) {
		m.setRedirecting()
	}
	return err
}

// CompleteSigninCallback redeems the provider's callback and persists the
// resulting session. Every failure is a *CallbackError.
func (m *Manager) CompleteSigninCallback(ctx context.Context, callbackURL *url.URL) (*session.Session, error) {
	sess, err := m.provider.CompleteAuthCallback(ctx, callbackURL)
	if err != nil {
		return nil, &CallbackError{Reason: callbackReason(err), Err: err}
	}
	if !sess.Valid(m.now()) {
		return nil, &CallbackError{Reason: "provider issued an unusable session", Err: errors.ErrIncompleteSession}
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, &CallbackError{Reason: "failed to persist session", Err: err}
	}

	log.Info().Str("sub", sess.Profile.Subject).Time("expires_at", sess.ExpiresAt).Msg("Sign-in completed")
	return sess, nil
}

func callbackReason(err error) string {
	switch {
	case errors.Is(err, errors.ErrMissingCode):
		return "missing authorization artifact"
	case errors.Is(err, errors.ErrUnknownState), errors.Is(err, errors.ErrNonceMismatch):
		return "forged or replayed authorization response"
	case errors.Is(err, errors.ErrFlowExpired):
		return "authorization flow expired"
	case errors.Is(err, errors.ErrProviderError):
		return "identity provider rejected the sign-in"
	default:
		return "authorization response failed validation"
	}
}

// InitiateSignout sends the page to the provider's end-session endpoint.
// On success it returns navigation.ErrRedirected.
func (m *Manager) InitiateSignout(ctx context.Context, opts SignoutOptions) error {
	err := m.provider.BeginEndSessionRedirect(ctx, opts.IDTokenHint, opts.PostLogoutTarget)
	if navigation.IsRedirect(err) {
		m.setRedirecting()
	}
	return err
}

// PurgeSession removes the persisted session.
func (m *Manager) PurgeSession(ctx context.Context) error {
	return m.provider.ClearPersistedUser(ctx)
}

// PersistedSession returns the stored session even if it has expired.
func (m *Manager) PersistedSession(ctx context.Context) (*session.Session, error) {
	return m.provider.GetPersistedUser(ctx)
}

// State reports where this page is in the sign-in lifecycle.
func (m *Manager) State(ctx context.Context) State {
	m.mu.Lock()
	redirecting := m.redirecting
	m.mu.Unlock()
	if redirecting {
		return StateRedirecting
	}

	if sess, err := m.CurrentSession(ctx); err == nil && sess != nil {
		return StateAuthenticated
	}
	return StateAnonymous
}

func (m *Manager) setRedirecting() {
	m.mu.Lock()
	m.redirecting = true
	m.mu.Unlock()
}
