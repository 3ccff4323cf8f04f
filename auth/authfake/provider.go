package authfake

import (
	"context"
	"net/url"
	"sync"

	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/navigation/navfake"
	"github.com/jrsteele09/go-auth-session/session"
)

const (
	AuthorizeURL  = "https://idp.example.com/authorize"
	EndSessionURL = "https://idp.example.com/logout"
)

// Provider is a scriptable IdentityProvider that persists users in a
// real session store and records every call in order.
type Provider struct {
	Store *session.Store
	Nav   *navfake.Recorder

	CallbackSession *session.Session
	CallbackErr     error
	BeginErr        error
	EndSessionErr   error
	GetErr          error
	ClearErr        error

	mu              sync.Mutex
	calls           []string
	idTokenHint     string
	postLogoutURI   string
	callbackURLSeen *url.URL
}

func NewProvider(store *session.Store) *Provider {
	return &Provider{
		Store: store,
		Nav:   navfake.NewRecorder(),
	}
}

func (p *Provider) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

// Calls returns the names of every call made, in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// EndSession returns the arguments of the last end-session redirect.
func (p *Provider) EndSession() (idTokenHint, postLogoutURI string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idTokenHint, p.postLogoutURI
}

// CallbackURL returns the URL passed to the last CompleteAuthCallback.
func (p *Provider) CallbackURL() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callbackURLSeen
}

func (p *Provider) BeginAuthRedirect(ctx context.Context) error {
	p.record("BeginAuthRedirect")
	if p.BeginErr != nil {
		return p.BeginErr
	}
	return navigation.RedirectTo(ctx, p.Nav, AuthorizeURL)
}

func (p *Provider) CompleteAuthCallback(_ context.Context, callbackURL *url.URL) (*session.Session, error) {
	p.record("CompleteAuthCallback")
	p.mu.Lock()
	p.callbackURLSeen = callbackURL
	p.mu.Unlock()
	return p.CallbackSession, p.CallbackErr
}

func (p *Provider) BeginEndSessionRedirect(ctx context.Context, idTokenHint, postLogoutRedirectURI string) error {
	p.record("BeginEndSessionRedirect")
	p.mu.Lock()
	p.idTokenHint = idTokenHint
	p.postLogoutURI = postLogoutRedirectURI
	p.mu.Unlock()
	if p.EndSessionErr != nil {
		return p.EndSessionErr
	}
	return navigation.RedirectTo(ctx, p.Nav, EndSessionURL)
}

func (p *Provider) GetPersistedUser(ctx context.Context) (*session.Session, error) {
	p.record("GetPersistedUser")
	if p.GetErr != nil {
		return nil, p.GetErr
	}
	return p.Store.Load(ctx)
}

func (p *Provider) ClearPersistedUser(ctx context.Context) error {
	p.record("ClearPersistedUser")
	if p.ClearErr != nil {
		return p.ClearErr
	}
	return p.Store.Remove(ctx)
}
