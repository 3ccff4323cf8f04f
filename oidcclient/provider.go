package oidcclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/webstorage"
	"golang.org/x/oauth2"
)

const (
	DefaultFlowTimeout   = 15 * time.Minute
	DefaultTokenLifetime = 1 * time.Hour
)

// Config describes this application's registration at the identity provider
type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string // empty for public (PKCE-only) clients
	RedirectURL  string // fixed callback path on this origin
	Scopes       []string

	FlowTimeout   time.Duration
	TokenLifetime time.Duration // used when the provider omits expires_in
	HTTPClient    *http.Client
}

// Provider is the discovered identity provider. It is built once at
// startup and shared by every page.
type Provider struct {
	issuer        string
	oauth2Config  *oauth2.Config
	verifier      *oidc.IDTokenVerifier
	endSessionURL string
	flowTimeout   time.Duration
	tokenLifetime time.Duration
	httpClient    *http.Client
	now           func() time.Time
}

// NewProvider runs OIDC discovery against cfg.Issuer.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, fmt.Errorf("oidcclient: issuer, client id and redirect url are required")
	}

	p := &Provider{
		issuer:        cfg.Issuer,
		flowTimeout:   cfg.FlowTimeout,
		tokenLifetime: cfg.TokenLifetime,
		httpClient:    cfg.HTTPClient,
		now:           time.Now,
	}
	if p.flowTimeout <= 0 {
		p.flowTimeout = DefaultFlowTimeout
	}
	if p.tokenLifetime <= 0 {
		p.tokenLifetime = DefaultTokenLifetime
	}
	if p.httpClient == nil {
		p.httpClient = http.DefaultClient
	}

	oidcProvider, err := oidc.NewProvider(oidc.ClientContext(ctx, p.httpClient), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidcclient: failed to create OIDC provider: %w", err)
	}

	var discovery struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := oidcProvider.Claims(&discovery); err != nil {
		return nil, fmt.Errorf("oidcclient: failed to read discovery document: %w", err)
	}
	p.endSessionURL = discovery.EndSessionEndpoint

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	endpoint := oidcProvider.Endpoint()
	if cfg.ClientSecret == "" {
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}

	p.oauth2Config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
	}
	p.verifier = oidcProvider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
		Now:      func() time.Time { return p.now() },
	})

	return p, nil
}

func (p *Provider) Issuer() string {
	return p.issuer
}

func (p *Provider) ClientID() string {
	return p.oauth2Config.ClientID
}

// EndSessionURL is the provider's end_session_endpoint, or "" if it has none.
func (p *Provider) EndSessionURL() string {
	return p.endSessionURL
}

// NewClient binds the provider to one page's session store, flow state
// scope and navigator.
func (p *Provider) NewClient(store *session.Store, flows *FlowStateRepo, nav navigation.Navigator) *Client {
	return &Client{
		provider: p,
		store:    store,
		flows:    flows,
		nav:      nav,
	}
}

// NewFlowStateRepo creates a flow state repo with the provider's flow timeout.
func (p *Provider) NewFlowStateRepo(storage webstorage.Storage) *FlowStateRepo {
	repo := NewFlowStateRepo(storage, p.flowTimeout)
	repo.now = p.now
	return repo
}

func (p *Provider) exchangeContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
