package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-session/guard"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/oidcclient"
	"github.com/jrsteele09/go-auth-session/webstorage"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	provider   *oidcclient.Provider
	scopes     webstorage.Factory
	apiClient  *http.Client
	pageRoutes guard.Routes
	templates  map[string]*template.Template
	csp        string
	assets     *assets
}

// New wires the HTTP surface. The provider and storage factory are shared
// by every request; everything bound to one browser is assembled per
// request in newPage.
func New(config config.Config, provider *oidcclient.Provider, scopes webstorage.Factory, apiClient *http.Client) (*Server, error) {
	if apiClient == nil {
		apiClient = http.DefaultClient
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		provider:  provider,
		scopes:    scopes,
		apiClient: apiClient,
		pageRoutes: guard.Routes{
			{Name: "home", Path: RouteHome},
			{Name: "accounts", Path: RouteAccounts, RequiresAuth: true},
			{Name: "logged-out", Path: RouteLoggedOut},
		},
		csp: contentSecurityPolicy(provider.Issuer()),
	}

	templates, err := parseTemplates("index.html", "accounts.html", "logged_out.html", "error.html")
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}
	s.templates = templates

	if s.assets, err = newAssets(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colouredMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
