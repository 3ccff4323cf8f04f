package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-auth-session/apiclient"
	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/guard"
	"github.com/jrsteele09/go-auth-session/logout"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/webstorage"
)

// page is everything bound to one browser for the lifetime of a request.
type page struct {
	sessionScope webstorage.Storage
	deviceScope  webstorage.Storage
	nav          *navigation.ResponseNavigator
	manager      *auth.Manager
	guard        *guard.Guard
	api          *apiclient.Client
	logout       *logout.Coordinator
}

type pageKey struct{}

func (s *Server) newPage(w http.ResponseWriter, r *http.Request) *page {
	sid := s.scopeID(w, r, sessionScopeCookie, 0)
	did := s.scopeID(w, r, deviceScopeCookie, s.config.GetDeviceCookieMaxAge())

	p := &page{
		sessionScope: s.scopes.Open("session:" + sid),
		deviceScope:  s.scopes.Open("device:" + did),
		nav:          navigation.NewResponseNavigator(w, r),
	}

	store := session.NewStore(p.sessionScope, s.provider.Issuer(), s.provider.ClientID())
	client := s.provider.NewClient(store, s.provider.NewFlowStateRepo(p.deviceScope), p.nav)
	p.manager = auth.NewManager(client, store)

	p.guard = guard.New(p.manager, guard.NewPendingDestination(p.sessionScope), s.pageRoutes,
		guard.WithCallbackPath(RouteSigninCallback),
		guard.WithFallbackPath(RouteAccounts),
	)
	p.api = apiclient.New(s.config.GetAPIBaseURL(), p.manager, s.apiClient)
	p.logout = logout.NewCoordinator(p.manager,
		logout.NewBackendNotifier(s.config.GetAPIBaseURL(), s.apiClient),
		s.config.GetBaseURL()+RouteLoggedOut,
		logout.Task{Name: "purge-session", Run: p.manager.PurgeSession},
		logout.Task{Name: "clear-session-scope", Run: p.sessionScope.Clear},
		logout.Task{Name: "clear-device-scope", Run: p.deviceScope.Clear},
		logout.Task{Name: "expire-scope-cookies", Run: func(context.Context) error {
			s.expireScopeCookies(w, r)
			w.Header().Set("Clear-Site-Data", `"cache", "storage"`)
			return nil
		}},
	)

	return p
}

func (s *Server) AttachPageMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := s.newPage(w, r)
		next(w, r.WithContext(context.WithValue(r.Context(), pageKey{}, p)))
	}
}

func pageFrom(r *http.Request) *page {
	p, _ := r.Context().Value(pageKey{}).(*page)
	return p
}
