package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-auth-session/apiclient"
	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/rs/zerolog/log"
)

const healthKey = "healthz"

type errorPage struct {
	AppName string
	Title   string
	Message string
	Retry   string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.templates[name]
	if !ok {
		log.Error().Str("template", name).Msg("Unknown template")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		log.Err(err).Str("template", name).Msg("Failed to render template")
	}
}

func (s *Server) renderError(w http.ResponseWriter, status int, title, message, retry string) {
	s.render(w, status, "error.html", errorPage{
		AppName: s.config.GetAppName(),
		Title:   title,
		Message: message,
		Retry:   retry,
	})
}

// navigate runs the route guard for the request. It reports whether the
// handler may continue; otherwise the response has been written.
func (s *Server) navigate(w http.ResponseWriter, r *http.Request) bool {
	decision, err := pageFrom(r).guard.BeforeNavigate(r.Context(), r.URL)
	if err != nil {
		s.navigationFailed(w, r, err)
		return false
	}
	if decision.Redirect != "" {
		redirectSuccess(w, r, decision.Redirect)
		return false
	}
	return decision.Proceed
}

func (s *Server) navigationFailed(w http.ResponseWriter, r *http.Request, err error) {
	if navigation.IsRedirect(err) {
		return
	}

	var callbackErr *auth.CallbackError
	if errors.As(err, &callbackErr) {
		log.Warn().Err(err).Msg("Sign-in callback rejected")
		s.renderError(w, http.StatusBadRequest, "Sign-in failed", callbackErr.Reason, RouteAccounts)
		return
	}

	log.Err(err).Str("path", r.URL.Path).Msg("Navigation failed")
	s.renderError(w, http.StatusInternalServerError, "Something went wrong", "Please try again.", r.URL.Path)
}

func (s *Server) GuardMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.navigate(w, r) {
			return
		}
		next(w, r)
	}
}

// HomeHandler renders the home page
func (s *Server) HomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := pageFrom(r)
		sess, err := p.manager.CurrentSession(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read session")
		}

		data := map[string]interface{}{
			"AppName": s.config.GetAppName(),
			"Session": sess,
		}
		s.render(w, http.StatusOK, "index.html", data)
	}
}

// AccountsHandler lists the signed-in user's accounts from the backend
func (s *Server) AccountsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := pageFrom(r)
		accounts, err := apiclient.Get[[]Account](r.Context(), p.api, "/accounts")
		if err != nil {
			if navigation.IsRedirect(err) {
				return
			}

			var httpErr *apiclient.HTTPError
			if errors.As(err, &httpErr) {
				log.Warn().Int("status", httpErr.Status).Msg("Backend failed to list accounts")
			} else {
				log.Err(err).Msg("Failed to list accounts")
			}
			s.renderError(w, http.StatusBadGateway, "Accounts unavailable", "We couldn't load your accounts.", RouteAccounts)
			return
		}

		sess, _ := p.manager.CurrentSession(r.Context())
		data := map[string]interface{}{
			"AppName": s.config.GetAppName(),
			"Session": sess,
		}
		if accounts != nil {
			data["Accounts"] = *accounts
		}
		s.render(w, http.StatusOK, "accounts.html", data)
	}
}

// SigninCallbackHandler completes sign-in and lands on the pending destination
func (s *Server) SigninCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.navigate(w, r) {
			// Only reachable if the callback route is not the guard's callback path
			redirectSuccess(w, r, RouteAccounts)
		}
	}
}

func (s *Server) LoggedOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "logged_out.html", map[string]interface{}{
			"AppName": s.config.GetAppName(),
		})
	}
}

// HealthzHandler reports whether browser storage is reachable
func (s *Server) HealthzHandler() http.HandlerFunc {
	health := s.scopes.Open(healthKey)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		if _, _, err := health.Get(r.Context(), healthKey); err != nil {
			log.Err(err).Msg("Health check: storage unavailable")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]bool{"ok": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}
}
