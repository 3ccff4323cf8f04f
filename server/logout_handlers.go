package server

import (
	"net/http"

	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/rs/zerolog/log"
)

// HardLogoutHandler clears all local state and ends the provider session.
// If the provider cannot be reached for end-session the user still lands
// on the logged-out page with local state gone.
func (s *Server) HardLogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := pageFrom(r).logout.HardLogout(r.Context())
		if navigation.IsRedirect(err) {
			return
		}
		log.Err(err).Msg("Logout: end-session redirect failed")
		redirectSuccess(w, r, RouteLoggedOut)
	}
}

// ClearSiteDataHandler asks the browser to drop everything it holds for
// this origin.
func (s *Server) ClearSiteDataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		if r.Method == http.MethodPost {
			w.Header().Set("Clear-Site-Data", `"cache", "cookies", "storage", "executionContexts"`)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
