package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// sessionScopeCookie names the browser-session scope: session and pending destination
	sessionScopeCookie = "sid"
	// deviceScopeCookie names the durable scope: in-flight sign-in flow state
	deviceScopeCookie = "did"
)

// scopeID returns the scope id carried by the named cookie, issuing a new
// one when it is absent or malformed. A zero maxAge issues a cookie that
// ends with the browser session.
func (s *Server) scopeID(w http.ResponseWriter, r *http.Request, name string, maxAge time.Duration) string {
	if c, err := r.Cookie(name); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		// Lax so the identity provider's top-level redirect back carries it
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
	return id
}

func (s *Server) expireScopeCookies(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{sessionScopeCookie, deviceScopeCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
