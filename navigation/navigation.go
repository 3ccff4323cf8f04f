// Package navigation models full-page redirects as terminal actions.
//
// An operation that hands the page to another origin returns
// ErrRedirected once the redirect has been issued. Nothing after that
// point runs in the same page context, so callers must stop processing
// and anything needed after the round trip must already be persisted.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

var (
	// ErrRedirected reports that the page has been handed off to a redirect.
	ErrRedirected = errors.New("navigation: page redirected")
	// ErrAlreadyRedirected is returned when a second redirect is attempted
	// on a page that has already left.
	ErrAlreadyRedirected = errors.New("navigation: page already redirected")
)

// Navigator performs full-page redirects.
type Navigator interface {
	Redirect(ctx context.Context, target string) error
}

// IsRedirect reports whether err means the page has been redirected.
func IsRedirect(err error) bool {
	return errors.Is(err, ErrRedirected)
}

// RedirectTo issues the redirect and returns ErrRedirected on success.
func RedirectTo(ctx context.Context, nav Navigator, target string) error {
	if err := nav.Redirect(ctx, target); err != nil {
		return fmt.Errorf("navigation: redirect to %q: %w", target, err)
	}
	return ErrRedirected
}

// ResponseNavigator redirects the page that issued the current request.
type ResponseNavigator struct {
	w    http.ResponseWriter
	r    *http.Request
	mu   sync.Mutex
	done bool
}

var _ Navigator = (*ResponseNavigator)(nil)

func NewResponseNavigator(w http.ResponseWriter, r *http.Request) *ResponseNavigator {
	return &ResponseNavigator{w: w, r: r}
}

// Redirect writes the redirect to the response. htmx requests get an
// HX-Redirect instruction instead of a 302.
func (n *ResponseNavigator) Redirect(_ context.Context, target string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.done {
		return ErrAlreadyRedirected
	}
	n.done = true

	n.w.Header().Set("Cache-Control", "no-store")
	if n.r.Header.Get("HX-Request") == "true" {
		n.w.Header().Set("HX-Redirect", target)
		n.w.WriteHeader(http.StatusNoContent)
		return nil
	}
	http.Redirect(n.w, n.r, target, http.StatusFound)
	return nil
}

// Redirected reports whether this response has already been redirected.
func (n *ResponseNavigator) Redirected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.done
}
