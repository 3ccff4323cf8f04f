package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 64 * 1024

// Authenticator is the part of the auth manager the client depends on.
type Authenticator interface {
	CurrentSession(ctx context.Context) (*session.Session, error)
	PurgeSession(ctx context.Context) error
	Reauthenticate(ctx context.Context) error
}

// RequestInit describes an outgoing backend request.
type RequestInit struct {
	Method string
	Header http.Header
	Body   io.Reader
}

// Client sends requests to the backend API on behalf of the signed-in user.
type Client struct {
	baseURL    string
	auth       Authenticator
	httpClient *http.Client
}

func New(baseURL string, auth Authenticator, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		auth:       auth,
		httpClient: httpClient,
	}
}

// Authorize returns a copy of init with the JSON content type defaulted and
// the bearer token of the current session attached. A caller supplied
// Authorization header is never replaced.
func (c *Client) Authorize(ctx context.Context, init RequestInit) RequestInit {
	out := init
	out.Header = init.Header.Clone()
	if out.Header == nil {
		out.Header = http.Header{}
	}
	if out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", "application/json")
	}
	if out.Header.Get("Authorization") != "" {
		return out
	}

	sess, err := c.auth.CurrentSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read session, sending request without credentials")
		return out
	}
	if sess != nil {
		out.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}
	return out
}

// Execute sends an authorized request to path on the backend. The caller
// owns the body of a successful response.
func (c *Client) Execute(ctx context.Context, path string, init RequestInit) (*http.Response, error) {
	init = c.Authorize(ctx, init)
	method := init.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), init.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: failed to build request: %w", err)
	}
	req.Header = init.Header

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		drain(resp)
		return nil, c.unauthorized(ctx, resp.StatusCode, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drain(resp)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

// unauthorized purges the session and restarts sign-in. The redirect is
// attempted even when the purge fails.
func (c *Client) unauthorized(ctx context.Context, status int, path string) error {
	log.Info().Int("status", status).Str("path", path).Msg("Backend rejected credentials, re-authenticating")

	if err := c.auth.PurgeSession(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to purge session")
	}

	err := c.auth.Reauthenticate(ctx)
	if err != nil && !navigation.IsRedirect(err) {
		log.Error().Err(err).Msg("Failed to start sign-in")
	}
	return &UnauthorizedError{Status: status, Err: err}
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// Fetch executes the request and decodes the JSON response into T. A 204
// response yields nil.
func Fetch[T any](ctx context.Context, c *Client, path string, init RequestInit) (*T, error) {
	resp, err := c.Execute(ctx, path, init)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrDecode, path, err)
	}
	return &out, nil
}

func Get[T any](ctx context.Context, c *Client, path string) (*T, error) {
	return Fetch[T](ctx, c, path, RequestInit{Method: http.MethodGet})
}

func Post[T any](ctx context.Context, c *Client, path string, body any) (*T, error) {
	return send[T](ctx, c, http.MethodPost, path, body)
}

func Put[T any](ctx context.Context, c *Client, path string, body any) (*T, error) {
	return send[T](ctx, c, http.MethodPut, path, body)
}

func Patch[T any](ctx context.Context, c *Client, path string, body any) (*T, error) {
	return send[T](ctx, c, http.MethodPatch, path, body)
}

func Delete[T any](ctx context.Context, c *Client, path string) (*T, error) {
	return Fetch[T](ctx, c, path, RequestInit{Method: http.MethodDelete})
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	init := RequestInit{Method: method}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: failed to encode request body: %w", err)
		}
		init.Body = bytes.NewReader(data)
	}
	return Fetch[T](ctx, c, path, init)
}
