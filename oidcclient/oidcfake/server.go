// Package oidcfake is an in-process OpenID Connect provider for tests.
// It serves discovery, JWKS, an auto-approving authorization endpoint,
// a PKCE-checking token endpoint and an end-session endpoint.
package oidcfake

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const keyID = "oidcfake-key-1"

type grant struct {
	challenge   string
	nonce       string
	redirectURI string
	scope       string
}

// Server is a fake identity provider
type Server struct {
	srv      *httptest.Server
	key      *rsa.PrivateKey
	clientID string

	mu     sync.Mutex
	grants map[string]grant
	ended  []url.Values

	// Token response knobs. Set before the flow under test runs.
	AccessToken    string        // fixed access token; a signed JWT when empty
	AccessTokenTTL time.Duration // sent as expires_in when > 0
	NonceOverride  string        // forces the id_token nonce
	OmitIDToken    bool
	FailExchange   bool

	Subject string
	Email   string
	Name    string
}

// New starts a fake provider that accepts clientID.
func New(clientID string) (*Server, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("oidcfake: generate key: %w", err)
	}

	s := &Server{
		key:            key,
		clientID:       clientID,
		grants:         make(map[string]grant),
		AccessTokenTTL: time.Hour,
		Subject:        "user-1",
		Email:          "john.doe@example.com",
		Name:           "John Doe",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", s.discovery)
	mux.HandleFunc("GET /jwks", s.jwks)
	mux.HandleFunc("GET /authorize", s.authorize)
	mux.HandleFunc("POST /token", s.token)
	mux.HandleFunc("GET /logout", s.endSession)
	s.srv = httptest.NewServer(mux)

	return s, nil
}

func (s *Server) Issuer() string {
	return s.srv.URL
}

func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

func (s *Server) Close() {
	s.srv.Close()
}

// EndSessionRequests returns the query of every end-session request received.
func (s *Server) EndSessionRequests() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.ended...)
}

// SignIn approves the authorization request in authURL as if the user had
// signed in, returning the callback URL the provider would redirect to.
func (s *Server) SignIn(authURL string) (*url.URL, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return nil, err
	}
	return s.approve(u.Query())
}

func (s *Server) approve(q url.Values) (*url.URL, error) {
	if q.Get("client_id") != s.clientID {
		return nil, errors.New("oidcfake: unknown client_id")
	}
	if q.Get("response_type") != "code" {
		return nil, errors.New("oidcfake: response_type must be code")
	}
	if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
		return nil, errors.New("oidcfake: S256 code_challenge required")
	}

	callback, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || callback.Scheme == "" {
		return nil, errors.New("oidcfake: invalid redirect_uri")
	}

	code := randomString()
	s.mu.Lock()
	s.grants[code] = grant{
		challenge:   q.Get("code_challenge"),
		nonce:       q.Get("nonce"),
		redirectURI: q.Get("redirect_uri"),
		scope:       q.Get("scope"),
	}
	s.mu.Unlock()

	cq := callback.Query()
	cq.Set("code", code)
	cq.Set("state", q.Get("state"))
	callback.RawQuery = cq.Encode()
	return callback, nil
}

func (s *Server) discovery(w http.ResponseWriter, r *http.Request) {
	issuer := s.Issuer()
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                issuer,
		"authorization_endpoint":                issuer + "/authorize",
		"token_endpoint":                        issuer + "/token",
		"jwks_uri":                              issuer + "/jwks",
		"end_session_endpoint":                  issuer + "/logout",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"code_challenge_methods_supported":      []string{"S256"},
	})
}

func (s *Server) jwks(w http.ResponseWriter, r *http.Request) {
	pub := s.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": keyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) {
	callback, err := s.approve(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, callback.String(), http.StatusFound)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if s.FailExchange {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	code := r.PostFormValue("code")
	s.mu.Lock()
	g, ok := s.grants[code]
	delete(s.grants, code)
	s.mu.Unlock()

	if !ok || r.PostFormValue("grant_type") != "authorization_code" || r.PostFormValue("client_id") != s.clientID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}
	if r.PostFormValue("redirect_uri") != g.redirectURI {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "redirect_uri mismatch"})
		return
	}
	sum := sha256.Sum256([]byte(r.PostFormValue("code_verifier")))
	if base64.RawURLEncoding.EncodeToString(sum[:]) != g.challenge {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "PKCE verification failed"})
		return
	}

	now := time.Now()
	nonce := g.nonce
	if s.NonceOverride != "" {
		nonce = s.NonceOverride
	}

	accessToken := s.AccessToken
	if accessToken == "" {
		var err error
		accessToken, err = s.sign(jwt.MapClaims{
			"iss":   s.Issuer(),
			"sub":   s.Subject,
			"aud":   "api",
			"scope": g.scope,
			"iat":   now.Unix(),
			"exp":   now.Add(time.Hour).Unix(),
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
			return
		}
	}

	resp := map[string]any{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"scope":        g.scope,
	}
	if s.AccessTokenTTL > 0 {
		resp["expires_in"] = int(s.AccessTokenTTL.Seconds())
	}
	if !s.OmitIDToken {
		idToken, err := s.sign(jwt.MapClaims{
			"iss":   s.Issuer(),
			"sub":   s.Subject,
			"aud":   s.clientID,
			"nonce": nonce,
			"email": s.Email,
			"name":  s.Name,
			"iat":   now.Unix(),
			"exp":   now.Add(time.Hour).Unix(),
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
			return
		}
		resp["id_token"] = idToken
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	s.ended = append(s.ended, q)
	s.mu.Unlock()

	if target := q.Get("post_logout_redirect_uri"); target != "" {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID
	return token.SignedString(s.key)
}

func randomString() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
