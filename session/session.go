package session

import "time"

// Profile holds the identity claims taken from the verified ID token
type Profile struct {
	Subject           string `json:"sub"`
	Email             string `json:"email,omitempty"`
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// Session is the authenticated identity descriptor for one browser.
// A session is either complete or treated as absent.
type Session struct {
	// Tokens
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	IDToken      string `json:"id_token,omitempty"` // only used as a logout hint
	RefreshToken string `json:"refresh_token,omitempty"`

	// Authorization
	Scope string `json:"scope,omitempty"`

	// Session management
	ExpiresAt time.Time `json:"expires_at"`

	Profile Profile `json:"profile"`
}

// Complete reports whether the session carries everything needed to
// authorize requests.
func (s *Session) Complete() bool {
	return s != nil && s.AccessToken != "" && !s.ExpiresAt.IsZero()
}

// Expired reports whether the access token has expired at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Valid reports whether the session is complete and unexpired at now.
func (s *Session) Valid(now time.Time) bool {
	return s.Complete() && !s.Expired(now)
}
