package config

import (
	"strings"
	"time"
)

type SecurityConfig interface {
	GetSecureCookies() bool
	GetDeviceCookieMaxAge() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSecureCookies() bool {
	return strings.HasPrefix(EnvVars{}.GetBaseURL(), "https://")
}

// GetDeviceCookieMaxAge bounds the persistent scope that holds sign-in
// flow state.
func (Security) GetDeviceCookieMaxAge() time.Duration {
	return 30 * 24 * time.Hour
}
