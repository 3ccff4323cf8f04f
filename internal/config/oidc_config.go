package config

import "time"

type OIDC struct{}

var _ OIDCConfig = OIDC{}

func (OIDC) GetIssuer() string {
	return GetEnv("OIDC_ISSUER", "http://localhost:8081")
}

func (OIDC) GetClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "accounts-portal")
}

// GetClientSecret is empty for public clients, which is the normal case.
func (OIDC) GetClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (OIDC) GetScopes() []string {
	return GetList("OIDC_SCOPES", []string{"openid", "profile", "email"})
}

func (OIDC) GetFlowTimeout() time.Duration {
	return 15 * time.Minute
}

func (OIDC) GetDefaultTokenLifetime() time.Duration {
	return 1 * time.Hour
}
