package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	OIDCConfig
	APIConfig
	StorageConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type OIDCConfig interface {
	GetIssuer() string
	GetClientID() string
	GetClientSecret() string
	GetScopes() []string
	GetFlowTimeout() time.Duration
	GetDefaultTokenLifetime() time.Duration
}

type APIConfig interface {
	GetAPIBaseURL() string
}

type StorageConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetStorageTTL() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	OIDC
	API
	Storage
	Security
}

func New() Config {
	return mainConfig{}
}
