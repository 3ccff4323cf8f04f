package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnvVars_Defaults(t *testing.T) {
	for _, v := range []string{"PORT", "ENV", "BASE_URL", "OIDC_SCOPES", "STORAGE_TTL", "ALLOWED_ORIGINS", "REDIS_ADDR"} {
		t.Setenv(v, "")
	}
	c := New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8080", c.GetBaseURL())
	require.Equal(t, []string{"openid", "profile", "email"}, c.GetScopes())
	require.Equal(t, 24*time.Hour, c.GetStorageTTL())
	require.Equal(t, 15*time.Minute, c.GetFlowTimeout())
	require.Empty(t, c.GetRedisAddr())
	require.False(t, c.GetSecureCookies())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:8080"))
}

func TestEnvVars_Overrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("BASE_URL", "https://app.example.com/")
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("OIDC_SCOPES", "openid, email,,")
	t.Setenv("STORAGE_TTL", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com/")
	c := New()

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "https://app.example.com", c.GetBaseURL())
	require.Equal(t, "https://api.example.com", c.GetAPIBaseURL())
	require.Equal(t, []string{"openid", "email"}, c.GetScopes())
	require.Equal(t, 2*time.Hour, c.GetStorageTTL())
	require.True(t, c.GetSecureCookies())

	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://app.example.com"))
}

func TestGetDuration_Invalid(t *testing.T) {
	t.Setenv("STORAGE_TTL", "soon")
	require.Equal(t, 24*time.Hour, Storage{}.GetStorageTTL())

	t.Setenv("STORAGE_TTL", "-5m")
	require.Equal(t, 24*time.Hour, Storage{}.GetStorageTTL())
}
