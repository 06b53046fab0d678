package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, ModeDevelopment, cfg.Mode)
	assert.Equal(t, "https://reqres.in/api", cfg.APIURL)
	assert.Equal(t, 800*time.Millisecond, cfg.FallbackDelay)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.True(t, cfg.CookieSecure)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CARE_MONITOR_MODE", "PRODUCTION")
	t.Setenv("CARE_MONITOR_ADDR", ":9090")
	t.Setenv("CARE_MONITOR_FALLBACK_DELAY", "50ms")
	t.Setenv("CARE_MONITOR_COOKIE_SECURE", "false")
	t.Setenv("CARE_MONITOR_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, ModeProduction, cfg.Mode)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 50*time.Millisecond, cfg.FallbackDelay)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_InvalidMode(t *testing.T) {
	v := New()
	v.Set("mode", "staging")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Server)
		wantErr string
	}{
		{"defaults are valid", func(*Server) {}, ""},
		{"empty addr", func(s *Server) { s.Addr = "" }, "addr"},
		{"production without api url", func(s *Server) { s.Mode = ModeProduction; s.APIURL = "" }, "api_url"},
		{"negative delay", func(s *Server) { s.FallbackDelay = -time.Second }, "fallback_delay"},
		{"zero breaker threshold", func(s *Server) { s.BreakerFailureThreshold = 0 }, "breaker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
