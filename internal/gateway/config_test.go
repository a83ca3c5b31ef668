package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", appSecret)
	t.Setenv("GATEWAY_ROUTES", "/auth/=http://identity:8081,/orders/=http://orders:9000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "identity", cfg.Issuer)
	require.Equal(t, DefaultPublicPaths, cfg.PublicPaths)
	require.Equal(t, map[string]string{
		"/auth/":   "http://identity:8081",
		"/orders/": "http://orders:9000",
	}, cfg.Routes)
	require.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	require.Equal(t, 30*time.Second, cfg.BreakerOpenTimeout)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"weak secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"no routes", func(c *Config) { c.Routes = nil }, "GATEWAY_ROUTES"},
		{"relative prefix", func(c *Config) { c.Routes = map[string]string{"auth/": "http://x"} }, "must start with /"},
		{"bad upstream", func(c *Config) { c.Routes = map[string]string{"/auth/": "identity:8081"} }, "invalid upstream"},
		{"zero rate", func(c *Config) { c.RateLimitRPS = 0 }, "GATEWAY_RATE_LIMIT_RPS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(map[string]string{"/auth/": "http://identity:8081"})
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}

	require.NoError(t, testConfig(map[string]string{"/auth/": "http://identity:8081"}).Validate())
}
