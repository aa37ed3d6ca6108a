package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoodhamdi/hookgate/gateway"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hookgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "/webhooks", cfg.Prefix)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.StatsWindow)
	assert.Empty(t, cfg.Parsers())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, `
listen_addr: ":9000"
rate_limit: 50
stats_window: 6h
store:
  driver: postgres
  dsn: postgres://localhost/hookgate
gateways:
  paytabs_server_key: pt-key
  paddle_secret: pdl
  paddle_tolerance: 2m
`)
	t.Setenv("HOOKGATE_LISTEN_ADDR", ":9100")
	t.Setenv("STRIPE_WEBHOOK_SECRET", " whsec_123 ")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.ListenAddr)
	assert.Equal(t, 50, cfg.RateLimit)
	assert.Equal(t, 6*time.Hour, cfg.StatsWindow)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "whsec_123", cfg.Gateways.StripeSecret)

	parsers := cfg.Parsers()
	require.Len(t, parsers, 3)
	got := make([]gateway.Gateway, 0, len(parsers))
	for _, p := range parsers {
		got = append(got, p.Gateway())
	}
	assert.Equal(t, []gateway.Gateway{gateway.Stripe, gateway.PayTabs, gateway.Paddle}, got)
	assert.Equal(t, 2*time.Minute, parsers[2].(*gateway.PaddleParser).Tolerance)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PAYMOB_HMAC_SECRET=pm-secret\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PAYMOB_HMAC_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "pm-secret", cfg.Gateways.PaymobHMAC)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "cassandra" }, false},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, false},
		{"mysql with dsn", func(c *Config) { c.Store.Driver = DriverMySQL; c.Store.DSN = "u:p@tcp(db)/hg" }, true},
		{"redis without addr", func(c *Config) { c.Store.Driver = DriverRedis; c.Store.RedisAddr = "" }, false},
		{"relative prefix", func(c *Config) { c.Prefix = "webhooks" }, false},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, false},
		{"zero recent limit", func(c *Config) { c.RecentLimit = 0 }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
