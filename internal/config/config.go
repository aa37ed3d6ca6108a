// Package config loads hookgate server configuration from an optional YAML
// file, a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mahmoodhamdi/hookgate/gateway"
)

// Store drivers understood by the CLI.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds application configuration.
type Config struct {
	ListenAddr   string `yaml:"listen_addr"    validate:"required"`
	Prefix       string `yaml:"prefix"         validate:"required,startswith=/"`
	RateLimit    int    `yaml:"rate_limit"     validate:"gte=0"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" validate:"gte=0"`

	RecentLimit int           `yaml:"recent_limit" validate:"gte=1,lte=10000"`
	StatsWindow time.Duration `yaml:"stats_window" validate:"gte=0"`

	LogLevel  string `yaml:"log_level"  validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`

	Store    StoreConfig    `yaml:"store"`
	Gateways GatewaysConfig `yaml:"gateways"`
}

// StoreConfig selects and addresses the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory redis postgres mysql"`

	// DSN is required by the postgres and mysql drivers.
	DSN string `yaml:"dsn"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`
}

// GatewaysConfig holds the per-gateway signing secrets. A gateway with an
// empty secret is not served.
type GatewaysConfig struct {
	StripeSecret     string        `yaml:"stripe_secret"`
	PaymobHMAC       string        `yaml:"paymob_hmac"`
	PayTabsServerKey string        `yaml:"paytabs_server_key"`
	PaddleSecret     string        `yaml:"paddle_secret"`
	PaddleTolerance  time.Duration `yaml:"paddle_tolerance"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		ListenAddr:  ":8080",
		Prefix:      "/webhooks",
		RecentLimit: 100,
		StatsWindow: 24 * time.Hour,
		LogLevel:    "info",
		LogFormat:   "json",
		Store: StoreConfig{
			Driver:    DriverMemory,
			RedisAddr: "localhost:6379",
		},
	}
}

// Load builds a Config. path may be empty; a missing .env file is ignored.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(c *Config) {
	c.ListenAddr = getenv("HOOKGATE_LISTEN_ADDR", c.ListenAddr)
	c.Prefix = getenv("HOOKGATE_PREFIX", c.Prefix)
	c.RateLimit = getenvInt("HOOKGATE_RATE_LIMIT", c.RateLimit)
	c.RecentLimit = getenvInt("HOOKGATE_RECENT_LIMIT", c.RecentLimit)
	c.StatsWindow = getenvDuration("HOOKGATE_STATS_WINDOW", c.StatsWindow)
	c.LogLevel = strings.ToLower(getenv("HOOKGATE_LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(getenv("HOOKGATE_LOG_FORMAT", c.LogFormat))

	c.Store.Driver = strings.ToLower(getenv("HOOKGATE_STORE", c.Store.Driver))
	c.Store.DSN = strings.TrimSpace(getenv("HOOKGATE_DSN", c.Store.DSN))
	c.Store.RedisAddr = getenv("HOOKGATE_REDIS_ADDR", c.Store.RedisAddr)
	c.Store.RedisPassword = getenv("HOOKGATE_REDIS_PASSWORD", c.Store.RedisPassword)
	c.Store.RedisDB = getenvInt("HOOKGATE_REDIS_DB", c.Store.RedisDB)

	c.Gateways.StripeSecret = strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", c.Gateways.StripeSecret))
	c.Gateways.PaymobHMAC = strings.TrimSpace(getenv("PAYMOB_HMAC_SECRET", c.Gateways.PaymobHMAC))
	c.Gateways.PayTabsServerKey = strings.TrimSpace(getenv("PAYTABS_SERVER_KEY", c.Gateways.PayTabsServerKey))
	c.Gateways.PaddleSecret = strings.TrimSpace(getenv("PADDLE_WEBHOOK_SECRET", c.Gateways.PaddleSecret))
	c.Gateways.PaddleTolerance = getenvDuration("PADDLE_SIGNATURE_TOLERANCE", c.Gateways.PaddleTolerance)
}

var validate = validator.New()

// Validate checks field constraints and driver requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Store.Driver {
	case DriverPostgres, DriverMySQL:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store driver %q requires a dsn", c.Store.Driver)
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("config: store driver \"redis\" requires redis_addr")
		}
	}
	return nil
}

// Parsers returns a parser for every gateway with a configured secret.
func (c *Config) Parsers() []gateway.Parser {
	var out []gateway.Parser
	g := c.Gateways
	if g.StripeSecret != "" {
		out = append(out, &gateway.StripeParser{Secret: g.StripeSecret})
	}
	if g.PaymobHMAC != "" {
		out = append(out, &gateway.PaymobParser{HMACSecret: g.PaymobHMAC})
	}
	if g.PayTabsServerKey != "" {
		out = append(out, &gateway.PayTabsParser{ServerKey: g.PayTabsServerKey})
	}
	if g.PaddleSecret != "" {
		out = append(out, &gateway.PaddleParser{Secret: g.PaddleSecret, Tolerance: g.PaddleTolerance})
	}
	return out
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
