package extension

import (
	"time"

	"github.com/mahmoodhamdi/hookgate"
)

// Config holds configuration for the hookgate extension. Fields can be set
// programmatically via ExtOption functions or loaded from YAML under the
// "hookgate" key.
type Config struct {
	// Config embeds the core gate configuration.
	hookgate.Config `json:",inline" yaml:",inline" mapstructure:",squash"`

	// BasePath is the URL prefix for all hookgate routes (default: "/webhooks").
	BasePath string `json:"base_path" yaml:"base_path" mapstructure:"base_path"`

	// RateLimit caps callbacks per gateway per second. 0 disables limiting.
	RateLimit int `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// MaxBodyBytes caps callback bodies. 0 uses api.DefaultMaxBodyBytes.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	// DisableMigrate disables automatic schema migration in Init.
	DisableMigrate bool `json:"disable_migrate" yaml:"disable_migrate" mapstructure:"disable_migrate"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Config:   hookgate.DefaultConfig(),
		BasePath: "/webhooks",
	}
}

// ToGateOptions converts the embedded Config into hookgate.Option values.
func (c Config) ToGateOptions() []hookgate.Option {
	var opts []hookgate.Option

	if c.DefaultRecentLimit > 0 {
		opts = append(opts, hookgate.WithDefaultRecentLimit(c.DefaultRecentLimit))
	}
	if c.DefaultStatsWindow > time.Duration(0) {
		opts = append(opts, hookgate.WithDefaultStatsWindow(c.DefaultStatsWindow))
	}

	return opts
}
