package extension

import (
	"log/slog"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/store"
)

// ExtOption configures the hookgate extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPrefix sets the URL prefix for all hookgate routes.
func WithPrefix(prefix string) ExtOption {
	return func(e *Extension) {
		e.config.BasePath = prefix
	}
}

// WithConfig sets the extension configuration directly.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithGateOption appends a raw hookgate.Option to the extension.
func WithGateOption(opt hookgate.Option) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, opt)
	}
}

// WithParser enables callbacks for the parser's gateway.
func WithParser(p gateway.Parser) ExtOption {
	return func(e *Extension) {
		e.parsers = append(e.parsers, p)
	}
}

// WithLogger sets the logger shared by the gate, router and HTTP layer.
func WithLogger(logger *slog.Logger) ExtOption {
	return func(e *Extension) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDisableMigrations disables automatic schema migration in Init.
func WithDisableMigrations() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
