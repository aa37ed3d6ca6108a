package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/api"
	"github.com/mahmoodhamdi/hookgate/dispatch"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/store"
)

// ErrNotInitialized is returned by accessors used before Init.
var ErrNotInitialized = errors.New("hookgate/extension: not initialized")

// Extension wires a Gate to its HTTP surface.
type Extension struct {
	config  Config
	store   store.Store
	opts    []hookgate.Option
	parsers []gateway.Parser
	logger  *slog.Logger

	gate     *hookgate.Gate
	router   *dispatch.Router
	registry *gateway.Registry
}

// New creates a new hookgate extension.
func New(opts ...ExtOption) *Extension {
	e := &Extension{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.router = dispatch.NewRouter(e.logger)
	e.registry = gateway.NewRegistry(e.parsers...)
	return e
}

// Init builds the gate and, unless disabled, migrates the store.
func (e *Extension) Init(ctx context.Context) error {
	if e.store == nil {
		return hookgate.ErrNoStore
	}

	if !e.config.DisableMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("hookgate/extension: migrate: %w", err)
		}
	}

	opts := append([]hookgate.Option{
		hookgate.WithStore(e.store),
		hookgate.WithLogger(e.logger),
	}, e.config.ToGateOptions()...)
	opts = append(opts, e.opts...)

	g, err := hookgate.New(opts...)
	if err != nil {
		return fmt.Errorf("hookgate/extension: build gate: %w", err)
	}
	e.gate = g

	e.logger.Info("hookgate initialized",
		"prefix", e.Prefix(),
		"gateways", e.registry.Gateways(),
	)
	return nil
}

// Gate returns the gate built by Init, or nil before Init.
func (e *Extension) Gate() *hookgate.Gate { return e.gate }

// Router returns the dispatch router; register handlers on it.
func (e *Extension) Router() *dispatch.Router { return e.router }

// Registry returns the gateway parser registry.
func (e *Extension) Registry() *gateway.Registry { return e.registry }

// Handler returns the API handler with the prefix stripped, ready to mount
// at Prefix()+"/". It returns a handler that always answers 503 before Init.
func (e *Extension) Handler() http.Handler {
	if e.gate == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, ErrNotInitialized.Error(), http.StatusServiceUnavailable)
		})
	}

	h := api.NewHandler(e.gate, e.router, e.registry, e.logger,
		api.WithRateLimit(e.config.RateLimit),
		api.WithMaxBodyBytes(e.config.MaxBodyBytes),
	)
	return http.StripPrefix(e.Prefix(), h)
}

// RegisterRoutes registers the read-only query routes on a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router, log forge.Logger) error {
	if e.gate == nil {
		return ErrNotInitialized
	}
	api.NewForgeAPI(e.gate, log).RegisterRoutes(router)
	return nil
}

// Prefix returns the configured URL prefix without a trailing slash.
func (e *Extension) Prefix() string {
	return strings.TrimRight(e.config.BasePath, "/")
}

// Close closes the underlying store.
func (e *Extension) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}
