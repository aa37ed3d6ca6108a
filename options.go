package hookgate

import (
	"log/slog"
	"time"

	"github.com/mahmoodhamdi/hookgate/observability"
	"github.com/mahmoodhamdi/hookgate/store"
)

// Gate is the webhook idempotency gate. It reserves first observations of
// a (gateway, event id) pair, records how they were closed out, and
// answers read-side queries over the event log.
type Gate struct {
	config  Config
	store   store.Store
	logger  *slog.Logger
	metrics observability.Recorder
	tracer  *observability.Tracer
	now     func() time.Time
}

// Option configures a Gate.
type Option func(*Gate) error

// New creates a new Gate with the given options.
func New(opts ...Option) (*Gate, error) {
	g := &Gate{
		config:  DefaultConfig(),
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		tracer:  observability.NewTracer(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if g.store == nil {
		return nil, ErrNoStore
	}
	return g, nil
}

// WithStore sets the persistence backend.
func WithStore(s store.Store) Option {
	return func(g *Gate) error {
		g.store = s
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) error {
		if logger != nil {
			g.logger = logger
		}
		return nil
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.Recorder) Option {
	return func(g *Gate) error {
		if m != nil {
			g.metrics = m
		}
		return nil
	}
}

// WithTracer sets the span tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(g *Gate) error {
		if t != nil {
			g.tracer = t
		}
		return nil
	}
}

// WithClock overrides the time source used for processedAt, createdAt and
// stats windows.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) error {
		if now != nil {
			g.now = now
		}
		return nil
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(g *Gate) error {
		g.config = cfg
		return nil
	}
}

// WithDefaultRecentLimit sets the RecentEvents cap used when limit <= 0.
func WithDefaultRecentLimit(n int) Option {
	return func(g *Gate) error {
		g.config.DefaultRecentLimit = n
		return nil
	}
}

// WithDefaultStatsWindow sets the EventStats window used when hours <= 0.
func WithDefaultStatsWindow(d time.Duration) Option {
	return func(g *Gate) error {
		g.config.DefaultStatsWindow = d
		return nil
	}
}
