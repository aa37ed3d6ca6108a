package cli

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/extension"
	"github.com/mahmoodhamdi/hookgate/internal/config"
	"github.com/mahmoodhamdi/hookgate/observability"
	"github.com/mahmoodhamdi/hookgate/store"
	"github.com/mahmoodhamdi/hookgate/store/gormstore"
	"github.com/mahmoodhamdi/hookgate/store/memory"
	redisstore "github.com/mahmoodhamdi/hookgate/store/redis"
)

// openStore connects the backend named by cfg.Store.Driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case config.DriverMemory:
		s = memory.New()
	case config.DriverRedis:
		s = redisstore.NewFromClient(goredis.NewClient(&goredis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		}))
	case config.DriverPostgres:
		s, err = gormstore.OpenPostgres(cfg.Store.DSN)
	case config.DriverMySQL:
		s, err = gormstore.OpenMySQL(cfg.Store.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Store.Driver, err)
	}
	return s, nil
}

// newExtension assembles the gate over s from cfg.
func newExtension(cfg *config.Config, s store.Store, logger *slog.Logger, migrate bool) *extension.Extension {
	extCfg := extension.DefaultConfig()
	extCfg.BasePath = cfg.Prefix
	extCfg.RateLimit = cfg.RateLimit
	extCfg.MaxBodyBytes = cfg.MaxBodyBytes
	extCfg.DefaultRecentLimit = cfg.RecentLimit
	extCfg.DefaultStatsWindow = cfg.StatsWindow
	extCfg.DisableMigrate = !migrate

	opts := []extension.ExtOption{
		extension.WithConfig(extCfg),
		extension.WithStore(s),
		extension.WithLogger(logger),
		extension.WithGateOption(hookgate.WithMetrics(observability.NewRecorder())),
		extension.WithGateOption(hookgate.WithTracer(observability.NewTracer())),
	}
	for _, p := range cfg.Parsers() {
		opts = append(opts, extension.WithParser(p))
	}
	return extension.New(opts...)
}

// withGate loads config, opens the store and runs fn against an
// initialized extension, closing the store afterwards.
func withGate(ctx context.Context, migrate bool, fn func(*config.Config, *extension.Extension) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	ext := newExtension(cfg, s, logger, migrate)
	defer func() {
		if cerr := ext.Close(); cerr != nil {
			logger.Warn("close store", "error", cerr.Error())
		}
	}()

	if err := ext.Init(ctx); err != nil {
		return err
	}
	return fn(cfg, ext)
}
