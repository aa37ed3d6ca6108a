package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/mahmoodhamdi/hookgate/extension"
	"github.com/mahmoodhamdi/hookgate/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withGate(ctx, migrateFirst, func(cfg *config.Config, ext *extension.Extension) error {
				return serve(ctx, cfg, ext)
			})
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Run database migrations before starting the server")

	return cmd
}

func newApp(ext *extension.Extension) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "hookgate",
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})
	app.Use(recover.New())
	app.All(ext.Prefix()+"/*", adaptor.HTTPHandler(ext.Handler()))
	return app
}

func serve(ctx context.Context, cfg *config.Config, ext *extension.Extension) error {
	logger := cfg.Logger()
	app := newApp(ext)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hookgate listening",
			"addr", cfg.ListenAddr,
			"prefix", ext.Prefix(),
			"store", cfg.Store.Driver,
		)
		errCh <- app.Listen(cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
