/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Holiday Planner server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (cobra)
  2. Load configuration (file + HOLIDAY_PLANNER_* env)
  3. Build the zap logger
  4. Open the SQLite session store
  5. Create the holiday source and ICS exporter
  6. Restore the session into the API handler
  7. Start the server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the session store
  4. Exit

EXAMPLES:
  # Run with file database
  ./server --db ./data/planner.db

  # Run with in-memory session state
  ./server --db :memory:

  # Run with a config file
  ./server --config ./planner.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - config: Configuration shape and defaults
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AntObr/holiday-planner/api"
	"github.com/AntObr/holiday-planner/config"
	"github.com/AntObr/holiday-planner/holidays"
	"github.com/AntObr/holiday-planner/ics"
	"github.com/AntObr/holiday-planner/store/sqlite"
)

var (
	flagConfig string
	flagPort   int
	flagDB     string
)

func main() {
	root := &cobra.Command{
		Use:   "server",
		Short: "Holiday Planner API server",
		Long: "Serves the leave-calendar engine: annotated month grids, " +
			"allowance-bounded leave selection, UK bank holidays, and ICS export.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	root.Flags().StringVar(&flagConfig, "config", "", "config file path (optional)")
	root.Flags().IntVar(&flagPort, "port", 0, "HTTP server port (overrides config)")
	root.Flags().StringVar(&flagDB, "db", "", "SQLite database path (overrides config)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagDB != "" {
		cfg.Storage.Path = flagDB
	}

	logger, err := buildLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ttl, err := cfg.Holidays.CacheTTLDuration()
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	source := holidays.NewSource(logger,
		holidays.WithURL(cfg.Holidays.URL),
		holidays.WithTTL(ttl),
	)
	exporter := ics.NewWriter()

	handler, err := api.NewHandler(context.Background(), store, source, exporter, logger,
		api.WithDefaultAllowance(cfg.Leave.DefaultAllowance))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.Storage.Path))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
