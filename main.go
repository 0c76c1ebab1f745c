// main.go: restfull-books HTTP server.
//
// Start-up order: load config, build the logger, open the database (waiting
// for it with WithRetry), apply migrations when enabled, then serve until
// SIGINT/SIGTERM and drain in-flight requests.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/Skryldev/restfull-books/api"
	"github.com/Skryldev/restfull-books/config"
	"github.com/Skryldev/restfull-books/db"
	"github.com/Skryldev/restfull-books/repo"
	"github.com/Skryldev/restfull-books/service"
)

const instrumentationName = "github.com/Skryldev/restfull-books"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("restfull-books: fatal", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "restfull-books",
		Short: "Serve the books and users REST API",
		Long: `Serve the books and users REST API.

Settings come from an optional YAML file and the environment
(DATABASE_URL, DB_DRIVER, HTTP_ADDR, LOG_LEVEL, LOG_FORMAT, AUTO_MIGRATE).

Example:
  restfull-books --config ./config.yaml
  DB_DRIVER=pgx DATABASE_URL=postgres://... restfull-books`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger(os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	router := api.NewRouter(
		service.NewBookService(repo.NewBookRepo(database)),
		service.NewUserService(repo.NewUserRepo(database)),
		database,
		logger,
	)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http: shutdown: %w", err)
	}
	logger.Info("http: stopped")
	return nil
}

// openDatabase connects with the slog, metrics and tracing hooks installed,
// retrying while the server is unreachable, and migrates when enabled.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	metrics, err := db.NewOTelMetrics(otel.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}

	dbCfg, err := cfg.DB(
		db.NewLogHook(db.LogHookConfig{
			Logger:             logger,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
			LogArgs:            cfg.Database.LogArgs,
		}),
		db.NewMetricsHook(metrics),
		db.NewTracingHook(db.NewOTelTracer(otel.Tracer(instrumentationName))),
	)
	if err != nil {
		return nil, err
	}

	var database *db.DB
	err = db.WithRetry(ctx, db.RetryConfig{
		MaxAttempts: max(cfg.Database.ConnectAttempts, 1),
		Delay:       cfg.Database.ConnectDelay,
	}, func() error {
		d, err := db.Open(dbCfg)
		if err != nil {
			logger.Warn("db: connect failed", "driver", dbCfg.DriverName, "error", err)
			return err
		}
		database = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("db: connected", "driver", dbCfg.DriverName, "dialect", database.Dialect().Name)

	if cfg.Database.AutoMigrate {
		if err := migrateUp(dbCfg, logger); err != nil {
			_ = database.Close()
			return nil, err
		}
	}
	return database, nil
}

func migrateUp(dbCfg db.Config, logger *slog.Logger) error {
	m, err := db.NewMigrator(dbCfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("db: migrate version: %w", err)
	}
	logger.Info("db: schema up to date", "version", version, "dirty", dirty)
	return nil
}
