package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ac-maintenance-backend/internal/api"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/db"
	"ac-maintenance-backend/internal/notification"
	"ac-maintenance-backend/internal/report"
	"ac-maintenance-backend/internal/store"
)

var skipMigrate bool

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	gormDB, err := db.Open(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeDB(gormDB, logger)
	if !skipMigrate {
		if err := db.Migrate(gormDB, logger); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.Server.Location
	clock := func() time.Time { return time.Now().In(loc) }

	deps := api.Deps{
		Store:   store.NewGormStore(gormDB, store.WithClock(clock), store.WithLogger(logger)),
		Auth:    auth.NewService(cfg.Auth),
		Reports: report.NewService(gormDB, report.WithClock(clock), report.WithDueSoonDays(cfg.Server.DueSoonDays)),
		Logger:  logger,
	}

	if cfg.Push.Enabled() {
		opts := &webpush.Options{
			Subscriber:      cfg.Push.Subject,
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, opts, logger)
		pool.Start(ctx)
		deps.Alerts = pool
		deps.WebPush = opts
		logger.Info("breakdown alerts enabled", zap.Int("workers", cfg.WorkerPool.Size))
	} else {
		logger.Warn("VAPID keys not configured, breakdown alerts disabled")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(deps, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutS)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	logger.Info("server gracefully stopped")
	return nil
}
