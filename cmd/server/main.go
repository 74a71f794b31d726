package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Romarate18/StockaDoodle-IMS/app"
	"github.com/Romarate18/StockaDoodle-IMS/cache"
	"github.com/Romarate18/StockaDoodle-IMS/config"
	"github.com/Romarate18/StockaDoodle-IMS/database"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	rdb, err := cache.Connect(ctx, cfg.RedisAddr)
	cancel()
	if err != nil {
		// The cache is optional; serve from the database alone.
		log.WithError(err).Warn("leaderboard cache disabled")
	}
	if rdb != nil {
		defer rdb.Close()
		log.WithField("addr", cfg.RedisAddr).Info("leaderboard cache enabled")
	}

	httpServer := &http.Server{
		Addr: cfg.Addr(),
		Handler: app.New(db, app.Options{
			Log:                 log,
			RequestTimeout:      cfg.RequestTimeout,
			MaxUploadBytes:      cfg.MaxUploadBytes,
			Redis:               rdb,
			LeaderboardCacheTTL: cfg.LeaderboardCacheTTL,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", httpServer.Addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	log.Info("HTTP server stopped")
	return nil
}
