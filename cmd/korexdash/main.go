package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"korexdash/internal/amqp"
	"korexdash/internal/bucket"
	"korexdash/internal/bucket/memstore"
	"korexdash/internal/bucket/redisstore"
	"korexdash/internal/bucket/sqlitestore"
	"korexdash/internal/config"
	apphttp "korexdash/internal/http"
	"korexdash/internal/log"
	"korexdash/internal/services"
	"korexdash/internal/session"
	"korexdash/internal/upstream/korex"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	buckets, closeBuckets, err := openBuckets(ctx, cfg, logger)
	if err != nil {
		logger.Error("bucket backend unavailable", log.FieldError, err,
			"backend", cfg.BucketBackend)
		os.Exit(1)
	}
	if closeBuckets != nil {
		defer closeBuckets()
	}

	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Digests are optional, so a missing broker is not fatal.
			logger.Warn("AMQP unavailable, anomaly digests disabled", log.FieldError, err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	gateway := korex.New(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, logger)
	dashboard := services.NewDashboardService(gateway, buckets, publisher, logger)

	if dir := filepath.Dir(cfg.SessionFilePath); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	sessions := session.New(
		session.NewFileTier(cfg.SessionFilePath),
		session.NewMemoryTier(),
	)

	srv := apphttp.NewServer(":"+cfg.Port, dashboard, sessions, logger)
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting korexdash server",
		"port", cfg.Port,
		"bucket_backend", cfg.BucketBackend,
		"upstream", cfg.UpstreamBaseURL,
		"amqp_enabled", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}

func openBuckets(ctx context.Context, cfg *config.Config, logger *log.Logger) (bucket.Store, func(), error) {
	switch cfg.BucketBackend {
	case "redis":
		store, err := redisstore.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis bucket backend")
		return store, func() { _ = store.Close() }, nil
	case "sqlite":
		store, err := sqlitestore.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite bucket backend", "path", cfg.SQLiteDBPath)
		return store, func() { _ = store.Close() }, nil
	default:
		logger.Info("using in-memory bucket backend")
		return memstore.New(), nil, nil
	}
}
