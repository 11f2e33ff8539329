// Command digest-worker consumes anomaly digests from RabbitMQ and logs
// them. It is the hook point for alerting integrations that should not run
// inside the dashboard process.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"korexdash/internal/amqp"
	"korexdash/internal/config"
	"korexdash/internal/log"
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
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the digest worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("AMQP connection failed", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("starting digest worker", "queue", cfg.AMQPQueue)
	err = client.ConsumeAnomalyDigests(ctx, func(d *amqp.AnomalyDigest) error {
		logger.Warn("anomalies detected",
			log.FieldUser, d.User,
			log.FieldDate, d.Date,
			log.FieldAnomalies, d.Anomalies,
			log.FieldRecords, d.Total)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("digest consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("digest worker stopped")
}
