package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/clipexport"
	"jamesfarrell.me/clipstudio/internal/config"
	"jamesfarrell.me/clipstudio/internal/logging"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/db"
	"jamesfarrell.me/clipstudio/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log, err := logging.Setup("clipworker", cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	if err := cfg.Validate(config.NeedDatabase, config.NeedRabbitMQ, config.NeedDelivery, config.NeedServiceURL, config.NeedAPIKey); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewConnection(ctx, db.Config{URL: cfg.DatabaseURL, MaxOpenConns: 5})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Parts come from the API service so the worker sees the same normalized
	// view as the player. They are fetched per job since part uploads only
	// invalidate the service's own cache.
	fetcher := parts.NewHTTPFetcher(cfg.ServiceBaseURL, cfg.ServiceAPIKey, nil)
	loader := parts.NewLoader(fetcher, cfg.Delivery.FetchTimeout, log)

	consumer, err := clipexport.NewConsumer(cfg.RabbitMQURL, cfg.ClipExportQueue, log)
	if err != nil {
		log.Fatalf("Failed to connect to clip export queue: %v", err)
	}
	defer consumer.Close()

	deliveries, err := consumer.Deliveries()
	if err != nil {
		log.Fatalf("Failed to consume clip export queue: %v", err)
	}

	worker := clipexport.NewWorker(
		postgres.NewClipRepository(database),
		postgres.NewVideoRepository(database, cfg.OwnerUserID),
		loader,
		parts.NewResolver(cfg.Delivery.Origin),
		log,
	)

	log.WithField("queue", cfg.ClipExportQueue).Info("Clip worker started")
	if err := worker.Run(ctx, deliveries); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Worker error: %v", err)
	}
	log.Info("Clip worker stopped")
}
