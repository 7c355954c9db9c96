package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/api"
	"jamesfarrell.me/clipstudio/internal/api/handlers"
	"jamesfarrell.me/clipstudio/internal/clipexport"
	"jamesfarrell.me/clipstudio/internal/config"
	"jamesfarrell.me/clipstudio/internal/embeddings"
	"jamesfarrell.me/clipstudio/internal/logging"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/player"
	"jamesfarrell.me/clipstudio/internal/storage/db"
	"jamesfarrell.me/clipstudio/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log, err := logging.Setup("service", cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	if err := cfg.Validate(config.NeedDatabase, config.NeedAPIKey, config.NeedOpenAI, config.NeedDelivery); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	database, err := db.NewConnection(ctx, db.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Initialize repositories
	videoRepo := postgres.NewVideoRepository(database, cfg.OwnerUserID)
	partRepo := postgres.NewPartRepository(database)
	clipRepo := postgres.NewClipRepository(database)
	transcriptionRepo := postgres.NewTranscriptionRepository(database)

	index := parts.NewIndex(partRepo, cfg.Delivery.FetchTimeout, log)
	resolver := parts.NewResolver(cfg.Delivery.Origin)
	prefetcher := parts.NewPrefetcher(nil, resolver, cfg.Delivery.PrefetchTimeout, log)
	sessions := player.NewManager(index, clipRepo, resolver, prefetcher, cfg.Sessions.IdleTTL, log)
	go sessions.Run(ctx)

	// Clip export is optional; without a broker the export endpoint answers 503.
	var publisher handlers.JobPublisher
	if cfg.RabbitMQURL != "" {
		producer, err := clipexport.NewProducer(cfg.RabbitMQURL, cfg.ClipExportQueue)
		if err != nil {
			log.Fatalf("Failed to connect to clip export queue: %v", err)
		}
		defer producer.Close()
		publisher = producer
	} else {
		log.Warn("RABBITMQ_URL not set, clip export disabled")
	}

	router := api.NewRouter(cfg.ServiceAPIKey, api.Handlers{
		Videos:   handlers.NewVideoHandler(videoRepo, index, sessions, log),
		Parts:    handlers.NewPartsHandler(videoRepo, partRepo, index, resolver, sessions, log),
		Clips:    handlers.NewClipHandler(videoRepo, clipRepo, index, publisher, sessions, log),
		Sessions: handlers.NewSessionHandler(videoRepo, sessions, log),
		Search:   handlers.NewSearchHandler(embeddings.NewClient(cfg.OpenAIAPIKey), transcriptionRepo, log),
	}, log)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("HTTP server shutdown failed")
		}
	}()

	log.WithField("addr", cfg.ListenAddr).Info("Starting HTTP server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}
	prefetcher.Wait()
	log.Info("HTTP server stopped")
}
