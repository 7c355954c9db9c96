package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/config"
	"jamesfarrell.me/clipstudio/internal/embeddings"
	"jamesfarrell.me/clipstudio/internal/logging"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/db"
	"jamesfarrell.me/clipstudio/internal/storage/postgres"
	"jamesfarrell.me/clipstudio/internal/transcription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log, err := logging.Setup("transcription", cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	if err := cfg.Validate(config.NeedDatabase, config.NeedOpenAI); err != nil {
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

	transcriptionRepo := postgres.NewTranscriptionRepository(database)
	// parts may be uploaded after new_video fires, so read them fresh per video
	loader := parts.NewLoader(postgres.NewPartRepository(database), cfg.Delivery.FetchTimeout, log)

	transcriptionSvc := transcription.NewService(
		transcriptionRepo,
		loader,
		parts.NewResolver(cfg.Delivery.Origin),
		transcription.NewWhisper(cfg.OpenAIAPIKey, cfg.WhisperModel),
		embeddings.NewClient(cfg.OpenAIAPIKey),
		cfg.TranscribeWorkers,
		log,
	)

	if err := transcriptionSvc.ListenForNewVideos(ctx, cfg.DatabaseURL); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Service error: %v", err)
	}
	log.Info("Transcription service stopped")
}
