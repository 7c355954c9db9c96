package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/config"
	"jamesfarrell.me/clipstudio/internal/embeddings"
	"jamesfarrell.me/clipstudio/internal/logging"
	"jamesfarrell.me/clipstudio/internal/storage/db"
	"jamesfarrell.me/clipstudio/internal/storage/postgres"
	"jamesfarrell.me/clipstudio/internal/transcription"
)

// reindex rebuilds the search chunks of every transcribed, searchable video
// from its stored WebVTT transcript.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log, err := logging.Setup("reindex", cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	if err := cfg.Validate(config.NeedDatabase, config.NeedOpenAI); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	database, err := db.NewConnection(ctx, db.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	repo := postgres.NewTranscriptionRepository(database)
	svc := transcription.NewService(repo, nil, nil, nil, embeddings.NewClient(cfg.OpenAIAPIKey), 1, log)

	// Query for videos that need processing
	videos, err := repo.ListTranscribed(ctx)
	if err != nil {
		log.Fatalf("Failed to query videos: %v", err)
	}

	failed := 0
	for _, video := range videos {
		if video.Transcription == nil {
			continue
		}
		if err := svc.Reindex(ctx, video.ID, *video.Transcription); err != nil {
			log.WithError(err).WithField("video", video.ID).Error("Failed to reindex video")
			failed++
		}
	}
	log.WithFields(logrus.Fields{"videos": len(videos), "failed": failed}).Info("Reindex finished")
}
