package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"jamesfarrell.me/clipstudio/internal/storage/models"
)

type TranscriptionRepository struct {
	db *sql.DB
}

func NewTranscriptionRepository(db *sql.DB) *TranscriptionRepository {
	return &TranscriptionRepository{db: db}
}

// SaveChunks replaces the searchable chunks of a video. Chunk times are
// stored as global seconds.
func (r *TranscriptionRepository) SaveChunks(ctx context.Context, videoID string, chunks []models.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM "VideoChunk" WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO "VideoChunk" (video_id, chunk_text, chunk_embedding, chunk_start, chunk_end)
        VALUES ($1, $2, $3, $4, $5)
    `)
	if err != nil {
		return fmt.Errorf("prepare statement failed: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err = stmt.ExecContext(ctx,
			videoID,
			chunk.Text,
			pgvector.NewVector(chunk.Embedding),
			chunk.StartTime.Seconds(),
			chunk.EndTime.Seconds(),
		)
		if err != nil {
			return fmt.Errorf("chunk insert failed: %w", err)
		}
	}
	return tx.Commit()
}

func (r *TranscriptionRepository) SaveFullTranscription(ctx context.Context, videoID string, transcription string) error {
	const updateSQL = `
		UPDATE "Video"
		SET transcription = $1, "updatedAt" = CURRENT_TIMESTAMP
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, updateSQL, transcription, videoID)
	if err != nil {
		return fmt.Errorf("failed to execute update: %w", err)
	}
	return expectOneRow(result, "video", videoID)
}

func (r *TranscriptionRepository) UpdateVideoStatus(ctx context.Context, videoID string, status string) error {
	const updateSQL = `
		UPDATE "Video"
		SET status = $1, "updatedAt" = CURRENT_TIMESTAMP
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, updateSQL, status, videoID)
	if err != nil {
		return fmt.Errorf("failed to execute update: %w", err)
	}
	return expectOneRow(result, "video", videoID)
}

// GetByURL returns the most recent video with a transcription for videoURL.
func (r *TranscriptionRepository) GetByURL(ctx context.Context, videoURL string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM "Video"
		WHERE "videoUrl" = $1 AND transcription IS NOT NULL
		ORDER BY "updatedAt" DESC
		LIMIT 1`
	return scanVideo(r.db.QueryRowContext(ctx, query, videoURL))
}

// ListTranscribed returns searchable videos whose transcript has not been
// indexed yet.
func (r *TranscriptionRepository) ListTranscribed(ctx context.Context) ([]models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM "Video"
		WHERE status = $1 AND "isSearchable" = true AND transcription IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query, models.VideoTranscribed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *video)
	}
	return videos, rows.Err()
}

// Search returns the chunks closest to embedding by cosine distance.
func (r *TranscriptionRepository) Search(ctx context.Context, embedding []float32, limit int) ([]models.SearchResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH query_embedding AS (
			SELECT $1::vector AS vec
		)
		SELECT
			v.id as video_id,
			vc.chunk_text,
			vc.chunk_start,
			vc.chunk_end,
			1 - (vc.chunk_embedding <=> (SELECT vec FROM query_embedding)) as similarity
		FROM "VideoChunk" vc
		JOIN "Video" v ON v.id = vc.video_id
		WHERE v.status = 'completed'
		ORDER BY vc.chunk_embedding <=> (SELECT vec FROM query_embedding)
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	results := []models.SearchResult{}
	for rows.Next() {
		var result models.SearchResult
		err := rows.Scan(
			&result.VideoID,
			&result.ChunkText,
			&result.StartTime,
			&result.EndTime,
			&result.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
