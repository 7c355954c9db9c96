package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"jamesfarrell.me/clipstudio/internal/storage/models"
)

type VideoRepository struct {
	db      *sql.DB
	ownerID string
}

// NewVideoRepository returns a repository that assigns new videos to ownerID.
func NewVideoRepository(db *sql.DB, ownerID string) *VideoRepository {
	return &VideoRepository{db: db, ownerID: ownerID}
}

const videoColumns = `id, "videoUrl", "mediaId", duration, transcription, status, "isSearchable",
	"createdAt", "updatedAt", "userId"`

func (r *VideoRepository) Create(ctx context.Context, video *models.VideoRequest) (string, error) {
	const query = `
		INSERT INTO "Video" (id, "videoUrl", "mediaId", duration, status, "isSearchable", "createdAt", "updatedAt", "userId")
		VALUES (gen_random_uuid(), $1, NULLIF($2, ''), $3, 'pending', $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, $5)
		RETURNING id
	`
	if r.ownerID == "" {
		return "", fmt.Errorf("video owner user id must be configured")
	}

	var id string
	err := r.db.QueryRowContext(ctx, query,
		video.URL,
		video.MediaID,
		video.Duration,
		video.IsSearchable,
		r.ownerID,
	).Scan(&id)
	return id, err
}

func (r *VideoRepository) Get(ctx context.Context, id string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM "Video" WHERE id = $1`

	video, err := scanVideo(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (r *VideoRepository) List(ctx context.Context) ([]models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM "Video" ORDER BY "createdAt" DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *video)
	}
	return videos, rows.Err()
}

// Delete removes a video together with its parts, clips and transcript
// segments. It returns sql.ErrNoRows when the video does not exist.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM "VideoPart" WHERE "videoId" = $1`,
		`DELETE FROM "Clip" WHERE "videoId" = $1`,
		`DELETE FROM "VideoChunk" WHERE video_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete video dependents: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM "Video" WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var video models.Video
	err := row.Scan(
		&video.ID,
		&video.VideoURL,
		&video.MediaID,
		&video.Duration,
		&video.Transcription,
		&video.Status,
		&video.IsSearchable,
		&video.CreatedAt,
		&video.UpdatedAt,
		&video.UserID,
	)
	if err != nil {
		return nil, err
	}
	return &video, nil
}
