package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"jamesfarrell.me/clipstudio/internal/storage/models"
	"jamesfarrell.me/clipstudio/internal/timeline"
)

type ClipRepository struct {
	db *sql.DB
}

func NewClipRepository(db *sql.DB) *ClipRepository {
	return &ClipRepository{db: db}
}

const clipColumns = `id, "videoId", name, "startTime", "endTime", status, "exportUrls", "createdAt", "updatedAt"`

func (r *ClipRepository) Create(ctx context.Context, videoID string, req models.ClipRequest) (*models.Clip, error) {
	query := `
		INSERT INTO "Clip" (id, "videoId", name, "startTime", "endTime", status, "exportUrls", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, $5, $6, '{}', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING ` + clipColumns

	return scanClip(r.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		videoID,
		req.Name,
		req.StartTime,
		req.EndTime,
		string(timeline.StatusPending),
	))
}

func (r *ClipRepository) Get(ctx context.Context, id string) (*models.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM "Clip" WHERE id = $1`
	return scanClip(r.db.QueryRowContext(ctx, query, id))
}

func (r *ClipRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM "Clip" WHERE "videoId" = $1 ORDER BY "startTime", id`

	rows, err := r.db.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clips := []models.Clip{}
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, *clip)
	}
	return clips, rows.Err()
}

// UpdateStatus sets the export status of a clip. urls replaces the stored
// export URLs when non-nil.
func (r *ClipRepository) UpdateStatus(ctx context.Context, id string, status timeline.ClipStatus, urls []string) error {
	const updateSQL = `
		UPDATE "Clip"
		SET status = $1, "exportUrls" = COALESCE($2, "exportUrls"), "updatedAt" = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	var arr any
	if urls != nil {
		arr = pq.Array(urls)
	}
	result, err := r.db.ExecContext(ctx, updateSQL, string(status), arr, id)
	if err != nil {
		return fmt.Errorf("failed to execute update: %w", err)
	}
	return expectOneRow(result, "clip", id)
}

func (r *ClipRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM "Clip" WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete clip: %w", err)
	}
	return expectOneRow(result, "clip", id)
}

func scanClip(row rowScanner) (*models.Clip, error) {
	var (
		clip   models.Clip
		status string
	)
	err := row.Scan(
		&clip.ID,
		&clip.VideoID,
		&clip.Name,
		&clip.StartTime,
		&clip.EndTime,
		&status,
		pq.Array(&clip.ExportURLs),
		&clip.CreatedAt,
		&clip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	clip.Status = timeline.ParseStatus(status)
	if clip.ExportURLs == nil {
		clip.ExportURLs = []string{}
	}
	return &clip, nil
}

// expectOneRow turns a no-op update into sql.ErrNoRows.
func expectOneRow(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no %s found with ID %s: %w", kind, id, sql.ErrNoRows)
	}
	return nil
}
