package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"jamesfarrell.me/clipstudio/internal/parts"
)

// PartRepository stores the part records of chunked videos. It satisfies
// parts.Fetcher so the part index can read straight from the database.
type PartRepository struct {
	db *sql.DB
}

func NewPartRepository(db *sql.DB) *PartRepository {
	return &PartRepository{db: db}
}

// FetchParts returns the stored records in storage order. Ordering and
// validation are left to parts.Normalize.
func (r *PartRepository) FetchParts(ctx context.Context, videoID string) ([]parts.RawPart, error) {
	const query = `
		SELECT "partIndex", "startTime", "endTime", duration, "cloudinaryPublicId", size, "secureUrl"
		FROM "VideoPart"
		WHERE "videoId" = $1
	`
	rows, err := r.db.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts: %w", err)
	}
	defer rows.Close()

	var records []parts.RawPart
	for rows.Next() {
		var (
			index      sql.NullInt64
			start, end sql.NullFloat64
			duration   sql.NullFloat64
			mediaID    string
			size       sql.NullInt64
			secureURL  sql.NullString
		)
		if err := rows.Scan(&index, &start, &end, &duration, &mediaID, &size, &secureURL); err != nil {
			return nil, fmt.Errorf("failed to scan part: %w", err)
		}

		rec := parts.RawPart{
			CloudinaryPublicID: mediaID,
			Size:               size.Int64,
			SecureURL:          secureURL.String,
		}
		if index.Valid {
			i := int(index.Int64)
			rec.PartIndex = &i
		}
		if start.Valid {
			rec.StartTime = &start.Float64
		}
		if end.Valid {
			rec.EndTime = &end.Float64
		}
		if duration.Valid {
			rec.Duration = &duration.Float64
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ReplaceParts swaps the full part list of a video in one transaction.
func (r *PartRepository) ReplaceParts(ctx context.Context, videoID string, list []parts.VideoPart) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM "VideoPart" WHERE "videoId" = $1`, videoID); err != nil {
		return fmt.Errorf("failed to clear parts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO "VideoPart" ("videoId", "partIndex", "startTime", "endTime", duration, "cloudinaryPublicId", size, "secureUrl")
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
	`)
	if err != nil {
		return fmt.Errorf("prepare statement failed: %w", err)
	}
	defer stmt.Close()

	for _, p := range list {
		if _, err := stmt.ExecContext(ctx, videoID, p.Index, p.StartTime, p.EndTime, p.Duration, p.MediaID, p.Size, p.SecureURL); err != nil {
			return fmt.Errorf("part insert failed: %w", err)
		}
	}
	return tx.Commit()
}
