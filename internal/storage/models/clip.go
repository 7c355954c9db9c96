package models

import (
	"errors"
	"strings"
	"time"

	"jamesfarrell.me/clipstudio/internal/timeline"
)

type Clip struct {
	ID         string              `json:"id"`
	VideoID    string              `json:"videoId"`
	Name       string              `json:"name"`
	StartTime  float64             `json:"startTime"`
	EndTime    float64             `json:"endTime"`
	Status     timeline.ClipStatus `json:"status"`
	ExportURLs []string            `json:"exportUrls"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// Timeline returns the clip as drawn on the timeline.
func (c Clip) Timeline() timeline.Clip {
	return timeline.Clip{
		ID:        c.ID,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Name:      c.Name,
		Status:    timeline.ParseStatus(string(c.Status)),
	}
}

type ClipRequest struct {
	Name      string  `json:"name"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Validate checks the clip boundaries against the video duration. A
// non-positive duration means the duration is unknown.
func (r ClipRequest) Validate(duration float64) error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("clip name is required")
	}
	if r.StartTime < 0 || !(r.StartTime < r.EndTime) {
		return errors.New("clip start must be before its end")
	}
	if duration > 0 && r.EndTime > duration {
		return errors.New("clip ends after the video")
	}
	return nil
}

// ClipExportJob asks the clip worker to produce delivery URLs for a clip.
type ClipExportJob struct {
	JobID   string `json:"jobId"`
	ClipID  string `json:"clipId"`
	VideoID string `json:"videoId"`
}
