package models

import (
	"time"
)

// Video statuses, in pipeline order.
const (
	VideoPending     = "pending"
	VideoProcessing  = "processing"
	VideoTranscribed = "transcribed"
	VideoCompleted   = "completed"
	VideoFailed      = "failed"
)

type Video struct {
	ID            string    `json:"id"`
	VideoURL      string    `json:"videoUrl"`
	MediaID       *string   `json:"mediaId,omitempty"`
	Duration      *float64  `json:"duration,omitempty"`
	Transcription *string   `json:"transcription,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	UserID        string    `json:"userId"`
	IsSearchable  bool      `json:"isSearchable"`
}

type VideoRequest struct {
	URL          string   `json:"url"`
	MediaID      string   `json:"mediaId"`
	Duration     *float64 `json:"duration"`
	IsSearchable bool     `json:"isSearchable"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult is a transcript segment matching a query. Times are global
// seconds so a result can be passed straight to a seek.
type SearchResult struct {
	VideoID    string  `json:"videoId"`
	ChunkText  string  `json:"chunkText"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Similarity float64 `json:"similarity"`
}

// Cue is one timed entry of a WebVTT transcript.
type Cue struct {
	Number int
	Start  time.Duration
	End    time.Duration
	Text   string
}

// Chunk is a searchable stretch of transcript with its embedding.
type Chunk struct {
	Text      string
	StartTime time.Duration
	EndTime   time.Duration
	Embedding []float32
}
