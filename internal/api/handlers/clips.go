package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/models"
	"jamesfarrell.me/clipstudio/internal/timeline"
)

type ClipStore interface {
	Create(ctx context.Context, videoID string, req models.ClipRequest) (*models.Clip, error)
	Get(ctx context.Context, id string) (*models.Clip, error)
	ListByVideo(ctx context.Context, videoID string) ([]models.Clip, error)
	UpdateStatus(ctx context.Context, id string, status timeline.ClipStatus, urls []string) error
	Delete(ctx context.Context, id string) error
}

type JobPublisher interface {
	Publish(ctx context.Context, job models.ClipExportJob) error
}

type ClipHandler struct {
	videos    VideoGetter
	clips     ClipStore
	index     PartIndex
	publisher JobPublisher
	sessions  SessionReloader
	log       logrus.FieldLogger
}

// NewClipHandler returns the clip endpoints. A nil publisher disables export.
func NewClipHandler(videos VideoGetter, clips ClipStore, index PartIndex, publisher JobPublisher, sessions SessionReloader, log logrus.FieldLogger) *ClipHandler {
	return &ClipHandler{videos: videos, clips: clips, index: index, publisher: publisher, sessions: sessions, log: log}
}

// duration returns the length of a video: the end of its last part, else
// the stored duration, else 0 when unknown.
func (h *ClipHandler) duration(ctx context.Context, video *models.Video) float64 {
	if d := parts.TotalDuration(h.index.Parts(ctx, video.ID)); d > 0 {
		return d
	}
	if video.Duration != nil {
		return *video.Duration
	}
	return 0
}

func (h *ClipHandler) ListClips(w http.ResponseWriter, r *http.Request) {
	clips, err := h.clips.ListByVideo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, clips)
}

func (h *ClipHandler) CreateClip(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]

	var req models.ClipRequest
	if !decode(w, r, &req) {
		return
	}
	video, err := h.videos.Get(r.Context(), videoID)
	if err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}
	if err := req.Validate(h.duration(r.Context(), video)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	clip, err := h.clips.Create(r.Context(), videoID, req)
	if err != nil {
		h.log.WithError(err).WithField("video", videoID).Error("failed to create clip")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.reload(r.Context(), videoID)
	writeJSON(w, http.StatusCreated, clip)
}

// ExportClip marks a clip as processing and queues the export job.
func (h *ClipHandler) ExportClip(w http.ResponseWriter, r *http.Request) {
	clipID := mux.Vars(r)["clipId"]
	if h.publisher == nil {
		http.Error(w, "clip export is not configured", http.StatusServiceUnavailable)
		return
	}

	clip, err := h.clips.Get(r.Context(), clipID)
	if err != nil {
		writeStoreError(w, err, "Clip not found")
		return
	}
	if clip.Status == timeline.StatusProcessing {
		http.Error(w, "clip export already in progress", http.StatusConflict)
		return
	}
	if err := h.clips.UpdateStatus(r.Context(), clip.ID, timeline.StatusProcessing, nil); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	job := models.ClipExportJob{JobID: uuid.NewString(), ClipID: clip.ID, VideoID: clip.VideoID}
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.WithError(err).WithField("clip", clip.ID).Error("failed to queue clip export")
		if uerr := h.clips.UpdateStatus(r.Context(), clip.ID, timeline.StatusError, nil); uerr != nil {
			h.log.WithError(uerr).Error("failed to mark clip as errored")
		}
		http.Error(w, "failed to queue export", http.StatusBadGateway)
		return
	}

	h.log.WithFields(logrus.Fields{"clip": clip.ID, "job": job.JobID}).Info("Clip export queued")
	h.reload(r.Context(), clip.VideoID)
	writeJSON(w, http.StatusAccepted, job)
}

func (h *ClipHandler) DeleteClip(w http.ResponseWriter, r *http.Request) {
	clipID := mux.Vars(r)["clipId"]

	clip, err := h.clips.Get(r.Context(), clipID)
	if err != nil {
		writeStoreError(w, err, "Clip not found")
		return
	}
	if err := h.clips.Delete(r.Context(), clipID); err != nil {
		writeStoreError(w, err, "Clip not found")
		return
	}
	h.reload(r.Context(), clip.VideoID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClipHandler) reload(ctx context.Context, videoID string) {
	if err := h.sessions.Reload(ctx, videoID); err != nil {
		h.log.WithError(err).WithField("video", videoID).Warn("failed to refresh player sessions")
	}
}

type TimelineRequest struct {
	Width  float64  `json:"width"`
	ClickX *float64 `json:"clickX,omitempty"`
	Time   *float64 `json:"time,omitempty"`
}

type TimelineResponse struct {
	Duration        float64               `json:"duration"`
	ClickTime       *float64              `json:"clickTime,omitempty"`
	HitClipID       string                `json:"hitClipId,omitempty"`
	PlayheadPercent *float64              `json:"playheadPercent,omitempty"`
	Clips           []timeline.ClipLayout `json:"clips"`
}

// Timeline lays out a video's clips and converts a track click and the
// playback time into track coordinates. A click that lands on a clip reports
// the clip and no click time.
func (h *ClipHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]

	var req TimelineRequest
	if !decode(w, r, &req) {
		return
	}
	video, err := h.videos.Get(r.Context(), videoID)
	if err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}
	stored, err := h.clips.ListByVideo(r.Context(), videoID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	clips := make([]timeline.Clip, len(stored))
	for i, c := range stored {
		clips[i] = c.Timeline()
	}
	resp := TimelineResponse{Duration: h.duration(r.Context(), video)}
	resp.Clips = timeline.LayoutClips(clips, resp.Duration)

	if req.ClickX != nil {
		if hit, ok := timeline.HitTest(resp.Clips, *req.ClickX, req.Width); ok {
			resp.HitClipID = hit.Clip.ID
		} else {
			t := timeline.PixelToTime(*req.ClickX, req.Width, resp.Duration)
			resp.ClickTime = &t
		}
	}
	if req.Time != nil {
		p := timeline.TimeToPercent(*req.Time, resp.Duration)
		resp.PlayheadPercent = &p
	}
	writeJSON(w, http.StatusOK, resp)
}
