package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/models"
)

type VideoStore interface {
	Create(ctx context.Context, video *models.VideoRequest) (string, error)
	Get(ctx context.Context, id string) (*models.Video, error)
	List(ctx context.Context) ([]models.Video, error)
	Delete(ctx context.Context, id string) error
}

// PartIndex is the cached view of video parts.
type PartIndex interface {
	Parts(ctx context.Context, videoID string) []parts.VideoPart
	Invalidate(videoID string)
	InvalidateAll()
}

// SessionCloser ends the player sessions of a video that no longer exists.
type SessionCloser interface {
	CloseVideo(videoID string) int
}

type VideoHandler struct {
	repo     VideoStore
	index    PartIndex
	sessions SessionCloser
	log      logrus.FieldLogger
}

func NewVideoHandler(repo VideoStore, index PartIndex, sessions SessionCloser, log logrus.FieldLogger) *VideoHandler {
	return &VideoHandler{repo: repo, index: index, sessions: sessions, log: log}
}

func (h *VideoHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	var video models.VideoRequest
	if !decode(w, r, &video) {
		return
	}
	if strings.TrimSpace(video.URL) == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	id, err := h.repo.Create(r.Context(), &video)
	if err != nil {
		h.log.WithError(err).Error("failed to insert video")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.WithField("video", id).Info("Video registered")
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *VideoHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]

	video, err := h.repo.Get(r.Context(), videoID)
	if err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (h *VideoHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *VideoHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]

	if err := h.repo.Delete(r.Context(), videoID); err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}
	h.index.Invalidate(videoID)
	closed := h.sessions.CloseVideo(videoID)

	h.log.WithFields(logrus.Fields{"video": videoID, "sessions": closed}).Info("Video deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ClearCache drops every cached part list.
func (h *VideoHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.index.InvalidateAll()
	h.log.Info("Part cache cleared")
	w.WriteHeader(http.StatusNoContent)
}
