package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/player"
)

type SessionHandler struct {
	videos  VideoGetter
	manager *player.Manager
	log     logrus.FieldLogger
}

func NewSessionHandler(videos VideoGetter, manager *player.Manager, log logrus.FieldLogger) *SessionHandler {
	return &SessionHandler{videos: videos, manager: manager, log: log}
}

type CreateSessionRequest struct {
	VideoID string `json:"videoId"`
}

func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decode(w, r, &req) {
		return
	}
	video, err := h.videos.Get(r.Context(), req.VideoID)
	if err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}

	media := player.Media{VideoID: video.ID}
	if video.MediaID != nil {
		media.MediaID = *video.MediaID
	}
	if video.Duration != nil {
		media.Duration = *video.Duration
	}
	s, err := h.manager.Create(r.Context(), media)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, s.State())
}

// Event applies one player UI event to a session and returns its new state.
func (h *SessionHandler) Event(w http.ResponseWriter, r *http.Request) {
	s, ok := h.manager.Get(mux.Vars(r)["sid"])
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	var ev player.Event
	if !decode(w, r, &ev) {
		return
	}
	st, err := s.Apply(ev)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, st)
	case errors.Is(err, player.ErrUnknownClip):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, player.ErrInvalidMark), errors.Is(err, parts.ErrNoSuchPart):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.manager.Close(mux.Vars(r)["sid"])
	w.WriteHeader(http.StatusNoContent)
}
