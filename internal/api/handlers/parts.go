package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/models"
)

type VideoGetter interface {
	Get(ctx context.Context, id string) (*models.Video, error)
}

type PartStore interface {
	ReplaceParts(ctx context.Context, videoID string, list []parts.VideoPart) error
}

// SessionReloader refreshes live player sessions after a video changes.
type SessionReloader interface {
	Reload(ctx context.Context, videoID string) error
}

type PartsHandler struct {
	videos   VideoGetter
	store    PartStore
	index    PartIndex
	resolver *parts.Resolver
	sessions SessionReloader
	log      logrus.FieldLogger
}

func NewPartsHandler(videos VideoGetter, store PartStore, index PartIndex, resolver *parts.Resolver, sessions SessionReloader, log logrus.FieldLogger) *PartsHandler {
	return &PartsHandler{videos: videos, store: store, index: index, resolver: resolver, sessions: sessions, log: log}
}

// GetParts serves the normalized part list of a video. A video without
// parts yields an empty list.
func (h *PartsHandler) GetParts(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	writeJSON(w, http.StatusOK, h.index.Parts(r.Context(), videoID))
}

// PutParts replaces the stored part records of a video once the client has
// finished uploading them.
func (h *PartsHandler) PutParts(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	log := h.log.WithField("video", videoID)

	var raw []parts.RawPart
	if !decode(w, r, &raw) {
		return
	}
	if _, err := h.videos.Get(r.Context(), videoID); err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}

	list := parts.Normalize(raw, log)
	if len(raw) > 0 && len(list) == 0 {
		http.Error(w, "no valid part records", http.StatusBadRequest)
		return
	}
	if err := h.store.ReplaceParts(r.Context(), videoID, list); err != nil {
		log.WithError(err).Error("failed to store parts")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.index.Invalidate(videoID)
	if err := h.sessions.Reload(r.Context(), videoID); err != nil {
		log.WithError(err).Warn("failed to refresh player sessions")
	}

	log.WithFields(logrus.Fields{"received": len(raw), "stored": len(list)}).Info("Video parts replaced")
	writeJSON(w, http.StatusOK, list)
}

type SeekResponse struct {
	Time      float64 `json:"time"`
	Chunked   bool    `json:"chunked"`
	PartIndex int     `json:"partIndex"`
	Offset    float64 `json:"offset"`
	URL       string  `json:"url"`
}

// Seek resolves ?t= (global seconds) into the part to load and the offset
// within it. Videos without parts play as a single resource.
func (h *PartsHandler) Seek(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]

	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		http.Error(w, "t must be a non-negative number of seconds", http.StatusBadRequest)
		return
	}

	list := h.index.Parts(r.Context(), videoID)
	if len(list) == 0 {
		h.seekSingle(w, r, videoID, t)
		return
	}

	loc, ok := parts.Locate(list, t)
	if !ok {
		http.Error(w, "no part contains that time", http.StatusUnprocessableEntity)
		return
	}
	u, err := h.resolver.PlaybackURL(list[loc.PartIndex])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, SeekResponse{
		Time:      t,
		Chunked:   true,
		PartIndex: loc.PartIndex,
		Offset:    loc.OffsetTime,
		URL:       u,
	})
}

func (h *PartsHandler) seekSingle(w http.ResponseWriter, r *http.Request, videoID string, t float64) {
	video, err := h.videos.Get(r.Context(), videoID)
	if err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}

	u := video.VideoURL
	if video.MediaID != nil && *video.MediaID != "" {
		if mu, err := h.resolver.MediaURL(*video.MediaID); err == nil {
			u = mu
		}
	}
	writeJSON(w, http.StatusOK, SeekResponse{Time: t, PartIndex: -1, Offset: t, URL: u})
}
