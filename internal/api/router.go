package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/api/handlers"
	"jamesfarrell.me/clipstudio/internal/api/middleware"
)

// Handlers groups the endpoint implementations served by the router.
type Handlers struct {
	Videos   *handlers.VideoHandler
	Parts    *handlers.PartsHandler
	Clips    *handlers.ClipHandler
	Sessions *handlers.SessionHandler
	Search   *handlers.SearchHandler
}

func NewRouter(apiKey string, h Handlers, log logrus.FieldLogger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))

	// Public routes
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	// Protected routes
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.APIKey(apiKey))

	videos := protected.PathPrefix("/videos").Subrouter()
	videos.HandleFunc("", h.Videos.ListVideos).Methods(http.MethodGet)
	videos.HandleFunc("", h.Videos.AddVideo).Methods(http.MethodPost)
	videos.HandleFunc("/{id}", h.Videos.GetVideo).Methods(http.MethodGet)
	videos.HandleFunc("/{id}", h.Videos.DeleteVideo).Methods(http.MethodDelete)
	videos.HandleFunc("/{id}/parts", h.Parts.GetParts).Methods(http.MethodGet)
	videos.HandleFunc("/{id}/parts", h.Parts.PutParts).Methods(http.MethodPut)
	videos.HandleFunc("/{id}/seek", h.Parts.Seek).Methods(http.MethodGet)
	videos.HandleFunc("/{id}/timeline", h.Clips.Timeline).Methods(http.MethodPost)
	videos.HandleFunc("/{id}/clips", h.Clips.ListClips).Methods(http.MethodGet)
	videos.HandleFunc("/{id}/clips", h.Clips.CreateClip).Methods(http.MethodPost)

	clips := protected.PathPrefix("/clips").Subrouter()
	clips.HandleFunc("/{clipId}/export", h.Clips.ExportClip).Methods(http.MethodPost)
	clips.HandleFunc("/{clipId}", h.Clips.DeleteClip).Methods(http.MethodDelete)

	sessions := protected.PathPrefix("/sessions").Subrouter()
	sessions.HandleFunc("", h.Sessions.CreateSession).Methods(http.MethodPost)
	sessions.HandleFunc("/{sid}/events", h.Sessions.Event).Methods(http.MethodPost)
	sessions.HandleFunc("/{sid}", h.Sessions.DeleteSession).Methods(http.MethodDelete)

	protected.HandleFunc("/cache/clear", h.Videos.ClearCache).Methods(http.MethodPost)
	protected.HandleFunc("/search", h.Search.Search).Methods(http.MethodPost)

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
