package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/storage/models"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Searcher interface {
	Search(ctx context.Context, embedding []float32, limit int) ([]models.SearchResult, error)
}

type SearchHandler struct {
	embedder Embedder
	searcher Searcher
	log      logrus.FieldLogger
}

func NewSearchHandler(embedder Embedder, searcher Searcher, log logrus.FieldLogger) *SearchHandler {
	return &SearchHandler{embedder: embedder, searcher: searcher, log: log}
}

// Search embeds the query and returns the closest transcript segments of
// completed videos.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}
	req.Limit = min(req.Limit, maxSearchLimit)

	embedding, err := h.embedder.Embed(r.Context(), req.Query)
	if err != nil {
		h.log.WithError(err).Error("failed to embed search query")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	results, err := h.searcher.Search(r.Context(), embedding, req.Limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.WithField("results", len(results)).Debug("Search served")
	writeJSON(w, http.StatusOK, models.SearchResponse{Results: results})
}
