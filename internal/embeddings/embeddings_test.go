package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestEmbedBatchOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-ada-002",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{0, 1}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test")
	cfg.BaseURL = srv.URL + "/v1"
	c := NewClientWithConfig(cfg)

	got, err := c.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if got[0][0] != 1 || got[1][1] != 1 {
		t.Errorf("EmbedBatch() = %v, want inputs in order", got)
	}
}

func TestEmbedBatchEmpty(t *testing.T) {
	if _, err := NewClient("test").EmbedBatch(context.Background(), nil); err == nil {
		t.Error("EmbedBatch(nil) did not fail")
	}
}
