package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Client converts text to embedding vectors using OpenAI's API
type Client struct {
	api   *openai.Client
	model openai.EmbeddingModel
}

func NewClient(apiKey string) *Client {
	return NewClientWithConfig(openai.DefaultConfig(apiKey))
}

func NewClientWithConfig(cfg openai.ClientConfig) *Client {
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: openai.AdaEmbeddingV2,
	}
}

// Embed returns the embedding of a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one embedding per text, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no text to embed")
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: c.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embedding creation failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("OpenAI returned embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
