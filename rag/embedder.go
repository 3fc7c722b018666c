package rag

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder converts a batch of texts into fixed-dimension vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// OpenAIEmbedder requests embeddings from the OpenAI API. A whole document's
// chunks go out in a single request.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
}

// NewOpenAIEmbedder creates an embedder for the given model and dimension.
// The dimension is passed to the API so the returned vectors always match
// the store's.
func NewOpenAIEmbedder(client *openai.Client, model string, dim int) (*OpenAIEmbedder, error) {
	if client == nil {
		return nil, fmt.Errorf("nil openai client")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	return &OpenAIEmbedder{client: client, model: model, dim: dim}, nil
}

// EmbedBatch embeds all texts in one API call, preserving input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("cannot embed an empty batch")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(e.model),
		Input:      texts,
		Dimensions: e.dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != e.dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(d.Embedding), e.dim)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Dimension returns the embedding dimension.
func (e *OpenAIEmbedder) Dimension() int { return e.dim }
