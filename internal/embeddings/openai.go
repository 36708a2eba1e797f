package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const maxBatchSize = 100

// OpenAIModel represents a supported OpenAI embedding model.
type OpenAIModel string

const (
	ModelTextEmbedding3Small OpenAIModel = "text-embedding-3-small"
	ModelTextEmbedding3Large OpenAIModel = "text-embedding-3-large"
	ModelTextEmbeddingAda002 OpenAIModel = "text-embedding-ada-002"
)

func (m OpenAIModel) dimensions() int {
	switch m {
	case ModelTextEmbedding3Large:
		return 3072
	default:
		return 1536
	}
}

// OpenAIEmbedder generates embeddings using OpenAI's API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  OpenAIModel
}

// NewOpenAIEmbedder creates a new OpenAI embedder with the given API key and model.
func NewOpenAIEmbedder(apiKey string, model OpenAIModel) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// NewOpenAIEmbedderWithBaseURL targets an OpenAI-compatible endpoint.
func NewOpenAIEmbedderWithBaseURL(apiKey, baseURL string, model OpenAIModel) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (e *OpenAIEmbedder) Name() string {
	return string(e.model)
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.model.dimensions()
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxBatchSize {
		batch := texts[i:min(i+maxBatchSize, len(texts))]

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: openai embeddings: %w", ErrService, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("%w: openai returned %d embeddings, expected %d", ErrService, len(resp.Data), len(batch))
		}

		// The API reports each vector's input index; order by it rather
		// than trusting response order.
		ordered := make([][]float32, len(batch))
		for _, emb := range resp.Data {
			if emb.Index < 0 || emb.Index >= len(batch) {
				return nil, fmt.Errorf("%w: openai returned embedding index %d out of range", ErrService, emb.Index)
			}
			ordered[emb.Index] = emb.Embedding
		}
		all = append(all, ordered...)
	}

	return all, nil
}
