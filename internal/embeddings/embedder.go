package embeddings

import (
	"context"
	"errors"
)

// ErrService marks failures of the external embedding service: network,
// auth, quota or a malformed response. Ingestion of a document stops on it.
var ErrService = errors.New("embedding service error")

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts, one vector per
	// text in the same order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}
