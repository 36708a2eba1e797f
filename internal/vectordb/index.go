package vectordb

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/docchat/internal/embeddings"
)

// ErrEmptyDocument is returned when an index would be built from no chunks.
var ErrEmptyDocument = errors.New("document has no indexable text")

// DefaultTopK is the number of chunks returned by a query unless configured.
const DefaultTopK = 3

const (
	collectionName = "document"
	positionKey    = "position"
)

// Index is the vector index of a single document. It is built once from
// all of the document's chunks and is read-only afterwards. Each Index owns
// its own chromem database, so queries can never reach another document.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
}

// Build creates an Index from chunks and their precomputed vectors. The
// embedder is kept for embedding query text and must be the one that
// produced vectors.
func Build(ctx context.Context, embedder embeddings.Embedder, chunks []Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", embeddings.ErrService, len(vectors), len(chunks))
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, embeddings.ToChromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("%w: empty vector for chunk %d", embeddings.ErrService, i)
		}
		md := make(map[string]string, len(c.Metadata)+1)
		for k, v := range c.Metadata {
			md[k] = v
		}
		md[positionKey] = strconv.Itoa(i)

		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   c.Content,
			Metadata:  md,
			Embedding: vectors[i],
		}
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("add chunks: %w", err)
	}

	return &Index{db: db, collection: col, embedder: embedder}, nil
}

// Len returns the number of chunks in the index.
func (x *Index) Len() int {
	return x.collection.Count()
}

// EmbedderName identifies the embedding model the index was built with.
func (x *Index) EmbedderName() string {
	return x.embedder.Name()
}

// Query embeds text with the index's embedder and returns the k nearest
// chunks. See QueryEmbedding for ordering.
func (x *Index) Query(ctx context.Context, text string, k int) ([]Match, error) {
	if text == "" {
		return nil, errors.New("query text is empty")
	}
	vec, err := embeddings.ToChromemFunc(x.embedder)(ctx, text)
	if err != nil {
		if !errors.Is(err, embeddings.ErrService) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", embeddings.ErrService, err)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return x.QueryEmbedding(ctx, vec, k)
}

// QueryEmbedding returns the k chunks nearest to vec by descending cosine
// similarity, ties broken by insertion order. A k larger than the index
// returns every chunk; k <= 0 uses DefaultTopK.
func (x *Index) QueryEmbedding(ctx context.Context, vec []float32, k int) ([]Match, error) {
	results, err := x.collection.QueryEmbedding(ctx, vec, x.Len(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	return topK(results, k), nil
}

// topK ranks every result so ties resolve by position; chromem's heap
// order is not stable among equal similarities.
func topK(results []chromem.Result, k int) []Match {
	if k <= 0 {
		k = DefaultTopK
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		pos, _ := strconv.Atoi(r.Metadata[positionKey])
		md := make(map[string]string, len(r.Metadata))
		for key, v := range r.Metadata {
			if key != positionKey {
				md[key] = v
			}
		}
		matches[i] = Match{
			Chunk:      Chunk{Position: pos, Content: r.Content, Metadata: md},
			Similarity: r.Similarity,
		}
	}

	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})

	return matches[:min(k, len(matches))]
}
