package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/loader"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// Pipeline orchestrates ingestion of one file: load -> split -> embed -> index.
type Pipeline struct {
	embedder      embeddings.Embedder
	splitter      *Splitter
	summaryLength int
}

// NewPipeline creates a new Pipeline.
func NewPipeline(embedder embeddings.Embedder, splitter *Splitter, summaryLength int) *Pipeline {
	if splitter == nil {
		splitter = NewSplitter()
	}
	if summaryLength <= 0 {
		summaryLength = DefaultSummaryLength
	}
	return &Pipeline{
		embedder:      embedder,
		splitter:      splitter,
		summaryLength: summaryLength,
	}
}

// Ingest builds a Document with its own vector index from an uploaded file.
// Any failure aborts the whole document; no partial index is returned.
func (p *Pipeline) Ingest(ctx context.Context, name string, data []byte) (*Document, error) {
	start := time.Now()
	logger.Section("Ingest " + name)

	units, err := loader.Load(name, data)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded %d unit(s) from %s", len(units), name)

	chunks := p.splitter.Split(units)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ingest %s: %w", name, vectordb.ErrEmptyDocument)
	}
	logger.Debug("split %s into %d chunk(s) (size %d, overlap %d)",
		name, len(chunks), p.splitter.ChunkSize(), p.splitter.Overlap())

	texts := make([]string, len(chunks))
	tokens := 0
	for i, c := range chunks {
		texts[i] = c.Content
		tokens += llm.EstimateTokens(c.Content)
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		if !errors.Is(err, embeddings.ErrService) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", embeddings.ErrService, err)
		}
		return nil, fmt.Errorf("embed %s: %w", name, err)
	}
	logger.Debug("embedded %d chunk(s) with %s", len(vectors), p.embedder.Name())

	index, err := vectordb.Build(ctx, p.embedder, toIndexChunks(chunks), vectors)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", name, err)
	}

	doc := &Document{
		Name:     name,
		Format:   loader.FormatFor(name),
		Summary:  Summarize(units, p.summaryLength),
		Index:    index,
		Chunks:   len(chunks),
		Units:    len(units),
		Tokens:   tokens,
		Duration: time.Since(start),
	}
	logger.Info("indexed %s: %d chunk(s) in %s", name, doc.Chunks, doc.Duration.Round(time.Millisecond))
	return doc, nil
}

// Estimate loads and splits a file without embedding it and prices the
// embedding tokens for model.
func (p *Pipeline) Estimate(name string, data []byte, model string) (*Estimate, error) {
	units, err := loader.Load(name, data)
	if err != nil {
		return nil, err
	}
	chunks := p.splitter.Split(units)

	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Content)
	}
	tokens := llm.EstimateTokens(b.String())

	return &Estimate{
		Name:          name,
		Format:        loader.FormatFor(name),
		Units:         len(units),
		Chunks:        len(chunks),
		Tokens:        tokens,
		EstimatedCost: llm.EstimateCost(model, tokens, 0),
	}, nil
}

func toIndexChunks(chunks []Chunk) []vectordb.Chunk {
	out := make([]vectordb.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = vectordb.Chunk{
			Position: c.Position,
			Content:  c.Content,
			Metadata: c.Metadata,
		}
	}
	return out
}
