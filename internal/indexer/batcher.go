package indexer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Batcher ingests uploads concurrently with configurable parallelism. A
// failure affects only the upload it belongs to.
type Batcher struct {
	concurrency int
	pipeline    *Pipeline
	onProgress  ProgressFunc
}

// NewBatcher creates a new Batcher with the given concurrency limit.
func NewBatcher(concurrency int, pipeline *Pipeline, onProgress ProgressFunc) *Batcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batcher{
		concurrency: concurrency,
		pipeline:    pipeline,
		onProgress:  onProgress,
	}
}

// BatchResult holds the outcome of one upload.
type BatchResult struct {
	Name     string
	Document *Document
	Err      error
}

// Process ingests uploads and returns one result per upload, in input order.
func (b *Batcher) Process(ctx context.Context, uploads []Upload) []BatchResult {
	total := len(uploads)
	results := make([]BatchResult, total)
	if total == 0 {
		return results
	}

	sem := make(chan struct{}, b.concurrency)
	var processed int64
	report := func(name string) {
		count := atomic.AddInt64(&processed, 1)
		if b.onProgress != nil {
			b.onProgress(int(count), total, name)
		}
	}

	var wg sync.WaitGroup
	for i, up := range uploads {
		results[i].Name = up.Name

		if err := ctx.Err(); err != nil {
			results[i].Err = fmt.Errorf("ingest %s: %w", up.Name, err)
			report(up.Name)
			continue
		}

		select {
		case <-ctx.Done():
			results[i].Err = fmt.Errorf("ingest %s: %w", up.Name, ctx.Err())
			report(up.Name)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, up Upload) {
			defer wg.Done()
			defer func() { <-sem }()

			doc, err := b.pipeline.Ingest(ctx, up.Name, up.Data)
			results[i].Document = doc
			results[i].Err = err
			report(up.Name)
		}(i, up)
	}

	wg.Wait()
	return results
}
