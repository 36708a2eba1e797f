// Package assistant ties ingestion and the conversation engines to a
// session. It is the single entry point used by every front end.
package assistant

import (
	"context"

	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/db"
	"github.com/ziadkadry99/docchat/internal/indexer"
	"github.com/ziadkadry99/docchat/internal/session"
)

// UsageRecorder receives one event per answered question.
type UsageRecorder interface {
	Record(ctx context.Context, ev db.UsageEvent) error
}

// Options configures a Backend.
type Options struct {
	// AllowedModels limits model selection. Empty allows any model.
	AllowedModels []string
	// Concurrency bounds parallel ingestion in batch uploads.
	Concurrency int
	// Usage, when set, records every answered question.
	Usage UsageRecorder
	// OnProgress is called as batch uploads complete.
	OnProgress indexer.ProgressFunc
}

// Backend holds what every session shares: the ingestion pipeline and the
// conversation engines. Sessions bind to it through Service.
type Backend struct {
	pipeline *indexer.Pipeline
	docs     *chat.DocumentEngine
	general  *chat.GeneralEngine
	opts     Options
}

// NewBackend creates a Backend.
func NewBackend(pipeline *indexer.Pipeline, docs *chat.DocumentEngine, general *chat.GeneralEngine, opts Options) *Backend {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Backend{pipeline: pipeline, docs: docs, general: general, opts: opts}
}

// Service returns the operations for one session.
func (b *Backend) Service(st *session.State) *Service {
	return &Service{backend: b, state: st}
}

// AllowedModels returns the configured model list.
func (b *Backend) AllowedModels() []string {
	return b.opts.AllowedModels
}
