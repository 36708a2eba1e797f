// Package chat answers questions, either grounded on one document's index
// or as an unrestricted conversation.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/session"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// DocumentEngine answers questions about a single document using passages
// retrieved from its index.
type DocumentEngine struct {
	factory   llm.Factory
	topK      int
	condense  bool
	maxTokens int
}

// Option configures an engine.
type Option func(*DocumentEngine)

// WithTopK sets how many passages are retrieved per question.
func WithTopK(k int) Option {
	return func(e *DocumentEngine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithCondense makes follow-up questions be rewritten into standalone ones
// before retrieval.
func WithCondense(on bool) Option {
	return func(e *DocumentEngine) { e.condense = on }
}

// WithMaxTokens caps the length of answers. Zero leaves it to the provider.
func WithMaxTokens(n int) Option {
	return func(e *DocumentEngine) { e.maxTokens = n }
}

// NewDocumentEngine creates an engine that builds model clients with factory.
func NewDocumentEngine(factory llm.Factory, opts ...Option) *DocumentEngine {
	e := &DocumentEngine{factory: factory, topK: vectordb.DefaultTopK}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ask answers question from rec's document. The user turn is appended
// before retrieval and kept if anything after it fails; the assistant turn
// is appended only on success. Callers serialize calls per record with
// rec.Do.
func (e *DocumentEngine) Ask(ctx context.Context, rec *session.Record, question string, cfg llm.ModelConfig) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	c, built, err := ensureChain(rec.Chain(), cfg, e.factory)
	if err != nil {
		return nil, err
	}
	if built {
		rec.SetChain(c)
	}

	prior := rec.History.Turns()
	rec.History.Append(llm.RoleUser, question)

	ans := &Answer{Question: question, Document: rec.Name, Model: cfg.Model}

	query := question
	if e.condense && len(prior) > 0 {
		standalone, err := c.complete(ctx, buildCondenseMessages(prior, question), 256, ans)
		if err != nil {
			return nil, fmt.Errorf("condensing question: %w", err)
		}
		if s := strings.TrimSpace(standalone); s != "" {
			query = s
			ans.Standalone = s
			logger.Debug("condensed %q to %q", question, s)
		}
	}

	matches, err := rec.Index.Query(ctx, query, e.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieving from %s: %w", ErrUpstreamModel, rec.Name, err)
	}
	logger.Debug("retrieved %d passage(s) from %s", len(matches), rec.Name)

	text, err := c.complete(ctx, buildDocumentMessages(rec.Name, matches, prior, question), e.maxTokens, ans)
	if err != nil {
		return nil, err
	}

	rec.History.Append(llm.RoleAssistant, text)
	ans.Text = text
	ans.Sources = matches
	return ans, nil
}
