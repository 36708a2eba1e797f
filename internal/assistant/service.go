package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/db"
	"github.com/ziadkadry99/docchat/internal/indexer"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/session"
)

// Service runs document and general chat operations against one session.
type Service struct {
	backend *Backend
	state   *session.State
}

// State returns the session the service operates on.
func (s *Service) State() *session.State { return s.state }

// ProcessUpload ingests one file. A name that is already registered is not
// re-embedded: the existing document's summary is returned together with
// an error wrapping session.ErrDuplicateDocument.
func (s *Service) ProcessUpload(ctx context.Context, filename string, data []byte) (*DocumentSummary, error) {
	if rec, err := s.state.Documents.Get(filename); err == nil {
		return summarize(rec), fmt.Errorf("%w: %s", session.ErrDuplicateDocument, filename)
	}

	doc, err := s.backend.pipeline.Ingest(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	return s.register(doc)
}

// ProcessUploads ingests several files concurrently. Each result stands on
// its own; one failing file does not affect the others.
func (s *Service) ProcessUploads(ctx context.Context, uploads []Upload) []UploadResult {
	results := make([]UploadResult, len(uploads))
	seen := make(map[string]bool, len(uploads))

	var (
		pending []Upload
		slots   []int
	)
	for i, up := range uploads {
		results[i].Name = up.Name
		if seen[up.Name] || s.state.Documents.Contains(up.Name) {
			results[i].Skipped = true
			results[i].Err = fmt.Errorf("%w: %s", session.ErrDuplicateDocument, up.Name)
			if rec, err := s.state.Documents.Get(up.Name); err == nil {
				results[i].Document = summarize(rec)
			}
			continue
		}
		seen[up.Name] = true
		pending = append(pending, up)
		slots = append(slots, i)
	}

	batcher := indexer.NewBatcher(s.backend.opts.Concurrency, s.backend.pipeline, s.backend.opts.OnProgress)
	for j, br := range batcher.Process(ctx, pending) {
		i := slots[j]
		if br.Err != nil {
			results[i].Err = br.Err
			continue
		}
		sum, err := s.register(br.Document)
		results[i].Document = sum
		results[i].Err = err
		results[i].Skipped = errors.Is(err, session.ErrDuplicateDocument)
	}
	return results
}

func (s *Service) register(doc *indexer.Document) (*DocumentSummary, error) {
	rec, err := s.state.Documents.RegisterDocument(doc)
	if errors.Is(err, session.ErrDuplicateDocument) {
		// Another upload of the same name finished first.
		existing, getErr := s.state.Documents.Get(doc.Name)
		if getErr != nil {
			return nil, err
		}
		return summarize(existing), err
	}
	if err != nil {
		return nil, err
	}
	logger.Info("registered %s in session %s", doc.Name, s.state.ID)
	return summarize(rec), nil
}

// ListDocuments returns document names in upload order.
func (s *Service) ListDocuments() []string {
	return s.state.Documents.List()
}

// Documents returns summaries of every document in upload order.
func (s *Service) Documents() []DocumentSummary {
	recs := s.state.Documents.Records()
	out := make([]DocumentSummary, len(recs))
	for i, rec := range recs {
		out[i] = *summarize(rec)
	}
	return out
}

// Document returns the summary of one document.
func (s *Service) Document(name string) (*DocumentSummary, error) {
	rec, err := s.state.Documents.Get(name)
	if err != nil {
		return nil, err
	}
	return summarize(rec), nil
}

// RemoveDocument deletes a document with its index and conversation.
func (s *Service) RemoveDocument(name string) error {
	rec, err := s.state.Documents.Get(name)
	if err != nil {
		return err
	}
	// Wait for an in-flight question on the document to finish.
	return rec.Do(func() error {
		return s.state.Documents.Remove(name)
	})
}

// GetHistory returns a document's conversation.
func (s *Service) GetHistory(name string) ([]session.Turn, error) {
	rec, err := s.state.Documents.Get(name)
	if err != nil {
		return nil, err
	}
	return rec.History.Turns(), nil
}

// ClearHistory empties a document's conversation.
func (s *Service) ClearHistory(name string) error {
	rec, err := s.state.Documents.Get(name)
	if err != nil {
		return err
	}
	return rec.Do(func() error {
		rec.History.Clear()
		return nil
	})
}

// GeneralHistory returns the general conversation.
func (s *Service) GeneralHistory() []session.Turn {
	return s.state.General.Turns()
}

// ClearGeneralHistory empties the general conversation.
func (s *Service) ClearGeneralHistory() {
	_ = s.state.DoGeneral(func() error {
		s.state.General.Clear()
		return nil
	})
}

// AskDocument answers question from the named document using the session's
// model configuration.
func (s *Service) AskDocument(ctx context.Context, name, question string) (*chat.Answer, error) {
	rec, err := s.state.Documents.Get(name)
	if err != nil {
		return nil, err
	}
	cfg := s.state.ModelConfig()

	var ans *chat.Answer
	err = rec.Do(func() error {
		var askErr error
		ans, askErr = s.backend.docs.Ask(ctx, rec, question, cfg)
		return askErr
	})
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, db.ModeDocument, name, ans)
	return ans, nil
}

// AskGeneral continues the general conversation with cfg. A zero cfg uses
// the session's model configuration.
func (s *Service) AskGeneral(ctx context.Context, question string, cfg llm.ModelConfig) (*chat.Answer, error) {
	if cfg == (llm.ModelConfig{}) {
		cfg = s.state.ModelConfig()
	}
	if err := cfg.Validate(s.backend.opts.AllowedModels); err != nil {
		return nil, err
	}

	var ans *chat.Answer
	err := s.state.DoGeneral(func() error {
		var askErr error
		ans, askErr = s.backend.general.Ask(ctx, s.state, question, cfg)
		return askErr
	})
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, db.ModeGeneral, "", ans)
	return ans, nil
}

// SetModelConfig changes the session's model selection after validating it.
func (s *Service) SetModelConfig(cfg llm.ModelConfig) error {
	if err := cfg.Validate(s.backend.opts.AllowedModels); err != nil {
		return err
	}
	s.state.SetModelConfig(cfg)
	return nil
}

// ModelConfig returns the session's model selection.
func (s *Service) ModelConfig() llm.ModelConfig {
	return s.state.ModelConfig()
}

func (s *Service) recordUsage(ctx context.Context, mode db.Mode, document string, ans *chat.Answer) {
	if s.backend.opts.Usage == nil {
		return
	}
	err := s.backend.opts.Usage.Record(ctx, db.UsageEvent{
		SessionID:    s.state.ID,
		Document:     document,
		Mode:         mode,
		Model:        ans.Model,
		InputTokens:  ans.InputTokens,
		OutputTokens: ans.OutputTokens,
		CostUSD:      ans.Cost,
	})
	if err != nil {
		logger.Warn("recording usage: %v", err)
	}
}
