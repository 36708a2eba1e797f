package assistant

import (
	"time"

	"github.com/ziadkadry99/docchat/internal/indexer"
	"github.com/ziadkadry99/docchat/internal/session"
)

// DocumentSummary describes an ingested document for listings.
type DocumentSummary struct {
	Name      string    `json:"name"`
	Summary   string    `json:"summary"`
	Format    string    `json:"format"`
	Chunks    int       `json:"chunks"`
	Units     int       `json:"units"`
	Turns     int       `json:"turns"`
	Embedder  string    `json:"embedder,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadResult is the outcome of one file in a batch upload. Skipped is set
// for names that were already processed; Err then wraps
// session.ErrDuplicateDocument.
type UploadResult struct {
	Name     string           `json:"name"`
	Document *DocumentSummary `json:"document,omitempty"`
	Skipped  bool             `json:"skipped,omitempty"`
	Err      error            `json:"-"`
}

// Upload is a named file to ingest.
type Upload = indexer.Upload

func summarize(rec *session.Record) *DocumentSummary {
	sum := &DocumentSummary{
		Name:      rec.Name,
		Summary:   rec.Summary,
		Format:    rec.Format.String(),
		Chunks:    rec.Chunks,
		Units:     rec.Units,
		Turns:     rec.History.Len(),
		CreatedAt: rec.CreatedAt,
	}
	if rec.Index != nil {
		sum.Embedder = rec.Index.EmbedderName()
	}
	return sum
}
