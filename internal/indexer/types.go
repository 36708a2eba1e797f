package indexer

import (
	"time"

	"github.com/ziadkadry99/docchat/internal/loader"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// Chunk is a bounded slice of a document's joined text. Start and End are
// rune offsets into the text produced by joining all loaded units with the
// splitter's separator.
type Chunk struct {
	Position int
	Content  string
	Start    int
	End      int
	Metadata map[string]string
}

// Document is the outcome of ingesting one uploaded file.
type Document struct {
	Name     string
	Format   loader.Format
	Summary  string
	Index    *vectordb.Index
	Chunks   int
	Units    int
	Tokens   int
	Duration time.Duration
}

// Upload is a named file awaiting ingestion.
type Upload struct {
	Name string
	Data []byte
}

// Estimate describes what ingesting a file would cost without calling the
// embedding service.
type Estimate struct {
	Name          string
	Format        loader.Format
	Units         int
	Chunks        int
	Tokens        int
	EstimatedCost float64
}

// ProgressFunc is called during batch processing to report progress.
type ProgressFunc func(processed int, total int, currentFile string)
