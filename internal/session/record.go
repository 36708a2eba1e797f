package session

import (
	"sync"
	"time"

	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/loader"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// Chain is a conversation chain cached on a record or a session. It
// remembers the model configuration it was built for.
type Chain interface {
	Config() llm.ModelConfig
}

// Record is an ingested document with its index and conversation.
type Record struct {
	Name      string
	Summary   string
	Format    loader.Format
	Chunks    int
	Units     int
	CreatedAt time.Time
	Index     *vectordb.Index
	History   *History

	// mu serializes questions and history clears on this document.
	mu sync.Mutex

	chainMu sync.Mutex
	chain   Chain
}

// Do runs fn while holding the record's lock.
func (r *Record) Do(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// Chain returns the cached chain, or nil.
func (r *Record) Chain() Chain {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	return r.chain
}

// SetChain replaces the cached chain.
func (r *Record) SetChain(c Chain) {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	r.chain = c
}
