// Package session holds per-session state: the uploaded documents with
// their indexes and conversations, the general conversation and the chosen
// model configuration.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ziadkadry99/docchat/internal/indexer"
)

var (
	// ErrDuplicateDocument is returned when a document name is already
	// registered. Callers treat it as "already processed".
	ErrDuplicateDocument = errors.New("document already processed")
	// ErrNotFound is returned for a document name that is not registered.
	ErrNotFound = errors.New("document not found")
)

// Registry maps document names to records, remembering registration order.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// RegisterDocument adds an ingested document with its statistics. An
// existing record with the same name is left untouched and
// ErrDuplicateDocument is returned.
func (r *Registry) RegisterDocument(doc *indexer.Document) (*Record, error) {
	return r.add(&Record{
		Name:    doc.Name,
		Summary: doc.Summary,
		Format:  doc.Format,
		Chunks:  doc.Chunks,
		Units:   doc.Units,
		Index:   doc.Index,
	})
}

func (r *Registry) add(rec *Record) (*Record, error) {
	if rec.Name == "" {
		return nil, errors.New("document name is empty")
	}
	rec.History = &History{}
	rec.CreatedAt = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDocument, rec.Name)
	}
	r.records[rec.Name] = rec
	r.order = append(r.order, rec.Name)
	return rec, nil
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[name]
	return ok
}

// Get returns the record for name.
func (r *Registry) Get(name string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return rec, nil
}

// Remove deletes the record for name, releasing its index and history.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.records, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns document names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Records returns the records in registration order.
func (r *Registry) Records() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Record, len(r.order))
	for i, name := range r.order {
		out[i] = r.records[name]
	}
	return out
}

// Len returns the number of registered documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
