package session

import (
	"sync"

	"github.com/ziadkadry99/docchat/internal/llm"
)

// State is everything one user session owns. Nothing in it is shared with
// other sessions.
type State struct {
	ID        string
	Documents *Registry
	General   *History

	mu    sync.Mutex
	model llm.ModelConfig

	// generalMu serializes questions and clears on the general conversation.
	generalMu    sync.Mutex
	generalChain Chain
}

// NewState returns an empty session using model.
func NewState(id string, model llm.ModelConfig) *State {
	return &State{
		ID:        id,
		Documents: NewRegistry(),
		General:   &History{},
		model:     model,
	}
}

// ModelConfig returns the session's current model selection.
func (s *State) ModelConfig() llm.ModelConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModelConfig changes the model selection. Chains built for the old
// selection are rebuilt on their next use.
func (s *State) SetModelConfig(cfg llm.ModelConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = cfg
}

// DoGeneral runs fn while holding the general conversation's lock.
func (s *State) DoGeneral(fn func() error) error {
	s.generalMu.Lock()
	defer s.generalMu.Unlock()
	return fn()
}

// GeneralChain returns the cached general chain. Call it from DoGeneral.
func (s *State) GeneralChain() Chain {
	return s.generalChain
}

// SetGeneralChain replaces the cached general chain. Call it from DoGeneral.
func (s *State) SetGeneralChain(c Chain) {
	s.generalChain = c
}
