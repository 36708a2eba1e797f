package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/docchat/internal/llm"
)

// Manager keeps one State per session ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	model    llm.ModelConfig
	now      func() time.Time
}

type entry struct {
	state    *State
	lastSeen time.Time
}

// NewManager returns a Manager whose new sessions start with model.
func NewManager(model llm.ModelConfig) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		model:    model,
		now:      time.Now,
	}
}

// Create starts a new session with a random ID.
func (m *Manager) Create() *State {
	st := NewState(uuid.NewString(), m.model)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[st.ID] = &entry{state: st, lastSeen: m.now()}
	return st
}

// Get returns the session for id and marks it as used.
func (m *Manager) Get(id string) (*State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = m.now()
	return e.state, true
}

// GetOrCreate returns the session for id, creating a fresh one when id is
// unknown. The returned bool is true when a session was created.
func (m *Manager) GetOrCreate(id string) (*State, bool) {
	if id != "" {
		if st, ok := m.Get(id); ok {
			return st, false
		}
	}
	return m.Create(), true
}

// Delete ends a session, dropping its documents and conversations.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Evict ends every session idle for longer than ttl and returns how many
// were removed.
func (m *Manager) Evict(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-ttl)
	n := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
