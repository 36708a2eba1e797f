package session

import (
	"sync"
	"time"

	"github.com/ziadkadry99/docchat/internal/llm"
)

// Turn is one message of a conversation.
type Turn struct {
	Role llm.Role  `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// History is an append-only conversation, cleared only on request.
type History struct {
	mu    sync.Mutex
	turns []Turn
}

// Append adds a turn at the end.
func (h *History) Append(role llm.Role, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{Role: role, Text: text, At: time.Now()})
}

// Turns returns a copy of the conversation in order.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Clear removes every turn.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}

// Messages converts turns to model messages.
func Messages(turns []Turn) []llm.Message {
	msgs := make([]llm.Message, len(turns))
	for i, t := range turns {
		msgs[i] = llm.Message{Role: t.Role, Content: t.Text}
	}
	return msgs
}
