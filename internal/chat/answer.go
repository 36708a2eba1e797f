package chat

import "github.com/ziadkadry99/docchat/internal/vectordb"

// Answer is the model's reply to one question.
type Answer struct {
	Text     string `json:"text"`
	Question string `json:"question"`
	// Standalone is the rewritten question used for retrieval when
	// condensation is enabled and the conversation had prior turns.
	Standalone   string           `json:"standalone,omitempty"`
	Document     string           `json:"document,omitempty"`
	Sources      []vectordb.Match `json:"sources,omitempty"`
	Model        string           `json:"model"`
	InputTokens  int              `json:"input_tokens"`
	OutputTokens int              `json:"output_tokens"`
	Cost         float64          `json:"cost_usd"`
}
