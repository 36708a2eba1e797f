package chat

import (
	"context"
	"strings"

	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/session"
)

// GeneralEngine holds an unrestricted conversation without retrieval.
type GeneralEngine struct {
	factory   llm.Factory
	maxTokens int
}

// NewGeneralEngine creates an engine that builds model clients with factory.
func NewGeneralEngine(factory llm.Factory, maxTokens int) *GeneralEngine {
	return &GeneralEngine{factory: factory, maxTokens: maxTokens}
}

// Ask sends the session's whole general history plus question to the model
// chosen by cfg. A cfg different from the previous call rebuilds the client
// first. Callers serialize calls with st.DoGeneral.
func (e *GeneralEngine) Ask(ctx context.Context, st *session.State, question string, cfg llm.ModelConfig) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	c, built, err := ensureChain(st.GeneralChain(), cfg, e.factory)
	if err != nil {
		return nil, err
	}
	if built {
		st.SetGeneralChain(c)
	}

	st.General.Append(llm.RoleUser, question)
	msgs := session.Messages(st.General.Turns())

	ans := &Answer{Question: question, Model: cfg.Model}
	text, err := c.complete(ctx, msgs, e.maxTokens, ans)
	if err != nil {
		return nil, err
	}

	st.General.Append(llm.RoleAssistant, text)
	ans.Text = text
	return ans, nil
}
