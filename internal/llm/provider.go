package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Factory builds a Provider bound to one model configuration. Conversation
// engines call it again whenever the configuration changes.
type Factory func(cfg ModelConfig) (Provider, error)
