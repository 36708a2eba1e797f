package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "openai", "anthropic", "ollama".
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = defaultOllamaHost
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// NewFactory returns a Factory that builds providers of the given type.
// When rpm is positive every provider it builds draws from one shared
// token bucket, so rebuilding on a config change does not reset the limit.
func NewFactory(providerType string, rpm int) Factory {
	var shared *bucket
	if rpm > 0 {
		shared = newBucket(rpm)
	}
	return func(cfg ModelConfig) (Provider, error) {
		p, err := NewProvider(providerType, cfg.Model)
		if err != nil {
			return nil, err
		}
		if shared == nil {
			return p, nil
		}
		return &RateLimitedProvider{provider: p, bucket: shared}, nil
	}
}
