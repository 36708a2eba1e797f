package config

import "github.com/ziadkadry99/docchat/internal/llm"

// ProviderPreset describes the default models of a provider.
type ProviderPreset struct {
	Models         []string
	EmbeddingModel string
}

// providerPresets maps each provider to the chat models offered for it.
var providerPresets = map[ProviderType]ProviderPreset{
	ProviderOpenAI: {
		Models:         llm.DefaultModels,
		EmbeddingModel: "text-embedding-ada-002",
	},
	ProviderAnthropic: {
		Models:         []string{"claude-sonnet-4-5-20250929", "claude-haiku-4-5-20251001"},
		EmbeddingModel: "text-embedding-ada-002",
	},
	ProviderOllama: {
		Models:         []string{"llama3", "llama3:70b", "mistral"},
		EmbeddingModel: "nomic-embed-text",
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-3.5-turbo",
		Temperature:       llm.DefaultTemperature,
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-ada-002",
		ChunkSize:         1000,
		ChunkOverlap:      200,
		Separator:         "\n",
		TopK:              3,
		SummaryLength:     200,
		MaxConcurrency:    1,
		AllowedModels:     append([]string(nil), llm.DefaultModels...),
		Server: ServerConfig{
			Port:       8080,
			SessionTTL: "1h",
		},
	}
}

// GetPreset returns the preset for provider, falling back to OpenAI.
func GetPreset(provider ProviderType) ProviderPreset {
	if p, ok := providerPresets[provider]; ok {
		return p
	}
	return providerPresets[ProviderOpenAI]
}
