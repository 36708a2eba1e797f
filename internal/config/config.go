package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/docchat/internal/llm"
)

// DefaultPath is the configuration file read from the working directory.
const DefaultPath = ".docchat.yml"

const envPrefix = "DOCCHAT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DOCCHAT_*). A double underscore selects
// a nested key: DOCCHAT_SERVER__PORT sets server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: DOCCHAT_TOP_K -> top_k, etc.
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key == "allowed_models" {
			return key, splitAndTrim(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI:    true,
	ProviderAnthropic: true,
	ProviderOllama:    true,
}

// ModelConfig returns the configured chat model selection.
func (c *Config) ModelConfig() llm.ModelConfig {
	return llm.ModelConfig{Model: c.Model, Temperature: c.Temperature}
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, anthropic, ollama", c.Provider)
	}

	if err := c.ModelConfig().Validate(c.AllowedModels); err != nil {
		return err
	}

	if c.EmbeddingProvider != "" && c.EmbeddingProvider != ProviderOpenAI && c.EmbeddingProvider != ProviderOllama {
		return fmt.Errorf("invalid embedding_provider %q: must be openai or ollama", c.EmbeddingProvider)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must be non-negative")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if c.SummaryLength <= 0 {
		return fmt.Errorf("summary_length must be positive")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}
	if c.EmbeddingRetries < 0 {
		return fmt.Errorf("embedding_retries must be non-negative")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := c.Server.TTL(); err != nil {
		return fmt.Errorf("invalid server.session_ttl %q: %w", c.Server.SessionTTL, err)
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// splitAndTrim splits a comma-separated string and drops empty entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
