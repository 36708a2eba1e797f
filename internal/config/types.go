package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level docchat configuration, corresponding to .docchat.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	Temperature       float64      `yaml:"temperature" koanf:"temperature"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	ChunkSize         int          `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap      int          `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	Separator         string       `yaml:"separator" koanf:"separator"`
	TopK              int          `yaml:"top_k" koanf:"top_k"`
	SummaryLength     int          `yaml:"summary_length" koanf:"summary_length"`
	MaxConcurrency    int          `yaml:"max_concurrency" koanf:"max_concurrency"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	EmbeddingRetries  int          `yaml:"embedding_retries" koanf:"embedding_retries"`
	CondenseQuestion  bool         `yaml:"condense_question" koanf:"condense_question"`
	AllowedModels     []string     `yaml:"allowed_models" koanf:"allowed_models"`
	UsageDB           string       `yaml:"usage_db,omitempty" koanf:"usage_db"`
	Server            ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds settings of `docchat server`.
type ServerConfig struct {
	Port            int    `yaml:"port" koanf:"port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	SessionTTL      string `yaml:"session_ttl" koanf:"session_ttl"`
}

// TTL parses SessionTTL. An empty value means sessions never expire.
func (s ServerConfig) TTL() (time.Duration, error) {
	if s.SessionTTL == "" {
		return 0, nil
	}
	return time.ParseDuration(s.SessionTTL)
}
