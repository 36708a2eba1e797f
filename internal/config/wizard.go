package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docchat! Let's configure your assistant.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	preset := GetPreset(provider)

	// 2. Chat model.
	modelPrompt := promptui.Select{
		Label: "Select chat model",
		Items: preset.Models,
	}
	_, model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}

	// 3. Temperature.
	tempStr, err := (&promptui.Prompt{
		Label:    "Response creativity (temperature 0.0-1.0)",
		Default:  "0.7",
		Validate: validateFloatRange(0, 1),
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("temperature: %w", err)
	}
	temperature, _ := strconv.ParseFloat(tempStr, 64)

	// 4. Chunking.
	sizeStr, err := (&promptui.Prompt{
		Label:    "Chunk size (characters)",
		Default:  "1000",
		Validate: validatePositiveInt,
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("chunk size: %w", err)
	}
	chunkSize, _ := strconv.Atoi(sizeStr)

	overlapStr, err := (&promptui.Prompt{
		Label:    "Chunk overlap (characters)",
		Default:  "200",
		Validate: validateNonNegativeInt,
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("chunk overlap: %w", err)
	}
	chunkOverlap, _ := strconv.Atoi(overlapStr)

	// Build the config.
	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model
	cfg.Temperature = temperature
	cfg.EmbeddingProvider = embeddingProviderFor(provider)
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.AllowedModels = append([]string(nil), preset.Models...)
	cfg.ChunkSize = chunkSize
	cfg.ChunkOverlap = chunkOverlap

	// Check for API keys.
	for _, envVar := range []string{APIKeyEnvVar(provider), APIKeyEnvVar(cfg.EmbeddingProvider)} {
		if envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment or a .env file before chatting.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenAI embeddings are used for all cloud providers.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}

func validateFloatRange(lo, hi float64) promptui.ValidateFunc {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("enter a number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be between %.1f and %.1f", lo, hi)
		}
		return nil
	}
}

func validatePositiveInt(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return errors.New("enter a positive whole number")
	}
	return nil
}

func validateNonNegativeInt(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return errors.New("enter a whole number, 0 or more")
	}
	return nil
}
