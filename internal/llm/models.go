package llm

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnsupportedModel is returned when a model config names a model outside
// the allowed set or carries an out-of-range temperature.
var ErrUnsupportedModel = errors.New("unsupported model configuration")

// DefaultModels are the chat models offered when no list is configured.
var DefaultModels = []string{
	"gpt-4-turbo",
	"gpt-4-turbo-preview",
	"gpt-4",
	"gpt-3.5-turbo",
}

// DefaultTemperature is the sampling temperature used when none is chosen.
const DefaultTemperature = 0.7

// Validate checks cfg against the allowed model list. An empty list allows
// any non-empty model name.
func (c ModelConfig) Validate(allowed []string) error {
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrUnsupportedModel)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, c.Model) {
		return fmt.Errorf("%w: model %q is not one of %v", ErrUnsupportedModel, c.Model, allowed)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0, 1]", ErrUnsupportedModel, c.Temperature)
	}
	return nil
}

func (c ModelConfig) String() string {
	return fmt.Sprintf("%s (temperature %.2f)", c.Model, c.Temperature)
}
