package chat

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/session"
)

// chain binds a provider to the model configuration it was built for.
type chain struct {
	cfg      llm.ModelConfig
	provider llm.Provider
}

func (c *chain) Config() llm.ModelConfig { return c.cfg }

// ensureChain returns cached when it was built for cfg and a freshly built
// chain otherwise. The bool reports whether a build happened.
func ensureChain(cached session.Chain, cfg llm.ModelConfig, factory llm.Factory) (*chain, bool, error) {
	if c, ok := cached.(*chain); ok && c.cfg == cfg {
		return c, false, nil
	}
	p, err := factory(cfg)
	if err != nil {
		return nil, false, fmt.Errorf("%w: building %s client: %w", ErrUpstreamModel, cfg.Model, err)
	}
	logger.Debug("built %s chain for %s", p.Name(), cfg)
	return &chain{cfg: cfg, provider: p}, true, nil
}

// complete sends msgs and records token usage on ans.
func (c *chain) complete(ctx context.Context, msgs []llm.Message, maxTokens int, ans *Answer) (string, error) {
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamModel, err)
	}
	ans.InputTokens += resp.InputTokens
	ans.OutputTokens += resp.OutputTokens
	ans.Cost = llm.EstimateCost(c.cfg.Model, ans.InputTokens, ans.OutputTokens)
	return resp.Content, nil
}
