package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/config"
)

// NewGenerator creates the provider client selected by configuration.
// Returns Generator to enable dependency injection of mocks.
func NewGenerator(cfg *config.GenerationConfig, logger *zap.Logger) (Generator, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(&OpenAIConfig{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
		}, logger)

	case "anthropic":
		return NewAnthropicClient(&AnthropicConfig{
			Model: cfg.Model,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown generation provider: %q", cfg.Provider)
	}
}
