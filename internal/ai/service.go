package ai

import (
	"fmt"

	"jobgate/internal/config"
	"jobgate/internal/errors"
)

// NewService creates the configured dialogue provider. A missing credential
// returns a MISSING_API_KEY config error; the caller is expected to run
// without a provider and let every turn degrade to the synthesizer.
func NewService(cfg *config.AIConfig, logger *errors.Logger) (DialogueProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"No AI API key configured", nil).
			WithContext("provider", cfg.Provider)
	}

	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(cfg, logger)
	case "openai":
		return NewOpenAIProvider(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}
