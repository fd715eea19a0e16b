package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/verisci/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - tier disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts a tier's model.TierConfig to llm.Config.
// Unset limits fall back to DefaultConfig.
func ConfigFromModel(tier model.TierConfig, proxy model.ProxyConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = tier.Provider
	cfg.Model = tier.Model
	cfg.APIKey = tier.APIKey
	cfg.BaseURL = tier.BaseURL
	cfg.HTTPProxy = proxy.HTTPProxy
	cfg.HTTPSProxy = proxy.HTTPSProxy

	if tier.Timeout > 0 {
		cfg.Timeout = tier.Timeout
	}
	if tier.MaxTokens > 0 {
		cfg.MaxTokens = tier.MaxTokens
	}
	return cfg
}
