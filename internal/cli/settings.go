package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/ppiankov/verisci/internal/model"
)

// setDefaults registers every config key so env vars and Unmarshal see it
func setDefaults(v *viper.Viper, cfg *model.Config) {
	for prefix, tier := range map[string]model.TierConfig{
		"llm.primary":   cfg.LLM.Primary,
		"llm.secondary": cfg.LLM.Secondary,
	} {
		v.SetDefault(prefix+".provider", tier.Provider)
		v.SetDefault(prefix+".model", tier.Model)
		v.SetDefault(prefix+".base_url", tier.BaseURL)
		v.SetDefault(prefix+".api_key", tier.APIKey)
		v.SetDefault(prefix+".timeout", tier.Timeout)
		v.SetDefault(prefix+".max_tokens", tier.MaxTokens)
	}
	v.SetDefault("llm.proxy.http_proxy", cfg.LLM.Proxy.HTTPProxy)
	v.SetDefault("llm.proxy.https_proxy", cfg.LLM.Proxy.HTTPSProxy)

	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("ledger.mode", cfg.Ledger.Mode)
	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	v.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	v.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("output.verbose", cfg.Output.Verbose)
}

// loadConfig resolves the effective configuration:
// flags > env > config file > defaults
func loadConfig() (*model.Config, error) {
	return resolveConfig(viper.GetViper(), os.Getenv)
}

func resolveConfig(v *viper.Viper, getenv func(string) string) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// The primary tier talks to the gateway; its URL may come from the environment
	if url := getenv("VERISCI_GATEWAY_URL"); url != "" && cfg.LLM.Primary.BaseURL == "" {
		cfg.LLM.Primary.BaseURL = url
	}
	if key := getenv("VERISCI_GATEWAY_KEY"); key != "" && cfg.LLM.Primary.APIKey == "" {
		cfg.LLM.Primary.APIKey = key
	}

	applyProviderEnv(&cfg.LLM.Primary, getenv)
	applyProviderEnv(&cfg.LLM.Secondary, getenv)

	if cfg.Store.Path == "" {
		cfg.Store.Path = model.DefaultStorePath()
	}

	return cfg, nil
}

// applyProviderEnv fills credentials from the vendor's standard variables
func applyProviderEnv(tier *model.TierConfig, getenv func(string) string) {
	switch strings.ToLower(tier.Provider) {
	case "openai":
		if tier.APIKey == "" {
			tier.APIKey = getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if tier.APIKey == "" {
			tier.APIKey = getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if tier.BaseURL == "" {
			tier.BaseURL = getenv("OLLAMA_BASE_URL")
		}
	}
}
