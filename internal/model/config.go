package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete runtime configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Ledger       LedgerConfig       `yaml:"ledger" mapstructure:"ledger"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// LLMConfig configures the two network tiers. The deterministic stub tier
// needs no configuration.
type LLMConfig struct {
	Primary   TierConfig  `yaml:"primary" mapstructure:"primary"`
	Secondary TierConfig  `yaml:"secondary" mapstructure:"secondary"`
	Proxy     ProxyConfig `yaml:"proxy" mapstructure:"proxy"`
}

// ProxyConfig overrides HTTP_PROXY/HTTPS_PROXY for provider clients
type ProxyConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// TierConfig configures the provider behind one evaluation tier
type TierConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string        `yaml:"model" mapstructure:"model"`
	BaseURL   string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey    string        `yaml:"-" mapstructure:"api_key"` // never written to config files
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// Enabled reports whether a provider is configured for the tier
func (t TierConfig) Enabled() bool {
	return t.Provider != ""
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // file, badger, memory
	Path    string `yaml:"path" mapstructure:"path"`
}

// LedgerConfig selects the ledger submission port
type LedgerConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // log, memory
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles provider calls per tier
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Primary: TierConfig{
				Provider:  "openai",
				Model:     "gpt-4o-mini",
				Timeout:   30 * time.Second,
				MaxTokens: 600,
			},
			Secondary: TierConfig{
				Provider:  "openai",
				Model:     "gpt-4o-mini",
				Timeout:   30 * time.Second,
				MaxTokens: 600,
			},
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    DefaultStorePath(),
		},
		Ledger: LedgerConfig{
			Mode: "log",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// DefaultStorePath returns ~/.verisci/store.json, or a relative data path if
// the home directory cannot be resolved
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("data", "verisci_store.json")
	}
	return filepath.Join(home, ".verisci", "store.json")
}
