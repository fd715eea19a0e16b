package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ppiankov/verisci/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("All apples are green.")
	if prompt != "Scientific claim: All apples are green." {
		t.Errorf("Unexpected prompt: %s", prompt)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Provider != "" {
		t.Errorf("Expected provider to be empty (disabled), got '%s'", config.Provider)
	}
	if config.Timeout <= 0 {
		t.Error("Expected positive timeout")
	}
	if config.MaxTokens <= 0 {
		t.Error("Expected positive max tokens")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{provider: "openai", wantName: "openai"},
		{provider: "OpenAI", wantName: "openai"},
		{provider: "anthropic", wantName: "anthropic"},
		{provider: "claude", wantName: "anthropic"},
		{provider: "ollama", wantName: "ollama"},
		{provider: "", wantNil: true},
		{provider: "spoon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, APIKey: "k", Model: "m"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.wantNil {
				if p != nil {
					t.Errorf("Expected nil provider, got %v", p)
				}
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("Expected %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	tier := model.TierConfig{
		Provider:  "anthropic",
		Model:     "claude-3-5-haiku-20241022",
		BaseURL:   "https://gateway.local",
		APIKey:    "secret",
		Timeout:   7 * time.Second,
		MaxTokens: 300,
	}
	cfg := ConfigFromModel(tier, model.ProxyConfig{HTTPSProxy: "http://proxy:3128"})

	if cfg.Provider != "anthropic" || cfg.Model != tier.Model || cfg.APIKey != "secret" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.Timeout != 7*time.Second || cfg.MaxTokens != 300 {
		t.Errorf("Unexpected limits: %+v", cfg)
	}
	if cfg.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("Expected proxy to carry over, got %q", cfg.HTTPSProxy)
	}
}

func TestConfigFromModel_FillsLimits(t *testing.T) {
	cfg := ConfigFromModel(model.TierConfig{Provider: "openai", Model: "gpt-4o-mini"}, model.ProxyConfig{})

	defaults := DefaultConfig()
	if cfg.Timeout != defaults.Timeout {
		t.Errorf("Expected default timeout %v, got %v", defaults.Timeout, cfg.Timeout)
	}
	if cfg.MaxTokens != defaults.MaxTokens {
		t.Errorf("Expected default max tokens %d, got %d", defaults.MaxTokens, cfg.MaxTokens)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantNetwork bool
	}{
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"canceled", context.Canceled, true},
		{"decode", errors.New("unexpected end of JSON input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("test", tt.err)
			var netErr *NetworkError
			var provErr *ProviderError
			if tt.wantNetwork && !errors.As(err, &netErr) {
				t.Errorf("Expected NetworkError, got %T", err)
			}
			if !tt.wantNetwork && !errors.As(err, &provErr) {
				t.Errorf("Expected ProviderError, got %T", err)
			}
		})
	}

	if classify("test", nil) != nil {
		t.Error("Expected nil for nil error")
	}

	// Already classified errors pass through unchanged
	orig := &NetworkError{Provider: "gateway", StatusCode: 503, Err: errors.New("unavailable")}
	if got := classify("test", orig); got != error(orig) {
		t.Errorf("Expected classified error to pass through, got %v", got)
	}
}
