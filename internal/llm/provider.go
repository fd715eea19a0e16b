package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the interface for LLM providers backing an evaluation tier
type Provider interface {
	// Name returns the provider name
	Name() string

	// Evaluate asks the model for a credibility verdict on a claim and returns
	// the raw message content. Failures are *NetworkError or *ProviderError.
	Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// EvaluateRequest contains the input for a claim evaluation
type EvaluateRequest struct {
	// Claim is the canonical claim text
	Claim string

	// Prompt overrides the default user prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// EvaluateResponse contains the provider's unvalidated answer
type EvaluateResponse struct {
	// Content is the message content, expected to hold the verdict JSON
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (gateway, Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30 * time.Second,
		MaxTokens: 600,
	}
}

// SystemPrompt instructs the model to answer with the verdict JSON only
const SystemPrompt = `You are VeriSci, an assistant that evaluates the credibility of scientific claims.

You MUST respond with valid JSON only, using this schema:
{
  "score": integer from 0 to 100,
  "confidence": "low" | "medium" | "high",
  "explanation": string (at most 3 sentences),
  "factors": [string, ...] (3 to 5 short points)
}

Do not wrap the JSON in markdown. Do not add any text outside the JSON object.`

// BuildPrompt constructs the default user prompt for a claim
func BuildPrompt(claim string) string {
	return fmt.Sprintf("Scientific claim: %s", claim)
}

func resolveModel(req EvaluateRequest, cfg Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

func resolveMaxTokens(req EvaluateRequest, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 600
}

func resolvePrompt(req EvaluateRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return BuildPrompt(req.Claim)
}
