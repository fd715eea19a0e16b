package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat completion endpoints (OpenAI itself or a unified gateway)
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = newHTTPClient(config, 30*time.Second)

	client := openai.NewClientWithConfig(clientConfig)

	return &OpenAIProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := p.client.ListModels(ctx)
	if err != nil {
		// Log the actual error for debugging (this helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Evaluate requests a verdict using OpenAI's Chat Completions API
func (p *OpenAIProvider) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error) {
	model := resolveModel(req, p.config, openai.GPT4oMini)

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: resolvePrompt(req),
			},
		},
		MaxTokens:   resolveMaxTokens(req, p.config),
		Temperature: 0.2, // Low temperature keeps verdicts stable across runs
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classify(p.Name(), fmt.Errorf("OpenAI API error: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: errors.New("no choices in response")}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: errors.New("empty message content")}
	}

	if resp.Model != "" {
		model = resp.Model
	}

	return &EvaluateResponse{
		Content:    content,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
