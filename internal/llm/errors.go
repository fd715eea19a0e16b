package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/sashabaranov/go-openai"
)

// NetworkError is a transport-level failure: timeout, connection failure,
// or a non-2xx HTTP status
type NetworkError struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: network error (HTTP %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: network error: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProviderError is a malformed or incomplete provider envelope
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// classify maps a raw client error into the NetworkError/ProviderError taxonomy
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var netErr *NetworkError
	var provErr *ProviderError
	if errors.As(err, &netErr) || errors.As(err, &provErr) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &NetworkError{Provider: provider, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &NetworkError{Provider: provider, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	var urlErr *url.Error
	var nErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.As(err, &urlErr) || errors.As(err, &nErr) {
		return &NetworkError{Provider: provider, Err: err}
	}

	return &ProviderError{Provider: provider, Err: err}
}
