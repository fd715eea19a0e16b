package api

import (
	"github.com/ppiankov/verisci/internal/ledger"
	"github.com/ppiankov/verisci/internal/model"
)

// EvaluateRequest is the body of POST /v1/claims
type EvaluateRequest struct {
	// Claim is the natural-language claim text.
	Claim string `json:"claim" binding:"required"`
}

// EvaluateResponse wraps a verdict
type EvaluateResponse struct {
	ClaimID model.ClaimID           `json:"claim_id"`
	Result  *model.EvaluationResult `json:"result"`

	// Shared is true when this request joined an evaluation already in flight.
	Shared bool `json:"shared,omitempty"`
}

// LedgerResponse is the body of GET /v1/claims/:id/ledger
type LedgerResponse struct {
	ClaimID model.ClaimID `json:"claim_id"`
	Entry   *ledger.Entry `json:"entry"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for every non-2xx status
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code.
	Code string `json:"code,omitempty"`
}
