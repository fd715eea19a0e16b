// Package ledger defines the submission port for anchoring verdicts in an
// on-chain claim registry. Only a logging stub is bound today.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/verisci/internal/model"
)

// StatusStubbed marks a receipt produced without a real submission
const StatusStubbed = "stubbed"

// ErrNotFound is returned by Fetch when the registry has no entry
var ErrNotFound = errors.New("ledger entry not found")

// SubmissionError wraps a ledger failure
type SubmissionError struct {
	ID  model.ClaimID
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("ledger submission %s: %v", e.ID.Short(), e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Receipt acknowledges a submission
type Receipt struct {
	ID          uuid.UUID     `json:"id"`
	ClaimID     model.ClaimID `json:"claim_id"`
	Status      string        `json:"status"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// Entry is what the registry anchors for a claim. It carries only the
// payload fields; factors and tier stay in the evaluation store.
type Entry struct {
	ClaimID     model.ClaimID    `json:"claim_id"`
	Score       int              `json:"score"`
	Confidence  model.Confidence `json:"confidence"`
	Explanation string           `json:"explanation"`
}

// Port submits verdicts to a ledger and reads them back
type Port interface {
	Submit(ctx context.Context, id model.ClaimID, result *model.EvaluationResult) (*Receipt, error)
	Fetch(ctx context.Context, id model.ClaimID) (*Entry, error)
}

// Registry is the claim registry contract surface
type Registry interface {
	// SubmitClaim records a verdict under the claim hash
	SubmitClaim(claimHash string, score int, confidence, explanation string) bool

	// GetClaim returns the "score|confidence|explanation" payload, or "" if absent
	GetClaim(claimHash string) string
}

// EncodePayload builds the registry payload for a verdict
func EncodePayload(result *model.EvaluationResult) string {
	return fmt.Sprintf("%d|%s|%s", result.Score, result.Confidence, result.Explanation)
}

// DecodePayload parses a registry payload. The explanation may itself
// contain '|'; only the first two separators are significant.
func DecodePayload(id model.ClaimID, payload string) (*Entry, error) {
	parts := strings.SplitN(payload, "|", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed payload: expected 3 fields, got %d", len(parts))
	}

	score, err := strconv.Atoi(parts[0])
	if err != nil || score < 0 || score > 100 {
		return nil, fmt.Errorf("malformed payload: invalid score %q", parts[0])
	}

	confidence, ok := model.ParseConfidence(parts[1])
	if !ok {
		return nil, fmt.Errorf("malformed payload: invalid confidence %q", parts[1])
	}

	if parts[2] == "" {
		return nil, errors.New("malformed payload: empty explanation")
	}

	return &Entry{
		ClaimID:     id,
		Score:       score,
		Confidence:  confidence,
		Explanation: parts[2],
	}, nil
}
