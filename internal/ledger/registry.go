package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/verisci/internal/model"
)

// Modes accepted by New
const (
	ModeLog    = "log"
	ModeMemory = "memory"
)

// New returns the port for mode. "log" (the default) only logs; "memory"
// keeps submissions in a process-local registry so a long-running server
// can serve them back.
func New(mode string, logger *slog.Logger) (Port, error) {
	switch mode {
	case ModeLog, "":
		return NewLogPort(logger), nil
	case ModeMemory:
		return NewRegistryPort(NewMemoryRegistry(), logger), nil
	default:
		return nil, errors.New("unknown ledger mode " + mode + " (supported: log, memory)")
	}
}

// RegistryPort adapts a Registry contract to Port
type RegistryPort struct {
	registry Registry
	logger   *slog.Logger
}

// NewRegistryPort creates a port over registry
func NewRegistryPort(registry Registry, logger *slog.Logger) *RegistryPort {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryPort{registry: registry, logger: logger}
}

// Submit calls SubmitClaim with the verdict fields
func (p *RegistryPort) Submit(ctx context.Context, id model.ClaimID, result *model.EvaluationResult) (*Receipt, error) {
	if result == nil {
		return nil, &SubmissionError{ID: id, Err: errors.New("nil result")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &SubmissionError{ID: id, Err: err}
	}

	if !p.registry.SubmitClaim(string(id), result.Score, string(result.Confidence), result.Explanation) {
		return nil, &SubmissionError{ID: id, Err: errors.New("registry rejected submission")}
	}

	receipt := &Receipt{
		ID:          uuid.New(),
		ClaimID:     id,
		Status:      "submitted",
		SubmittedAt: time.Now().UTC(),
	}
	p.logger.Debug("ledger submission recorded",
		slog.String("claim_id", id.Short()),
		slog.String("receipt", receipt.ID.String()))

	return receipt, nil
}

// Fetch reads the payload back through GetClaim
func (p *RegistryPort) Fetch(ctx context.Context, id model.ClaimID) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SubmissionError{ID: id, Err: err}
	}

	payload := p.registry.GetClaim(string(id))
	if payload == "" {
		return nil, &SubmissionError{ID: id, Err: ErrNotFound}
	}

	result, err := DecodePayload(id, payload)
	if err != nil {
		return nil, &SubmissionError{ID: id, Err: err}
	}
	return result, nil
}

// MemoryRegistry is an in-process Registry
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]string)}
}

// SubmitClaim stores the payload, overwriting any previous entry
func (r *MemoryRegistry) SubmitClaim(claimHash string, score int, confidence, explanation string) bool {
	if claimHash == "" {
		return false
	}
	payload := EncodePayload(&model.EvaluationResult{
		Score:       score,
		Confidence:  model.Confidence(confidence),
		Explanation: explanation,
	})

	r.mu.Lock()
	r.entries[claimHash] = payload
	r.mu.Unlock()
	return true
}

// GetClaim returns the stored payload or ""
func (r *MemoryRegistry) GetClaim(claimHash string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[claimHash]
}
