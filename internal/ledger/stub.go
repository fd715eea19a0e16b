package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/verisci/internal/model"
)

// LogPort records the registry call it would make and returns a stubbed
// receipt. Nothing leaves the process.
type LogPort struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLogPort creates a logging stub port
func NewLogPort(logger *slog.Logger) *LogPort {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPort{
		logger: logger,
		now:    time.Now,
	}
}

// Submit logs the would-be SubmitClaim call
func (p *LogPort) Submit(ctx context.Context, id model.ClaimID, result *model.EvaluationResult) (*Receipt, error) {
	if result == nil {
		return nil, &SubmissionError{ID: id, Err: errors.New("nil result")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &SubmissionError{ID: id, Err: err}
	}

	receipt := &Receipt{
		ID:          uuid.New(),
		ClaimID:     id,
		Status:      StatusStubbed,
		SubmittedAt: p.now().UTC(),
	}

	p.logger.Info("ledger submission stubbed",
		slog.String("claim_id", id.Short()),
		slog.String("receipt", receipt.ID.String()),
		slog.String("payload", EncodePayload(result)))

	return receipt, nil
}

// Fetch always reports ErrNotFound; the stub keeps no state
func (p *LogPort) Fetch(ctx context.Context, id model.ClaimID) (*Entry, error) {
	p.logger.Debug("ledger fetch stubbed", slog.String("claim_id", id.Short()))
	return nil, &SubmissionError{ID: id, Err: ErrNotFound}
}
