package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/verisci/internal/claim"
	"github.com/ppiankov/verisci/internal/evaluator"
	"github.com/ppiankov/verisci/internal/ledger"
	"github.com/ppiankov/verisci/internal/model"
	"github.com/ppiankov/verisci/internal/store"
)

var (
	// sideEffectFailures counts non-fatal store and ledger failures
	sideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verisci_pipeline_failures_total",
		Help: "Total non-fatal pipeline failures by stage",
	}, []string{"stage"})
)

// Evaluator produces a verdict for a claim and never fails
type Evaluator interface {
	Evaluate(ctx context.Context, c *model.Claim) *model.EvaluationResult
}

// Pipeline orchestrates one evaluation: identify, evaluate, persist, submit
type Pipeline struct {
	evaluator Evaluator
	store     store.Store
	ledger    ledger.Port
	logger    *slog.Logger
}

// New creates a pipeline from explicit components. logger may be nil.
func New(eval Evaluator, st store.Store, port ledger.Port, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		evaluator: eval,
		store:     st,
		ledger:    port,
		logger:    logger,
	}
}

// NewPipeline creates a pipeline with the given configuration. The caller
// owns the returned pipeline and must Close it.
func NewPipeline(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	eval := evaluator.FromConfig(cfg, evaluator.WithLogger(logger))

	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	port, err := ledger.New(cfg.Ledger.Mode, logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("create ledger port: %w", err)
	}

	return New(eval, st, port, logger), nil
}

// Evaluate runs the full pipeline for claim text. The only error returned
// is *claim.InvalidClaimError; store and ledger failures are logged and the
// result is still returned.
func (p *Pipeline) Evaluate(ctx context.Context, text string) (*model.EvaluationResult, error) {
	// 1. Identify
	c, err := claim.New(text)
	if err != nil {
		return nil, err
	}

	// 2. Evaluate (always yields a conforming verdict)
	result := p.evaluator.Evaluate(ctx, c)
	result.ClaimID = c.ID

	// 3. Persist, detached from caller cancellation so a completed verdict is kept
	persistCtx := context.WithoutCancel(ctx)
	if err := p.store.Put(persistCtx, c.ID, result); err != nil {
		sideEffectFailures.WithLabelValues("store").Inc()
		p.logger.Error("store write failed",
			slog.String("claim_id", c.ID.Short()),
			slog.String("error", err.Error()))
	}

	// 4. Submit to the ledger
	if p.ledger != nil {
		if _, err := p.ledger.Submit(persistCtx, c.ID, result); err != nil {
			sideEffectFailures.WithLabelValues("ledger").Inc()
			p.logger.Warn("ledger submission failed",
				slog.String("claim_id", c.ID.Short()),
				slog.String("error", err.Error()))
		}
	}

	return result, nil
}

// Lookup returns the stored verdict for id
func (p *Pipeline) Lookup(ctx context.Context, id model.ClaimID) (*model.EvaluationResult, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return p.store.Get(ctx, id)
}

// LookupClaim returns the stored verdict for claim text
func (p *Pipeline) LookupClaim(ctx context.Context, text string) (*model.EvaluationResult, error) {
	id, err := claim.Identify(text)
	if err != nil {
		return nil, err
	}
	return p.store.Get(ctx, id)
}

// LedgerEntry reads back what the ledger holds for id
func (p *Pipeline) LedgerEntry(ctx context.Context, id model.ClaimID) (*ledger.Entry, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if p.ledger == nil {
		return nil, &ledger.SubmissionError{ID: id, Err: ledger.ErrNotFound}
	}
	return p.ledger.Fetch(ctx, id)
}

// IsNotFound reports whether err means no stored verdict or ledger entry exists
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, ledger.ErrNotFound)
}

// Close releases the store
func (p *Pipeline) Close() error {
	return p.store.Close()
}
