// Package evaluator produces a verdict for a claim by walking an ordered list
// of provider tiers and falling back to a deterministic score. Evaluate always
// returns a conforming result.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/verisci/internal/llm"
	"github.com/ppiankov/verisci/internal/model"
	"github.com/ppiankov/verisci/internal/score"
	"github.com/ppiankov/verisci/internal/validate"
	"github.com/ppiankov/verisci/internal/worker"
)

// DefaultTierTimeout bounds a tier attempt when none is configured
const DefaultTierTimeout = 30 * time.Second

// Tier is one network-backed evaluation stage
type Tier struct {
	Name      model.Tier
	Provider  llm.Provider // nil disables the tier
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

func (t Tier) timeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return DefaultTierTimeout
}

// Option configures a TieredEvaluator
type Option func(*TieredEvaluator)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *TieredEvaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLimiter throttles provider calls, keyed by tier name
func WithLimiter(limiter *worker.Limiter) Option {
	return func(e *TieredEvaluator) {
		e.limiter = limiter
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *TieredEvaluator) {
		e.now = now
	}
}

// TieredEvaluator tries each tier once, in order, and ends at the
// deterministic stub
type TieredEvaluator struct {
	tiers   []Tier
	scorer  *score.Scorer
	limiter *worker.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an evaluator over tiers. Tiers are attempted in slice order.
func New(tiers []Tier, opts ...Option) *TieredEvaluator {
	e := &TieredEvaluator{
		tiers:  tiers,
		scorer: score.NewScorer(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromConfig builds the primary and secondary tiers from configuration.
// A tier whose provider cannot be constructed (missing key, unknown name) is
// logged and left disabled.
func FromConfig(cfg *model.Config, opts ...Option) *TieredEvaluator {
	e := New(nil, opts...)

	e.tiers = []Tier{
		e.tierFromConfig(model.TierPrimary, cfg.LLM.Primary, cfg.LLM.Proxy),
		e.tierFromConfig(model.TierSecondaryDirect, cfg.LLM.Secondary, cfg.LLM.Proxy),
	}

	if cfg.RateLimiting.RequestsPerSecond > 0 && e.limiter == nil {
		e.limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}

	return e
}

func (e *TieredEvaluator) tierFromConfig(name model.Tier, tc model.TierConfig, proxy model.ProxyConfig) Tier {
	tier := Tier{
		Name:      name,
		Model:     tc.Model,
		MaxTokens: tc.MaxTokens,
		Timeout:   tc.Timeout,
	}

	if !tc.Enabled() {
		return tier
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(tc, proxy))
	if err != nil {
		e.logger.Warn("tier disabled",
			slog.String("tier", string(name)),
			slog.String("provider", tc.Provider),
			slog.String("reason", err.Error()))
		return tier
	}
	tier.Provider = provider
	return tier
}

// Tiers returns the configured network tiers
func (e *TieredEvaluator) Tiers() []Tier {
	return e.tiers
}

// Evaluate returns a verdict for c. It never fails: provider, network and
// validation failures advance to the next tier, and the final tier is the
// deterministic stub. Once ctx is done no further provider calls are made.
func (e *TieredEvaluator) Evaluate(ctx context.Context, c *model.Claim) *model.EvaluationResult {
	var chain []string

	for _, tier := range e.tiers {
		tierName := string(tier.Name)

		if tier.Provider == nil {
			tierAttempts.WithLabelValues(tierName, outcomeSkipped).Inc()
			e.logger.Debug("tier skipped",
				slog.String("claim_id", c.ID.Short()),
				slog.String("tier", tierName),
				slog.String("reason", "not configured"))
			chain = append(chain, tierName+": not configured")
			continue
		}

		if err := ctx.Err(); err != nil {
			tierAttempts.WithLabelValues(tierName, outcomeCanceled).Inc()
			e.logger.Warn("tier skipped",
				slog.String("claim_id", c.ID.Short()),
				slog.String("tier", tierName),
				slog.String("reason", err.Error()))
			chain = append(chain, tierName+": "+outcomeCanceled)
			continue
		}

		start := time.Now()
		result, err := e.attempt(ctx, tier, c)
		elapsed := time.Since(start)
		tierDuration.WithLabelValues(tierName).Observe(elapsed.Seconds())

		if err == nil {
			tierAttempts.WithLabelValues(tierName, outcomeSuccess).Inc()
			evaluationsTotal.WithLabelValues(tierName).Inc()
			e.logger.Info("tier succeeded",
				slog.String("claim_id", c.ID.Short()),
				slog.String("tier", tierName),
				slog.String("provider", tier.Provider.Name()),
				slog.Duration("duration", elapsed),
				slog.Int("score", result.Score))
			return result
		}

		outcome := failureOutcome(err)
		tierAttempts.WithLabelValues(tierName, outcome).Inc()
		e.logger.Warn("tier failed",
			slog.String("claim_id", c.ID.Short()),
			slog.String("tier", tierName),
			slog.String("provider", tier.Provider.Name()),
			slog.Duration("duration", elapsed),
			slog.String("outcome", outcome),
			slog.String("reason", err.Error()))
		chain = append(chain, tierName+": "+outcome)
	}

	result := e.scorer.Calculate(c.ID, c.Canonical, chain)
	result.Claim = c.Text
	result.EvaluatedAt = e.now().UTC()

	evaluationsTotal.WithLabelValues(string(model.TierDeterministicStub)).Inc()
	e.logger.Info("deterministic fallback used",
		slog.String("claim_id", c.ID.Short()),
		slog.Int("score", result.Score),
		slog.Any("failure_chain", chain))

	return &result
}

// attempt makes the single call allowed for a tier. Limiter wait counts
// against the tier timeout.
func (e *TieredEvaluator) attempt(ctx context.Context, tier Tier, c *model.Claim) (*model.EvaluationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, tier.timeout())
	defer cancel()

	providerName := tier.Provider.Name()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, string(tier.Name)); err != nil {
			return nil, &llm.NetworkError{Provider: providerName, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	resp, err := tier.Provider.Evaluate(ctx, llm.EvaluateRequest{
		Claim:     c.Canonical,
		Model:     tier.Model,
		MaxTokens: tier.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, &llm.ProviderError{Provider: providerName, Err: errors.New("nil response")}
	}

	result, err := validate.Parse(resp.Content)
	if err != nil {
		return nil, err
	}

	result.ClaimID = c.ID
	result.Claim = c.Text
	result.Tier = tier.Name
	result.Provider = providerName
	result.Model = resp.Model
	if result.Model == "" {
		result.Model = tier.Model
	}
	result.EvaluatedAt = e.now().UTC()

	return result, nil
}

// failureOutcome names the failure class of a tier error
func failureOutcome(err error) string {
	var netErr *llm.NetworkError
	var provErr *llm.ProviderError
	var valErr *validate.ValidationError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout
	case errors.Is(err, context.Canceled):
		return outcomeCanceled
	case errors.As(err, &netErr):
		return outcomeNetwork
	case errors.As(err, &provErr):
		return outcomeProvider
	case errors.As(err, &valErr):
		return outcomeValidation
	default:
		return outcomeError
	}
}
