package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/verisci/internal/claim"
	"github.com/ppiankov/verisci/internal/model"
)

// ErrNotProcessed marks a claim the batch ended before evaluating
var ErrNotProcessed = errors.New("not processed")

// Evaluator defines the interface for evaluating a single claim
type Evaluator interface {
	Evaluate(ctx context.Context, text string) (*model.EvaluationResult, error)
}

// ClaimJob represents a claim evaluation job
type ClaimJob struct {
	Index     int
	Claim     string
	Evaluator Evaluator
}

// Execute executes the evaluation job
func (j *ClaimJob) Execute(ctx context.Context) Result {
	result, err := j.Evaluator.Evaluate(ctx, j.Claim)
	if err != nil {
		return &ClaimResult{
			Index: j.Index,
			Claim: j.Claim,
			Error: err,
		}
	}
	return &ClaimResult{
		Index:  j.Index,
		Claim:  j.Claim,
		Result: result,
	}
}

// ClaimResult represents the result of a claim evaluation job
type ClaimResult struct {
	Index  int
	Claim  string
	Result *model.EvaluationResult
	Error  error
}

// GetError returns the error from the evaluation
func (r *ClaimResult) GetError() error {
	return r.Error
}

// BatchProcessor evaluates multiple claims concurrently
type BatchProcessor struct {
	evaluator   Evaluator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(evaluator Evaluator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
	}
}

// ProcessClaims evaluates claims concurrently. It returns exactly one result
// per claim in input order; claims left over when ctx ends carry an error
// wrapping ErrNotProcessed.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, text := range claims {
		job := &ClaimJob{
			Index:     i,
			Claim:     text,
			Evaluator: b.evaluator,
		}
		if !pool.Submit(job) {
			break
		}
	}

	claimResults := make([]*ClaimResult, len(claims))
	for _, result := range pool.Wait() {
		cr := result.(*ClaimResult)
		claimResults[cr.Index] = cr
	}

	for i, cr := range claimResults {
		if cr == nil {
			claimResults[i] = &ClaimResult{
				Index: i,
				Claim: claims[i],
				Error: fmt.Errorf("%w: %v", ErrNotProcessed, context.Cause(ctx)),
			}
		}
	}

	return claimResults
}

// ProcessFile reads claims from a file ("-" for stdin) and evaluates them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads claims from a file (one per line); "-" reads stdin
func ReadClaimsFromFile(filePath string) ([]string, error) {
	if filePath == "-" {
		return ReadClaims(os.Stdin)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadClaims(file)
}

// ReadClaims reads one claim per line, skipping blank lines and # comments.
// Claims that canonicalize to the same identifier are kept once.
func ReadClaims(r io.Reader) ([]string, error) {
	var claims []string
	seen := make(map[model.ClaimID]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		id, err := claim.Identify(line)
		if err != nil {
			continue
		}

		if !seen[id] {
			seen[id] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
