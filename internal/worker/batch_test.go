package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/verisci/internal/model"
)

// mockEvaluator implements Evaluator
type mockEvaluator struct {
	shouldError bool
}

func (m *mockEvaluator) Evaluate(ctx context.Context, text string) (*model.EvaluationResult, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work
	if m.shouldError {
		return nil, errors.New("evaluation error")
	}
	return &model.EvaluationResult{
		Score:       len(text),
		Confidence:  model.ConfidenceLow,
		Explanation: "mock",
		Factors:     []string{text},
		Tier:        model.TierDeterministicStub,
	}, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claims.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	processor := NewBatchProcessor(&mockEvaluator{}, 2)

	claims := []string{"Water boils at 100C.", "All apples are green.", "E = mc^2"}
	results := processor.ProcessClaims(context.Background(), claims)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %q: %v", res.Claim, res.Error)
			continue
		}
		if res.Claim != claims[i] {
			t.Errorf("expected results in input order: index %d has %q", i, res.Claim)
		}
		if res.Result == nil {
			t.Error("expected result for successful evaluation")
		}
	}
}

// gatedEvaluator completes one claim, then blocks until ctx ends
type gatedEvaluator struct {
	calls chan struct{}
}

func (g *gatedEvaluator) Evaluate(ctx context.Context, text string) (*model.EvaluationResult, error) {
	select {
	case g.calls <- struct{}{}:
		return (&mockEvaluator{}).Evaluate(ctx, text)
	default:
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestBatchProcessor_ProcessClaims_Timeout(t *testing.T) {
	processor := NewBatchProcessor(&gatedEvaluator{calls: make(chan struct{}, 1)}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	claims := make([]string, 20)
	for i := range claims {
		claims[i] = strings.Repeat("c", i+1)
	}
	results := processor.ProcessClaims(ctx, claims)

	if len(results) != len(claims) {
		t.Fatalf("expected one result per claim (%d), got %d", len(claims), len(results))
	}

	completed, notProcessed := 0, 0
	for i, res := range results {
		if res.Claim != claims[i] || res.Index != i {
			t.Errorf("index %d holds %q (index %d)", i, res.Claim, res.Index)
		}
		switch {
		case res.Error == nil:
			completed++
		case errors.Is(res.Error, ErrNotProcessed):
			notProcessed++
		}
	}

	if completed != 1 {
		t.Errorf("expected 1 completed claim, got %d", completed)
	}
	if notProcessed == 0 {
		t.Error("expected claims left over at the deadline to be reported as not processed")
	}
}

func TestBatchProcessor_ProcessClaims_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockEvaluator{shouldError: true}, 2)

	results := processor.ProcessClaims(context.Background(), []string{"claim"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Result != nil {
		t.Error("expected nil result on error")
	}
}

func TestBatchProcessor_ProcessClaims_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockEvaluator{}, 2)

	results := processor.ProcessClaims(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessClaims_ManyClaims(t *testing.T) {
	processor := NewBatchProcessor(&mockEvaluator{}, 3)

	claims := make([]string, 100)
	for i := range claims {
		claims[i] = strings.Repeat("x", i+1)
	}

	results := processor.ProcessClaims(context.Background(), claims)
	if len(results) != len(claims) {
		t.Fatalf("expected %d results, got %d", len(claims), len(results))
	}
	for i, res := range results {
		if res.Result.Score != i+1 {
			t.Fatalf("result %d out of order (score %d)", i, res.Result.Score)
		}
	}
}

func TestReadClaimsFromFile(t *testing.T) {
	content := `All apples are green.
# comment
Water boils at 100 degrees Celsius.

  Smoking causes lung cancer.   `

	claims, err := ReadClaimsFromFile(writeTemp(t, content))
	if err != nil {
		t.Fatalf("ReadClaimsFromFile failed: %v", err)
	}

	expected := []string{"All apples are green.", "Water boils at 100 degrees Celsius.", "Smoking causes lung cancer."}
	if len(claims) != len(expected) {
		t.Fatalf("expected %d claims, got %d", len(expected), len(claims))
	}
	for i, c := range claims {
		if c != expected[i] {
			t.Errorf("expected claim %q at index %d, got %q", expected[i], i, c)
		}
	}
}

func TestReadClaimsFromFile_NonExistent(t *testing.T) {
	_, err := ReadClaimsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadClaims_DeduplicatesByIdentifier(t *testing.T) {
	content := "All apples are green.\nAll  apples are\tgreen.\nAll apples are red.\n"

	claims, err := ReadClaims(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ReadClaims failed: %v", err)
	}

	if len(claims) != 2 {
		t.Errorf("expected 2 claims after deduplication, got %d: %v", len(claims), claims)
	}
}

func TestClaimResult_GetError(t *testing.T) {
	r1 := &ClaimResult{Claim: "x"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("evaluation failed")
	r2 := &ClaimResult{Claim: "x", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "claim one\nclaim two\n# comment\n\nclaim three\n")

	processor := NewBatchProcessor(&mockEvaluator{}, 2)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockEvaluator{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
