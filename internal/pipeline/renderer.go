package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/verisci/internal/model"
)

// Renderer writes verdicts for humans and machines
type Renderer struct {
	verbose bool
}

// NewRenderer creates a renderer. Verbose summaries include audit fields.
func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// WriteJSON writes result as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, result *model.EvaluationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// RenderJSON writes result to path, creating parent directories
func (r *Renderer) RenderJSON(result *model.EvaluationResult, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return r.WriteJSON(f, result)
}

// RenderSummary prints a short human-readable verdict
func (r *Renderer) RenderSummary(w io.Writer, result *model.EvaluationResult) {
	fmt.Fprintf(w, "Claim ID:    %s\n", result.ClaimID)
	if result.Claim != "" {
		fmt.Fprintf(w, "Claim:       %s\n", result.Claim)
	}
	fmt.Fprintf(w, "Score:       %d/100\n", result.Score)
	fmt.Fprintf(w, "Confidence:  %s\n", result.Confidence)
	fmt.Fprintf(w, "Tier:        %s\n", result.Tier)
	fmt.Fprintf(w, "Explanation: %s\n", result.Explanation)
	fmt.Fprintln(w, "Factors:")
	for _, f := range result.Factors {
		fmt.Fprintf(w, "  - %s\n", f)
	}

	if r.verbose {
		if result.Provider != "" {
			fmt.Fprintf(w, "Provider:    %s (%s)\n", result.Provider, result.Model)
		}
		if !result.EvaluatedAt.IsZero() {
			fmt.Fprintf(w, "Evaluated:   %s\n", result.EvaluatedAt.Format("2006-01-02 15:04:05 MST"))
		}
	}

	if result.Tier == model.TierDeterministicStub {
		fmt.Fprintln(w, strings.Repeat("-", 40))
		fmt.Fprintln(w, "Note: deterministic fallback verdict, no model was consulted.")
	}
}
