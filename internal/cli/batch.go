package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verisci/internal/model"
	"github.com/ppiankov/verisci/internal/pipeline"
	"github.com/ppiankov/verisci/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Evaluate many claims from a file in parallel",
	Long: `Batch evaluates claims concurrently:
- Read claims from the input file (one per line, '#' comments, "-" for stdin)
- Drop duplicates that share a claim identifier
- Evaluate with a configurable worker count
- Store every verdict; optionally write one JSON file per claim

Example:
  verisci batch claims.txt
  verisci batch claims.txt --concurrency 8 --output-dir ./verdicts
  cat claims.txt | verisci batch -`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "write <claim-hash>.json per claim into this directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "use an in-memory store (nothing is persisted)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ephemeral {
		cfg.Store.Backend = "memory"
	}

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  VeriSci Batch Evaluation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Store:        %s\n", cfg.Store.Backend)
	fmt.Fprintf(os.Stderr, "  Primary:      %s\n", tierLabel(cfg.LLM.Primary))
	fmt.Fprintf(os.Stderr, "  Secondary:    %s\n", tierLabel(cfg.LLM.Secondary))
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	p, err := pipeline.NewPipeline(cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	processor := worker.NewBatchProcessor(p, workers)

	fmt.Fprintf(os.Stderr, "⚙️  Evaluating claims with %d workers...\n\n", workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(verbose)
	tierCounts := make(map[model.Tier]int)
	failureCount := 0
	skippedCount := 0

	for _, result := range results {
		if errors.Is(result.Error, worker.ErrNotProcessed) {
			skippedCount++
			continue
		}
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", truncate(result.Claim, 60), result.Error)
			continue
		}

		tierCounts[result.Result.Tier]++

		if outputDir != "" {
			jsonPath := filepath.Join(outputDir, result.Result.ClaimID.String()+".json")
			if err := renderer.RenderJSON(result.Result, jsonPath); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Result.ClaimID.Short(), err)
				continue
			}
		}

		fmt.Fprintf(os.Stderr, "✓ %s  %3d/100 %-6s %-18s %s\n",
			result.Result.ClaimID.Short(), result.Result.Score, result.Result.Confidence,
			result.Result.Tier, truncate(result.Claim, 50))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Submitted: %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  Completed: %d claims\n", len(results)-skippedCount)
	for _, tier := range model.Tiers {
		fmt.Fprintf(os.Stderr, "  %-18s %d\n", string(tier)+":", tierCounts[tier])
	}
	fmt.Fprintf(os.Stderr, "  Rejected:  %d\n", failureCount)
	if skippedCount > 0 {
		fmt.Fprintf(os.Stderr, "  Not run:   %d (batch timeout or interrupt)\n", skippedCount)
	}
	if outputDir != "" {
		fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

func tierLabel(tier model.TierConfig) string {
	if !tier.Enabled() {
		return "disabled"
	}
	return tier.Provider + "/" + tier.Model
}

// truncate shortens s to n runes for one-line output
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
