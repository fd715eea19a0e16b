package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verisci/internal/pipeline"
)

var (
	outJSON   string
	timeout   time.Duration
	ephemeral bool
	summary   bool
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [claim]",
	Short: "Evaluate a single scientific claim",
	Long: `Evaluate scores one claim and stores the verdict under its identifier:
- Canonicalize the claim and derive its SHA-256 identifier
- Ask the primary (gateway) tier, then the secondary direct tier
- Fall back to a deterministic verdict if both fail
- Persist the verdict and submit it to the ledger port

With no argument the claim is read from stdin.

Example:
  verisci evaluate "All apples are green."
  echo "Water boils at 100 C at sea level." | verisci evaluate
  verisci evaluate "Smoking causes lung cancer." --json verdict.json --summary`,
	Args: cobra.ArbitraryArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&outJSON, "json", "", "also write the verdict JSON to this path")
	evaluateCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall evaluation timeout")
	evaluateCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "use an in-memory store (nothing is persisted)")
	evaluateCmd.Flags().BoolVar(&summary, "summary", false, "print a human-readable summary to stderr")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	text, err := claimText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, err := openPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Evaluating claim...\n")
	}

	result, err := p.Evaluate(ctx, text)
	if err != nil {
		return fmt.Errorf("evaluate failed: %w", err)
	}

	renderer := pipeline.NewRenderer(verbose)
	if err := renderer.WriteJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	if summary {
		fmt.Fprintln(os.Stderr)
		renderer.RenderSummary(os.Stderr, result)
	}

	fmt.Fprintf(os.Stderr, "Claim hash: %s\n", result.ClaimID)
	return nil
}

// openPipeline builds the pipeline from the effective configuration
func openPipeline() (*pipeline.Pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if ephemeral {
		cfg.Store.Backend = "memory"
	}
	return pipeline.NewPipeline(cfg, nil)
}

// claimText joins args, or reads stdin when there are none
func claimText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
