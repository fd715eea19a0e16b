package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verisci/internal/evaluator"
	"github.com/ppiankov/verisci/internal/model"
)

var checkTimeout time.Duration

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check which evaluation tiers are reachable",
	Long: `Check builds the configured tiers and probes each provider. The
deterministic fallback tier is always available.

Example:
  verisci check`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eval := evaluator.FromConfig(cfg)
		out := cmd.OutOrStdout()

		for _, tier := range eval.Tiers() {
			if tier.Provider == nil {
				fmt.Fprintf(out, "  %-18s disabled\n", tier.Name)
				continue
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			ok := tier.Provider.IsAvailable(ctx)
			cancel()

			status := "✓ available"
			if !ok {
				status = "✗ unavailable"
			}
			fmt.Fprintf(out, "  %-18s %s/%s %s\n", tier.Name, tier.Provider.Name(), tier.Model, status)
		}
		fmt.Fprintf(out, "  %-18s ✓ always available\n", model.TierDeterministicStub)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Second, "timeout per provider probe")
}
