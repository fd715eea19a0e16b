package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verisci/internal/claim"
)

var hashCanonical bool

// hashCmd represents the hash command
var hashCmd = &cobra.Command{
	Use:   "hash [claim]",
	Short: "Print the identifier of a claim",
	Long: `Hash canonicalizes a claim (NFC, collapsed whitespace, trimmed) and
prints its SHA-256 identifier. No network or store access.

Example:
  verisci hash "All apples are green."
  verisci hash --canonical "  All   apples are green. "`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := claimText(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		c, err := claim.New(text)
		if err != nil {
			return err
		}

		if hashCanonical {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.Canonical)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)

	hashCmd.Flags().BoolVar(&hashCanonical, "canonical", false, "also print the canonical text")
}
