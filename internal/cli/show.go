package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verisci/internal/claim"
	"github.com/ppiankov/verisci/internal/model"
	"github.com/ppiankov/verisci/internal/pipeline"
)

var (
	showByClaim bool
	showSummary bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <claim-hash>",
	Short: "Show a stored verdict",
	Long: `Show prints the stored verdict for a claim identifier, or for claim
text with --claim. Nothing is evaluated.

Example:
  verisci show dc937665de797b4612608b6c14d5394eb2191f00ca483a0332aee64fb2a6d9b4
  verisci show --claim "All apples are green." --summary`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showByClaim, "claim", false, "treat the arguments as claim text instead of a hash")
	showCmd.Flags().BoolVar(&showSummary, "summary", false, "print a human-readable summary instead of JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	var id model.ClaimID
	if showByClaim {
		text, err := claimText(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if id, err = claim.Identify(text); err != nil {
			return err
		}
	} else {
		id = model.ClaimID(args[0])
		if err := id.Validate(); err != nil {
			return err
		}
	}

	p, err := openPipeline()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	result, err := p.Lookup(cmd.Context(), id)
	if err != nil {
		if pipeline.IsNotFound(err) {
			return errors.New("no verdict stored for " + id.String())
		}
		return fmt.Errorf("lookup failed: %w", err)
	}

	renderer := pipeline.NewRenderer(verbose)
	if showSummary {
		renderer.RenderSummary(os.Stdout, result)
		return nil
	}
	return renderer.WriteJSON(cmd.OutOrStdout(), result)
}
