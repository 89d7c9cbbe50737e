package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/backlog/internal/ui"
	"github.com/idilsaglam/backlog/internal/validate"
)

const maxReported = 20

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check backlog, sprint and changelog CSVs for schema problems",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Validating backlog data...")
			fmt.Fprintf(out, "  Data dir: %s\n", a.cfg.Paths.Data)
			fmt.Fprintf(out, "  Items dir: %s\n\n", a.cfg.Paths.Items)

			rep, err := validate.Run(a.store())
			if err != nil {
				return err
			}
			for _, f := range rep.Files {
				fmt.Fprintf(out, "Checking %s...\n", f.Name)
				fmt.Fprintf(out, "  Found %d issues\n", len(f.Issues))
			}
			fmt.Fprintln(out)

			issues := rep.Issues()
			if len(issues) == 0 {
				ui.OK(out, "VALIDATION PASSED")
				return nil
			}
			a.log.Debug("validation failed", zap.Int("issues", len(issues)))
			ui.Fail(out, "VALIDATION FAILED")
			fmt.Fprintln(out, strings.Repeat("-", 40))
			for i, issue := range issues {
				if i == maxReported {
					fmt.Fprintf(out, "  ... and %d more\n", len(issues)-maxReported)
					break
				}
				fmt.Fprintf(out, "  - %s\n", issue)
			}
			return failed
		},
	}
}
