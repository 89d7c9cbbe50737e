package cli

import (
	"github.com/spf13/cobra"

	"github.com/idilsaglam/backlog/internal/analysis"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	var summary, asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report on backlog health, effort and sprint load",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.store()
			backlog, err := s.Backlog()
			if err != nil {
				return err
			}
			sprints, err := optional(s.Sprints())
			if err != nil {
				return err
			}
			changelog, err := s.Changelog()
			if err != nil {
				return err
			}

			rep := analysis.Analyze(backlog.Rows, sprints.Rows, changelog.Rows, a.now().UTC())
			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return writeJSON(out, rep)
			case summary:
				analysis.WriteSummary(out, rep)
			default:
				analysis.WriteReport(out, rep)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "print the short summary only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.MarkFlagsMutuallyExclusive("summary", "json")
	return cmd
}
