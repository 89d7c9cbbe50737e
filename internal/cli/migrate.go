package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/backlog/internal/migrate"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
	"github.com/idilsaglam/backlog/internal/ui"
)

func newMigrateCommand(a *app) *cobra.Command {
	var apply, output string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Propose or apply the category -> type + area migration",
		Long: `Without --apply, writes a review CSV proposing a type and area for every
item, lowest confidence first. Fill in final_type and final_area where the
proposal is wrong, then run again with --apply <review.csv>.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			s := a.store()
			backlog, err := s.Backlog()
			if err != nil {
				return err
			}

			if apply != "" {
				review, err := csvstore.Load(apply)
				if err != nil {
					return fmt.Errorf("load review: %w", err)
				}
				res := migrate.Apply(backlog, review)
				if len(res.Issues) > 0 {
					fmt.Fprintln(out, "Errors found:")
					for _, issue := range res.Issues {
						fmt.Fprintf(out, "  %s\n", issue)
					}
					fmt.Fprintln(out)
				}
				if err := s.SaveBacklog(backlog); err != nil {
					return err
				}
				fmt.Fprintf(out, "Migration applied: %d/%d items updated\n", res.Applied, res.Total)
				fmt.Fprintf(out, "Column 'category' replaced with 'type' + 'area' in %s\n", s.Path(csvstore.BacklogFile))
				fmt.Fprintln(out, "\nNext: run 'backlog validate' to verify")
				if len(res.Issues) > 0 {
					return failed
				}
				return nil
			}

			if output == "" {
				output = filepath.Join(a.cfg.Paths.Data, "category-migration-review.csv")
			}
			review, stats := migrate.Propose(backlog)
			if err := csvstore.Save(output, review); err != nil {
				return err
			}
			ui.OK(out, "Review CSV generated: "+output)
			fmt.Fprintf(out, "Total items: %d\n", len(review.Rows))
			fmt.Fprintf(out, "  High confidence:   %d\n", stats[migrate.High])
			fmt.Fprintf(out, "  Medium confidence: %d\n", stats[migrate.Medium])
			fmt.Fprintf(out, "  Low confidence:    %d\n", stats[migrate.Low])
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  1. Open the CSV in a spreadsheet")
			fmt.Fprintln(out, "  2. Review items sorted by confidence (low first)")
			fmt.Fprintln(out, "  3. Fill in 'final_type' and 'final_area' where you disagree with proposals")
			fmt.Fprintln(out, "  4. Leave blank to accept the proposed values")
			fmt.Fprintf(out, "  5. Run: backlog migrate --apply %s\n", output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&apply, "apply", "", "apply a reviewed migration CSV to backlog.csv")
	f.StringVarP(&output, "output", "o", "", "review CSV path (default category-migration-review.csv in the data directory)")
	cmd.MarkFlagsMutuallyExclusive("apply", "output")
	return cmd
}
