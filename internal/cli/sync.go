package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/backlog/internal/itemsync"
	"github.com/idilsaglam/backlog/internal/ui"
)

func newSyncCommand(a *app) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Compare backlog.csv with the item markdown files",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			s := a.store()

			backlog, err := s.Backlog()
			if err != nil && !isNotExist(err) {
				return err
			}
			res, err := itemsync.Check(backlog, a.cfg.Paths.Items)
			if err != nil {
				return err
			}

			rule := strings.Repeat("=", 50)
			fmt.Fprintf(out, "\n%s\nBACKLOG CSV SYNC CHECK\n%s\n\n", rule, rule)
			fmt.Fprintf(out, "Markdown files: %d\n", res.MDCount)
			fmt.Fprintf(out, "CSV entries:    %d\n", res.CSVCount)

			if len(res.MissingFromCSV) > 0 {
				fmt.Fprintf(out, "\nMissing from CSV (%d):\n", len(res.MissingFromCSV))
				for _, id := range res.MissingFromCSV {
					fmt.Fprintf(out, "   - %s\n", id)
				}
			}
			if len(res.OrphanedInCSV) > 0 {
				fmt.Fprintf(out, "\nIn CSV but no markdown (%d):\n", len(res.OrphanedInCSV))
				for _, id := range res.OrphanedInCSV {
					fmt.Fprintf(out, "   - %s\n", id)
				}
			}
			if len(res.InvalidStatuses) > 0 {
				fmt.Fprintln(out, "\nInvalid status values:")
				for _, is := range res.InvalidStatuses {
					fmt.Fprintf(out, "   - %s: '%s'\n", is.ID, is.Status)
				}
			}
			fmt.Fprintln(out)

			if res.InSync() {
				ui.OK(out, "CSV is in sync with markdown files")
				return nil
			}
			ui.Fail(out, "CSV is OUT OF SYNC")
			if len(res.MissingFromCSV) == 0 {
				fmt.Fprintln(out, "\nNo missing items to add; correct the status values in the CSV")
				return failed
			}
			if !fix {
				fmt.Fprintln(out, "\nRun with --fix to add missing items")
				return failed
			}

			fmt.Fprintln(out, "\nFixing...")
			fixed, added, err := itemsync.Fix(backlog, a.cfg.Paths.Items, res.MissingFromCSV, a.now())
			if err != nil {
				return err
			}
			if err := s.SaveBacklog(fixed); err != nil {
				return err
			}
			a.log.Info("backlog synced", zap.Int("added", added))
			fmt.Fprintf(out, "Added %d items to CSV\n", added)
			fmt.Fprintln(out, "Run 'backlog dashboard' to update the dashboard")
			if len(res.InvalidStatuses) > 0 {
				return failed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "add rows for item files missing from the CSV")
	return cmd
}
