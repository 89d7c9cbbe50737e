package cli

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/backlog/internal/dates"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

func newDatesCommand(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Fill created_at and completed_at from git history",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			s := a.store()
			backlog, err := s.Backlog()
			if err != nil {
				return err
			}

			r := dates.NewResolver(a.newGit(a.cfg.Paths.Root), a.cfg.Dates.Workers, a.log)
			r.BacklogPath = a.cfg.BacklogRel()
			r.PlansPath = path.Dir(r.BacklogPath)

			fmt.Fprintln(out, "Updating backlog dates from git history...")
			fmt.Fprintln(out)
			changes, err := r.Update(cmd.Context(), backlog)
			if err != nil {
				return err
			}
			for _, c := range changes {
				fmt.Fprintf(out, "  %s\n", c)
			}
			fmt.Fprintf(out, "\nUpdated %d date fields\n", len(changes))
			if dryRun {
				fmt.Fprintln(out, "Dry run: CSV not written")
				return nil
			}
			if err := s.SaveBacklog(backlog); err != nil {
				return err
			}
			a.log.Info("dates updated", zap.Int("changes", len(changes)))
			fmt.Fprintf(out, "CSV saved to: %s\n", s.Path(csvstore.BacklogFile))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "report the dates without writing the CSV")
	return cmd
}
