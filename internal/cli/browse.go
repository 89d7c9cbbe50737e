package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/backlog/internal/tui"
	"github.com/idilsaglam/backlog/internal/ui"
)

func newBrowseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and edit backlog items interactively",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.store()
			backlog, err := s.Backlog()
			if err != nil {
				return err
			}
			m, err := tui.Run(backlog)
			if err != nil {
				return err
			}
			if !m.Changed() {
				return nil
			}
			if err := s.SaveBacklog(m.Table()); err != nil {
				return err
			}
			a.log.Info("backlog saved", zap.Int("items", len(m.Table().Rows)))
			ui.OK(cmd.OutOrStdout(), "saved backlog.csv")
			return nil
		},
	}
}
