package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/backlog/internal/dashboard"
	"github.com/idilsaglam/backlog/internal/ui"
)

func newDashboardCommand(a *app) *cobra.Command {
	var (
		output string
		open   bool
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Generate the standalone HTML backlog dashboard",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if output == "" {
				output = filepath.Join(filepath.Dir(a.cfg.Paths.Data), "backlog-dashboard.html")
			}
			g := &dashboard.Generator{
				Store:    a.store(),
				ItemsDir: a.cfg.Paths.Items,
				Template: a.cfg.Paths.DashboardTemplate,
				Logger:   a.log,
			}
			if err := g.Generate(output); err != nil {
				return err
			}
			fmt.Fprintf(out, "Dashboard generated: %s\n", output)

			if open {
				if err := dashboard.Open(output); err != nil {
					a.log.Warn("could not open browser", zap.Error(err))
				} else {
					fmt.Fprintln(out, "Opened in browser")
				}
			}
			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintln(out, "Watching for changes (Ctrl+C to stop)...")
			return g.Watch(ctx, output, func(err error) {
				if err != nil {
					ui.Fail(out, "rebuild failed: "+err.Error())
					return
				}
				ui.OK(out, "rebuilt "+output)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "output file (default backlog-dashboard.html next to the data directory)")
	f.BoolVar(&open, "open", false, "open the dashboard in the default browser")
	f.BoolVarP(&watch, "watch", "w", false, "regenerate whenever the CSVs or item files change")
	return cmd
}
