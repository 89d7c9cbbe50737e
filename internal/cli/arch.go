package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/backlog/internal/arch"
	"github.com/idilsaglam/backlog/internal/ui"
)

func newArchCommand(a *app) *cobra.Command {
	var (
		focus    string
		manifest string
		output   string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "arch [focus]",
		Short: "Render the architecture diagram from the manifest",
		Long: `Renders an interactive HTML chain view of the architecture manifest.
A focus (e.g. auth, email, sync) keeps only the nodes matching that focus
group's keywords. Nodes with a check path are dropped when the path does not
exist under the repository root, unless --all is given.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if focus == "" && len(args) == 1 {
				focus = args[0]
			}
			if manifest == "" {
				manifest = a.cfg.Paths.Architecture
			}
			m, err := arch.Load(manifest)
			if err != nil {
				return err
			}

			root := a.cfg.Paths.Root
			if all {
				root = ""
			}
			d, err := arch.Scan(m, focus, root)
			if errors.Is(err, arch.ErrUnknownFocus) {
				return &ExitError{Code: 2, Err: err}
			}
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := arch.Render(f, d); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ui.OK(out, "Generated architecture diagram: "+output)
			fmt.Fprintf(out, "  Nodes: %d\n", d.Count())
			if focus != "" {
				fmt.Fprintf(out, "  Focus: %s\n", focus)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&focus, "focus", "", "focus group from the manifest")
	f.StringVar(&manifest, "manifest", "", "architecture manifest (default from config, else built-in)")
	f.StringVarP(&output, "output", "o", "architecture-debug.html", "output HTML file")
	f.BoolVar(&all, "all", false, "keep nodes whose check path is missing")
	return cmd
}
