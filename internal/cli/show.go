package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/backlog/internal/markdown"
)

var bareNumber = regexp.MustCompile(`^\d+$`)

// itemID accepts "BACKLOG-042", "backlog-042", "042" or "42".
func itemID(arg string) string {
	arg = strings.TrimSpace(arg)
	if bareNumber.MatchString(arg) {
		n, _ := strconv.Atoi(arg)
		return fmt.Sprintf("BACKLOG-%03d", n)
	}
	return strings.ToUpper(arg)
}

func newShowCommand(a *app) *cobra.Command {
	var (
		raw   bool
		width int
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render an item's markdown file in the terminal",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := itemID(args[0])
			path := filepath.Join(a.cfg.Paths.Items, id+".md")
			src, err := os.ReadFile(path)
			if isNotExist(err) {
				return &ExitError{Code: 1, Err: fmt.Errorf("no item file for %s (%s)", id, path)}
			}
			if err != nil {
				return err
			}
			if raw {
				_, err := cmd.OutOrStdout().Write(src)
				return err
			}
			out, err := markdown.Render(src, width)
			if err != nil {
				return fmt.Errorf("render %s: %w", id, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown source")
	cmd.Flags().IntVar(&width, "width", 100, "wrap width")
	return cmd
}
