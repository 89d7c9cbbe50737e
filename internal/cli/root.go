// Package cli wires the backlog commands into a cobra tree.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/backlog/internal/config"
	"github.com/idilsaglam/backlog/internal/dates"
	"github.com/idilsaglam/backlog/internal/logging"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
	"github.com/idilsaglam/backlog/internal/ui"
)

// ExitError carries a process exit code: 1 for failures, 2 for usage
// errors. A nil Err means the command already reported the problem.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// failed is returned once a command has printed its own failure report.
var failed = &ExitError{Code: 1}

func usageErr(format string, args ...any) error {
	return &ExitError{Code: 2, Err: fmt.Errorf(format, args...)}
}

// usageArgs reports positional argument mistakes as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &ExitError{Code: 2, Err: err}
		}
		return nil
	}
}

// app is the state shared by every command once the root has run.
type app struct {
	cfgFile string
	root    string
	verbose bool

	cfg *config.Config
	log *zap.Logger

	now    func() time.Time
	newGit func(dir string) dates.GitRunner
}

func (a *app) store() *csvstore.Store { return csvstore.New(a.cfg.Paths.Data) }

func isNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }

// NewRootCommand builds the backlog command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{
		now:    time.Now,
		newGit: func(dir string) dates.GitRunner { return dates.NewExecGit(dir) },
	})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "backlog",
		Short: "Backlog tracking toolkit",
		Long: `backlog validates, queries and reports on the project backlog kept in
backlog.csv, sprints.csv and changelog.csv, keeps the CSV in step with the
BACKLOG-NNN.md item files, renders the HTML dashboard and architecture
diagram, and records agent token metrics.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./backlog.yaml or $HOME/.config/backlog/backlog.yaml)")
	pf.StringVar(&a.root, "root", "", "repository root the configured paths are relative to")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newValidateCommand(a),
		newSyncCommand(a),
		newQueryCommand(a),
		newAnalyzeCommand(a),
		newDashboardCommand(a),
		newDatesCommand(a),
		newMigrateCommand(a),
		newShowCommand(a),
		newBrowseCommand(a),
		newMetricsCommand(a),
		newArchCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlag("paths.root", cmd.Flags().Lookup("root")); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, a.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = logger
	ui.SetTheme(cfg.UI.Theme)

	a.log.Debug("config loaded",
		zap.String("file", v.ConfigFileUsed()),
		zap.String("data", cfg.Paths.Data),
		zap.String("items", cfg.Paths.Items),
	)
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		if ee.Err != nil {
			ui.Fail(os.Stderr, ee.Err.Error())
			if ee.Code == 2 {
				fmt.Fprintln(os.Stderr, "Run 'backlog --help' for usage.")
			}
		}
		return ee.Code
	}
	ui.Fail(os.Stderr, err.Error())
	if isUsage(err) {
		return 2
	}
	return 1
}

// isUsage recognises the argument errors cobra raises itself.
func isUsage(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "required flag", "if any flags in the group", "at least one of the flags"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
