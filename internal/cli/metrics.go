package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/backlog/internal/metrics"
)

func newMetricsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Record and query agent token metrics",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(*cobra.Command, []string) error {
			return usageErr("missing subcommand (want one of log, summary, query, sum)")
		},
	}
	cmd.AddCommand(
		newMetricsLogCommand(a),
		newMetricsSummaryCommand(a),
		newMetricsQueryCommand(a),
		newMetricsSumCommand(a),
	)
	return cmd
}

func (a *app) metricsStore() *metrics.Store { return metrics.NewStore(a.cfg.Paths.Metrics) }

func newMetricsLogCommand(a *app) *cobra.Command {
	var e metrics.Entry
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Append one agent's token usage to the metrics file",
		Example: `  backlog metrics log -t engineer -i TASK-1184 -d "Implement sync" \
    --input 12000 --output 3400 --cache-read 80000 --api-calls 14 --duration 320`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !metrics.ValidAgentType(e.AgentType) {
				return usageErr("invalid agent type %q (want one of %s)", e.AgentType, strings.Join(metrics.AgentTypes, ", "))
			}
			logged, err := a.metricsStore().Append(e, a.now())
			if err != nil {
				return err
			}
			a.log.Debug("metrics logged",
				zap.String("agent_type", logged.AgentType),
				zap.String("task_id", logged.TaskID),
				zap.Int("total_tokens", logged.TotalTokens),
			)
			metrics.WriteLogged(cmd.OutOrStdout(), logged)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&e.AgentType, "agent-type", "t", "", "agent type: "+strings.Join(metrics.AgentTypes, ", "))
	f.StringVarP(&e.TaskID, "task-id", "i", "", "task ID (e.g. TASK-1184, PR-588)")
	f.StringVarP(&e.Description, "description", "d", "", "brief description of the work")
	f.IntVar(&e.InputTokens, "input", 0, "input tokens")
	f.IntVar(&e.OutputTokens, "output", 0, "output tokens")
	f.IntVar(&e.CacheRead, "cache-read", 0, "cache read tokens")
	f.IntVar(&e.CacheCreate, "cache-create", 0, "cache create tokens")
	f.IntVar(&e.APICalls, "api-calls", 0, "number of API calls")
	f.IntVar(&e.DurationSecs, "duration", 0, "duration in seconds")
	f.StringVar(&e.SessionID, "session-id", "", "session ID")
	f.StringVar(&e.AgentID, "agent-id", "", "agent ID")
	f.StringVar(&e.StartedAt, "started-at", "", "start time")
	f.StringVar(&e.EndedAt, "ended-at", "", "end time")
	_ = cmd.MarkFlagRequired("agent-type")
	return cmd
}

func newMetricsSummaryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show token totals per agent type",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.metricsStore().Load()
			if err != nil {
				return err
			}
			metrics.WriteSummary(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func newMetricsQueryCommand(a *app) *cobra.Command {
	var (
		f      metrics.Filter
		asJSON bool
		count  bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter metrics entries",
		Example: `  backlog metrics query --task TASK-1184
  backlog metrics query --task-prefix TASK-17 --json
  backlog metrics query --since 2026-01-01 --until 2026-01-31 --count`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tbl, err := a.metricsStore().Table()
			if err != nil {
				return err
			}
			matched := metrics.SelectRows(tbl, f)
			out := cmd.OutOrStdout()
			switch {
			case count:
				fmt.Fprintln(out, len(matched.Rows))
				return nil
			case asJSON:
				entries := make([]metrics.Entry, 0, len(matched.Rows))
				for _, r := range matched.Rows {
					entries = append(entries, metrics.FromRecord(r))
				}
				return metrics.WriteJSON(out, entries)
			case len(matched.Rows) == 0:
				fmt.Fprintln(cmd.ErrOrStderr(), "No matching entries found.")
				return nil
			}
			return metrics.WriteCSV(out, matched)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.Task, "task", "t", "", "exact task ID")
	fl.StringVar(&f.TaskPrefix, "task-prefix", "", "task ID prefix (e.g. TASK-17)")
	fl.StringVarP(&f.AgentType, "agent-type", "a", "", "agent type")
	fl.StringVarP(&f.SessionID, "session-id", "s", "", "session ID")
	fl.StringVar(&f.AgentID, "agent-id", "", "agent ID")
	fl.StringVar(&f.Since, "since", "", "entries on or after date (YYYY-MM-DD)")
	fl.StringVar(&f.Until, "until", "", "entries on or before date (YYYY-MM-DD)")
	fl.BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	fl.BoolVarP(&count, "count", "c", false, "only print the number of matches")
	cmd.MarkFlagsMutuallyExclusive("json", "count")
	return cmd
}

func newMetricsSumCommand(a *app) *cobra.Command {
	var (
		keys   = map[string]*string{}
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "sum",
		Short: "Aggregate effort for a task, task prefix, session or agent",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var key metrics.Key
			for field, v := range keys {
				if *v != "" {
					key = metrics.Key{Field: field, Value: *v}
				}
			}
			entries, err := a.metricsStore().Load()
			if err != nil {
				return err
			}
			agg, err := metrics.Sum(entries, key)
			if errors.Is(err, metrics.ErrNoMetrics) {
				fmt.Fprintln(cmd.ErrOrStderr(), `{"error": "No metrics file found or empty"}`)
				return failed
			}
			if err != nil {
				return err
			}

			var b []byte
			if pretty {
				b, err = json.MarshalIndent(agg, "", "  ")
			} else {
				b, err = json.Marshal(agg)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	f := cmd.Flags()
	keys[metrics.KeyTask] = f.StringP("task", "t", "", "exact task ID")
	keys[metrics.KeyTaskPrefix] = f.String("task-prefix", "", "task ID prefix (e.g. TASK-17 for all TASK-17XX)")
	keys[metrics.KeySession] = f.StringP("session-id", "s", "", "session ID")
	keys[metrics.KeyAgent] = f.StringP("agent-id", "a", "", "agent ID")
	f.BoolVarP(&pretty, "pretty", "p", false, "indent the JSON output")
	cmd.MarkFlagsMutuallyExclusive("task", "task-prefix", "session-id", "agent-id")
	cmd.MarkFlagsOneRequired("task", "task-prefix", "session-id", "agent-id")
	return cmd
}
