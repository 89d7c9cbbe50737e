package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/query"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

var queryKinds = []string{"status", "priority", "type", "area", "sprint", "search", "open", "ready", "stats"}

type queryOptions struct {
	status  string
	verbose bool
	json    bool
}

func newQueryCommand(a *app) *cobra.Command {
	var opts queryOptions
	cmd := &cobra.Command{
		Use:   "query <" + strings.Join(queryKinds, "|") + "> [value]",
		Short: "Query backlog items",
		Example: `  backlog query status pending
  backlog query priority high --status pending
  backlog query search "contact"
  backlog query ready
  backlog query stats`,
		ValidArgs: queryKinds,
		Args:      usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			value := ""
			if len(args) > 1 {
				value = args[1]
			}
			return a.runQuery(cmd.OutOrStdout(), kind, value, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.status, "status", "", "also filter by status (priority, type and area queries)")
	f.BoolVarP(&opts.verbose, "long", "l", false, "show status, priority and sprint for each item")
	f.BoolVar(&opts.json, "json", false, "print matching rows as JSON")
	return cmd
}

func (a *app) runQuery(out io.Writer, kind, value string, opts queryOptions) error {
	s := a.store()
	backlog, err := s.Backlog()
	if err != nil {
		return err
	}
	items := backlog.Rows

	switch kind {
	case "stats":
		sprints, err := optional(s.Sprints())
		if err != nil {
			return err
		}
		st := query.Statistics(items, sprints.Rows)
		if opts.json {
			return writeJSON(out, st)
		}
		printStats(out, st)
		return nil
	case "open":
		return printItems(out, query.Select(items, query.Open()), opts)
	case "ready":
		ready := query.Ready(items)
		if opts.json {
			return writeJSON(out, rows(ready))
		}
		fmt.Fprintf(out, "Ready for sprint planning (%d items, sorted by priority):\n\n", len(ready))
		for _, r := range ready {
			fmt.Fprintf(out, "[%-8s] %s: %s\n", strings.ToUpper(r.Priority()), r.ID(), r.Title())
		}
		return nil
	}

	var filter query.Filter
	switch kind {
	case "status":
		filter = query.Status(value)
	case "priority":
		filter = query.Priority(value)
	case "type":
		filter = query.Type(value)
	case "area":
		filter = query.Area(value)
	case "sprint":
		filter = query.Sprint(value)
	case "search":
		filter = query.Title(value)
	default:
		return usageErr("unknown query type: %s (want one of %s)", kind, strings.Join(queryKinds, ", "))
	}
	if value == "" {
		return &ExitError{Code: 1, Err: fmt.Errorf("%s query requires a value", kind)}
	}

	filters := []query.Filter{filter}
	switch kind {
	case "priority", "type", "area":
		if opts.status != "" {
			filters = append(filters, query.Status(opts.status))
		}
	}
	return printItems(out, query.Select(items, filters...), opts)
}

func optional(t *csvstore.Table, err error) (*csvstore.Table, error) {
	if isNotExist(err) {
		return csvstore.NewTable(), nil
	}
	return t, err
}

func rows(rs []model.Record) []model.Record {
	if rs == nil {
		return []model.Record{}
	}
	return rs
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printItems(out io.Writer, items []model.Record, opts queryOptions) error {
	if opts.json {
		return writeJSON(out, rows(items))
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No items found.")
		return nil
	}
	fmt.Fprintf(out, "Found %d item(s):\n\n", len(items))
	for _, r := range items {
		fmt.Fprintf(out, "%s: %s\n", r.ID(), r.Title())
		if opts.verbose {
			fmt.Fprintf(out, "  Status: %s | Priority: %s | Sprint: %s\n",
				r.GetOr("status", "-"), r.GetOr("priority", "-"), r.GetOr("sprint", "-"))
		}
	}
	fmt.Fprintln(out)
	return nil
}

func printStats(out io.Writer, st query.Stats) {
	fmt.Fprintln(out, "Backlog Statistics")
	fmt.Fprintln(out, strings.Repeat("=", 40))
	fmt.Fprintf(out, "Total items: %d\n", st.TotalItems)
	fmt.Fprintf(out, "Total sprints: %d\n\n", st.TotalSprints)

	section := func(title string, m map[string]int) {
		fmt.Fprintf(out, "%s:\n", title)
		for _, c := range query.Sorted(m) {
			fmt.Fprintf(out, "  %s: %d\n", c.Key, c.Count)
		}
		fmt.Fprintln(out)
	}
	section("By Status", st.ByStatus)
	section("By Priority", st.ByPriority)
	section("By Type", st.ByType)
	section("By Area", st.ByArea)
	section("Sprints by Status", st.SprintsByStatus)
}
