package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

// Filter selects entries. Zero fields match everything.
type Filter struct {
	Task       string
	TaskPrefix string
	AgentType  string
	SessionID  string
	AgentID    string
	// Since and Until are YYYY-MM-DD days, inclusive, in UTC.
	Since string
	Until string
}

// Match reports whether e passes every set criterion. Entries whose
// timestamp does not parse are not date filtered.
func (f Filter) Match(e Entry) bool {
	switch {
	case f.Task != "" && e.TaskID != f.Task:
		return false
	case f.TaskPrefix != "" && !strings.HasPrefix(e.TaskID, f.TaskPrefix):
		return false
	case f.AgentType != "" && e.AgentType != f.AgentType:
		return false
	case f.SessionID != "" && e.SessionID != f.SessionID:
		return false
	case f.AgentID != "" && e.AgentID != f.AgentID:
		return false
	}
	if e.Timestamp == "" || (f.Since == "" && f.Until == "") {
		return true
	}
	ts, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return true
	}
	if f.Since != "" {
		if since, err := time.Parse(time.RFC3339, f.Since+"T00:00:00Z"); err == nil && ts.Before(since) {
			return false
		}
	}
	if f.Until != "" {
		if until, err := time.Parse(time.RFC3339, f.Until+"T23:59:59Z"); err == nil && ts.After(until) {
			return false
		}
	}
	return true
}

// Select returns the entries matching f.
func Select(entries []Entry, f Filter) []Entry {
	var out []Entry
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// SelectRows returns a table with t's header and the rows matching f.
// Cells are kept as stored.
func SelectRows(t *csvstore.Table, f Filter) *csvstore.Table {
	out := csvstore.NewTable(t.Header...)
	for _, r := range t.Rows {
		if f.Match(FromRecord(r)) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// WriteCSV writes the table verbatim, extra columns included.
func WriteCSV(w io.Writer, t *csvstore.Table) error {
	return csvstore.Write(w, t)
}

// WriteJSON writes entries as an indented array with numeric token fields.
func WriteJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// TypeSummary is the per agent type line of the summary.
type TypeSummary struct {
	AgentType string
	Entries   int
	Tokens    int
}

// Summarize groups entries by agent type, sorted by type. Empty types are
// reported as "unknown".
func Summarize(entries []Entry) []TypeSummary {
	by := map[string]*TypeSummary{}
	for _, e := range entries {
		t := e.AgentType
		if t == "" {
			t = "unknown"
		}
		s, ok := by[t]
		if !ok {
			s = &TypeSummary{AgentType: t}
			by[t] = s
		}
		s.Entries++
		s.Tokens += e.TotalTokens
	}
	out := make([]TypeSummary, 0, len(by))
	for _, s := range by {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentType < out[j].AgentType })
	return out
}

// WriteSummary prints the per type table followed by a TOTAL line.
func WriteSummary(w io.Writer, entries []Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No metrics logged yet.")
		return
	}
	rule := strings.Repeat("-", 40)
	fmt.Fprintf(w, "\nMetrics Summary (%d entries)\n%s\n", len(entries), rule)
	total := 0
	for _, s := range Summarize(entries) {
		fmt.Fprintf(w, "  %-12s %4d entries  %12s tokens\n", s.AgentType, s.Entries, humanize.Comma(int64(s.Tokens)))
		total += s.Tokens
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %-12s %4d entries  %12s tokens\n", "TOTAL", len(entries), humanize.Comma(int64(total)))
}

// WriteLogged echoes a freshly logged entry.
func WriteLogged(w io.Writer, e Entry) {
	orNone := func(s string) string {
		if s == "" {
			return "(none)"
		}
		return s
	}
	fmt.Fprintf(w, "Logged metrics for %s\n", e.AgentType)
	fmt.Fprintf(w, "  Task: %s\n", orNone(e.TaskID))
	fmt.Fprintf(w, "  Description: %s\n", orNone(e.Description))
	fmt.Fprintf(w, "  Tokens: %s total (%s in, %s out)\n",
		humanize.Comma(int64(e.TotalTokens)), humanize.Comma(int64(e.InputTokens)), humanize.Comma(int64(e.OutputTokens)))
	if e.DurationSecs > 0 {
		fmt.Fprintf(w, "  Duration: %ds\n", e.DurationSecs)
	}
}
