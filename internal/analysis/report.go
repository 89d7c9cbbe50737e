package analysis

import (
	"fmt"
	"io"
	"strings"

	"github.com/idilsaglam/backlog/internal/query"
	"github.com/idilsaglam/backlog/internal/ui"
)

var priorityOrder = []string{"critical", "high", "medium", "low"}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func bar(p float64) string {
	return strings.Repeat("█", int(p/5))
}

// WriteReport prints the full plain-text report.
func WriteReport(w io.Writer, a Analysis) {
	rule := strings.Repeat("=", 70)
	p := func(format string, args ...any) { fmt.Fprintf(w, format+"\n", args...) }

	p("%s", rule)
	p("BACKLOG ANALYSIS REPORT")
	p("Generated: %s", a.GeneratedAt)
	p("%s", rule)
	p("")

	s := a.Summary
	p("## SUMMARY")
	p("  Total Items:     %d", s.TotalItems)
	p("  Open Items:      %d", s.OpenItems)
	p("  Completed:       %d", s.CompletedItems)
	p("  Obsolete:        %d", s.ObsoleteItems)
	p("  Progress:        %s", ui.ProgressBar(s.CompletedItems, s.TotalItems-s.ObsoleteItems, 30))
	p("")

	p("## STATUS BREAKDOWN")
	for _, c := range query.Sorted(a.StatusBreakdown) {
		pc := pct(c.Count, s.TotalItems)
		p("  %-15s %4d (%5.1f%%) %s", c.Key, c.Count, pc, bar(pc))
	}
	p("")

	p("## PRIORITY BREAKDOWN (Open Items Only)")
	for _, pr := range priorityOrder {
		n := a.PriorityBreakdown.OpenOnly[pr]
		if n == 0 {
			continue
		}
		pc := pct(n, s.OpenItems)
		p("  %-15s %4d (%5.1f%%) %s", pr, n, pc, bar(pc))
	}
	p("")

	p("## CATEGORY BREAKDOWN (Open Items, Top 10)")
	for i, c := range query.Sorted(a.CategoryBreakdown.OpenOnly) {
		if i == 10 {
			break
		}
		p("  %-15s %4d (%5.1f%%)", c.Key, c.Count, pct(c.Count, s.OpenItems))
	}
	p("")

	e := a.Effort
	p("## EFFORT ANALYSIS")
	p("  Items with estimates:    %d", e.ItemsWithEstimates)
	p("  Items without estimates: %d", e.ItemsWithoutEstimates)
	p("  Total estimated effort:  %s tokens", e.TotalEstimatedText)
	p("")
	p("  Effort Distribution:")
	for _, b := range Buckets {
		if n := e.Buckets[b]; n > 0 {
			p("    %-20s %4d", b, n)
		}
	}
	p("")

	sp := a.SprintHealth
	active := strings.Join(sp.ActiveSprints, ", ")
	if active == "" {
		active = "None"
	}
	p("## SPRINT HEALTH")
	p("  Total Sprints:      %d", sp.TotalSprints)
	p("  Active Sprints:     %s", active)
	p("  Items in Sprints:   %d", sp.ItemsInSprints)
	p("  Items Unassigned:   %d", sp.ItemsUnassigned)
	p("")

	att := a.Attention
	p("## ATTENTION NEEDED")
	p("")
	if len(att.HighPriorityUnassigned) > 0 {
		p("  High Priority Unassigned (%d total):", att.HighPriorityUnassignedCount)
		for i, r := range att.HighPriorityUnassigned {
			if i == 5 {
				break
			}
			p("    [%-8s] %s: %s", r.Priority, r.ID, r.Title)
		}
		if att.HighPriorityUnassignedCount > 5 {
			p("    ... and %d more", att.HighPriorityUnassignedCount-5)
		}
		p("")
	}
	refList := func(title string, rs []Ref) {
		if len(rs) == 0 {
			return
		}
		p("  %s (%d):", title, len(rs))
		for _, r := range rs {
			p("    %s: %s", r.ID, r.Title)
		}
		p("")
	}
	refList("Blocked Items", att.Blocked)
	refList("Awaiting User Verification", att.Testing)
	refList("Reopened (Failed Testing)", att.Reopened)

	if v := a.Velocity; v.ItemsWithActuals > 0 {
		p("## VELOCITY")
		p("  Completed with tracking: %d items", v.ItemsWithActuals)
		p("  Total actual tokens:     %s", v.TotalActualText)
		p("")
	}

	p("%s", rule)
	p("END OF REPORT")
	p("%s", rule)
}

// WriteSummary prints the short form used in status lines.
func WriteSummary(w io.Writer, a Analysis) {
	s, att := a.Summary, a.Attention
	fmt.Fprintf(w, "Backlog: %d open (%d completed)\n", s.OpenItems, s.CompletedItems)
	fmt.Fprintf(w, "Priority: %d critical, %d high\n",
		a.PriorityBreakdown.OpenOnly["critical"], a.PriorityBreakdown.OpenOnly["high"])
	active := strings.Join(a.SprintHealth.ActiveSprints, ", ")
	if active == "" {
		active = "None active"
	}
	fmt.Fprintf(w, "Sprints: %s\n", active)
	if att.HighPriorityUnassignedCount > 0 {
		fmt.Fprintf(w, "⚠️  %d high-priority items unassigned\n", att.HighPriorityUnassignedCount)
	}
	if n := len(att.Blocked); n > 0 {
		fmt.Fprintf(w, "⚠️  %d blocked items\n", n)
	}
	if n := len(att.Reopened); n > 0 {
		fmt.Fprintf(w, "⚠️  %d reopened items need attention\n", n)
	}
}
