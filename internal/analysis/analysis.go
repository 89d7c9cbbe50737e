// Package analysis builds the backlog health report: breakdowns, effort
// estimates, sprint health and the items that need attention.
package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/query"
)

// ParseTokens turns an estimate such as "~30K", "1.2M" or "800-1.1M" into a
// token count. Ranges use their lower bound; anything unparsable is 0.
func ParseTokens(v string) int {
	v = strings.TrimSpace(v)
	if v == "" || v == "-" {
		return 0
	}
	v = strings.ReplaceAll(v, "~", "")
	v = strings.ReplaceAll(v, ",", "")
	v = strings.ToUpper(strings.TrimSpace(v))

	if strings.Contains(v, "-") && !strings.HasPrefix(v, "-") {
		v = strings.SplitN(v, "-", 2)[0]
	}

	mult := 1.0
	switch {
	case strings.Contains(v, "K"):
		v, mult = strings.ReplaceAll(v, "K", ""), 1e3
	case strings.Contains(v, "M"):
		v, mult = strings.ReplaceAll(v, "M", ""), 1e6
	default:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return int(f * mult)
}

// Effort bucket labels, in report order.
const (
	BucketSmall  = "small (<20K)"
	BucketMedium = "medium (20-50K)"
	BucketLarge  = "large (50-100K)"
	BucketXLarge = "xlarge (>100K)"
)

// Buckets lists the effort buckets in display order.
var Buckets = []string{BucketSmall, BucketMedium, BucketLarge, BucketXLarge}

func bucket(tokens int) string {
	switch {
	case tokens < 20_000:
		return BucketSmall
	case tokens < 50_000:
		return BucketMedium
	case tokens < 100_000:
		return BucketLarge
	}
	return BucketXLarge
}

// Ref is a short reference to an item in an attention list.
type Ref struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority string `json:"priority,omitempty"`
}

// Activity is a changelog line in the recent activity list.
type Activity struct {
	Date    string `json:"date"`
	Details string `json:"details"`
}

type Summary struct {
	TotalItems     int `json:"total_items"`
	OpenItems      int `json:"open_items"`
	CompletedItems int `json:"completed_items"`
	ObsoleteItems  int `json:"obsolete_items"`
}

type Breakdown struct {
	All      map[string]int `json:"all"`
	OpenOnly map[string]int `json:"open_only"`
}

type Effort struct {
	ItemsWithEstimates    int            `json:"items_with_estimates"`
	ItemsWithoutEstimates int            `json:"items_without_estimates"`
	TotalEstimatedTokens  int            `json:"total_estimated_tokens"`
	TotalEstimatedText    string         `json:"total_estimated_tokens_formatted"`
	Buckets               map[string]int `json:"effort_buckets"`
}

type SprintHealth struct {
	TotalSprints    int            `json:"total_sprints"`
	SprintStatuses  map[string]int `json:"sprint_statuses"`
	ActiveSprints   []string       `json:"active_sprints"`
	ItemsInSprints  int            `json:"items_in_sprints"`
	ItemsUnassigned int            `json:"items_unassigned"`
}

type Attention struct {
	HighPriorityUnassigned      []Ref `json:"high_priority_unassigned"`
	HighPriorityUnassignedCount int   `json:"high_priority_unassigned_count"`
	Blocked                     []Ref `json:"blocked_items"`
	Testing                     []Ref `json:"testing_items"`
	Reopened                    []Ref `json:"reopened_items"`
}

type Velocity struct {
	ItemsWithActuals  int    `json:"items_with_actuals"`
	TotalActualTokens int    `json:"total_actual_tokens"`
	TotalActualText   string `json:"total_actual_tokens_formatted"`
}

type Recent struct {
	Completions []Activity `json:"recent_completions"`
}

// Analysis is the full report.
type Analysis struct {
	GeneratedAt       string         `json:"generated_at"`
	Summary           Summary        `json:"summary"`
	StatusBreakdown   map[string]int `json:"status_breakdown"`
	PriorityBreakdown Breakdown      `json:"priority_breakdown"`
	CategoryBreakdown Breakdown      `json:"category_breakdown"`
	Effort            Effort         `json:"effort_analysis"`
	SprintHealth      SprintHealth   `json:"sprint_health"`
	Attention         Attention      `json:"attention_needed"`
	Velocity          Velocity       `json:"velocity"`
	Recent            Recent         `json:"recent_activity"`
}

const (
	maxTitle        = 60
	maxHighPriority = 10
	maxRecent       = 10
)

func kilo(n int) string {
	return fmt.Sprintf("%.0fK", float64(n)/1000)
}

func ref(r model.Record, withPriority bool) Ref {
	out := Ref{ID: r.ID(), Title: model.Truncate(r.Title(), maxTitle)}
	if withPriority {
		out.Priority = r.Priority()
	}
	return out
}

func refs(rows []model.Record) []Ref {
	out := make([]Ref, 0, len(rows))
	for _, r := range rows {
		out = append(out, ref(r, false))
	}
	return out
}

func categoryCounts(rows []model.Record) map[string]int {
	out := make(map[string]int)
	for _, r := range rows {
		k := model.Normalize(r.Category())
		if k == "" {
			k = "unknown"
		}
		out[k]++
	}
	return out
}

// Analyze computes the report. Cells holding "" or "-" count as unset for
// estimates, actuals and sprint assignment.
func Analyze(items, sprints, changelog []model.Record, now time.Time) Analysis {
	status := query.Counts(items, "status")
	open := query.Select(items, query.Open())

	var a Analysis
	a.GeneratedAt = now.Format(time.RFC3339)
	a.Summary = Summary{
		TotalItems:     len(items),
		OpenItems:      len(open),
		CompletedItems: status["completed"],
		ObsoleteItems:  status["obsolete"],
	}
	a.StatusBreakdown = status
	a.PriorityBreakdown = Breakdown{All: query.Counts(items, "priority"), OpenOnly: query.Counts(open, "priority")}
	a.CategoryBreakdown = Breakdown{All: categoryCounts(items), OpenOnly: categoryCounts(open)}

	a.Effort.Buckets = make(map[string]int, len(Buckets))
	for _, b := range Buckets {
		a.Effort.Buckets[b] = 0
	}
	for _, r := range open {
		est := r.Get("est_tokens")
		if model.IsBlank(est) {
			a.Effort.ItemsWithoutEstimates++
			continue
		}
		n := ParseTokens(est)
		a.Effort.ItemsWithEstimates++
		a.Effort.TotalEstimatedTokens += n
		a.Effort.Buckets[bucket(n)]++
	}
	a.Effort.TotalEstimatedText = kilo(a.Effort.TotalEstimatedTokens)

	a.SprintHealth = SprintHealth{
		TotalSprints:   len(sprints),
		SprintStatuses: query.Counts(sprints, "status"),
		ActiveSprints:  []string{},
	}
	for _, s := range sprints {
		switch model.Normalize(s.Status()) {
		case "active", "planning":
			a.SprintHealth.ActiveSprints = append(a.SprintHealth.ActiveSprints, s.Get("sprint_id"))
		}
	}

	var highUnassigned []model.Record
	for _, r := range open {
		if !r.Unassigned() {
			a.SprintHealth.ItemsInSprints++
			continue
		}
		a.SprintHealth.ItemsUnassigned++
		switch model.Normalize(r.Priority()) {
		case "critical", "high":
			highUnassigned = append(highUnassigned, r)
		}
	}

	a.Attention.HighPriorityUnassignedCount = len(highUnassigned)
	a.Attention.HighPriorityUnassigned = make([]Ref, 0, maxHighPriority)
	for i, r := range highUnassigned {
		if i == maxHighPriority {
			break
		}
		a.Attention.HighPriorityUnassigned = append(a.Attention.HighPriorityUnassigned, ref(r, true))
	}
	a.Attention.Blocked = refs(query.Select(items, query.Status("blocked")))
	a.Attention.Testing = refs(query.Select(items, query.Status("testing")))
	a.Attention.Reopened = refs(query.Select(items, query.Status("reopened")))

	for _, r := range items {
		act := r.Get("actual_tokens")
		if model.IsBlank(act) {
			continue
		}
		a.Velocity.ItemsWithActuals++
		a.Velocity.TotalActualTokens += ParseTokens(act)
	}
	a.Velocity.TotalActualText = "N/A"
	if a.Velocity.TotalActualTokens > 0 {
		a.Velocity.TotalActualText = kilo(a.Velocity.TotalActualTokens)
	}

	var done []model.Record
	for _, c := range changelog {
		switch strings.ToLower(c.Get("action")) {
		case "complete", "merge":
			done = append(done, c)
		}
	}
	if len(done) > maxRecent {
		done = done[len(done)-maxRecent:]
	}
	a.Recent.Completions = make([]Activity, 0, len(done))
	for _, c := range done {
		a.Recent.Completions = append(a.Recent.Completions, Activity{
			Date:    c.Get("date"),
			Details: model.Truncate(c.Get("details"), maxTitle),
		})
	}
	return a
}
