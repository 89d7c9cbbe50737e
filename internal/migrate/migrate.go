// Package migrate splits the legacy category column into type and area.
// Propose builds a review sheet; Apply writes the reviewed values back.
package migrate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

// Confidence of a proposal.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	}
	return "low"
}

// ParseConfidence reads the review sheet's confidence column.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return High
	case "medium":
		return Medium
	}
	return Low
}

var categoryType = map[string]string{
	"bug":            "bug",
	"bugfix":         "bug",
	"bug fix":        "bug",
	"fix":            "bug",
	"ux-bug":         "bug",
	"feature":        "feature",
	"enhancement":    "feature",
	"refactor":       "refactor",
	"refactoring":    "refactor",
	"tech-debt":      "refactor",
	"technical debt": "refactor",
	"cleanup":        "chore",
	"config":         "chore",
	"test":           "test",
	"testing":        "test",
	"qa":             "test",
	"docs":           "docs",
	"infra":          "chore",
	"infrastructure": "chore",
	"security":       "bug",
	"schema":         "chore",
	"service":        "feature",
	"ui":             "feature",
	"ux":             "feature",
	"ux redesign":    "feature",
	"performance":    "refactor",
	"optimization":   "refactor",
	"architecture":   "refactor",
	"auth":           "feature",
	"data":           "chore",
	"data integrity": "bug",
	"type-safety":    "refactor",
}

var categoryArea = map[string]string{
	"ui":             "ui",
	"ux":             "ui",
	"ux redesign":    "ui",
	"ux-bug":         "ui",
	"infra":          "infra",
	"infrastructure": "infra",
	"config":         "infra",
	"security":       "security",
	"schema":         "schema",
	"ipc":            "ipc",
	"auth":           "service",
}

var titleArea = []struct {
	re   *regexp.Regexp
	area string
}{
	{regexp.MustCompile(`(?i)\b(electron|main process|preload|native|sqlite|ipc|better-sqlite)\b`), "electron"},
	{regexp.MustCompile(`(?i)\b(ui|button|modal|dialog|screen|page|component|css|style|layout|theme|dark mode|responsive)\b`), "ui"},
	{regexp.MustCompile(`(?i)\b(ci|cd|pipeline|build|deploy|vercel|github action|eslint|lint|jest|coverage|webpack|vite)\b`), "infra"},
	{regexp.MustCompile(`(?i)\b(security|auth|encrypt|token|session|jwt|oauth|safeStorage|keychain|credential)\b`), "security"},
	{regexp.MustCompile(`(?i)\b(schema|migration|table|column|index|database|db|supabase|rls|row level)\b`), "schema"},
	{regexp.MustCompile(`(?i)\b(ipc|handler|bridge|preload|channel)\b`), "ipc"},
	{regexp.MustCompile(`(?i)\b(api|service|sync|graph|gmail|import|export|contact|email|message|attachment)\b`), "service"},
}

var titleType = []struct {
	words []string
	typ   string
}{
	{[]string{"fix", "bug", "broken", "crash", "error", "fail"}, "bug"},
	{[]string{"add", "new", "create", "implement", "support"}, "feature"},
	{[]string{"refactor", "extract", "move", "rename", "split", "consolidate"}, "refactor"},
	{[]string{"test", "coverage", "spec"}, "test"},
	{[]string{"doc", "readme", "comment"}, "docs"},
}

// ProposeType maps a category, falling back to title keywords.
func ProposeType(category, title string) (string, Confidence) {
	if t, ok := categoryType[strings.ToLower(strings.TrimSpace(category))]; ok {
		return t, High
	}
	lower := strings.ToLower(title)
	for _, tt := range titleType {
		for _, w := range tt.words {
			if strings.Contains(lower, w) {
				return tt.typ, Medium
			}
		}
	}
	return "chore", Low
}

// ProposeArea maps a category, falling back to title patterns and then to
// service.
func ProposeArea(category, title string) (string, Confidence) {
	cat := strings.ToLower(strings.TrimSpace(category))
	if a, ok := categoryArea[cat]; ok {
		return a, High
	}
	for _, p := range titleArea {
		if p.re.MatchString(title) {
			return p.area, Medium
		}
	}
	switch cat {
	case "service", "auth", "data", "data integrity":
		return "service", Medium
	}
	return "service", Low
}

// ReviewHeader is the column layout of the review sheet.
var ReviewHeader = []string{
	"id", "title", "status", "old_category",
	"proposed_type", "proposed_area", "confidence",
	"final_type", "final_area", "notes",
}

// Stats counts proposals per confidence.
type Stats map[Confidence]int

// Propose builds the review sheet for every backlog item, least confident
// first.
func Propose(backlog *csvstore.Table) (*csvstore.Table, Stats) {
	out := csvstore.NewTable(ReviewHeader...)
	stats := Stats{}
	for _, item := range backlog.Rows {
		cat := item.Get("category")
		typ, tc := ProposeType(cat, item.Title())
		area, ac := ProposeArea(cat, item.Title())
		conf := min(tc, ac)
		stats[conf]++
		out.Rows = append(out.Rows, model.Record{
			"id":            item.ID(),
			"title":         item.Title(),
			"status":        item.Status(),
			"old_category":  cat,
			"proposed_type": typ,
			"proposed_area": area,
			"confidence":    conf.String(),
			"final_type":    "",
			"final_area":    "",
			"notes":         "",
		})
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		ci, cj := ParseConfidence(out.Rows[i]["confidence"]), ParseConfidence(out.Rows[j]["confidence"])
		if ci != cj {
			return ci < cj
		}
		return out.Rows[i].ID() < out.Rows[j].ID()
	})
	return out, stats
}

// Result summarises Apply.
type Result struct {
	Applied int
	Total   int
	Issues  []string
}

// Apply rewrites backlog in place: category is replaced by type and area,
// taken from the review's final values or else its proposals. Items missing
// from the review keep their category as type with area service. Items whose
// reviewed values are invalid are reported and left without type or area.
func Apply(backlog, review *csvstore.Table) Result {
	reviews := make(map[string]model.Record, len(review.Rows))
	for _, r := range review.Rows {
		reviews[r.ID()] = r
	}

	if !backlog.HasColumn("type") || !backlog.HasColumn("area") {
		backlog.Replace("category", "type", "area")
	}
	backlog.Drop("category")

	res := Result{Total: len(backlog.Rows)}
	for _, item := range backlog.Rows {
		id := item.ID()
		r, ok := reviews[id]
		if !ok {
			res.Issues = append(res.Issues, fmt.Sprintf("%s: not found in review CSV, keeping old category as-is", id))
			item["type"] = item.GetOr("category", "chore")
			item["area"] = "service"
			continue
		}
		typ := firstNonEmpty(r.Get("final_type"), r.Get("proposed_type"))
		area := firstNonEmpty(r.Get("final_area"), r.Get("proposed_area"))
		if !model.OneOf(model.Types, typ) {
			res.Issues = append(res.Issues, fmt.Sprintf("%s: invalid type '%s'", id, typ))
			continue
		}
		if !model.OneOf(model.Areas, area) {
			res.Issues = append(res.Issues, fmt.Sprintf("%s: invalid area '%s'", id, area))
			continue
		}
		item["type"], item["area"] = model.Normalize(typ), model.Normalize(area)
		res.Applied++
	}
	return res
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
