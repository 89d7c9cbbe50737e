// Package query selects and counts backlog rows.
package query

import (
	"sort"
	"strings"

	"github.com/idilsaglam/backlog/internal/model"
)

// Filter keeps rows for which it returns true.
type Filter func(model.Record) bool

// Field matches rows whose normalized column equals the normalized value.
func Field(col, value string) Filter {
	want := model.Normalize(value)
	return func(r model.Record) bool {
		return model.Normalize(r.Get(col)) == want
	}
}

// Status, Priority, Type, Area and Sprint are Field shorthands.
func Status(v string) Filter   { return Field("status", v) }
func Priority(v string) Filter { return Field("priority", v) }
func Type(v string) Filter     { return Field("type", v) }
func Area(v string) Filter     { return Field("area", v) }
func Sprint(v string) Filter   { return Field("sprint", v) }

// Title matches a case-insensitive substring of the title.
func Title(q string) Filter {
	q = strings.ToLower(q)
	return func(r model.Record) bool {
		return strings.Contains(strings.ToLower(r.Title()), q)
	}
}

// Open matches items that are neither completed nor obsolete.
func Open() Filter {
	return func(r model.Record) bool { return r.IsOpen() }
}

// Select returns the rows matching every filter, in input order.
func Select(rows []model.Record, filters ...Filter) []model.Record {
	var out []model.Record
next:
	for _, r := range rows {
		for _, f := range filters {
			if !f(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

// Ready returns pending items with no sprint, highest priority first.
// Items of equal priority keep their backlog order.
func Ready(rows []model.Record) []model.Record {
	items := Select(rows, Status("pending"), func(r model.Record) bool {
		return model.Normalize(r.Sprint()) == "" || model.Normalize(r.Sprint()) == "-"
	})
	sort.SliceStable(items, func(i, j int) bool {
		return model.PriorityRank(items[i].Priority()) < model.PriorityRank(items[j].Priority())
	})
	return items
}

// Count is one bucket of a breakdown.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Counts tallies the normalized value of col. Empty values count as "unknown".
func Counts(rows []model.Record, col string) map[string]int {
	out := make(map[string]int)
	for _, r := range rows {
		k := model.Normalize(r.Get(col))
		if k == "" {
			k = "unknown"
		}
		out[k]++
	}
	return out
}

// Sorted orders a breakdown by count, largest first, ties by key.
func Sorted(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Stats summarises the backlog and its sprints.
type Stats struct {
	TotalItems      int            `json:"total_items"`
	TotalSprints    int            `json:"total_sprints"`
	ByStatus        map[string]int `json:"by_status"`
	ByPriority      map[string]int `json:"by_priority"`
	ByType          map[string]int `json:"by_type"`
	ByArea          map[string]int `json:"by_area"`
	SprintsByStatus map[string]int `json:"sprints_by_status"`
}

// Statistics counts items by status, priority, type and area, and sprints by status.
func Statistics(items, sprints []model.Record) Stats {
	return Stats{
		TotalItems:      len(items),
		TotalSprints:    len(sprints),
		ByStatus:        Counts(items, "status"),
		ByPriority:      Counts(items, "priority"),
		ByType:          Counts(items, "type"),
		ByArea:          Counts(items, "area"),
		SprintsByStatus: Counts(sprints, "status"),
	}
}
