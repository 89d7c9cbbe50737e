package model

import (
	"regexp"
	"strconv"
	"strings"
)

// Record is one CSV row keyed by column name. Columns the tools do not know
// about are carried along untouched so a load/save keeps them.
type Record map[string]string

// Get returns the value for a column, or "" when the column is absent.
func (r Record) Get(col string) string { return r[col] }

// GetOr returns the value for a column, or def when the column is absent.
// A present-but-empty value is returned as-is.
func (r Record) GetOr(col, def string) string {
	if v, ok := r[col]; ok {
		return v
	}
	return def
}

// Backlog item accessors.
func (r Record) ID() string       { return r["id"] }
func (r Record) Title() string    { return r["title"] }
func (r Record) Status() string   { return r["status"] }
func (r Record) Priority() string { return r["priority"] }
func (r Record) Sprint() string   { return r["sprint"] }
func (r Record) Type() string     { return r["type"] }
func (r Record) Area() string     { return r["area"] }

// Category returns the legacy category column, falling back to type for
// backlogs that already went through the type/area migration.
func (r Record) Category() string {
	if v, ok := r["category"]; ok {
		return v
	}
	return r["type"]
}

// IsOpen reports whether the item still needs work.
func (r Record) IsOpen() bool {
	switch Normalize(r.Status()) {
	case "completed", "obsolete":
		return false
	}
	return true
}

// Unassigned reports whether the item is not scheduled into any sprint.
func (r Record) Unassigned() bool {
	return IsBlank(r.Sprint())
}

// IsBlank reports whether a cell is empty or holds the "-" placeholder.
func IsBlank(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "-"
}

var digits = regexp.MustCompile(`\d+`)

// ItemNumber extracts the first run of digits from an ID such as BACKLOG-042.
// IDs without digits sort as 0.
func ItemNumber(id string) int {
	m := digits.FindString(id)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
