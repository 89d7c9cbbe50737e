package model

import (
	"slices"
	"strings"
)

// Allowed values, compared after Normalize.
var (
	Types      = []string{"bug", "feature", "chore", "refactor", "test", "docs"}
	Areas      = []string{"ui", "electron", "infra", "service", "security", "schema", "ipc"}
	Priorities = []string{"critical", "high", "medium", "low"}

	// "needs feature" is a legacy value still present in older rows.
	Statuses = []string{
		"pending", "in-progress", "in progress", "completed", "blocked", "deferred",
		"obsolete", "reopened", "testing", "needs feature",
	}

	SprintStatuses = []string{"planning", "planned", "active", "complete", "completed", "deprecated"}
)

// Canonical spellings written by the sync tool and the browser.
var (
	CanonicalStatuses = []string{
		"Pending", "In Progress", "Implemented", "Testing",
		"Completed", "Blocked", "Deferred", "Obsolete",
	}
	CanonicalPriorities = []string{"Critical", "High", "Medium", "Low"}
)

// Normalize lowercases, trims and strips markdown emphasis so "**High**"
// and "high" compare equal.
func Normalize(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.ReplaceAll(v, "*", "")
	return strings.ReplaceAll(v, "_", "")
}

// OneOf reports whether the normalized value is in the allowed set.
func OneOf(set []string, v string) bool {
	return slices.Contains(set, Normalize(v))
}

// Canonical returns the canonical spelling of v from set using a
// case-insensitive match.
func Canonical(set []string, v string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, c := range set {
		if strings.EqualFold(c, v) {
			return c, true
		}
	}
	return "", false
}

// PriorityRank orders priorities for planning; unknown values sort last.
func PriorityRank(p string) int {
	switch Normalize(p) {
	case "critical":
		return 0
	case "high":
		return 1
	case "medium":
		return 2
	case "low":
		return 3
	}
	return 99
}
