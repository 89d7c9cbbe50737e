// Package validate checks the backlog tables for schema and enum problems
// before they are merged.
package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

// FileResult holds the issues found in one table.
type FileResult struct {
	Name   string
	Issues []string
}

// Report is the outcome of a full run.
type Report struct {
	Files []FileResult
}

// Issues returns every issue across all files, in file order.
func (r Report) Issues() []string {
	var out []string
	for _, f := range r.Files {
		out = append(out, f.Issues...)
	}
	return out
}

// OK reports whether nothing was found.
func (r Report) OK() bool { return len(r.Issues()) == 0 }

// Run validates backlog.csv, sprints.csv and the optional changelog.csv.
func Run(s *csvstore.Store) (Report, error) {
	var rep Report

	backlog, err := s.Backlog()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		rep.Files = append(rep.Files, missing(csvstore.BacklogFile, s))
	case err != nil:
		return rep, err
	default:
		rep.Files = append(rep.Files, FileResult{Name: csvstore.BacklogFile, Issues: Backlog(backlog)})
	}

	sprints, err := s.Sprints()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		rep.Files = append(rep.Files, missing(csvstore.SprintsFile, s))
	case err != nil:
		return rep, err
	default:
		rep.Files = append(rep.Files, FileResult{Name: csvstore.SprintsFile, Issues: Sprints(sprints)})
	}

	changelog, err := s.Changelog()
	if err != nil {
		return rep, err
	}
	rep.Files = append(rep.Files, FileResult{Name: csvstore.ChangelogFile, Issues: Changelog(changelog)})
	return rep, nil
}

func missing(name string, s *csvstore.Store) FileResult {
	return FileResult{Name: name, Issues: []string{"Missing file: " + s.Path(name)}}
}

// Backlog checks required fields, enum columns and ID uniqueness.
// Empty cells and "-" are accepted for enum columns.
func Backlog(t *csvstore.Table) []string {
	var issues []string
	seen := make(map[string]int)
	for i, row := range t.Rows {
		line := i + 2
		id := row.ID()
		label := id
		if id == "" {
			label = fmt.Sprintf("row-%d", line)
			issues = append(issues, fmt.Sprintf("Line %d: Missing id", line))
		} else if first, dup := seen[id]; dup {
			issues = append(issues, fmt.Sprintf("%s: Duplicate id (lines %d, %d)", id, first, line))
		} else {
			seen[id] = line
		}
		if row.Title() == "" {
			issues = append(issues, label+": Missing title")
		}
		issues = appendEnum(issues, label, "type", row.Type(), model.Types)
		issues = appendEnum(issues, label, "area", row.Area(), model.Areas)
		issues = appendEnum(issues, label, "priority", row.Priority(), model.Priorities)
		issues = appendEnum(issues, label, "status", row.Status(), model.Statuses)
	}
	return issues
}

func appendEnum(issues []string, label, field, value string, set []string) []string {
	v := strings.TrimSpace(value)
	if v == "" || v == "-" || model.OneOf(set, v) {
		return issues
	}
	return append(issues, fmt.Sprintf("%s: Invalid %s '%s'", label, field, v))
}

// Sprints checks sprint statuses.
func Sprints(t *csvstore.Table) []string {
	var issues []string
	for i, row := range t.Rows {
		id := row.Get("sprint_id")
		if id == "" {
			id = fmt.Sprintf("row-%d", i+2)
		}
		status := strings.TrimSpace(row.Status())
		if status != "" && !model.OneOf(model.SprintStatuses, status) {
			issues = append(issues, fmt.Sprintf("%s: Invalid status '%s'", id, status))
		}
	}
	return issues
}

// Changelog checks that dates look like YYYY-MM-DD.
func Changelog(t *csvstore.Table) []string {
	var issues []string
	for i, row := range t.Rows {
		date := row.Get("date")
		if date != "" && len([]rune(date)) != 10 {
			issues = append(issues, fmt.Sprintf("Changelog line %d: Invalid date format '%s' (expected YYYY-MM-DD)", i+2, date))
		}
	}
	return issues
}
