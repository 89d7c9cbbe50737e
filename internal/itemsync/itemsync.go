// Package itemsync keeps backlog.csv in step with the BACKLOG-*.md detail
// files: it reports drift and can add rows for files the CSV is missing.
package itemsync

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/idilsaglam/backlog/internal/markdown"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

// Columns is the row layout used when rows are added from markdown.
var Columns = []string{
	"id", "title", "category", "priority", "status", "sprint",
	"est_tokens", "actual_tokens", "variance", "created_at",
	"completed_at", "file",
}

// StatusIssue is a CSV row whose status is not a canonical value.
type StatusIssue struct {
	ID     string
	Status string
}

// Result describes how far the CSV and the item files have drifted.
type Result struct {
	CSVCount        int
	MDCount         int
	MissingFromCSV  []string
	OrphanedInCSV   []string
	InvalidStatuses []StatusIssue
}

// InSync reports whether every item file has a row and every status is
// canonical. Orphaned rows are allowed: many items never get a file.
func (r Result) InSync() bool {
	return len(r.MissingFromCSV) == 0 && len(r.InvalidStatuses) == 0
}

// ItemFiles lists BACKLOG-*.md files in dir, sorted by name.
func ItemFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "BACKLOG-*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Check compares the backlog table with the item files in itemsDir.
// A nil table is treated as an empty CSV.
func Check(backlog *csvstore.Table, itemsDir string) (Result, error) {
	files, err := ItemFiles(itemsDir)
	if err != nil {
		return Result{}, fmt.Errorf("list items: %w", err)
	}

	csvIDs := make(map[string]bool)
	var res Result
	if backlog != nil {
		for _, row := range backlog.Rows {
			id := row.ID()
			if csvIDs[id] {
				continue
			}
			csvIDs[id] = true
			if s := row.Status(); s != "" && !slices.Contains(model.CanonicalStatuses, s) {
				res.InvalidStatuses = append(res.InvalidStatuses, StatusIssue{ID: id, Status: s})
			}
		}
	}

	mdIDs := make(map[string]bool, len(files))
	for _, f := range files {
		mdIDs[stem(f)] = true
	}

	for id := range mdIDs {
		if !csvIDs[id] {
			res.MissingFromCSV = append(res.MissingFromCSV, id)
		}
	}
	for id := range csvIDs {
		if !mdIDs[id] {
			res.OrphanedInCSV = append(res.OrphanedInCSV, id)
		}
	}
	sort.Strings(res.MissingFromCSV)
	sort.Strings(res.OrphanedInCSV)
	res.CSVCount = len(csvIDs)
	res.MDCount = len(mdIDs)
	return res, nil
}

// ExtractMetadata builds a backlog row from an item file. Values found in the
// file replace the defaults only when they are recognised.
func ExtractMetadata(path string, now time.Time) (model.Record, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item: %w", err)
	}
	name := filepath.Base(path)
	row := model.Record{
		"id":            stem(path),
		"title":         "",
		"category":      "feature",
		"priority":      "Medium",
		"status":        "Pending",
		"sprint":        "-",
		"est_tokens":    "-",
		"actual_tokens": "-",
		"variance":      "-",
		"created_at":    now.Format(time.DateOnly),
		"completed_at":  "",
		"file":          fmt.Sprintf("[%s](items/%s)", name, name),
	}

	doc := markdown.Parse(src)
	row["title"] = doc.Title()

	if p, ok := model.Canonical(model.CanonicalPriorities, doc.Word("Priority")); ok {
		row["priority"] = p
	}
	if c := doc.Field("Category"); c != "" {
		c = strings.ToLower(c)
		row["category"] = strings.TrimSpace(strings.SplitN(c, "/", 2)[0])
	}
	// Multi-word statuses ("In Progress") need the whole field; fall back to
	// the first word for lines like "Completed (PR #12)".
	if s, ok := model.Canonical(model.CanonicalStatuses, doc.Field("Status")); ok {
		row["status"] = s
	} else if s, ok := model.Canonical(model.CanonicalStatuses, doc.Word("Status")); ok {
		row["status"] = s
	}
	if s := doc.Match("Sprint", `SPRINT-\d+|-`); s != "" {
		row["sprint"] = strings.ToUpper(s)
	}
	if e := doc.Field("Estimate"); e != "" {
		row["est_tokens"] = e
	}
	return row, nil
}

// Fix adds a row for every missing ID that has an item file and returns the
// table sorted by item number. Existing columns are kept; any of Columns the
// table lacks are appended, except category once type and area replaced it.
func Fix(backlog *csvstore.Table, itemsDir string, missing []string, now time.Time) (*csvstore.Table, int, error) {
	if backlog == nil {
		backlog = csvstore.NewTable(Columns...)
	}
	migrated := backlog.HasColumn("type") && backlog.HasColumn("area")
	for _, col := range Columns {
		if col == "category" && migrated {
			continue
		}
		if !backlog.HasColumn(col) {
			backlog.Header = append(backlog.Header, col)
		}
	}

	added := 0
	for _, id := range missing {
		path := filepath.Join(itemsDir, id+".md")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		row, err := ExtractMetadata(path, now)
		if err != nil {
			return nil, added, err
		}
		backlog.Rows = append(backlog.Rows, row)
		added++
	}

	sort.SliceStable(backlog.Rows, func(i, j int) bool {
		return model.ItemNumber(backlog.Rows[i].ID()) < model.ItemNumber(backlog.Rows[j].ID())
	})
	return backlog, added, nil
}
