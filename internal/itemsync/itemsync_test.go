package itemsync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

var fixedNow = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

func writeItem(t *testing.T, dir, id, body string) string {
	t.Helper()
	p := filepath.Join(dir, id+".md")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestExtractMetadata(t *testing.T) {
	dir := t.TempDir()
	p := writeItem(t, dir, "BACKLOG-010", "# BACKLOG-010: Sync duplicates\n\n"+
		"**Priority**: high\n**Status**: In Progress\n**Category**: Bug/Data\n"+
		"**Sprint**: sprint-042\n**Estimate**: ~25K\n")

	row, err := ExtractMetadata(p, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "BACKLOG-010", row.ID())
	assert.Equal(t, "Sync duplicates", row.Title())
	assert.Equal(t, "High", row.Priority())
	assert.Equal(t, "In Progress", row.Status())
	assert.Equal(t, "bug", row.Get("category"))
	assert.Equal(t, "SPRINT-042", row.Sprint())
	assert.Equal(t, "~25K", row.Get("est_tokens"))
	assert.Equal(t, "2026-03-09", row.Get("created_at"))
	assert.Equal(t, "[BACKLOG-010.md](items/BACKLOG-010.md)", row.Get("file"))
}

func TestExtractMetadataDefaults(t *testing.T) {
	dir := t.TempDir()
	p := writeItem(t, dir, "BACKLOG-011", "# Untitled idea\n\n**Priority**: Whenever\n")

	row, err := ExtractMetadata(p, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Untitled idea", row.Title())
	assert.Equal(t, "Medium", row.Priority())
	assert.Equal(t, "Pending", row.Status())
	assert.Equal(t, "feature", row.Get("category"))
	assert.Equal(t, "-", row.Sprint())
}

func TestCheckAndFix(t *testing.T) {
	items := t.TempDir()
	writeItem(t, items, "BACKLOG-002", "# BACKLOG-002: Two\n")
	writeItem(t, items, "BACKLOG-010", "# BACKLOG-010: Ten\n")
	writeItem(t, items, "BACKLOG-001", "# BACKLOG-001: One\n")

	tbl, err := csvstore.Read(strings.NewReader("id,title,type,status\nBACKLOG-010,Ten,bug,Completed\nBACKLOG-005,Five,chore,done\n"))
	require.NoError(t, err)

	res, err := Check(tbl, items)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CSVCount)
	assert.Equal(t, 3, res.MDCount)
	assert.Equal(t, []string{"BACKLOG-001", "BACKLOG-002"}, res.MissingFromCSV)
	assert.Equal(t, []string{"BACKLOG-005"}, res.OrphanedInCSV)
	assert.Equal(t, []StatusIssue{{ID: "BACKLOG-005", Status: "done"}}, res.InvalidStatuses)
	assert.False(t, res.InSync())

	fixed, added, err := Fix(tbl, items, res.MissingFromCSV, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	var ids []string
	for _, r := range fixed.Rows {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{"BACKLOG-001", "BACKLOG-002", "BACKLOG-005", "BACKLOG-010"}, ids)
	assert.True(t, fixed.HasColumn("type"), "existing columns survive")
	assert.True(t, fixed.HasColumn("est_tokens"))

	res, err = Check(fixed, items)
	require.NoError(t, err)
	assert.Empty(t, res.MissingFromCSV)
}

func TestCheckWithoutCSV(t *testing.T) {
	items := t.TempDir()
	writeItem(t, items, "BACKLOG-001", "# BACKLOG-001: One\n")

	res, err := Check(nil, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"BACKLOG-001"}, res.MissingFromCSV)

	fixed, added, err := Fix(nil, items, res.MissingFromCSV, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, Columns, fixed.Header)
}

func TestFixSkipsCategoryOnMigratedTable(t *testing.T) {
	items := t.TempDir()
	writeItem(t, items, "BACKLOG-002", "# BACKLOG-002: Two\n")

	tbl := csvstore.NewTable("id", "title", "type", "area", "priority", "status", "sprint")
	fixed, added, err := Fix(tbl, items, []string{"BACKLOG-002"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.False(t, fixed.HasColumn("category"))
	assert.True(t, fixed.HasColumn("created_at"))
}
