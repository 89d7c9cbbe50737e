package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/idilsaglam/backlog/internal/model"
)

var rows = []model.Record{
	{"id": "BACKLOG-001", "title": "Fix sync crash", "status": "Pending", "priority": "Low", "sprint": "-", "type": "bug", "area": "service"},
	{"id": "BACKLOG-002", "title": "Dark mode", "status": "pending", "priority": "**Critical**", "sprint": "", "type": "feature", "area": "ui"},
	{"id": "BACKLOG-003", "title": "Contact SYNC", "status": "In Progress", "priority": "High", "sprint": "SPRINT-042", "type": "bug", "area": "service"},
	{"id": "BACKLOG-004", "title": "Old idea", "status": "Obsolete", "priority": "High", "sprint": "-", "type": "chore", "area": "infra"},
	{"id": "BACKLOG-005", "title": "Schema index", "status": "Pending", "priority": "High", "sprint": "-", "type": "chore", "area": "schema"},
	{"id": "BACKLOG-006", "title": "Unranked", "status": "Pending", "priority": "", "sprint": "-"},
}

func ids(rs []model.Record) []string {
	var out []string
	for _, r := range rs {
		out = append(out, r.ID())
	}
	return out
}

func TestSelect(t *testing.T) {
	assert.Equal(t, []string{"BACKLOG-001", "BACKLOG-002", "BACKLOG-005", "BACKLOG-006"}, ids(Select(rows, Status("PENDING"))))
	assert.Equal(t, []string{"BACKLOG-003", "BACKLOG-005"}, ids(Select(rows, Priority("high"), Open())))
	assert.Equal(t, []string{"BACKLOG-001", "BACKLOG-003"}, ids(Select(rows, Title("sync"))))
	assert.Equal(t, []string{"BACKLOG-003"}, ids(Select(rows, Sprint("sprint-042"))))
	assert.Equal(t, []string{"BACKLOG-003"}, ids(Select(rows, Type("bug"), Area("service"), Status("in progress"))))
	assert.Empty(t, Select(rows, Area("ipc")))
}

func TestReady(t *testing.T) {
	assert.Equal(t, []string{"BACKLOG-002", "BACKLOG-005", "BACKLOG-001", "BACKLOG-006"}, ids(Ready(rows)))
}

func TestStatistics(t *testing.T) {
	sprints := []model.Record{{"sprint_id": "SPRINT-042", "status": "Active"}, {"sprint_id": "SPRINT-041", "status": "completed"}}
	st := Statistics(rows, sprints)

	assert.Equal(t, 6, st.TotalItems)
	assert.Equal(t, 2, st.TotalSprints)
	assert.Equal(t, map[string]int{"pending": 4, "in progress": 1, "obsolete": 1}, st.ByStatus)
	assert.Equal(t, 2, st.ByType["unknown"]+st.ByType["feature"])
	assert.Equal(t, map[string]int{"active": 1, "completed": 1}, st.SprintsByStatus)
}

func TestSorted(t *testing.T) {
	got := Sorted(map[string]int{"b": 2, "a": 2, "c": 5})
	assert.Equal(t, []Count{{"c", 5}, {"a", 2}, {"b", 2}}, got)
}
