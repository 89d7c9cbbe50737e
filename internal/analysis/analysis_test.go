package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/backlog/internal/model"
)

func TestParseTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"-", 0},
		{"~30K", 30_000},
		{"1,500", 1500},
		{"1.2m", 1_200_000},
		{"800-1.1M", 800},
		{"20K-40K", 20_000},
		{"lots", 0},
		{"~2.5K tokens", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTokens(tt.in), "ParseTokens(%q)", tt.in)
	}
}

var now = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

func fixture() (items, sprints, changelog []model.Record) {
	items = []model.Record{
		{"id": "BACKLOG-001", "title": "Done thing", "status": "Completed", "priority": "High", "category": "bug", "sprint": "SPRINT-001", "est_tokens": "10K", "actual_tokens": "12K"},
		{"id": "BACKLOG-002", "title": "Blocked thing", "status": "Blocked", "priority": "Critical", "category": "feature", "sprint": "-", "est_tokens": "~60K", "actual_tokens": "-"},
		{"id": "BACKLOG-003", "title": "Testing thing", "status": "Testing", "priority": "Medium", "category": "feature", "sprint": "SPRINT-002", "est_tokens": "-", "actual_tokens": "-"},
		{"id": "BACKLOG-004", "title": "Reopened thing", "status": "Reopened", "priority": "High", "category": "Refactor", "sprint": "", "est_tokens": "150K", "actual_tokens": ""},
		{"id": "BACKLOG-005", "title": "Obsolete thing", "status": "Obsolete", "priority": "Low", "category": "chore", "sprint": "-", "est_tokens": "-", "actual_tokens": "-"},
		{"id": "BACKLOG-006", "title": "Pending thing", "status": "Pending", "priority": "Low", "category": "feature", "sprint": "-", "est_tokens": "25K", "actual_tokens": "-"},
	}
	sprints = []model.Record{
		{"sprint_id": "SPRINT-001", "status": "completed"},
		{"sprint_id": "SPRINT-002", "status": "Active"},
		{"sprint_id": "SPRINT-003", "status": "planning"},
	}
	for i := 1; i <= 12; i++ {
		changelog = append(changelog, model.Record{"date": fmt.Sprintf("2026-01-%02d", i), "action": "Complete", "details": fmt.Sprintf("entry %d", i)})
	}
	changelog = append(changelog, model.Record{"date": "2026-01-20", "action": "create", "details": "ignored"})
	return
}

func analyzeFixture() Analysis {
	items, sprints, changelog := fixture()
	return Analyze(items, sprints, changelog, now)
}

func TestAnalyze(t *testing.T) {
	a := analyzeFixture()

	assert.Equal(t, "2026-02-01T09:30:00Z", a.GeneratedAt)
	assert.Equal(t, Summary{TotalItems: 6, OpenItems: 4, CompletedItems: 1, ObsoleteItems: 1}, a.Summary)
	assert.Equal(t, map[string]int{"critical": 1, "high": 1, "medium": 1, "low": 1}, a.PriorityBreakdown.OpenOnly)
	assert.Equal(t, 1, a.CategoryBreakdown.OpenOnly["refactor"])

	assert.Equal(t, 3, a.Effort.ItemsWithEstimates)
	assert.Equal(t, 1, a.Effort.ItemsWithoutEstimates)
	assert.Equal(t, 235_000, a.Effort.TotalEstimatedTokens)
	assert.Equal(t, "235K", a.Effort.TotalEstimatedText)
	assert.Equal(t, map[string]int{BucketSmall: 0, BucketMedium: 1, BucketLarge: 1, BucketXLarge: 1}, a.Effort.Buckets)

	assert.Equal(t, []string{"SPRINT-002", "SPRINT-003"}, a.SprintHealth.ActiveSprints)
	assert.Equal(t, 1, a.SprintHealth.ItemsInSprints)
	assert.Equal(t, 3, a.SprintHealth.ItemsUnassigned)

	assert.Equal(t, 2, a.Attention.HighPriorityUnassignedCount)
	assert.Equal(t, []Ref{
		{ID: "BACKLOG-002", Title: "Blocked thing", Priority: "Critical"},
		{ID: "BACKLOG-004", Title: "Reopened thing", Priority: "High"},
	}, a.Attention.HighPriorityUnassigned)
	assert.Equal(t, []Ref{{ID: "BACKLOG-002", Title: "Blocked thing"}}, a.Attention.Blocked)
	assert.Len(t, a.Attention.Testing, 1)
	assert.Len(t, a.Attention.Reopened, 1)

	assert.Equal(t, Velocity{ItemsWithActuals: 1, TotalActualTokens: 12_000, TotalActualText: "12K"}, a.Velocity)

	require.Len(t, a.Recent.Completions, 10)
	assert.Equal(t, "2026-01-03", a.Recent.Completions[0].Date)
	assert.Equal(t, "entry 12", a.Recent.Completions[9].Details)
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(nil, nil, nil, now)
	assert.Equal(t, "N/A", a.Velocity.TotalActualText)

	var buf bytes.Buffer
	WriteReport(&buf, a)
	assert.Contains(t, buf.String(), "Active Sprints:     None")

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"active_sprints":[]`)
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, analyzeFixture())
	out := buf.String()

	assert.Contains(t, out, "  Total Items:     6\n")
	assert.Contains(t, out, "  Progress:        "+strings.Repeat("█", 6)+strings.Repeat("░", 24)+"  20%\n")
	assert.Contains(t, out, "  critical           1 ( 25.0%) █████\n")
	assert.Contains(t, out, "    [Critical] BACKLOG-002: Blocked thing\n")
	assert.Contains(t, out, "  Reopened (Failed Testing) (1):\n")
	assert.Contains(t, out, "  Total actual tokens:     12K\n")
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, analyzeFixture())
	assert.Equal(t, "Backlog: 4 open (1 completed)\n"+
		"Priority: 1 critical, 1 high\n"+
		"Sprints: SPRINT-002, SPRINT-003\n"+
		"⚠️  2 high-priority items unassigned\n"+
		"⚠️  1 blocked items\n"+
		"⚠️  1 reopened items need attention\n", buf.String())
}
