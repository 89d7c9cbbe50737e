package metrics

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 30, 14, 5, 9, 0, time.FixedZone("CET", 3600))

func TestAppendCreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "tokens.csv")
	s := NewStore(path)

	e, err := s.Append(Entry{AgentType: "engineer", TaskID: "TASK-1", InputTokens: 5000, OutputTokens: 3000, CacheRead: 100, CacheCreate: 20}, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-30T13:05:09Z", e.Timestamp)
	assert.Equal(t, 8120, e.TotalTokens)
	assert.Equal(t, 8000, e.BillableTokens)

	_, err = s.Append(Entry{AgentType: "qa", Description: "has, comma"}, now)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t, "2026-01-30T13:05:09Z,,,engineer,TASK-1,,5000,3000,100,20,8000,8120,0,0,,", lines[1])
	assert.Contains(t, lines[2], `"has, comma"`)

	entries, err := s.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, e, entries[0])
}

func TestLoadMissing(t *testing.T) {
	entries, err := NewStore(filepath.Join(t.TempDir(), "tokens.csv")).Load()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestFromRecordBadNumbers(t *testing.T) {
	e := FromRecord(map[string]string{"input_tokens": "lots", "api_calls": " 7 "})
	assert.Equal(t, 0, e.InputTokens)
	assert.Equal(t, 7, e.APICalls)
}

func sample() []Entry {
	return []Entry{
		{Timestamp: "2026-01-29T23:59:59Z", SessionID: "s1", AgentID: "a1", AgentType: "engineer", TaskID: "TASK-1775", TotalTokens: 1000, BillableTokens: 400, APICalls: 3},
		{Timestamp: "2026-01-30T00:00:00Z", SessionID: "s1", AgentID: "a2", AgentType: "qa", TaskID: "TASK-1776", TotalTokens: 2500, BillableTokens: 600, APICalls: 4},
		{Timestamp: "2026-01-31T23:59:59Z", SessionID: "s2", AgentID: "a1", AgentType: "engineer", TaskID: "TASK-1775", TotalTokens: 1_500_000, DurationSecs: 60},
		{Timestamp: "yesterday", SessionID: "s3", AgentType: "", TaskID: "TASK-2000", TotalTokens: 7},
	}
}

func ids(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.TaskID+"/"+e.AgentID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"all", Filter{}, []string{"TASK-1775/a1", "TASK-1776/a2", "TASK-1775/a1", "TASK-2000/"}},
		{"task", Filter{Task: "TASK-1775"}, []string{"TASK-1775/a1", "TASK-1775/a1"}},
		{"prefix", Filter{TaskPrefix: "TASK-17"}, []string{"TASK-1775/a1", "TASK-1776/a2", "TASK-1775/a1"}},
		{"agent type", Filter{AgentType: "qa"}, []string{"TASK-1776/a2"}},
		{"session", Filter{SessionID: "s2"}, []string{"TASK-1775/a1"}},
		{"since", Filter{Since: "2026-01-30"}, []string{"TASK-1776/a2", "TASK-1775/a1", "TASK-2000/"}},
		{"until", Filter{Until: "2026-01-30"}, []string{"TASK-1775/a1", "TASK-1776/a2", "TASK-2000/"}},
		{"window", Filter{Since: "2026-01-30", Until: "2026-01-30", AgentID: "a2"}, []string{"TASK-1776/a2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Select(sample(), tt.f)))
		})
	}
}

func TestWriteJSONNumbers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()[:1]))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(1000), got[0]["total_tokens"])
	assert.Equal(t, "TASK-1775", got[0]["task_id"])

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestSelectRowsKeepsStoredCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"timestamp,task_id,input_tokens,total_tokens,model\n"+
			"2026-01-02T10:00:00Z,TASK-1,,n/a,opus\n"+
			"2026-01-03T10:00:00Z,TASK-2,10,10,haiku\n"), 0o644))

	tbl, err := NewStore(path).Table()
	require.NoError(t, err)
	matched := SelectRows(tbl, Filter{Task: "TASK-1"})
	require.Len(t, matched.Rows, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, matched))
	assert.Equal(t, "timestamp,task_id,input_tokens,total_tokens,model\n"+
		"2026-01-02T10:00:00Z,TASK-1,,n/a,opus\n", buf.String())
}

func TestTableMissing(t *testing.T) {
	tbl, err := NewStore(filepath.Join(t.TempDir(), "nope.csv")).Table()
	require.NoError(t, err)
	assert.Equal(t, Columns, tbl.Header)
	assert.Empty(t, tbl.Rows)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, SelectRows(tbl, Filter{})))
	assert.Equal(t, strings.Join(Columns, ",")+"\n", buf.String())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sample())
	assert.Equal(t, "\nMetrics Summary (4 entries)\n"+
		strings.Repeat("-", 40)+"\n"+
		"  engineer        2 entries     1,501,000 tokens\n"+
		"  qa              1 entries         2,500 tokens\n"+
		"  unknown         1 entries             7 tokens\n"+
		strings.Repeat("-", 40)+"\n"+
		"  TOTAL           4 entries     1,503,507 tokens\n", buf.String())

	buf.Reset()
	WriteSummary(&buf, nil)
	assert.Equal(t, "No metrics logged yet.\n", buf.String())
}

func TestWriteLogged(t *testing.T) {
	var buf bytes.Buffer
	WriteLogged(&buf, Entry{AgentType: "pm", InputTokens: 1200, OutputTokens: 300, TotalTokens: 1500, DurationSecs: 42})
	assert.Equal(t, "Logged metrics for pm\n"+
		"  Task: (none)\n"+
		"  Description: (none)\n"+
		"  Tokens: 1,500 total (1,200 in, 300 out)\n"+
		"  Duration: 42s\n", buf.String())
}

func TestSum(t *testing.T) {
	agg, err := Sum(sample(), Key{Field: KeyTaskPrefix, Value: "TASK-17"})
	require.NoError(t, err)
	assert.Equal(t, 3, agg.Entries)
	assert.Equal(t, 2, agg.AgentSessions)
	assert.Equal(t, 1_503_500, agg.TotalTokens)
	assert.Equal(t, 7, agg.APICalls)

	b, err := json.Marshal(agg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), `{"task_prefix":"TASK-17","input_tokens":0,`), string(b))
	assert.True(t, strings.HasSuffix(string(b), `"agent_sessions":2,"entries":3}`), string(b))
}

func TestSumErrors(t *testing.T) {
	_, err := Sum(nil, Key{Field: KeyTask, Value: "TASK-1"})
	assert.ErrorIs(t, err, ErrNoMetrics)

	_, err = Sum(sample(), Key{Field: "sprint", Value: "x"})
	assert.Error(t, err)

	agg, err := Sum(sample(), Key{Field: KeySession, Value: "nope"})
	require.NoError(t, err)
	assert.Zero(t, agg.Entries)
}
