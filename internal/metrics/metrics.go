// Package metrics records per-agent token usage in tokens.csv and answers
// summary, filter and aggregate queries over it.
package metrics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

// Columns is the tokens.csv header.
var Columns = []string{
	"timestamp",
	"session_id",
	"agent_id",
	"agent_type",
	"task_id",
	"description",
	"input_tokens",
	"output_tokens",
	"cache_read",
	"cache_create",
	"billable_tokens",
	"total_tokens",
	"api_calls",
	"duration_secs",
	"started_at",
	"ended_at",
}

// AgentTypes lists the accepted agent_type values.
var AgentTypes = []string{"engineer", "pm", "sr-engineer", "qa", "explore", "fix", "main"}

// TimestampFormat is the UTC layout of the timestamp column.
const TimestampFormat = "2006-01-02T15:04:05Z"

// ErrNoMetrics is returned when there is nothing to aggregate.
var ErrNoMetrics = errors.New("no metrics file found or empty")

// ValidAgentType reports whether t is one of AgentTypes.
func ValidAgentType(t string) bool {
	return slices.Contains(AgentTypes, t)
}

// Entry is one tokens.csv row. Numeric cells that do not parse read as 0.
type Entry struct {
	Timestamp      string `json:"timestamp"`
	SessionID      string `json:"session_id"`
	AgentID        string `json:"agent_id"`
	AgentType      string `json:"agent_type"`
	TaskID         string `json:"task_id"`
	Description    string `json:"description"`
	InputTokens    int    `json:"input_tokens"`
	OutputTokens   int    `json:"output_tokens"`
	CacheRead      int    `json:"cache_read"`
	CacheCreate    int    `json:"cache_create"`
	BillableTokens int    `json:"billable_tokens"`
	TotalTokens    int    `json:"total_tokens"`
	APICalls       int    `json:"api_calls"`
	DurationSecs   int    `json:"duration_secs"`
	StartedAt      string `json:"started_at"`
	EndedAt        string `json:"ended_at"`
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// FromRecord converts a CSV row.
func FromRecord(r model.Record) Entry {
	return Entry{
		Timestamp:      r["timestamp"],
		SessionID:      r["session_id"],
		AgentID:        r["agent_id"],
		AgentType:      r["agent_type"],
		TaskID:         r["task_id"],
		Description:    r["description"],
		InputTokens:    atoi(r["input_tokens"]),
		OutputTokens:   atoi(r["output_tokens"]),
		CacheRead:      atoi(r["cache_read"]),
		CacheCreate:    atoi(r["cache_create"]),
		BillableTokens: atoi(r["billable_tokens"]),
		TotalTokens:    atoi(r["total_tokens"]),
		APICalls:       atoi(r["api_calls"]),
		DurationSecs:   atoi(r["duration_secs"]),
		StartedAt:      r["started_at"],
		EndedAt:        r["ended_at"],
	}
}

// Values returns the row in Columns order.
func (e Entry) Values() []string {
	itoa := strconv.Itoa
	return []string{
		e.Timestamp, e.SessionID, e.AgentID, e.AgentType, e.TaskID, e.Description,
		itoa(e.InputTokens), itoa(e.OutputTokens), itoa(e.CacheRead), itoa(e.CacheCreate),
		itoa(e.BillableTokens), itoa(e.TotalTokens), itoa(e.APICalls), itoa(e.DurationSecs),
		e.StartedAt, e.EndedAt,
	}
}

// Finalize stamps the entry and derives its totals: total counts every
// token kind, billable counts input and output only.
func (e *Entry) Finalize(now time.Time) {
	e.TotalTokens = e.InputTokens + e.OutputTokens + e.CacheRead + e.CacheCreate
	e.BillableTokens = e.InputTokens + e.OutputTokens
	e.Timestamp = now.UTC().Format(TimestampFormat)
}

// Store is the tokens.csv file.
type Store struct {
	Path string
}

// NewStore returns a Store for path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Table reads the file as stored. A missing or empty file yields an empty
// table with the Columns header.
func (s *Store) Table() (*csvstore.Table, error) {
	t, err := csvstore.Load(s.Path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, csvstore.ErrNoHeader) {
		return csvstore.NewTable(Columns...), nil
	}
	return t, err
}

// Load reads every entry. A missing file has no entries.
func (s *Store) Load() ([]Entry, error) {
	t, err := s.Table()
	if err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, nil
	}
	out := make([]Entry, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, FromRecord(r))
	}
	return out, nil
}

// Append finalizes e and adds it to the file, writing the header first when
// the file does not exist yet.
func (s *Store) Append(e Entry, now time.Time) (Entry, error) {
	e.Finalize(now)

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return e, fmt.Errorf("create metrics dir: %w", err)
	}
	_, statErr := os.Stat(s.Path)
	fresh := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return e, fmt.Errorf("open metrics: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(Columns); err != nil {
			return e, err
		}
	}
	if err := w.Write(e.Values()); err != nil {
		return e, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return e, fmt.Errorf("write metrics: %w", err)
	}
	return e, f.Close()
}
