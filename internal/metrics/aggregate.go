package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Key names what an aggregate covers.
type Key struct {
	Field string
	Value string
}

// Aggregation keys accepted by Aggregate.
const (
	KeyTask       = "task_id"
	KeyTaskPrefix = "task_prefix"
	KeySession    = "session_id"
	KeyAgent      = "agent_id"
)

// Filter returns the entry filter for the key.
func (k Key) Filter() (Filter, error) {
	switch k.Field {
	case KeyTask:
		return Filter{Task: k.Value}, nil
	case KeyTaskPrefix:
		return Filter{TaskPrefix: k.Value}, nil
	case KeySession:
		return Filter{SessionID: k.Value}, nil
	case KeyAgent:
		return Filter{AgentID: k.Value}, nil
	}
	return Filter{}, fmt.Errorf("unknown aggregate key %q", k.Field)
}

// Totals sums the numeric columns.
type Totals struct {
	InputTokens    int `json:"input_tokens"`
	OutputTokens   int `json:"output_tokens"`
	CacheRead      int `json:"cache_read"`
	CacheCreate    int `json:"cache_create"`
	BillableTokens int `json:"billable_tokens"`
	TotalTokens    int `json:"total_tokens"`
	APICalls       int `json:"api_calls"`
	DurationSecs   int `json:"duration_secs"`
}

// Aggregate is the effort summary for one key.
type Aggregate struct {
	Key Key
	Totals
	AgentSessions int `json:"agent_sessions"`
	Entries       int `json:"entries"`
}

// MarshalJSON puts the key field first, followed by the totals.
func (a Aggregate) MarshalJSON() ([]byte, error) {
	type body struct {
		Totals
		AgentSessions int `json:"agent_sessions"`
		Entries       int `json:"entries"`
	}
	k, err := json.Marshal(a.Key.Field)
	if err != nil {
		return nil, err
	}
	v, err := json.Marshal(a.Key.Value)
	if err != nil {
		return nil, err
	}
	rest, err := json.Marshal(body{a.Totals, a.AgentSessions, a.Entries})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	buf.WriteByte(',')
	buf.Write(rest[1:])
	return buf.Bytes(), nil
}

// Sum aggregates the entries matching key. It fails with ErrNoMetrics when
// entries is empty.
func Sum(entries []Entry, key Key) (Aggregate, error) {
	if len(entries) == 0 {
		return Aggregate{}, ErrNoMetrics
	}
	f, err := key.Filter()
	if err != nil {
		return Aggregate{}, err
	}
	agg := Aggregate{Key: key}
	sessions := map[string]struct{}{}
	for _, e := range Select(entries, f) {
		agg.Entries++
		agg.InputTokens += e.InputTokens
		agg.OutputTokens += e.OutputTokens
		agg.CacheRead += e.CacheRead
		agg.CacheCreate += e.CacheCreate
		agg.BillableTokens += e.BillableTokens
		agg.TotalTokens += e.TotalTokens
		agg.APICalls += e.APICalls
		agg.DurationSecs += e.DurationSecs
		if e.AgentID != "" {
			sessions[e.AgentID] = struct{}{}
		}
	}
	agg.AgentSessions = len(sessions)
	return agg, nil
}
