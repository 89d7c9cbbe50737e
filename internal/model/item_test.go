package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"High", "high"},
		{"  **Critical** ", "critical"},
		{"in_progress", "inprogress"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestOneOf(t *testing.T) {
	assert.True(t, OneOf(Statuses, "In Progress"))
	assert.True(t, OneOf(Priorities, "**HIGH**"))
	assert.False(t, OneOf(Areas, "backend"))
}

func TestCanonical(t *testing.T) {
	got, ok := Canonical(CanonicalStatuses, "in progress")
	assert.True(t, ok)
	assert.Equal(t, "In Progress", got)

	_, ok = Canonical(CanonicalPriorities, "urgent")
	assert.False(t, ok)
}

func TestItemNumber(t *testing.T) {
	assert.Equal(t, 42, ItemNumber("BACKLOG-042"))
	assert.Equal(t, 1234, ItemNumber("BACKLOG-1234"))
	assert.Equal(t, 0, ItemNumber("misc"))
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityRank("Critical"), PriorityRank("high"))
	assert.Less(t, PriorityRank("Low"), PriorityRank("-"))
}

func TestRecordState(t *testing.T) {
	r := Record{"status": "Completed", "sprint": "-"}
	assert.False(t, r.IsOpen())
	assert.True(t, r.Unassigned())

	r = Record{"status": "**Blocked**", "sprint": "SPRINT-042"}
	assert.True(t, r.IsOpen())
	assert.False(t, r.Unassigned())
}

func TestCategoryFallsBackToType(t *testing.T) {
	assert.Equal(t, "bug", Record{"category": "bug", "type": "feature"}.Category())
	assert.Equal(t, "feature", Record{"type": "feature"}.Category())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hi", Truncate("hi", 60))
}
