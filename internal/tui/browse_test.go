package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

func table() *csvstore.Table {
	t := csvstore.NewTable("id", "title", "status", "priority", "sprint")
	t.Rows = []model.Record{
		{"id": "BACKLOG-001", "title": "First", "status": "Pending", "priority": "High", "sprint": "-"},
		{"id": "BACKLOG-002", "title": "Second", "status": "Completed", "priority": "Low", "sprint": "-"},
		{"id": "BACKLOG-007", "title": "Third", "status": "Blocked", "priority": "Medium", "sprint": "-"},
	}
	return t
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func open(t *testing.T) Model {
	return press(t, New(table()), tea.WindowSizeMsg{Width: 100, Height: 40})
}

func TestNextStatus(t *testing.T) {
	tests := map[string]string{
		"Pending":     "In Progress",
		"in-progress": "Testing",
		"Testing":     "Completed",
		"Completed":   "Pending",
		"Blocked":     "Pending",
		"":            "Pending",
	}
	for in, want := range tests {
		assert.Equal(t, want, NextStatus(in), in)
	}
}

func TestNextPriority(t *testing.T) {
	assert.Equal(t, "High", NextPriority("critical"))
	assert.Equal(t, "Critical", NextPriority("Low"))
	assert.Equal(t, "Medium", NextPriority("urgent"))
}

func TestCycleStatusAndPriority(t *testing.T) {
	m := open(t)
	assert.False(t, m.Changed())

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace}, runes("s"), runes("p"))
	row := m.Table().Rows[0]
	assert.Equal(t, "Testing", row.Status())
	assert.Equal(t, "Medium", row.Priority())
	assert.True(t, m.Changed())
}

func TestObsoleteAndUndo(t *testing.T) {
	m := open(t)
	m = press(t, m, runes("d"))
	assert.Equal(t, "Obsolete", m.Table().Rows[0].Status())

	m = press(t, m, runes("u"))
	assert.Equal(t, "Pending", m.Table().Rows[0].Status())

	// nothing left to undo
	m = press(t, m, runes("u"))
	assert.Equal(t, "Pending", m.Table().Rows[0].Status())
}

func TestEditTitle(t *testing.T) {
	m := open(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, runes("e"))
	require.True(t, m.editing)
	assert.Equal(t, "Second", m.ti.Value())

	m = press(t, m, runes("!"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.editing)
	assert.Equal(t, "Second!", m.Table().Rows[1].Title())
	assert.True(t, m.Changed())
}

func TestEditCancel(t *testing.T) {
	m := open(t)
	m = press(t, m, runes("e"), runes("x"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.editing)
	assert.Equal(t, "First", m.Table().Rows[0].Title())
	assert.False(t, m.Changed())
}

func TestAddItem(t *testing.T) {
	m := open(t)
	m = press(t, m, runes("a"), tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.adding)
	assert.Equal(t, "Title cannot be empty", m.inputErr)

	m = press(t, m, runes("Write docs"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.adding)
	require.Len(t, m.Table().Rows, 4)
	added := m.Table().Rows[3]
	assert.Equal(t, "BACKLOG-008", added.ID())
	assert.Equal(t, "Write docs", added.Title())
	assert.Equal(t, "Pending", added.Status())
	assert.Equal(t, "", added["sprint"])
	assert.Len(t, m.list.Items(), 4)
}

func TestQuit(t *testing.T) {
	m := open(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView(t *testing.T) {
	m := open(t)
	out := m.View()
	assert.Contains(t, out, "BACKLOG-001")
	assert.Contains(t, out, "Backlog")

	m = press(t, m, runes("a"))
	assert.Contains(t, m.View(), "Add new item")
}

func TestTitleShowsProgress(t *testing.T) {
	m := open(t)
	assert.Contains(t, m.list.Title, "  33%")

	m = press(t, m, runes("d"))
	assert.Contains(t, m.list.Title, "██████░░░░░░  50%")
}
