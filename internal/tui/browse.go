// Package tui is the interactive backlog browser.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
	"github.com/idilsaglam/backlog/internal/ui"
)

// StatusCycle is the order space steps through.
var StatusCycle = []string{"Pending", "In Progress", "Testing", "Completed"}

const obsolete = "Obsolete"

func next(cycle []string, cur, fallback string) string {
	cur = strings.ReplaceAll(model.Normalize(cur), "-", " ")
	for i, v := range cycle {
		if strings.EqualFold(v, cur) {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return fallback
}

// NextStatus advances a status along StatusCycle. Statuses outside the
// cycle restart at Pending.
func NextStatus(s string) string { return next(StatusCycle, s, StatusCycle[0]) }

// NextPriority advances Critical, High, Medium, Low and wraps. Unknown
// priorities become Medium.
func NextPriority(p string) string { return next(model.CanonicalPriorities, p, "Medium") }

// listItem adapts a backlog row to bubbles/list.Item
type listItem struct {
	rec model.Record
}

func (i listItem) Title() string       { return i.rec.Title() }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.rec.ID() + " " + i.rec.Title() }

// itemDelegate renders one item per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()
	status := it.rec.Status()
	statusStyle := t.Pending
	text := it.rec.Title()
	switch model.Normalize(status) {
	case "completed":
		statusStyle = t.Success
		text = t.Done.Render(text)
	case "obsolete":
		statusStyle = t.Muted
		text = t.Done.Render(text)
	case "blocked", "reopened":
		statusStyle = t.Error
	}

	line := fmt.Sprintf("%s %s %s %s",
		statusStyle.Render(fmt.Sprintf("%-12s", model.Truncate(status, 12))),
		t.Accent.Render(it.rec.ID()),
		t.Muted.Render(fmt.Sprintf("%-8s", it.rec.Priority())),
		text)
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

type undo struct {
	rec    model.Record
	status string
}

// Model is the Bubble Tea model behind `backlog browse`.
type Model struct {
	list    list.Model
	table   *csvstore.Table
	changed bool
	width   int
	height  int

	// Inline add/edit share one text input
	ti        textinput.Model
	adding    bool
	editing   bool
	editIndex int
	inputErr  string

	// Undo support (single-level)
	last *undo
}

var (
	statusBind   = key.NewBinding(key.WithKeys(" ", "s"), key.WithHelp("space", "status"))
	priorityBind = key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority"))
	addBind      = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind     = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	obsoleteBind = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "obsolete"))
	undoBind     = key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo"))
)

// New builds the browser over t. Edits are applied to t's rows in place.
func New(t *csvstore.Table) Model {
	items := make([]list.Item, 0, len(t.Rows))
	for _, r := range t.Rows {
		items = append(items, listItem{rec: r})
	}

	l := list.New(items, itemDelegate{}, 0, 0)
	th := ui.Current()
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = th.Title
	l.Styles.HelpStyle = th.Muted
	l.Styles.PaginationStyle = th.Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	extra := func() []key.Binding {
		return []key.Binding{statusBind, priorityBind, addBind, editBind, obsoleteBind, undoBind}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{list: l, table: t, ti: ti, width: 80, height: 24}
	m.refreshTitle()
	return m
}

// Changed reports whether any row was modified.
func (m Model) Changed() bool { return m.changed }

// Table returns the browsed table.
func (m Model) Table() *csvstore.Table { return m.table }

func (m *Model) refreshTitle() {
	th := ui.Current()
	open, done := 0, 0
	for _, r := range m.table.Rows {
		switch {
		case r.IsOpen():
			open++
		case model.Normalize(r.Status()) == "completed":
			done++
		}
	}
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d  %s",
		th.Title.Render("Backlog"),
		th.Pending.Render(th.SymPending), open,
		th.Success.Render(th.SymOK), done,
		th.Accent.Render("Total"), len(m.table.Rows),
		ui.ProgressBar(done, open+done, 12),
	)
}

func (m Model) selected() (int, listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return -1, listItem{}, false
	}
	return m.list.GlobalIndex(), it, true
}

func (m *Model) touch(i int, it listItem) {
	m.list.SetItem(i, it)
	m.changed = true
	m.refreshTitle()
}

// nextID is one past the highest BACKLOG number in the table.
func (m Model) nextID() string {
	hi := 0
	for _, r := range m.table.Rows {
		hi = max(hi, model.ItemNumber(r.ID()))
	}
	return fmt.Sprintf("BACKLOG-%03d", hi+1)
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		m.resize()
		return m, nil
	}
	if m.adding || m.editing {
		return m.updateInput(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case km.String() == "q" || km.String() == "ctrl+c":
		return m, tea.Quit
	case km.String() == "esc" && m.list.FilterState() == list.Unfiltered:
		return m, tea.Quit
	case key.Matches(km, statusBind):
		if i, it, ok := m.selected(); ok {
			it.rec["status"] = NextStatus(it.rec.Status())
			m.touch(i, it)
		}
		return m, nil
	case key.Matches(km, priorityBind):
		if i, it, ok := m.selected(); ok {
			it.rec["priority"] = NextPriority(it.rec.Priority())
			m.touch(i, it)
		}
		return m, nil
	case key.Matches(km, obsoleteBind):
		if i, it, ok := m.selected(); ok && model.Normalize(it.rec.Status()) != "obsolete" {
			m.last = &undo{rec: it.rec, status: it.rec.Status()}
			it.rec["status"] = obsolete
			m.touch(i, it)
		}
		return m, nil
	case key.Matches(km, undoBind):
		if m.last != nil {
			m.last.rec["status"] = m.last.status
			for i, li := range m.list.Items() {
				if it, ok := li.(listItem); ok && it.rec.ID() == m.last.rec.ID() {
					m.touch(i, it)
					break
				}
			}
			m.last = nil
		}
		return m, nil
	case key.Matches(km, addBind):
		m.adding = true
		m.inputErr = ""
		m.ti.SetValue("")
		m.ti.Placeholder = "New item title..."
		m.ti.Focus()
		m.resize()
		return m, nil
	case key.Matches(km, editBind):
		if i, it, ok := m.selected(); ok {
			m.editing = true
			m.editIndex = i
			m.inputErr = ""
			m.ti.SetValue(it.rec.Title())
			m.ti.CursorEnd()
			m.ti.Placeholder = "Edit item title..."
			m.ti.Focus()
			m.resize()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			title := strings.TrimSpace(m.ti.Value())
			if title == "" {
				m.inputErr = "Title cannot be empty"
				return m, nil
			}
			if m.adding {
				m.add(title)
			} else if m.editIndex >= 0 && m.editIndex < len(m.list.Items()) {
				if it, ok := m.list.Items()[m.editIndex].(listItem); ok {
					it.rec["title"] = title
					m.touch(m.editIndex, it)
				}
			}
			m.closeInput()
			return m, nil
		case "esc":
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) add(title string) {
	rec := model.Record{
		"id":       m.nextID(),
		"title":    title,
		"status":   "Pending",
		"priority": "Medium",
	}
	for _, col := range m.table.Header {
		if _, ok := rec[col]; !ok {
			rec[col] = ""
		}
	}
	m.table.Rows = append(m.table.Rows, rec)
	m.list.InsertItem(len(m.list.Items()), listItem{rec: rec})
	m.list.Select(len(m.list.Items()) - 1)
	m.changed = true
	m.refreshTitle()
}

func (m *Model) closeInput() {
	m.adding, m.editing = false, false
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m *Model) resize() {
	h := m.height - 4
	if m.adding || m.editing {
		h = m.height - 7
	}
	m.list.SetSize(max(m.width-4, 10), max(h, 3))
}

func (m Model) View() string {
	content := m.list.View()
	if m.adding || m.editing {
		title := "Add new item"
		if m.editing {
			title = "Edit item"
		}
		if m.inputErr != "" {
			title += ": " + ui.Current().Error.Render(m.inputErr)
		}
		content += "\n" + ui.Panel(title, m.ti.View())
	}
	return ui.Panel(content)
}

// Run starts the browser on the alternate screen and returns the final
// model once the user quits.
func Run(t *csvstore.Table, opts ...tea.ProgramOption) (Model, error) {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(New(t), opts...).Run()
	if err != nil {
		return Model{}, err
	}
	fm, ok := final.(Model)
	if !ok {
		return Model{}, fmt.Errorf("unexpected model %T", final)
	}
	return fm, nil
}
