package dashboard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

const backlogCSV = "id,title,status,description\n" +
	"BACKLOG-001,First,Pending,from csv\n" +
	"BACKLOG-002,Second,Completed,kept\n"

func setup(t *testing.T) *Generator {
	t.Helper()
	root := t.TempDir()
	data := filepath.Join(root, "data")
	items := filepath.Join(root, "items")
	require.NoError(t, os.MkdirAll(data, 0o755))
	require.NoError(t, os.MkdirAll(items, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, csvstore.BacklogFile), []byte(backlogCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(items, "BACKLOG-001.md"),
		[]byte("# BACKLOG-001: First\n\n## Summary\n\nFrom the item file.\n\n## Notes\n\nignored\n"), 0o644))
	return &Generator{Store: csvstore.New(data), ItemsDir: items}
}

func TestItemsPreferMarkdownDescription(t *testing.T) {
	g := setup(t)
	tbl, err := g.Items()
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "From the item file.", tbl.Rows[0]["description"])
	assert.Equal(t, "kept", tbl.Rows[1]["description"])
}

func TestDataKeepsHeaderOrder(t *testing.T) {
	tbl := csvstore.NewTable("id", "title")
	tbl.Rows = append(tbl.Rows, map[string]string{"title": "T", "id": "BACKLOG-9"})

	b, err := Data(tbl)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"id\": \"BACKLOG-9\",\n    \"title\": \"T\"\n  }\n]", string(b))
}

func TestRenderInjectsData(t *testing.T) {
	g := setup(t)
	tpl := filepath.Join(t.TempDir(), "dash.html")
	require.NoError(t, os.WriteFile(tpl, []byte("<script>const D = "+Placeholder+";</script>"), 0o644))
	g.Template = tpl

	out, err := g.Render()
	require.NoError(t, err)
	s := string(out)
	require.True(t, strings.HasPrefix(s, "<script>const D = ["))
	assert.NotContains(t, s, Placeholder)

	js := strings.TrimSuffix(strings.TrimPrefix(s, "<script>const D = "), ";</script>")
	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(js), &rows))
	assert.Equal(t, "BACKLOG-002", rows[1]["id"])
}

func TestRenderFallsBackToBuiltinTemplate(t *testing.T) {
	g := setup(t)
	g.Template = filepath.Join(t.TempDir(), "missing.html")

	out, err := g.Render()
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>Backlog Dashboard</title>")
	assert.Contains(t, string(out), `"id": "BACKLOG-001"`)
	assert.True(t, strings.Contains(defaultTemplate, Placeholder))
}

func TestGenerate(t *testing.T) {
	g := setup(t)
	out := filepath.Join(t.TempDir(), "backlog-dashboard.html")
	require.NoError(t, g.Generate(out))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "From the item file.")
}

func TestGenerateMissingBacklog(t *testing.T) {
	g := &Generator{Store: csvstore.New(t.TempDir())}
	assert.Error(t, g.Generate(filepath.Join(t.TempDir(), "out.html")))
}

func TestWatchRebuildsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	old := Debounce
	Debounce = 10 * time.Millisecond
	defer func() { Debounce = old }()

	g := setup(t)
	out := filepath.Join(t.TempDir(), "out.html")
	ctx, cancel := context.WithCancel(context.Background())

	built := make(chan error, 16)
	done := make(chan error, 1)
	go func() { done <- g.Watch(ctx, out, func(err error) {
		select {
		case built <- err:
		default:
		}
	}) }()

	csvPath := g.Store.Path(csvstore.BacklogFile)
	updated := backlogCSV + "BACKLOG-003,Third,Pending,\n"
	require.Eventually(t, func() bool {
		_ = os.WriteFile(csvPath, []byte(updated), 0o644)
		select {
		case err := <-built:
			return err == nil
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "BACKLOG-003")

	cancel()
	require.NoError(t, <-done)
}

func TestRelevant(t *testing.T) {
	ev := func(name string, op fsnotify.Op) fsnotify.Event { return fsnotify.Event{Name: name, Op: op} }
	assert.True(t, relevant(ev("/d/backlog.csv", fsnotify.Write), "/out.html"))
	assert.True(t, relevant(ev("/i/BACKLOG-1.md", fsnotify.Create), "/out.html"))
	assert.False(t, relevant(ev("/d/notes.txt", fsnotify.Write), "/out.html"))
	assert.False(t, relevant(ev("/d/backlog.csv", fsnotify.Chmod), "/out.html"))
	assert.False(t, relevant(ev("/out.md", fsnotify.Write), "/out.md"))
}
