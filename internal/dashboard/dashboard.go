// Package dashboard renders the backlog into a self-contained HTML page by
// injecting the rows as JSON into a template.
package dashboard

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/idilsaglam/backlog/internal/markdown"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/store/csvstore"
)

// Placeholder is replaced by the JSON array of items.
const Placeholder = "BACKLOG_DATA_PLACEHOLDER"

//go:embed template.html
var defaultTemplate string

// Generator builds dashboards from a backlog store.
type Generator struct {
	Store    *csvstore.Store
	ItemsDir string
	// Template is an HTML file containing Placeholder. Empty or missing
	// means the built-in template.
	Template string
	Logger   *zap.Logger
}

func (g *Generator) log() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// Items loads the backlog and fills each row's description from its item
// file, keeping the CSV description when the file has none.
func (g *Generator) Items() (*csvstore.Table, error) {
	t, err := g.Store.Backlog()
	if err != nil {
		return nil, err
	}
	if !t.HasColumn("description") {
		t.Header = append(t.Header, "description")
	}
	for _, row := range t.Rows {
		desc := strings.TrimSpace(row.Get("description"))
		if md := g.description(row.ID()); md != "" {
			desc = md
		}
		row["description"] = desc
	}
	return t, nil
}

func (g *Generator) description(id string) string {
	if id == "" || g.ItemsDir == "" {
		return ""
	}
	src, err := os.ReadFile(filepath.Join(g.ItemsDir, id+".md"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			g.log().Debug("skip item description", zap.String("id", id), zap.Error(err))
		}
		return ""
	}
	return markdown.Parse(src).Description()
}

func (g *Generator) template() (string, error) {
	if g.Template == "" {
		return defaultTemplate, nil
	}
	b, err := os.ReadFile(g.Template)
	if errors.Is(err, fs.ErrNotExist) {
		g.log().Debug("dashboard template not found, using built-in", zap.String("path", g.Template))
		return defaultTemplate, nil
	}
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(b), nil
}

// orderedRow marshals a record with keys in header order.
type orderedRow struct {
	header []string
	row    model.Record
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range o.header {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.row[col])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Data returns the JSON array injected into the template.
func Data(t *csvstore.Table) ([]byte, error) {
	rows := make([]orderedRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, orderedRow{header: t.Header, row: r})
	}
	return json.MarshalIndent(rows, "", "  ")
}

// Render returns the dashboard HTML.
func (g *Generator) Render() ([]byte, error) {
	t, err := g.Items()
	if err != nil {
		return nil, err
	}
	data, err := Data(t)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	tpl, err := g.template()
	if err != nil {
		return nil, err
	}
	return []byte(strings.ReplaceAll(tpl, Placeholder, string(data))), nil
}

// Generate writes the dashboard to out.
func (g *Generator) Generate(out string) error {
	html, err := g.Render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, html, 0o644); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	g.log().Info("dashboard generated", zap.String("path", out))
	return nil
}

// Open shows a file in the default browser.
func Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", abs)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", abs)
	default:
		cmd = exec.Command("xdg-open", abs)
	}
	return cmd.Start()
}
