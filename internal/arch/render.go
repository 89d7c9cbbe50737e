package arch

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"
)

//go:embed diagram.html.tmpl
var diagramHTML string

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

const fallbackColor = "#8b949e"

var page = template.Must(template.New("diagram").Funcs(template.FuncMap{
	"base": func(p string) string {
		if i := strings.LastIndex(p, "/"); i >= 0 {
			return p[i+1:]
		}
		return p
	},
	"color": func(c string) template.CSS {
		if !hexColor.MatchString(c) {
			c = fallbackColor
		}
		return template.CSS(c)
	},
	"upper": strings.ToUpper,
}).Parse(diagramHTML))

type pageData struct {
	*Diagram
	LayerOrder []string
}

// Render writes the diagram page.
func Render(w io.Writer, d *Diagram) error {
	order := make([]string, 0, len(d.Layers))
	for _, l := range d.Layers {
		order = append(order, l.ID)
	}
	if err := page.Execute(w, pageData{Diagram: d, LayerOrder: order}); err != nil {
		return fmt.Errorf("render diagram: %w", err)
	}
	return nil
}
