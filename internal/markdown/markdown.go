// Package markdown reads the BACKLOG-NNN.md detail files: titles, bold
// "**Field**:" labels and "## Section" bodies.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DescriptionHeadings are tried in order when looking for an item summary.
var DescriptionHeadings = []string{"Description", "Summary", "Problem Statement", "Problem", "Background", "Overview"}

// MaxSectionLen caps a section body, in runes.
const MaxSectionLen = 500

type heading struct {
	level     int
	text      string
	lineStart int // offset of the '#' line
	bodyStart int // offset just past the heading line
}

// Document is a parsed markdown file.
type Document struct {
	src      []byte
	headings []heading
}

var parser = goldmark.New().Parser()

// Parse indexes the top-level headings of src.
func Parse(src []byte) *Document {
	doc := &Document{src: src}
	root := parser.Parse(text.NewReader(src))
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			continue
		}
		var buf bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		first, last := lines.At(0), lines.At(lines.Len()-1)
		doc.headings = append(doc.headings, heading{
			level:     h.Level,
			text:      strings.TrimSpace(buf.String()),
			lineStart: lineStart(src, first.Start),
			bodyStart: nextLine(src, last.Stop),
		})
	}
	return doc
}

func lineStart(src []byte, off int) int {
	if i := bytes.LastIndexByte(src[:off], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

func nextLine(src []byte, off int) int {
	if off >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[off:], '\n'); i >= 0 {
		return off + i + 1
	}
	return len(src)
}

var (
	backlogTitle  = regexp.MustCompile(`^BACKLOG-\d+[:\s]+(.+)$`)
	backlogPrefix = regexp.MustCompile(`^BACKLOG-\d+[:\s]*`)
)

// Title returns the item title from the first "# BACKLOG-NNN: ..." heading,
// falling back to the first H1 with any BACKLOG-NNN prefix removed.
func (d *Document) Title() string {
	for _, h := range d.headings {
		if h.level != 1 {
			continue
		}
		if m := backlogTitle.FindStringSubmatch(h.text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, h := range d.headings {
		if h.level == 1 {
			return strings.TrimSpace(backlogPrefix.ReplaceAllString(h.text, ""))
		}
	}
	return ""
}

// Section returns the body under the first of names that has a non-empty
// "## name" section. The body runs to the next heading of level two or
// higher and is capped at MaxSectionLen runes.
func (d *Document) Section(names ...string) string {
	for _, name := range names {
		for i, h := range d.headings {
			if h.level != 2 || h.text != name {
				continue
			}
			end := len(d.src)
			for _, next := range d.headings[i+1:] {
				if next.level <= 2 {
					end = next.lineStart
					break
				}
			}
			body := strings.TrimSpace(string(d.src[h.bodyStart:end]))
			if body == "" {
				continue
			}
			if r := []rune(body); len(r) > MaxSectionLen {
				body = string(r[:MaxSectionLen]) + "..."
			}
			return body
		}
	}
	return ""
}

// Description returns the first populated description-like section.
func (d *Document) Description() string {
	return d.Section(DescriptionHeadings...)
}

// Word returns the first word after a "**name**:" label, matched
// case-insensitively.
func (d *Document) Word(name string) string {
	re := regexp.MustCompile(`(?i)\*\*` + regexp.QuoteMeta(name) + `\*\*[:\s]+(\w+)`)
	if m := re.FindSubmatch(d.src); m != nil {
		return string(m[1])
	}
	return ""
}

// Field returns the text after a "**name**:" label up to the end of the
// line or the next bold marker.
func (d *Document) Field(name string) string {
	re := regexp.MustCompile(`(?i)\*\*` + regexp.QuoteMeta(name) + `\*\*[:\s]+(.+?)(?:\n|\*\*)`)
	if m := re.FindSubmatch(d.src); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

// Match returns the first submatch of pattern after a "**name**:" label.
func (d *Document) Match(name, pattern string) string {
	re := regexp.MustCompile(`(?i)\*\*` + regexp.QuoteMeta(name) + `\*\*[:\s]+(` + pattern + `)`)
	if m := re.FindSubmatch(d.src); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

// Render formats markdown for the terminal.
func Render(src []byte, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(string(src))
}
