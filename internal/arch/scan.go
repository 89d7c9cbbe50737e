package arch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// ErrUnknownFocus is returned for a focus the manifest does not define.
var ErrUnknownFocus = errors.New("unknown focus")

// NodeData is the per node entry handed to the page script.
type NodeData struct {
	Layer    string   `json:"layer"`
	File     string   `json:"file"`
	Desc     string   `json:"desc"`
	Connects []string `json:"connects"`
}

// LayerView is a layer with the nodes that survived the scan.
type LayerView struct {
	Layer
	Nodes []Node
}

// Diagram is a scanned manifest ready to render.
type Diagram struct {
	Title  string
	Focus  string
	Layers []LayerView
	Nodes  map[string]NodeData
	Order  []string
}

// Count is the number of nodes in the diagram.
func (d *Diagram) Count() int { return len(d.Nodes) }

// Focuses lists the manifest's focus names, sorted.
func (m *Manifest) Focuses() []string {
	out := make([]string, 0, len(m.Focus))
	for k := range m.Focus {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Manifest) include(n Node, keywords []string, root string) bool {
	if n.Check != "" && root != "" {
		if _, err := os.Stat(filepath.Join(root, n.Check)); err != nil {
			return false
		}
	}
	if keywords == nil {
		return true
	}
	match := n.File
	if n.Match != "" {
		match = n.Match
	}
	text := strings.ToLower(n.Name + " " + match)
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Scan selects the nodes to draw. An empty focus keeps every node; root,
// when set, is where node checks are resolved. Connections are limited to
// nodes that were kept.
func Scan(m *Manifest, focus, root string) (*Diagram, error) {
	var keywords []string
	if focus != "" {
		kw, ok := m.Focus[focus]
		if !ok {
			return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownFocus, focus, strings.Join(m.Focuses(), ", "))
		}
		keywords = kw
	}

	d := &Diagram{Title: m.Title, Focus: focus, Nodes: map[string]NodeData{}}
	byLayer := map[string][]Node{}
	for _, n := range m.Nodes {
		if !m.include(n, keywords, root) {
			continue
		}
		byLayer[n.Layer] = append(byLayer[n.Layer], n)
		d.Nodes[n.ID] = NodeData{Layer: n.Layer, File: n.File, Desc: n.Desc, Connects: []string{}}
		d.Order = append(d.Order, n.ID)
	}
	for src, targets := range m.Connections {
		nd, ok := d.Nodes[src]
		if !ok {
			continue
		}
		nd.Connects = slices.DeleteFunc(slices.Clone(targets), func(t string) bool {
			_, keep := d.Nodes[t]
			return !keep
		})
		d.Nodes[src] = nd
	}
	for _, l := range m.Layers {
		if ns := byLayer[l.ID]; len(ns) > 0 {
			d.Layers = append(d.Layers, LayerView{Layer: l, Nodes: ns})
		}
	}
	return d, nil
}
