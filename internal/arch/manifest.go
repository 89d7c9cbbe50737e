// Package arch renders an interactive architecture diagram from a YAML
// manifest of layers, nodes and connections.
package arch

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultManifest []byte

// Layer is a horizontal band of the diagram, listed top to bottom.
type Layer struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Desc  string `yaml:"desc"`
	Color string `yaml:"color"`
}

// Node is a component placed in a layer.
type Node struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Layer string `yaml:"layer"`
	File  string `yaml:"file"`
	Desc  string `yaml:"desc"`
	// Match replaces File as the text searched by focus keywords.
	Match string `yaml:"match,omitempty"`
	// Check is a path, relative to the scanned root, that must exist for
	// the node to be shown.
	Check string `yaml:"check,omitempty"`
}

// Manifest describes the whole architecture.
type Manifest struct {
	Title       string              `yaml:"title"`
	Layers      []Layer             `yaml:"layers"`
	Nodes       []Node              `yaml:"nodes"`
	Connections map[string][]string `yaml:"connections"`
	Focus       map[string][]string `yaml:"focus"`
}

// Parse decodes and validates a manifest.
func Parse(b []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads the manifest at path. An empty path or a missing file yields
// the built-in manifest.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(b)
}

// Default returns the built-in manifest.
func Default() (*Manifest, error) {
	return Parse(defaultManifest)
}

// Validate checks that ids are unique and nodes reference known layers.
func (m *Manifest) Validate() error {
	var errs []error
	layers := make(map[string]bool, len(m.Layers))
	for _, l := range m.Layers {
		if l.ID == "" {
			errs = append(errs, errors.New("layer without id"))
			continue
		}
		if layers[l.ID] {
			errs = append(errs, fmt.Errorf("duplicate layer %q", l.ID))
		}
		layers[l.ID] = true
	}
	nodes := make(map[string]bool, len(m.Nodes))
	for _, n := range m.Nodes {
		switch {
		case n.ID == "":
			errs = append(errs, errors.New("node without id"))
			continue
		case nodes[n.ID]:
			errs = append(errs, fmt.Errorf("duplicate node %q", n.ID))
		case !layers[n.Layer]:
			errs = append(errs, fmt.Errorf("node %q: unknown layer %q", n.ID, n.Layer))
		}
		nodes[n.ID] = true
	}
	return errors.Join(errs...)
}
