package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles styles, symbols and the panel border.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, Done                                lipgloss.Style

	Frame lipgloss.Style

	SymOK, SymFail, SymPending string
	BarFull, BarEmpty          string
}

// Themes lists the accepted theme names.
var Themes = []string{"classic", "neon", "mono"}

var current = build("classic")

func frame(b lipgloss.Border) lipgloss.Style {
	return lipgloss.NewStyle().Border(b).Padding(0, 1)
}

func build(name string) Theme {
	switch strings.ToLower(name) {
	case "neon":
		return Theme{
			Name:       "neon",
			Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
			Muted:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
			Accent:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
			Success:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
			Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			Pending:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
			Selected:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
			Done:       lipgloss.NewStyle().Faint(true).Strikethrough(true),
			Frame:      frame(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("13")),
			SymOK:      "✔",
			SymFail:    "✖",
			SymPending: "•",
			BarFull:    "█",
			BarEmpty:   "░",
		}
	case "mono":
		plain := lipgloss.NewStyle()
		return Theme{
			Name:  "mono",
			Title: plain, Muted: plain, Accent: plain, Success: plain, Error: plain, Pending: plain,
			Selected:   plain,
			Done:       plain,
			Frame:      frame(lipgloss.ASCIIBorder()),
			SymOK:      "ok",
			SymFail:    "x",
			SymPending: "-",
			BarFull:    "#",
			BarEmpty:   ".",
		}
	default:
		return Theme{
			Name:       "classic",
			Title:      lipgloss.NewStyle().Bold(true),
			Muted:      lipgloss.NewStyle().Faint(true),
			Accent:     lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
			Success:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			Pending:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			Selected:   lipgloss.NewStyle().Bold(true).Reverse(true),
			Done:       lipgloss.NewStyle().Faint(true).Strikethrough(true),
			Frame:      frame(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")),
			SymOK:      "✔",
			SymFail:    "✖",
			SymPending: "•",
			BarFull:    "█",
			BarEmpty:   "░",
		}
	}
}

// SetTheme switches the active theme. Unknown names fall back to classic.
func SetTheme(name string) { current = build(name) }

// Current returns the active theme.
func Current() Theme { return current }
