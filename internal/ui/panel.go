package ui

import (
	"fmt"
	"io"
	"strings"
)

// ProgressBar renders a bar with percentage.
func ProgressBar(done, total, width int) string {
	t := Current()
	if total <= 0 {
		total = 1
	}
	done = min(max(done, 0), total)
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	bar := strings.Repeat(t.BarFull, filled) + strings.Repeat(t.BarEmpty, width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Panel frames lines with the theme's border.
func Panel(lines ...string) string {
	return Current().Frame.Render(strings.Join(lines, "\n"))
}

func OK(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Success.Render(t.SymOK+" "+msg))
}

func Fail(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Error.Render(t.SymFail+" "+msg))
}
