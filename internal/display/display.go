// Package display renders classification results for the terminal.
//
// Every function takes an io.Writer and a colour flag so output can be
// checked in tests; ColorEnabled picks the flag for a real stream.
//
//	colored := display.ColorEnabled(os.Stdout)
//	display.Profile(os.Stdout, report, colored)
//	if w, ok := display.QualityWarning(report.Summary); ok {
//	    w.Display(os.Stderr, display.ColorEnabled(os.Stderr))
//	}
package display

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorEnabled reports whether w is a terminal that accepts colour.
// NO_COLOR disables colour everywhere.
func ColorEnabled(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type painter bool

func (p painter) paint(s string, attrs ...color.Attribute) string {
	if !p {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// Bar draws v in [0,1] as a fixed-width bar
func Bar(v float64, width int) string {
	if width < 1 {
		return "[]"
	}
	filled := int(math.Round(v * float64(width)))
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// Warning is a user-facing warning block
type Warning struct {
	Title      string
	Message    string
	Items      []string
	Suggestion string
}

// Display writes the warning, yellow when colored
func (w Warning) Display(out io.Writer, colored bool) {
	p := painter(colored)

	var b strings.Builder
	b.WriteString(p.paint("Warning: "+w.Title, color.FgYellow, color.Bold))
	b.WriteString("\n")
	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}
	for _, item := range w.Items {
		fmt.Fprintf(&b, "      - %s\n", item)
	}
	if w.Suggestion != "" {
		b.WriteString("    Suggestion: ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}
	fmt.Fprint(out, b.String())
}
