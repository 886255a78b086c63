// Package report renders matches and end-of-run summaries.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/varalys/logsearch/internal/types"
)

// PrintOptions selects the output format.
type PrintOptions struct {
	// Color highlights the location prefix and the matched span. Callers
	// decide with ColorEnabled.
	Color bool
	// JSON writes one object per match instead of text lines.
	JSON bool
}

// Printer writes matches to a writer as they arrive.
type Printer struct {
	w      io.Writer
	opts   PrintOptions
	prefix *color.Color
	hit    *color.Color
	enc    *json.Encoder
}

// NewPrinter returns a Printer for w.
func NewPrinter(w io.Writer, opts PrintOptions) *Printer {
	p := &Printer{
		w:    w,
		opts: opts,
		// 256-color orange
		prefix: color.New(38, 5, 208),
		hit:    color.New(color.FgHiGreen),
	}
	if opts.Color {
		p.prefix.EnableColor()
		p.hit.EnableColor()
	} else {
		p.prefix.DisableColor()
		p.hit.DisableColor()
	}
	if opts.JSON {
		p.enc = json.NewEncoder(w)
		p.enc.SetEscapeHTML(false)
	}
	return p
}

// Print writes one match.
func (p *Printer) Print(m types.Match) error {
	if p.enc != nil {
		return p.enc.Encode(newRecord(m))
	}
	_, err := io.WriteString(p.w, p.Format(m)+"\n")
	return err
}

// Format renders m as "<path>:<line>: <text>" without a trailing newline.
func (p *Printer) Format(m types.Match) string {
	loc := fmt.Sprintf("%s:%d:", m.Path, m.Line)
	if !p.opts.Color {
		return loc + " " + m.Text
	}
	return p.prefix.Sprint(loc) + " " + p.highlight(m.Text, m.Span)
}

func (p *Printer) highlight(text string, s types.Span) string {
	if s.Empty() || s.Start < 0 || s.End > len(text) || s.Start > s.End {
		return text
	}
	return text[:s.Start] + p.hit.Sprint(text[s.Start:s.End]) + text[s.End:]
}

// ColorEnabled reports whether match output to w should be colored: color
// was not disabled and w is a terminal.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
