package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"tmplc/internal/diag"
	"tmplc/internal/source"
)

type palette struct {
	err, warn, info, code, path, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:   mk(color.FgRed, color.Bold),
		warn:  mk(color.FgYellow, color.Bold),
		info:  mk(color.FgCyan),
		code:  mk(color.Bold),
		path:  mk(color.FgWhite, color.Bold),
		caret: mk(color.FgGreen, color.Bold),
		note:  mk(color.FgBlue),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем строку исходника с подчёркиванием ^~~~ и, по опции, заметки.
// fs может быть nil; тогда контекст не печатается.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, d, fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	_, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
		p.path.Sprint(position(d.Primary, opts.PathMode, opts.BaseDir)),
		p.severity(d.Severity).Sprint(d.Severity),
		p.code.Sprint(d.Code.ID()),
		d.Message)
	if err != nil {
		return err
	}
	if err := snippet(w, d.Primary, fs, opts.Width, p); err != nil {
		return err
	}
	if !opts.ShowNotes {
		return nil
	}
	for _, n := range d.Notes {
		if _, err := fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"),
			position(n.Loc, opts.PathMode, opts.BaseDir), n.Msg); err != nil {
			return err
		}
	}
	return nil
}

func position(loc source.Location, mode PathMode, base string) string {
	path := formatPath(loc.Path, mode, base)
	if !loc.IsKnown() {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, loc.Begin.Line, loc.Begin.Col)
}

// snippet prints the first line of loc with a caret underline. Columns are
// byte based; the underline is measured in display cells.
func snippet(w io.Writer, loc source.Location, fs *source.FileSet, width int, p palette) error {
	if fs == nil || !loc.IsKnown() {
		return nil
	}
	id, ok := fs.GetLatest(loc.Path)
	if !ok {
		return nil
	}
	line := strings.TrimRight(fs.Get(id).GetLine(loc.Begin.Line), "\r")
	if line == "" {
		return nil
	}
	begin := min(int(loc.Begin.Col)-1, len(line))
	end := len(line)
	if loc.End.Line == loc.Begin.Line {
		end = min(max(int(loc.End.Col), begin+1), len(line))
	}
	begin = max(begin, 0)

	var lead strings.Builder
	for _, r := range line[:begin] {
		if r == '\t' {
			lead.WriteByte('\t')
			continue
		}
		lead.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	span := max(runewidth.StringWidth(line[begin:end]), 1)
	shown := line
	if width > 0 && runewidth.StringWidth(shown) > width {
		shown = runewidth.Truncate(shown, width, "...")
	}
	underline := "^" + strings.Repeat("~", span-1)
	_, err := fmt.Fprintf(w, "  %s\n  %s%s\n", shown, lead.String(), p.caret.Sprint(underline))
	return err
}
