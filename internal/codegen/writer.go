package codegen

import (
	"fmt"
	"strings"
)

// Writer accumulates indented source lines.
type Writer struct {
	buf    strings.Builder
	indent int
	unit   string
}

// NewWriter indents with unit, e.g. four spaces for Python.
func NewWriter(unit string, indent int) *Writer {
	return &Writer{unit: unit, indent: indent}
}

// Line writes one formatted line at the current indentation.
func (w *Writer) Line(format string, args ...any) {
	for range w.indent {
		w.buf.WriteString(w.unit)
	}
	if len(args) == 0 {
		w.buf.WriteString(format)
	} else {
		fmt.Fprintf(&w.buf, format, args...)
	}
	w.buf.WriteByte('\n')
}

// Blank writes an empty line.
func (w *Writer) Blank() { w.buf.WriteByte('\n') }

// Raw appends already indented code verbatim.
func (w *Writer) Raw(code string) { w.buf.WriteString(code) }

func (w *Writer) Indent() { w.indent++ }

func (w *Writer) Dedent() {
	if w.indent == 0 {
		panic("codegen: dedent below zero")
	}
	w.indent--
}

func (w *Writer) Level() int { return w.indent }

func (w *Writer) Len() int { return w.buf.Len() }

func (w *Writer) String() string { return w.buf.String() }
