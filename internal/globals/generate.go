package globals

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"tmplc/internal/data"
)

// Generate writes g as a globals file, one `name = literal` line per entry in
// name order. Parse reads the output back to an equal mapping.
func Generate(w io.Writer, g *Globals) error {
	bw := bufio.NewWriter(w)
	for _, name := range g.Names() {
		lit, err := Literal(g.values[name])
		if err != nil {
			return fmt.Errorf("globals: %s: %w", name, err)
		}
		fmt.Fprintf(bw, "%s = %s\n", name, lit)
	}
	return bw.Flush()
}

// Literal renders a primitive value in expression syntax.
func Literal(v data.Value) (string, error) {
	switch v := v.(type) {
	case data.StringValue:
		return quote(string(v)), nil
	case data.IntValue:
		return v.String(), nil
	case data.BoolValue:
		return v.String(), nil
	case data.FloatValue:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("float %v has no literal form", f)
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s, nil
	}
	if v == data.Null {
		return "null", nil
	}
	return "", fmt.Errorf("%T is not a primitive value", v)
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
