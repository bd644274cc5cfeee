package pysrc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tmplc/internal/codegen"
	"tmplc/internal/data"
)

// pyString renders s as a single-quoted Python literal.
func pyString(s string) string {
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
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func pyFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "float('nan')"
	case math.IsInf(f, 1):
		return "float('inf')"
	case math.IsInf(f, -1):
		return "float('-inf')"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".en") {
		s += ".0"
	}
	return s
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// valueLiteral lowers a compile-time value; ok is false for non-primitives.
func valueLiteral(v data.Value) (codegen.Fragment, bool) {
	switch v := v.(type) {
	case data.StringValue:
		return codegen.Atom(pyString(string(v))), true
	case data.IntValue:
		if v < 0 {
			return codegen.Op(v.String(), precUnary), true
		}
		return codegen.Atom(v.String()), true
	case data.FloatValue:
		if v < 0 {
			return codegen.Op(pyFloat(float64(v)), precUnary), true
		}
		return codegen.Atom(pyFloat(float64(v))), true
	case data.BoolValue:
		return codegen.Atom(pyBool(bool(v))), true
	}
	if v == data.Null {
		return codegen.Atom("None"), true
	}
	return codegen.Fragment{}, false
}

// pyValue is lowered Python code carried as a parameter value, so call
// sites can collect their arguments in a data.ParamStore.
type pyValue codegen.Fragment

func (v pyValue) Resolve() data.Value { return v }

func (v pyValue) Equal(o data.Value) bool {
	w, ok := o.(pyValue)
	return ok && w.Text == v.Text
}

func (v pyValue) Hash() uint64 { return data.StringValue(v.Text).Hash() }

func (v pyValue) String() string { return v.Text }
