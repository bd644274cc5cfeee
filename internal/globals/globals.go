// Package globals loads compile-time constants from `name = literal` files.
//
//	// comments start with two slashes
//	app.pi = 3.14
//	app.name = 'tmplc'
//
// Every well-formed line with a primitive literal becomes an entry; any other
// line is reported and skipped, so one pass reports every bad line.
package globals

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"fortio.org/safecast"

	"tmplc/internal/ast"
	"tmplc/internal/data"
	"tmplc/internal/diag"
	"tmplc/internal/parser"
	"tmplc/internal/source"
)

var (
	errFormat       = diag.ErrorKind(diag.GlbInvalidFormat, "invalid globals line format %q")
	errValue        = diag.ErrorKind(diag.GlbInvalidValue, "invalid global value %q: references an unresolved symbol")
	errNonPrimitive = diag.ErrorKind(diag.GlbNonPrimitive, "non-primitive global value %q")
)

var lineRe = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z_0-9.]*)\s*=\s*(.+)$`)

// Globals is an immutable name → primitive value mapping.
type Globals struct {
	values map[string]data.Value
}

// Empty has no entries.
var Empty = &Globals{values: map[string]data.Value{}}

// New copies m into a fresh mapping.
func New(m map[string]data.Value) *Globals {
	return &Globals{values: maps.Clone(m)}
}

func (g *Globals) Lookup(name string) (data.Value, bool) {
	if g == nil {
		return nil, false
	}
	v, ok := g.values[name]
	return v, ok
}

func (g *Globals) Len() int {
	if g == nil {
		return 0
	}
	return len(g.values)
}

// Names returns the names in sorted order.
func (g *Globals) Names() []string {
	if g == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(g.values))
}

// AsMap returns a copy of the mapping.
func (g *Globals) AsMap() map[string]data.Value {
	if g == nil {
		return map[string]data.Value{}
	}
	return maps.Clone(g.values)
}

// Load reads and parses the globals file at path.
func Load(path string, r diag.Reporter) (*Globals, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("globals: %w", err)
	}
	defer f.Close()
	return Parse(f, path, r)
}

// Parse reads src line by line. Bad lines are reported to r and skipped;
// only read errors are returned.
func Parse(src io.Reader, path string, r diag.Reporter) (*Globals, error) {
	values := make(map[string]data.Value)
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	var lineNum uint32
	for sc.Scan() {
		lineNum++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.HasPrefix(line, "//") || strings.TrimSpace(line) == "" {
			continue
		}
		if name, v, ok := parseLine(line, path, lineNum, r); ok {
			values[name] = v
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("globals: read %s: %w", path, err)
	}
	return &Globals{values: values}, nil
}

func parseLine(line, path string, lineNum uint32, r diag.Reporter) (string, data.Value, bool) {
	width := col32(len(line))
	lineLoc := source.NewLocation(path, lineNum, 1, lineNum, max(width, 1))

	m := lineRe.FindStringSubmatchIndex(line)
	if m == nil {
		diag.Emit(r, errFormat, lineLoc, line, line)
		return "", nil, false
	}
	name := line[m[2]:m[3]]
	valueText := strings.TrimSpace(line[m[4]:m[5]])
	col := col32(m[4] + 1)
	valueLoc := source.NewLocation(path, lineNum, col, lineNum, col)

	// синтаксические ошибки значения уходят в тот же reporter
	var nop diag.NopReporter
	tree := ast.NewTree(8)
	expr := parser.ParseExpr(tree, valueText, valueLoc, diag.MultiReporter{r, &nop})
	if nop.ErrorsSince(diag.Checkpoint{}) {
		return "", nil, false
	}

	switch tree.Kind(expr) {
	case ast.KindString:
		return name, data.StringValue(ast.MustData[*ast.StringData](tree, expr).Value), true
	case ast.KindInt:
		return name, data.IntValue(ast.MustData[*ast.IntData](tree, expr).Value), true
	case ast.KindFloat:
		return name, data.FloatValue(ast.MustData[*ast.FloatData](tree, expr).Value), true
	case ast.KindBool:
		return name, data.BoolValue(ast.MustData[*ast.BoolData](tree, expr).Value), true
	case ast.KindNull:
		return name, data.Null, true
	case ast.KindGlobal, ast.KindVarRef:
		diag.Emit(r, errValue, lineLoc, line, valueText)
	default:
		diag.Emit(r, errNonPrimitive, lineLoc, line, valueText)
	}
	return "", nil, false
}

func col32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("globals: column overflow: %w", err))
	}
	return v
}
