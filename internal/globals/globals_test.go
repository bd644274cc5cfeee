package globals_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tmplc/internal/data"
	"tmplc/internal/diag"
	"tmplc/internal/globals"
)

func parse(t *testing.T, src string) (*globals.Globals, *diag.Bag) {
	t.Helper()
	r := diag.NewBagReporter(32)
	g, err := globals.Parse(strings.NewReader(src), "globals", r)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return g, r.Bag
}

func TestParseConstantsScenario(t *testing.T) {
	g, bag := parse(t, "pi = 3.14\nname = \"x\"\n// comment\n\nbad line")
	want := map[string]data.Value{
		"pi":   data.FloatValue(3.14),
		"name": data.StringValue("x"),
	}
	if diff := cmp.Diff(want, g.AsMap()); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}
	items := bag.Items()
	if len(items) != 1 {
		t.Fatalf("diagnostics = %v", items)
	}
	d := items[0]
	if d.Code != diag.GlbInvalidFormat || d.Text != "bad line" || d.Primary.Begin.Line != 5 {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestParseValueKinds(t *testing.T) {
	g, bag := parse(t, strings.Join([]string{
		"a.int = 42",
		"a.neg = -7",
		"a.hex = 0x10",
		"a.bool = true",
		"a.null = null",
		"a.str = 'it\\'s'",
		"a.exp   =   1e3",
	}, "\n"))
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	want := map[string]data.Value{
		"a.int":  data.IntValue(42),
		"a.neg":  data.IntValue(-7),
		"a.hex":  data.IntValue(16),
		"a.bool": data.BoolValue(true),
		"a.null": data.Null,
		"a.str":  data.StringValue("it's"),
		"a.exp":  data.FloatValue(1000),
	}
	if diff := cmp.Diff(want, g.AsMap()); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}
	if got := g.Names(); !cmp.Equal(got, []string{"a.bool", "a.exp", "a.hex", "a.int", "a.neg", "a.null", "a.str"}) {
		t.Errorf("Names = %v", got)
	}
}

func TestParseDiagnostics(t *testing.T) {
	cases := []struct {
		line string
		want diag.Code
	}{
		{"x = some.other", diag.GlbInvalidValue},
		{"x = $var", diag.GlbInvalidValue},
		{"x = [1, 2]", diag.GlbNonPrimitive},
		{"x = 1 + 2", diag.GlbNonPrimitive},
		{"x = 'unterminated", diag.LexUnterminatedString},
		{"1x = 2", diag.GlbInvalidFormat},
		{"x =", diag.GlbInvalidFormat},
		{"  // not a comment when indented", diag.GlbInvalidFormat},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			g, bag := parse(t, tc.line+"\nok = 1\n")
			if bag.Len() == 0 || bag.Items()[0].Code != tc.want {
				t.Fatalf("diagnostics = %v; want %s", bag.Items(), tc.want.ID())
			}
			if g.Len() != 1 {
				t.Errorf("the loader must continue after a bad line, got %v", g.AsMap())
			}
		})
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	in := globals.New(map[string]data.Value{
		"b.text":  data.StringValue("line\nquote' back\\ tab\t\x01"),
		"a.int":   data.IntValue(-3),
		"c.float": data.FloatValue(2),
		"d.on":    data.BoolValue(false),
		"e.none":  data.Null,
	})
	var buf bytes.Buffer
	if err := globals.Generate(&buf, in); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 5 || lines[0] != "a.int = -3" || lines[2] != "c.float = 2.0" {
		t.Fatalf("generated:\n%s", buf.String())
	}
	out, bag := parse(t, buf.String())
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", bag.Items())
	}
	if diff := cmp.Diff(in.AsMap(), out.AsMap()); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestGenerateRejectsNonPrimitive(t *testing.T) {
	in := globals.New(map[string]data.Value{"x": data.Undefined})
	if err := globals.Generate(&bytes.Buffer{}, in); err == nil {
		t.Fatal("expected error for undefined value")
	}
}

func TestLoadAndImmutability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.globals")
	if err := os.WriteFile(path, []byte("app.title = 'Hi'\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	g, err := globals.Load(path, diag.Exploding())
	if err != nil {
		t.Fatal(err)
	}
	m := g.AsMap()
	m["app.title"] = data.StringValue("changed")
	if v, _ := g.Lookup("app.title"); !v.Equal(data.StringValue("Hi")) {
		t.Errorf("AsMap must return a copy, got %s", v)
	}
	if _, err := globals.Load(filepath.Join(t.TempDir(), "missing"), diag.Exploding()); err == nil {
		t.Error("missing file must fail")
	}
}
