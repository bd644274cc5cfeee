package trace

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	outer := Begin(tr, ScopeDriver, "compile", 0)
	inner := Begin(tr, ScopeUnit, "unit:a.tpl", outer.ID())
	inner.End("")
	pass := Begin(tr, ScopePass, "lower", outer.ID())
	pass.WithExtra("templates", "2").End("ok")
	outer.End("")

	out := buf.String()
	if strings.Contains(out, "unit:a.tpl") {
		t.Errorf("unit scope emitted at phase level:\n%s", out)
	}
	if inner.ID() != 0 {
		t.Errorf("filtered span has id %d", inner.ID())
	}
	if got := strings.Count(out, "\n"); got != 4 {
		t.Errorf("got %d events; want 4:\n%s", got, out)
	}
	if !strings.Contains(out, "← lower (ok) {templates=2}") {
		t.Errorf("end event not rendered:\n%s", out)
	}
}

func TestNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDebug, Format: FormatNDJSON, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)
	s := Begin(FromContext(ctx), ScopeDriver, "compile", 0)
	Point(FromContext(ctx), ScopeNode, "cache-hit", "a.tpl", CurrentSpan(WithSpan(ctx, s)))
	s.End("")

	sc := bufio.NewScanner(&buf)
	var kinds []string
	for sc.Scan() {
		var ev map[string]any
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		kinds = append(kinds, ev["kind"].(string))
		if ev["kind"] == "point" && ev["parent_id"].(float64) != float64(s.ID()) {
			t.Errorf("point parent = %v; want %d", ev["parent_id"], s.ID())
		}
	}
	if strings.Join(kinds, ",") != "begin,point,end" {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "PHASE": LevelPhase, "unit": LevelUnit, "debug": LevelDebug} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) succeeded")
	}
}

func TestNopContext(t *testing.T) {
	tr := FromContext(context.Background())
	if tr.Enabled() {
		t.Fatal("default tracer enabled")
	}
	if d := Begin(tr, ScopeDriver, "x", 0).End(""); d != 0 {
		t.Errorf("nop span duration = %v", d)
	}
}
