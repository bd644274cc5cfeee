package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tmplc/internal/buildpipeline"
	"tmplc/internal/data"
	"tmplc/internal/diag"
	"tmplc/internal/globals"
	"tmplc/internal/plugin"
	"tmplc/internal/pysrc"
	"tmplc/internal/source"
)

const greetSrc = `{namespace app.greet}

{template .hello}
  {@param name: string}
  Hello {$name}!
{/template}
`

const brokenSrc = `{namespace app.broken}

{template .oops}
  {$nope}
{/template}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newRequest(src string, files ...string) *Request {
	req := &Request{
		SrcRoot:        src,
		Python:         pysrc.Options{RuntimePath: "example.runtime"},
		Jobs:           2,
		MaxDiagnostics: 16,
	}
	for _, f := range files {
		req.Files = append(req.Files, filepath.Join(src, filepath.FromSlash(f)))
	}
	return req
}

type recorder struct {
	mu     sync.Mutex
	events []buildpipeline.Event
}

func (r *recorder) OnEvent(e buildpipeline.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) statuses(file string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.File == file {
			out = append(out, string(e.Stage)+":"+string(e.Status))
		}
	}
	return out
}

func TestCompileWritesModules(t *testing.T) {
	src := writeTree(t, map[string]string{"app/greet.tpl": greetSrc})
	out := t.TempDir()
	req := newRequest(src, "app/greet.tpl")
	req.OutDir = out
	rec := &recorder{}
	req.Progress = rec

	res, err := Compile(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Broken() != 0 || res.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	u := res.Units[0]
	if u.Output != filepath.Join(out, "app", "greet.py") {
		t.Errorf("Output = %q", u.Output)
	}
	written, err := os.ReadFile(u.Output)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != u.Code {
		t.Error("written module differs from unit code")
	}
	for _, want := range []string{"def hello(data={}, ij_data={}):", "runtime.to_str(data.get('name'))"} {
		if !strings.Contains(u.Code, want) {
			t.Errorf("code lacks %q:\n%s", want, u.Code)
		}
	}

	want := []string{
		"parse:queued",
		"parse:working", "parse:done",
		"check:working", "check:done",
		"lower:working", "lower:done",
		"write:working", "write:done",
	}
	if diff := cmp.Diff(want, rec.statuses(req.Files[0])); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if r := res.Timer.Report(); len(r.Phases) != 4 {
		t.Errorf("timer phases = %+v", r.Phases)
	}
}

func TestCompileBrokenUnitsDoNotStopOthers(t *testing.T) {
	src := writeTree(t, map[string]string{
		"a/greet.tpl":  greetSrc,
		"b/broken.tpl": brokenSrc,
	})
	out := t.TempDir()
	req := newRequest(src, "a/greet.tpl", "b/broken.tpl", "c/missing.tpl")
	req.OutDir = out

	res, err := Compile(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Broken(); got != 2 {
		t.Fatalf("Broken() = %d; want 2", got)
	}
	if res.Units[0].Broken || res.Units[0].Output == "" {
		t.Errorf("good unit affected: %+v", res.Units[0])
	}
	if res.Units[1].Output != "" {
		t.Error("broken unit was written")
	}
	if _, err := os.Stat(filepath.Join(out, "b", "broken.py")); !os.IsNotExist(err) {
		t.Errorf("broken module on disk: %v", err)
	}

	var codes []diag.Code
	for _, d := range res.Bag.Items() {
		codes = append(codes, d.Code)
	}
	// отсортировано по пути: b/broken.tpl раньше c/missing.tpl
	if diff := cmp.Diff([]diag.Code{diag.SemUndefinedVar, diag.IOLoadFileError}, codes); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileLoweringFailureIsBroken(t *testing.T) {
	src := writeTree(t, map[string]string{"x.tpl": `{namespace x}

{template .t}
  {app.missing}
  {app.version}
{/template}
`})
	req := newRequest(src, "x.tpl")
	req.Globals = globals.New(map[string]data.Value{"app.version": data.StringValue("1.0")})

	res, err := Compile(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	u := res.Units[0]
	if !u.Broken || u.Bag.Len() != 1 || u.Bag.Items()[0].Code != diag.GenUnresolvedGlobal {
		t.Fatalf("unit = %+v, diags %v", u, u.Bag.Items())
	}
	if !strings.Contains(u.Code, "'1.0'") {
		t.Errorf("known global not inlined:\n%s", u.Code)
	}
}

func TestCompileCache(t *testing.T) {
	src := writeTree(t, map[string]string{"greet.tpl": greetSrc, "broken.tpl": brokenSrc})
	cache := NewMemCache(4)
	req := newRequest(src, "greet.tpl", "broken.tpl")
	req.Cache = cache

	first, err := Compile(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached() != 0 || cache.Len() != 2 {
		t.Fatalf("cold build: cached=%d len=%d", first.Cached(), cache.Len())
	}

	rec := &recorder{}
	req.Progress = rec
	second, err := Compile(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if second.Cached() != 2 {
		t.Fatalf("warm build cached %d units", second.Cached())
	}
	if second.Units[0].Code != first.Units[0].Code {
		t.Error("cached code differs")
	}
	// диагностики воспроизводятся из кэша
	if !second.Units[1].Broken || second.Bag.Len() != first.Bag.Len() {
		t.Errorf("cached broken unit lost diagnostics: %v", second.Bag.Items())
	}
	want := []string{"parse:queued", "parse:cached", "check:cached", "lower:cached"}
	if diff := cmp.Diff(want, rec.statuses(req.Files[0])); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	// другие глобалы меняют ключ
	req.Globals = globals.New(map[string]data.Value{"a": data.IntValue(1)})
	third, err := Compile(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached() != 0 {
		t.Errorf("fingerprint ignored globals: cached=%d", third.Cached())
	}
}

func TestCompileDiskCache(t *testing.T) {
	src := writeTree(t, map[string]string{"greet.tpl": greetSrc})
	dc, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	req := newRequest(src, "greet.tpl")
	req.Cache = dc
	if _, err := Compile(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	res, err := Compile(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached() != 1 {
		t.Fatalf("disk cache missed")
	}
	if err := dc.DropAll(); err != nil {
		t.Fatal(err)
	}
	res, err = Compile(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached() != 0 {
		t.Error("DropAll kept entries")
	}
}

func TestCompileRejectsBadOptions(t *testing.T) {
	req := newRequest(t.TempDir())
	req.Python.RuntimePath = ""
	if _, err := Compile(context.Background(), req); err == nil {
		t.Error("empty runtime path accepted")
	}
	if _, err := Compile(context.Background(), nil); err == nil {
		t.Error("nil request accepted")
	}
}

func TestCompileCancelled(t *testing.T) {
	src := writeTree(t, map[string]string{"greet.tpl": greetSrc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compile(ctx, newRequest(src, "greet.tpl")); err == nil {
		t.Error("cancelled build succeeded")
	}
}

func TestFingerprint(t *testing.T) {
	base := newRequest("")
	a, err := Fingerprint(base)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := Fingerprint(newRequest(""))
	if a != again {
		t.Error("fingerprint not deterministic")
	}

	mutations := map[string]func(*Request){
		"runtime":   func(r *Request) { r.Python.RuntimePath = "other.runtime" },
		"manifest":  func(r *Request) { r.Python.NamespaceManifest = map[string]string{"a": "b"} },
		"salt":      func(r *Request) { r.CacheSalt = "methods:v2" },
		"functions": func(r *Request) { r.Functions = plugin.NewRegistry().MustRegister(plugin.Function{Name: "f", Target: "m.f"}) },
	}
	for name, mutate := range mutations {
		req := newRequest("")
		mutate(req)
		got, err := Fingerprint(req)
		if err != nil {
			t.Fatal(err)
		}
		if got == a {
			t.Errorf("%s does not change the fingerprint", name)
		}
	}
}

func TestLayeredPromotes(t *testing.T) {
	fast, slow := NewMemCache(1), NewMemCache(1)
	key := UnitKey([32]byte{1}, [32]byte{2})
	if err := slow.Put(key, &Payload{Path: "a.tpl", Code: "x"}); err != nil {
		t.Fatal(err)
	}
	p, ok, err := Layered{fast, slow}.Get(key)
	if err != nil || !ok || p.Code != "x" {
		t.Fatalf("Get = %v, %v, %v", p, ok, err)
	}
	if _, ok, _ := fast.Get(key); !ok {
		t.Error("entry not promoted")
	}

	// новый ключ для того же пути вытесняет старый
	next := UnitKey([32]byte{3}, [32]byte{2})
	_ = fast.Put(next, &Payload{Path: "a.tpl", Code: "y"})
	if _, ok, _ := fast.Get(key); ok || fast.Len() != 1 {
		t.Error("stale key survived")
	}
}

func TestUnitReporterDropsRepeats(t *testing.T) {
	c := unitCompiler{unit: &Unit{Bag: diag.NewBag(8)}}
	kind := diag.ErrorKind(diag.SynMalformedCommand, "bad %s")
	loc := source.NewLocation("a.tpl", 2, 1, 2, 5)
	cp := c.reporter().Checkpoint()
	diag.Emit(c.reporter(), kind, loc, "", "x")
	diag.Emit(c.reporter(), kind, loc, "", "x")
	if n := c.unit.Bag.Len(); n != 1 {
		t.Errorf("bag holds %d diagnostics; want 1", n)
	}
	if !c.reporter().ErrorsSince(cp) {
		t.Error("checkpoint missed the errors")
	}
}
