package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tmplc/internal/plugin"
)

const sampleManifest = `
[package]
name = "demo"
src = "templates"

[compile]
globals = "globals.txt"
jobs = 4
cache = true

[python]
runtime_path = "example.runtime"
bidi_is_rtl_fn = "example.bidi.is_rtl"

[python.namespace_manifest]
"other.ns" = "pkg.other"

[[functions]]
name = "money"
target = "app.fmt.money"
min_args = 1

[[functions]]
name = "concat"
target = "app.fmt.concat"
max_args = -1

[[methods]]
class = "string"
name = "shout"
returns = "string"
`

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)
	nested := filepath.Join(root, "templates", "ns")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, ok, err := LoadManifest(nested)
	if err != nil || !ok {
		t.Fatalf("LoadManifest = %v, %v, %v", m, ok, err)
	}
	wantRoot, err := filepath.Abs(root)
	if err != nil {
		t.Fatal(err)
	}
	if m.Root != wantRoot {
		t.Errorf("Root = %q; want %q", m.Root, wantRoot)
	}
	cfg := m.Config
	if cfg.Package.Out != defaultOut || cfg.Compile.CacheDir != defaultCache {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Compile.Jobs != 4 || !cfg.Compile.Cache {
		t.Errorf("compile = %+v", cfg.Compile)
	}
	if cfg.Python.NamespaceManifest["other.ns"] != "pkg.other" {
		t.Errorf("namespace manifest = %v", cfg.Python.NamespaceManifest)
	}
	if got := m.Abs("globals.txt"); got != filepath.Join(wantRoot, "globals.txt") {
		t.Errorf("Abs = %q", got)
	}
}

func TestConfigPlugins(t *testing.T) {
	path := writeManifest(t, t.TempDir(), sampleManifest)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatal(err)
	}
	money, ok := reg.Lookup("money")
	if !ok || money.MaxArgs != 1 || !money.Accepts(1) || money.Accepts(2) {
		t.Errorf("money = %+v, %v", money, ok)
	}
	concat, _ := reg.Lookup("concat")
	if concat.MaxArgs != plugin.Variadic || !concat.Accepts(7) {
		t.Errorf("concat = %+v", concat)
	}
	mc := cfg.MethodChecker()
	if mc == nil || !mc.HasMethod(plugin.MethodSignature{Class: "string", Method: "shout"}, nil) {
		t.Error("declared method not confirmed")
	}
	if (Config{}).MethodChecker() != nil {
		t.Error("empty config has a method checker")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"no package", "[compile]\njobs = 1\n", "missing [package]"},
		{"no name", "[package]\nsrc = \"x\"\n", "missing [package].name"},
		{"unknown key", "[package]\nname = \"a\"\nflavour = 1\n", "unknown key package.flavour"},
		{"bad toml", "[package\n", "failed to parse TOML"},
		{"bad function", "[package]\nname = \"a\"\n[[functions]]\nname = \"f\"\n", "missing target"},
		{"bad method", "[package]\nname = \"a\"\n[[methods]]\nname = \"m\"\n", "needs class and name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v; want %q", err, tt.want)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Package.Src != "." || cfg.Package.Out != "build/py" || cfg.Python.RuntimePath != "tmplc.runtime" {
		t.Errorf("Defaults() = %+v", cfg)
	}
}

func TestFindManifestMissing(t *testing.T) {
	_, ok, err := FindProjectRoot(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// временный каталог может лежать внутри проекта только в экзотических окружениях
	if ok {
		t.Skip("a tmplc.toml exists above the temp dir")
	}
}

func TestCombineOrder(t *testing.T) {
	a, b := DigestOf([]byte("a")), DigestOf([]byte("b"))
	if Combine(a, b) == Combine(b, a) {
		t.Error("Combine ignores order")
	}
	if Combine(a, b) != Combine(a, b) {
		t.Error("Combine not deterministic")
	}
	if len(a.String()) != 64 {
		t.Errorf("hex digest %q", a.String())
	}
}
