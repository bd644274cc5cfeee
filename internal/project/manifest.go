// Package project loads the tmplc.toml manifest: where templates live,
// where generated modules go, compile settings, backend options and the
// plugin functions and methods templates may call.
package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"tmplc/internal/plugin"
)

// Manifest is a loaded tmplc.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package   PackageConfig    `toml:"package"`
	Compile   CompileConfig    `toml:"compile"`
	Python    PythonConfig     `toml:"python"`
	Functions []FunctionConfig `toml:"functions"`
	Methods   []MethodConfig   `toml:"methods"`
}

type PackageConfig struct {
	Name string `toml:"name"`
	Src  string `toml:"src"`
	Out  string `toml:"out"`
}

type CompileConfig struct {
	Globals        string `toml:"globals"`
	Jobs           int    `toml:"jobs"`
	Cache          bool   `toml:"cache"`
	CacheDir       string `toml:"cache_dir"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

type PythonConfig struct {
	RuntimePath       string            `toml:"runtime_path"`
	EnvironmentModule string            `toml:"environment_module"`
	BidiIsRtlFn       string            `toml:"bidi_is_rtl_fn"`
	TranslationClass  string            `toml:"translation_class"`
	NamespaceManifest map[string]string `toml:"namespace_manifest"`
}

// FunctionConfig declares a plugin function; max_args = -1 is variadic.
type FunctionConfig struct {
	Name    string `toml:"name"`
	Target  string `toml:"target"`
	MinArgs int    `toml:"min_args"`
	MaxArgs *int   `toml:"max_args"`
}

// MethodConfig declares a method the backend may call on a receiver class.
type MethodConfig struct {
	Class   string   `toml:"class"`
	Name    string   `toml:"name"`
	Returns string   `toml:"returns"`
	Args    []string `toml:"args"`
}

const (
	defaultSrc     = "."
	defaultOut     = "build/py"
	defaultRuntime = "tmplc.runtime"
	defaultCache   = ".tmplc-cache"
)

// LoadManifest finds tmplc.toml above startDir and loads it. ok is false
// when there is no manifest.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig decodes and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	cfg.applyDefaults()
	if _, err := cfg.Registry(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	for i, m := range cfg.Methods {
		if m.Class == "" || m.Name == "" {
			return Config{}, fmt.Errorf("%s: [[methods]] #%d needs class and name", path, i+1)
		}
	}
	return cfg, nil
}

// Defaults is the configuration used when there is no manifest.
func Defaults() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Package.Src == "" {
		c.Package.Src = defaultSrc
	}
	if c.Package.Out == "" {
		c.Package.Out = defaultOut
	}
	if c.Python.RuntimePath == "" {
		c.Python.RuntimePath = defaultRuntime
	}
	if c.Compile.CacheDir == "" {
		c.Compile.CacheDir = defaultCache
	}
}

// Registry builds the plugin function registry declared by [[functions]].
func (c Config) Registry() (*plugin.Registry, error) {
	reg := plugin.NewRegistry()
	for _, f := range c.Functions {
		maxArgs := f.MinArgs
		if f.MaxArgs != nil {
			maxArgs = *f.MaxArgs
		}
		if err := reg.Register(plugin.Function{Name: f.Name, Target: f.Target, MinArgs: f.MinArgs, MaxArgs: maxArgs}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// MethodChecker confirms the methods declared by [[methods]]; nil when
// there are none.
func (c Config) MethodChecker() plugin.MethodChecker {
	if len(c.Methods) == 0 {
		return nil
	}
	sc := plugin.NewStaticChecker()
	for _, m := range c.Methods {
		sc.Add(m.Class, m.Name, m.Returns, m.Args...)
	}
	return sc
}

// Abs resolves a manifest-relative path.
func (m *Manifest) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}
