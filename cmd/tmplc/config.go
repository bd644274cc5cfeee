package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tmplc/internal/buildpipeline"
	"tmplc/internal/diag"
	"tmplc/internal/driver"
	"tmplc/internal/globals"
	"tmplc/internal/project"
	"tmplc/internal/pysrc"
)

// buildSetup is a compile request together with what the CLI needs to
// report on it and to watch its inputs.
type buildSetup struct {
	req      *driver.Request
	roots    []string
	globals  string
	baseDir  string
	manifest *project.Manifest
	// globalsBag holds diagnostics from loading the globals file.
	globalsBag *diag.Bag
}

// loadProjectManifest finds tmplc.toml above startDir.
func loadProjectManifest(startDir string) (*project.Manifest, bool, error) {
	m, ok, err := project.LoadManifest(startDir)
	if err != nil {
		return nil, false, err
	}
	return m, ok, nil
}

func manifestStart(args []string) string {
	if len(args) == 0 {
		return "."
	}
	info, err := os.Stat(args[0])
	if err == nil && info.IsDir() {
		return args[0]
	}
	return filepath.Dir(args[0])
}

// prepareBuild merges flags over the manifest and resolves every path.
func prepareBuild(cmd *cobra.Command, args []string) (*buildSetup, error) {
	m, ok, err := loadProjectManifest(manifestStart(args))
	if err != nil {
		return nil, err
	}
	cfg := project.Defaults()
	abs := func(p string) string { return p }
	baseDir := "."
	if ok {
		cfg = m.Config
		abs = m.Abs
		baseDir = m.Root
	} else {
		m = nil
	}

	flags := cmd.Flags()
	outDir := abs(cfg.Package.Out)
	if flags.Changed("out") {
		outDir, _ = flags.GetString("out")
	}
	globalsPath := abs(cfg.Compile.Globals)
	if flags.Changed("globals") {
		globalsPath, _ = flags.GetString("globals")
	}
	jobs := cfg.Compile.Jobs
	if flags.Changed("jobs") {
		jobs, _ = flags.GetInt("jobs")
	}
	useCache := cfg.Compile.Cache
	if flags.Changed("cache") {
		useCache, _ = flags.GetBool("cache")
	}
	runtimePath := cfg.Python.RuntimePath
	if flags.Changed("runtime") {
		runtimePath, _ = flags.GetString("runtime")
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if cfg.Compile.MaxDiagnostics > 0 && !cmd.Root().PersistentFlags().Changed("max-diagnostics") {
		maxDiagnostics = cfg.Compile.MaxDiagnostics
	}

	roots := args
	srcRoot := ""
	if len(roots) == 0 {
		srcRoot = abs(cfg.Package.Src)
		roots = []string{srcRoot}
	} else if info, err := os.Stat(roots[0]); err == nil && info.IsDir() {
		srcRoot = roots[0]
	} else if ok {
		srcRoot = abs(cfg.Package.Src)
	}
	files, err := buildpipeline.CollectFiles(roots)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %v", buildpipeline.TemplateExt, roots)
	}

	functions, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	setup := &buildSetup{
		roots:      roots,
		globals:    globalsPath,
		baseDir:    baseDir,
		manifest:   m,
		globalsBag: diag.NewBag(maxDiagnostics),
		req: &driver.Request{
			Files:   files,
			SrcRoot: srcRoot,
			OutDir:  outDir,
			Python: pysrc.Options{
				RuntimePath:       runtimePath,
				EnvironmentModule: cfg.Python.EnvironmentModule,
				BidiIsRtlFn:       cfg.Python.BidiIsRtlFn,
				TranslationClass:  cfg.Python.TranslationClass,
				NamespaceManifest: cfg.Python.NamespaceManifest,
			},
			Functions:      functions,
			Methods:        cfg.MethodChecker(),
			CacheSalt:      fmt.Sprintf("%v", cfg.Methods),
			Jobs:           jobs,
			MaxDiagnostics: maxDiagnostics,
		},
	}
	if err := setup.loadGlobals(); err != nil {
		return nil, err
	}
	if useCache {
		dc, err := driver.OpenDiskCache(underRoot(baseDir, cfg.Compile.CacheDir))
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		setup.req.Cache = dc
	}
	return setup, nil
}

// loadGlobals (re)reads the globals file, if any, into the request.
func (s *buildSetup) loadGlobals() error {
	s.globalsBag = diag.NewBag(s.req.MaxDiagnostics)
	if s.globals == "" {
		s.req.Globals = nil
		return nil
	}
	g, err := globals.Load(s.globals, diag.BagReporter{Bag: s.globalsBag})
	if err != nil {
		return err
	}
	s.req.Globals = g
	return nil
}
