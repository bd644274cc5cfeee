package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tmplc/internal/diag"
	"tmplc/internal/diagfmt"
	"tmplc/internal/driver"
	"tmplc/internal/source"
)

// errBuildFailed means diagnostics were already printed.
var errBuildFailed = errors.New("build failed")

var compileCmd = &cobra.Command{
	Use:   "compile [flags] [file.tpl|directory]...",
	Short: "Compile templates into Python modules",
	Long: `Compile templates into Python modules. Without arguments the [package].src
directory of the nearest tmplc.toml is compiled.`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().String("out", "", "output directory for generated modules")
	compileCmd.Flags().String("globals", "", "compile-time globals file")
	compileCmd.Flags().String("runtime", "", "Python package holding the template runtime")
	compileCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	compileCmd.Flags().Bool("cache", false, "reuse results from the disk cache")
	compileCmd.Flags().String("ui", "off", "progress UI (auto|on|off)")
	compileCmd.Flags().Bool("watch", false, "recompile when templates or globals change")
	compileCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
	compileCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	compileCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	compileCmd.Flags().String("cpuprofile", "", "write a CPU profile to file")
	compileCmd.Flags().String("memprofile", "", "write a heap profile to file")
	compileCmd.Flags().String("runtime-trace", "", "write a Go runtime trace to file")
}

type reportOptions struct {
	format    string
	withNotes bool
	fullPath  bool
	quiet     bool
	timings   bool
	color     bool
}

func readReportOptions(cmd *cobra.Command) (reportOptions, error) {
	var opts reportOptions
	var err error
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	opts.format = strings.ToLower(opts.format)
	if opts.format != "pretty" && opts.format != "json" {
		return opts, fmt.Errorf("unsupported format %q (must be pretty or json)", opts.format)
	}
	if opts.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if opts.fullPath, err = cmd.Flags().GetBool("fullpath"); err != nil {
		return opts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.color, err = colorEnabled(cmd, os.Stderr); err != nil {
		return opts, err
	}
	return opts, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	report, err := readReportOptions(cmd)
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}

	setup, err := prepareBuild(cmd, args)
	if err != nil {
		return err
	}
	useTUI := useProgressUI(mode, report)

	build := func(ctx context.Context) error {
		return compileOnce(ctx, cmd, setup, report, useTUI)
	}
	if !watch {
		return build(cmd.Context())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	// в режиме наблюдения результаты держим в памяти поверх диска
	mem := driver.NewMemCache(len(setup.req.Files))
	if setup.req.Cache != nil {
		setup.req.Cache = driver.Layered{mem, setup.req.Cache}
	} else {
		setup.req.Cache = mem
	}
	if err := build(ctx); err != nil && !errors.Is(err, errBuildFailed) {
		return err
	}
	return watchLoop(ctx, cmd.ErrOrStderr(), setup, func() error {
		if err := refreshBuild(cmd, args, setup); err != nil {
			return err
		}
		return build(ctx)
	})
}

// refreshBuild picks up added or removed files and a changed globals file.
func refreshBuild(cmd *cobra.Command, args []string, setup *buildSetup) error {
	fresh, err := prepareBuild(cmd, args)
	if err != nil {
		return err
	}
	setup.req.Files = fresh.req.Files
	setup.req.Globals = fresh.req.Globals
	setup.globalsBag = fresh.globalsBag
	return nil
}

func compileOnce(ctx context.Context, cmd *cobra.Command, setup *buildSetup, report reportOptions, useTUI bool) error {
	stderr := cmd.ErrOrStderr()
	if setup.globalsBag.HasErrors() {
		setup.globalsBag.Sort()
		if err := printDiagnostics(cmd, setup.globalsBag, nil, setup.baseDir, report); err != nil {
			return err
		}
		return errBuildFailed
	}

	start := time.Now()
	var res *driver.Result
	var err error
	if useTUI {
		res, err = runCompileWithUI(ctx, "compiling", setup.req)
	} else {
		res, err = driver.Compile(ctx, setup.req)
	}
	if err != nil {
		return err
	}

	res.Bag.Merge(setup.globalsBag)
	res.Bag.Sort()
	if err := printDiagnostics(cmd, res.Bag, res.FileSet, setup.baseDir, report); err != nil {
		return err
	}
	if report.timings {
		printTimings(stderr, res)
	}
	if !report.quiet && report.format == "pretty" {
		fmt.Fprintf(stderr, "compiled %d file(s): %d cached, %d failed in %s\n",
			len(res.Units), res.Cached(), res.Broken(), time.Since(start).Round(time.Millisecond))
	}
	if res.Broken() > 0 {
		return errBuildFailed
	}
	return nil
}

func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet, baseDir string, report reportOptions) error {
	pathMode := diagfmt.PathModeRelative
	if report.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	if report.format == "json" {
		return diagfmt.JSON(cmd.OutOrStdout(), bag, diagfmt.JSONOpts{
			PathMode:     pathMode,
			BaseDir:      baseDir,
			IncludeNotes: report.withNotes,
		})
	}
	if bag.Len() == 0 {
		return nil
	}
	opts := diagfmt.PrettyOpts{
		Color:     report.color,
		PathMode:  pathMode,
		BaseDir:   baseDir,
		ShowNotes: report.withNotes,
	}
	return diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, opts)
}

func printTimings(out io.Writer, res *driver.Result) {
	if out == nil || res == nil {
		return
	}
	fmt.Fprint(out, res.Timer.Summary())
}
