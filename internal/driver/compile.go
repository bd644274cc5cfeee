// Package driver compiles template files into Python modules: it loads the
// sources, runs parse, semantic passes and lowering per file in parallel,
// consults the unit cache and writes the generated modules.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"tmplc/internal/ast"
	"tmplc/internal/buildpipeline"
	"tmplc/internal/diag"
	"tmplc/internal/globals"
	"tmplc/internal/observ"
	"tmplc/internal/parser"
	"tmplc/internal/plugin"
	"tmplc/internal/project"
	"tmplc/internal/pysrc"
	"tmplc/internal/sema"
	"tmplc/internal/source"
	"tmplc/internal/trace"
	"tmplc/internal/types"
)

// Request describes one build.
type Request struct {
	Files []string
	// SrcRoot is the directory output paths are made relative to.
	SrcRoot string
	// OutDir receives the generated modules; empty means nothing is
	// written.
	OutDir string

	Python    pysrc.Options
	Globals   *globals.Globals
	Functions *plugin.Registry
	Methods   plugin.MethodChecker
	// CacheSalt folds anything else that affects output into cache keys,
	// e.g. the declared method table.
	CacheSalt string

	Jobs           int
	MaxDiagnostics int
	Cache          Cache
	Progress       buildpipeline.ProgressSink
}

// Unit is the outcome for one source file.
type Unit struct {
	Path   string
	FileID source.FileID
	// Output is where the module was written, empty when it was not.
	Output string
	Code   string
	Broken bool
	Cached bool
	Bag    *diag.Bag
	Timer  *observ.Timer
}

// Result is the outcome of Compile. Units follow the order of
// Request.Files.
type Result struct {
	FileSet *source.FileSet
	Units   []Unit
	// Bag holds every unit's diagnostics, sorted.
	Bag *diag.Bag
	// Timer sums the phases of all units.
	Timer *observ.Timer
}

// Broken counts units that failed.
func (r *Result) Broken() int {
	n := 0
	for i := range r.Units {
		if r.Units[i].Broken {
			n++
		}
	}
	return n
}

// Cached counts units served from the cache.
func (r *Result) Cached() int {
	n := 0
	for i := range r.Units {
		if r.Units[i].Cached {
			n++
		}
	}
	return n
}

var (
	errLoad  = diag.ErrorKind(diag.IOLoadFileError, "failed to load file: %v")
	errWrite = diag.ErrorKind(diag.IOWriteError, "failed to write %s: %v")
)

// Compile builds every file of req. Per-file problems end up as
// diagnostics on the unit; the returned error is reserved for a broken
// request and for cancellation.
func Compile(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("driver: nil request")
	}
	// проверяем опции до запуска воркеров
	if _, err := pysrc.New(req.Python, pysrc.Deps{}); err != nil {
		return nil, err
	}
	fingerprint, err := Fingerprint(req)
	if err != nil {
		return nil, err
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "compile", trace.CurrentSpan(ctx)).
		WithExtra("files", fmt.Sprint(len(req.Files)))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	res := &Result{
		FileSet: source.NewFileSet(),
		Units:   make([]Unit, len(req.Files)),
		Timer:   observ.NewTimer(),
	}
	buildpipeline.EmitQueued(req.Progress, req.Files)

	// Загружаем все файлы заранее: FileSet потокобезопасен, но порядок
	// FileID остаётся детерминированным.
	loadErrs := make(map[int]error)
	loadSpan := trace.Begin(tracer, trace.ScopePass, "load", span.ID())
	for i, path := range req.Files {
		id, err := res.FileSet.Load(path)
		if err != nil {
			loadErrs[i] = err
			continue
		}
		res.Units[i].FileID = id
	}
	loadSpan.End(fmt.Sprintf("%d failed", len(loadErrs)))

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(req.Files))))

	for i, path := range req.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u := &res.Units[i]
			u.Path = path
			u.Bag = diag.NewBag(req.MaxDiagnostics)
			u.Timer = observ.NewTimer()
			if err, failed := loadErrs[i]; failed {
				diag.Emit(diag.BagReporter{Bag: u.Bag}, errLoad, source.Location{Path: filepath.ToSlash(filepath.Clean(path))}, "", err)
				u.Broken = true
				buildpipeline.Emit(req.Progress, path, buildpipeline.StageParse, buildpipeline.StatusError, err, 0)
				return nil
			}
			c := unitCompiler{req: req, unit: u, file: res.FileSet.Get(u.FileID), fingerprint: fingerprint}
			c.run(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	total := 0
	for i := range res.Units {
		total += res.Units[i].Bag.Len()
	}
	res.Bag = diag.NewBag(max(total, 1))
	for i := range res.Units {
		res.Bag.Merge(res.Units[i].Bag)
		res.Timer.Add(res.Units[i].Timer)
	}
	res.Bag.Sort()
	return res, nil
}

// unitCompiler runs the stages of one file. Everything it touches is
// owned by the unit except the read-only parts of the request.
type unitCompiler struct {
	req         *Request
	unit        *Unit
	file        *source.File
	fingerprint project.Digest
	span        *trace.Span
	interner    *types.Interner
	dedup       *diag.DedupReporter
}

// reporter feeds the unit bag and drops repeats of the same diagnostic.
func (c *unitCompiler) reporter() diag.ErrorReporter {
	if c.dedup == nil {
		c.dedup = diag.NewDedupReporter(diag.BagReporter{Bag: c.unit.Bag})
	}
	return c.dedup
}

func (c *unitCompiler) run(ctx context.Context) {
	u := c.unit
	c.span = trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "unit", trace.CurrentSpan(ctx)).
		WithExtra("path", u.Path)
	defer func() {
		c.span.End(fmt.Sprintf("broken=%t cached=%t", u.Broken, u.Cached))
	}()

	key := UnitKey(c.file.Hash, c.fingerprint)
	if c.fromCache(key) {
		c.write()
		return
	}

	tree := ast.NewTree(0)
	var root ast.NodeID
	c.stage(buildpipeline.StageParse, func() {
		root = parser.ParseFile(tree, c.file, c.reporter())
	})
	c.stage(buildpipeline.StageCheck, func() {
		sema.BindVars(tree, root, c.reporter())
		sema.NewResolver(c.typeInterner()).ResolveTypes(tree, root, c.reporter())
	})
	if u.Bag.HasErrors() {
		// понижать дерево с ошибками бессмысленно: вывод будет мусором
		u.Broken = true
		c.store(key)
		return
	}

	var gen pysrc.Result
	c.stage(buildpipeline.StageLower, func() {
		g, err := pysrc.New(c.req.Python, pysrc.Deps{
			Globals:   c.req.Globals,
			Functions: c.req.Functions,
			Methods:   c.req.Methods,
			Types:     c.typeInterner(),
		})
		if err != nil {
			// опции уже проверены в Compile
			panic(err)
		}
		gen = g.GenFile(tree, root, c.file.Path, c.reporter())
	})
	u.Code = gen.Code
	u.Broken = gen.Broken || u.Bag.HasErrors()

	if c.write() {
		c.store(key)
	}
}

// typeInterner returns the unit's interner; sema and lowering must share it.
func (c *unitCompiler) typeInterner() *types.Interner {
	if c.interner == nil {
		c.interner = types.NewInterner()
	}
	return c.interner
}

// stage runs fn as one pipeline stage: progress events, a trace span and a
// timer phase around it.
func (c *unitCompiler) stage(stage buildpipeline.Stage, fn func()) {
	u := c.unit
	buildpipeline.Emit(c.req.Progress, u.Path, stage, buildpipeline.StatusWorking, nil, 0)
	span := trace.Begin(c.span.Tracer(), trace.ScopeUnit, string(stage), c.span.ID())
	errsBefore := u.Bag.ErrorCount()
	start := time.Now()
	idx := u.Timer.Begin(string(stage))
	fn()
	u.Timer.End(idx, "")
	elapsed := time.Since(start)
	span.End("")

	status := buildpipeline.StatusDone
	var err error
	if n := u.Bag.ErrorCount() - errsBefore; n > 0 {
		status = buildpipeline.StatusError
		err = fmt.Errorf("%d error(s)", n)
	}
	buildpipeline.Emit(c.req.Progress, u.Path, stage, status, err, elapsed)
}

func (c *unitCompiler) fromCache(key project.Digest) bool {
	if c.req.Cache == nil {
		return false
	}
	p, ok, err := c.req.Cache.Get(key)
	if err != nil || !ok || p.Path != c.unit.Path {
		// битая запись кэша равна промаху
		return false
	}
	u := c.unit
	u.Cached = true
	u.Code = p.Code
	u.Broken = p.Broken
	for _, d := range p.Diagnostics {
		u.Bag.Add(d)
	}
	for _, stage := range []buildpipeline.Stage{buildpipeline.StageParse, buildpipeline.StageCheck, buildpipeline.StageLower} {
		buildpipeline.Emit(c.req.Progress, u.Path, stage, buildpipeline.StatusCached, nil, 0)
	}
	return true
}

func (c *unitCompiler) store(key project.Digest) {
	if c.req.Cache == nil {
		return
	}
	u := c.unit
	p := &Payload{
		Path:        u.Path,
		ContentHash: project.Digest(c.file.Hash),
		Code:        u.Code,
		Broken:      u.Broken,
		Diagnostics: append([]diag.Diagnostic(nil), u.Bag.Items()...),
	}
	if err := c.req.Cache.Put(key, p); err != nil {
		trace.Point(c.span.Tracer(), trace.ScopeUnit, "cache-put-failed", err.Error(), c.span.ID())
	}
}

// write stores the generated module under OutDir. It reports false when
// writing failed; broken units and requests without OutDir write nothing.
func (c *unitCompiler) write() bool {
	u := c.unit
	if c.req.OutDir == "" || u.Broken {
		return true
	}
	out := buildpipeline.OutputPath(u.Path, c.req.SrcRoot, c.req.OutDir)
	var err error
	c.stage(buildpipeline.StageWrite, func() {
		if err = os.MkdirAll(filepath.Dir(out), 0o755); err == nil {
			err = os.WriteFile(out, []byte(u.Code), 0o644)
		}
		if err != nil {
			diag.Emit(c.reporter(), errWrite, source.Location{Path: c.file.Path}, "", out, err)
		}
	})
	if err != nil {
		u.Broken = true
		return false
	}
	u.Output = out
	return true
}
