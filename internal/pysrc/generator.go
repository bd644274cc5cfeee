// Package pysrc generates Python modules from template files. Each template
// becomes a function `name(data={}, ij_data={})` that returns the rendered
// text.
package pysrc

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"tmplc/internal/ast"
	"tmplc/internal/codegen"
	"tmplc/internal/data"
	"tmplc/internal/diag"
	"tmplc/internal/globals"
	"tmplc/internal/plugin"
	"tmplc/internal/types"
)

const indentUnit = "  "

// Deps are the read-only collaborators shared by every file of a build.
type Deps struct {
	Globals   *globals.Globals
	Functions *plugin.Registry
	// Methods confirms methods the built-in table does not know.
	Methods plugin.MethodChecker
	Types   *types.Interner
}

// Generator is safe for concurrent use once built; each Gen call keeps its
// own state.
type Generator struct {
	opts  Options
	deps  Deps
	props *data.PropertyTable
}

func New(opts Options, deps Deps) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if deps.Globals == nil {
		deps.Globals = globals.Empty
	}
	if deps.Functions == nil {
		deps.Functions = plugin.NewRegistry()
	}
	return &Generator{opts: opts, deps: deps, props: data.NewPropertyTable()}, nil
}

// genState is the per-file state.
type genState struct {
	g         *Generator
	low       *codegen.Lowering
	tree      *ast.Tree
	out       *codegen.OutputStack
	scope     codegen.ScopeStack
	namespace string
	imports   map[string]struct{}
	loops     map[ast.NodeID]loopVars
}

type loopVars struct {
	list, index, data string
}

func (g *Generator) newState(tree *ast.Tree, r diag.Reporter) *genState {
	s := &genState{
		g:       g,
		tree:    tree,
		low:     &codegen.Lowering{Tree: tree, Reporter: r, Backend: "python", Placeholder: codegen.Atom("None")},
		imports: make(map[string]struct{}),
		loops:   make(map[ast.NodeID]loopVars),
	}
	s.out = codegen.NewOutputStack("output", indentUnit, readBack)
	return s
}

func readBack(name string, initialized bool) codegen.Fragment {
	if !initialized {
		return codegen.Atom("''")
	}
	return codegen.Atom("''.join(" + name + ")")
}

// Result is one generated module.
type Result struct {
	Code string
	// Broken is set when any lowering failed; Code then contains
	// placeholders.
	Broken bool
}

// GenFile lowers a parsed, bound and typed file. path is the source path
// named in the module docstring.
func (g *Generator) GenFile(tree *ast.Tree, file ast.NodeID, path string, r diag.Reporter) Result {
	s := g.newState(tree, r)
	if d, ok := ast.Data[*ast.FileData](tree, file); ok {
		s.namespace = d.Namespace
	}

	body := codegen.NewWriter(indentUnit, 0)
	for _, tmpl := range tree.Templates(file) {
		if tree.IsError(tmpl) {
			continue
		}
		body.Blank()
		body.Blank()
		s.genTemplate(body, tmpl)
	}

	var w strings.Builder
	s.writeHeader(&w, path)
	w.WriteString(body.String())
	return Result{Code: w.String(), Broken: s.low.Failures() > 0}
}

// GenBody lowers only the body of tmpl, with the output variable already
// initialized and the params in scope. Used by tooling that embeds a
// template body in handwritten code.
func (g *Generator) GenBody(tree *ast.Tree, tmpl ast.NodeID, r diag.Reporter) Result {
	s := g.newState(tree, r)
	acc := s.out.Push(0)
	acc.MarkInitialized()
	s.scope.Push()
	s.declareParams(tmpl, acc.Code())
	codegen.VisitBody(s.low, tmpl, s.nodes())
	s.scope.Pop()
	code, _ := s.out.Pop()
	return Result{Code: code, Broken: s.low.Failures() > 0}
}

func (s *genState) writeHeader(w *strings.Builder, path string) {
	o := s.g.opts
	fmt.Fprintf(w, "# coding=utf-8\n\"\"\" This file was automatically generated from %s.\n", path)
	w.WriteString("Please don't edit this file by hand.\n")
	if s.namespace != "" {
		fmt.Fprintf(w, "\nTemplates in namespace %s.\n", s.namespace)
	}
	w.WriteString("\"\"\"\n\n")
	w.WriteString("import math\nimport random\n")
	fmt.Fprintf(w, "from %s import runtime\n", o.RuntimePath)
	fmt.Fprintf(w, "from %s import sanitize\n", o.RuntimePath)
	if o.EnvironmentModule != "" {
		fmt.Fprintf(w, "import %s as environment\n", o.EnvironmentModule)
	} else {
		fmt.Fprintf(w, "from %s import environment\n", o.RuntimePath)
	}
	if o.BidiIsRtlFn != "" {
		mod, _ := splitDotted(o.BidiIsRtlFn)
		fmt.Fprintf(w, "import %s as external_bidi\n", mod)
	}
	if o.TranslationClass != "" {
		mod, cls := splitDotted(o.TranslationClass)
		fmt.Fprintf(w, "from %s import %s\n", mod, cls)
	}
	for _, imp := range slices.Sorted(maps.Keys(s.imports)) {
		w.WriteString(imp)
		w.WriteByte('\n')
	}
	if o.TranslationClass != "" {
		_, cls := splitDotted(o.TranslationClass)
		fmt.Fprintf(w, "\ntranslator_impl = %s()\n", cls)
	}
}

func (s *genState) genTemplate(w *codegen.Writer, tmpl ast.NodeID) {
	d := ast.MustData[*ast.TemplateData](s.tree, tmpl)
	w.Line("def %s(data={}, ij_data={}):", d.Name)
	w.Indent()
	if d.Doc != "" {
		writeDocstring(w, d.Doc)
	}
	acc := s.out.Push(w.Level())
	s.scope.Push()
	s.declareParams(tmpl, acc.Code())
	codegen.VisitBody(s.low, tmpl, s.nodes())
	s.scope.Pop()
	code, result := s.out.Pop()
	w.Raw(code)
	w.Line("return %s", result.Text)
	w.Dedent()
	s.out.Reset()
}

func writeDocstring(w *codegen.Writer, doc string) {
	lines := strings.Split(strings.ReplaceAll(doc, `"""`, `\"\"\"`), "\n")
	if len(lines) == 1 {
		w.Line(`"""%s"""`, lines[0])
		return
	}
	w.Line(`"""%s`, lines[0])
	for _, l := range lines[1:] {
		w.Line("%s", l)
	}
	w.Line(`"""`)
}

// declareParams binds params to data lookups and emits state vars.
func (s *genState) declareParams(tmpl ast.NodeID, w *codegen.Writer) {
	ev := s.exprs()
	for _, id := range s.tree.TemplateDecls(tmpl) {
		if s.tree.IsError(id) {
			continue
		}
		d := s.tree.Decl(id)
		switch s.tree.Kind(id) {
		case ast.KindParamDecl:
			src := "data"
			if d.Injected {
				src = "ij_data"
			}
			if def := s.tree.DeclDefault(id); def.IsValid() {
				val := codegen.VisitExpr(s.tree, def, ev)
				s.scope.Declare(d.Name, codegen.Atom(fmt.Sprintf("%s.get(%s, %s)", src, pyString(d.Name), val.Text)))
				continue
			}
			s.scope.Declare(d.Name, codegen.Atom(fmt.Sprintf("%s.get(%s)", src, pyString(d.Name))))
		case ast.KindStateDecl:
			name := localName(d.Name, id)
			val := codegen.VisitExpr(s.tree, s.tree.DeclDefault(id), ev)
			w.Line("%s = %s", name, val.Text)
			s.scope.Declare(d.Name, codegen.Atom(name))
		}
	}
}

// localName is the Python name of a template-local variable.
func localName(name string, id ast.NodeID) string {
	return fmt.Sprintf("%s__v%d", name, id)
}

func (s *genState) nodes() *nodeVisitor {
	return &nodeVisitor{BaseNodeVisitor: codegen.BaseNodeVisitor{L: s.low}, s: s}
}

func (s *genState) exprs() *exprVisitor {
	return &exprVisitor{BaseExprVisitor: codegen.BaseExprVisitor{L: s.low}, s: s}
}
