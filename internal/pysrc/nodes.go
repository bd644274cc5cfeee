package pysrc

import (
	"fmt"

	"tmplc/internal/ast"
	"tmplc/internal/codegen"
)

var sanitizedKinds = map[string]string{
	"html":                 "sanitize.SanitizedHtml",
	"attributes":           "sanitize.SanitizedHtmlAttribute",
	"uri":                  "sanitize.SanitizedUri",
	"trusted_resource_uri": "sanitize.SanitizedTrustedResourceUri",
	"css":                  "sanitize.SanitizedCss",
	"js":                   "sanitize.SanitizedJs",
}

type nodeVisitor struct {
	codegen.BaseNodeVisitor
	s *genState
}

// w is the writer of the innermost output block.
func (v *nodeVisitor) w() *codegen.Writer { return v.s.out.Top().Code() }

// initOutput emits the declaration of the innermost output variable the
// first time something is appended to it, or before a nested block opens.
func (v *nodeVisitor) initOutput() {
	acc := v.s.out.Top()
	if acc.MarkInitialized() {
		acc.Code().Line("%s = []", acc.Name)
	}
}

func (v *nodeVisitor) appendOutput(expr string) {
	v.initOutput()
	acc := v.s.out.Top()
	acc.Code().Line("%s.append(%s)", acc.Name, expr)
}

func (v *nodeVisitor) VisitRawText(id ast.NodeID) {
	text := ast.MustData[*ast.RawTextData](v.s.tree, id).Text
	if text == "" {
		return
	}
	v.appendOutput(pyString(text))
}

func (v *nodeVisitor) VisitPrint(id ast.NodeID) {
	t := v.s.tree
	expr := t.Child(id, 0)
	val := codegen.VisitExpr(t, expr, v.s.exprs())
	if t.Kind(expr) == ast.KindString && !t.IsError(expr) {
		v.appendOutput(val.Text)
		return
	}
	v.appendOutput("runtime.to_str(" + val.Text + ")")
}

func (v *nodeVisitor) VisitLetValue(id ast.NodeID) {
	t := v.s.tree
	d := t.Decl(id)
	val := codegen.VisitExpr(t, t.Child(id, 0), v.s.exprs())
	name := localName(d.Name, id)
	v.w().Line("%s = %s", name, val.Text)
	v.s.scope.Declare(d.Name, codegen.Atom(name))
}

func (v *nodeVisitor) VisitLetContent(id ast.NodeID) {
	d := v.s.tree.Decl(id)
	val := v.content(id, d.ContentKind)
	name := localName(d.Name, id)
	v.w().Line("%s = %s", name, val.Text)
	v.s.scope.Declare(d.Name, codegen.Atom(name))
}

// content lowers the children of id into a nested output variable and
// returns the expression reading it, wrapped for its content kind.
func (v *nodeVisitor) content(id ast.NodeID, kind string) codegen.Fragment {
	parent := v.w()
	v.s.out.Push(parent.Level())
	v.s.scope.Push()
	codegen.VisitBody(v.low(), id, v)
	v.s.scope.Pop()
	code, result := v.s.out.Pop()
	parent.Raw(code)
	if wrap, ok := sanitizedKinds[kind]; ok {
		return codegen.Atom(wrap + "(" + result.Text + ")")
	}
	return result
}

func (v *nodeVisitor) low() *codegen.Lowering { return v.s.low }

func (v *nodeVisitor) VisitIf(id ast.NodeID) {
	t := v.s.tree
	v.initOutput()
	w := v.w()
	ev := v.s.exprs()
	for i, br := range t.Children(id) {
		if t.IsError(br) {
			continue
		}
		switch t.Kind(br) {
		case ast.KindIfCond:
			cond := codegen.VisitExpr(t, t.Child(br, 0), ev)
			kw := "elif"
			if i == 0 {
				kw = "if"
			}
			w.Line("%s %s:", kw, cond.Text)
		case ast.KindIfElse:
			w.Line("else:")
		}
		v.block(br)
	}
}

// block lowers the body of id one level deeper, in its own scope.
func (v *nodeVisitor) block(id ast.NodeID) {
	w := v.w()
	w.Indent()
	before := w.Len()
	v.s.scope.Push()
	codegen.VisitBody(v.low(), id, v)
	v.s.scope.Pop()
	if w.Len() == before {
		w.Line("pass")
	}
	w.Dedent()
}

func (v *nodeVisitor) VisitFor(id ast.NodeID) {
	t := v.s.tree
	d := t.Decl(id)
	v.initOutput()
	w := v.w()
	lv := loopVars{
		list:  fmt.Sprintf("%sList%d", d.Name, id),
		index: fmt.Sprintf("%sIndex%d", d.Name, id),
		data:  fmt.Sprintf("%sData%d", d.Name, id),
	}
	v.s.loops[id] = lv
	list := codegen.VisitExpr(t, t.Child(id, 0), v.s.exprs())
	w.Line("%s = %s", lv.list, list.Text)
	w.Line("for %s, %s in enumerate(%s):", lv.index, lv.data, lv.list)

	w.Indent()
	before := w.Len()
	v.s.scope.Push()
	v.s.scope.Declare(d.Name, codegen.Atom(lv.data))
	codegen.VisitBody(v.low(), id, v)
	v.s.scope.Pop()
	if w.Len() == before {
		w.Line("pass")
	}
	w.Dedent()
}

func (v *nodeVisitor) VisitCall(id ast.NodeID) {
	call := v.s.callExpr(v, id)
	v.appendOutput(call.Text)
}
