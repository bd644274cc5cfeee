package sema

import (
	"tmplc/internal/ast"
	"tmplc/internal/diag"
	"tmplc/internal/source"
)

var (
	errUndefinedVar  = diag.ErrorKind(diag.SemUndefinedVar, "undefined variable $%s")
	errDuplicateDecl = diag.ErrorKind(diag.SemDuplicateDecl, "variable $%s is already declared in this scope")
	errDuplicateTmpl = diag.ErrorKind(diag.SemDuplicateTemplate, "template %q is already defined in this file")
)

type binder struct {
	tree   *ast.Tree
	r      diag.Reporter
	scopes scopeStack
}

// BindVars links every $name reference under file to the innermost
// declaration in scope: template params and state vars, lets and for-loop
// variables. Undefined names and duplicate declarations are reported.
// Injected references ($ij.name) bind to an @inject param when one exists
// and are left unbound otherwise.
func BindVars(t *ast.Tree, file ast.NodeID, r diag.Reporter) {
	b := &binder{tree: t, r: r}
	seen := make(map[string]ast.NodeID)
	for _, tmpl := range t.Templates(file) {
		if t.IsError(tmpl) {
			continue
		}
		name := ast.MustData[*ast.TemplateData](t, tmpl).Name
		if prev, dup := seen[name]; dup {
			r.Report(diagAt(errDuplicateTmpl, t.Loc(tmpl), name, name).WithNote(t.Loc(prev), "previous definition"))
			continue
		}
		seen[name] = tmpl
		b.bindTemplate(tmpl)
	}
}

func (b *binder) bindTemplate(tmpl ast.NodeID) {
	t := b.tree
	b.scopes.push()
	defer b.scopes.pop()
	decls := t.TemplateDecls(tmpl)
	for _, d := range decls {
		if !t.IsError(d) {
			b.declare(d)
		}
	}
	for _, d := range decls {
		if !t.IsError(d) {
			b.bindExpr(t.DeclDefault(d))
		}
	}
	b.bindBlock(t.Body(tmpl))
}

func (b *binder) declare(id ast.NodeID) {
	d := b.tree.Decl(id)
	if prev, dup := b.scopes.declare(d.Name, id); dup {
		b.r.Report(diagAt(errDuplicateDecl, b.tree.Loc(id), d.RefName(), d.Name).
			WithNote(b.tree.Loc(prev), "previous declaration"))
	}
}

func (b *binder) bindBlock(ids []ast.NodeID) {
	for _, id := range ids {
		b.bindNode(id)
	}
}

// nested binds children in a fresh frame.
func (b *binder) nested(ids []ast.NodeID) {
	b.scopes.push()
	b.bindBlock(ids)
	b.scopes.pop()
}

func (b *binder) bindNode(id ast.NodeID) {
	t := b.tree
	if t.IsError(id) {
		return
	}
	switch k := t.Kind(id); k {
	case ast.KindRawText, ast.KindParamDecl, ast.KindStateDecl:
	case ast.KindPrint:
		b.bindExpr(t.Child(id, 0))
	case ast.KindLetValue:
		// значение не видит саму переменную
		b.bindExpr(t.Child(id, 0))
		b.declare(id)
	case ast.KindLetContent:
		b.nested(t.Children(id))
		b.declare(id)
	case ast.KindIf:
		for _, br := range t.Children(id) {
			if t.Kind(br) == ast.KindIfCond && !t.IsError(br) {
				b.bindExpr(t.Child(br, 0))
			}
			b.nested(t.Body(br))
		}
	case ast.KindFor:
		b.bindExpr(t.Child(id, 0))
		b.scopes.push()
		b.declare(id)
		b.bindBlock(t.Body(id))
		b.scopes.pop()
	case ast.KindCall:
		for _, p := range t.Children(id) {
			switch {
			case t.IsError(p):
			case t.Kind(p) == ast.KindCallParamValue:
				b.bindExpr(t.Child(p, 0))
			default:
				b.nested(t.Children(p))
			}
		}
	default:
		if k.IsExpr() {
			b.bindExpr(id)
		}
	}
}

func (b *binder) bindExpr(root ast.NodeID) {
	t := b.tree
	t.Walk(root, func(id ast.NodeID) bool {
		if t.Kind(id) != ast.KindVarRef || t.IsError(id) {
			return true
		}
		ref := ast.MustData[*ast.VarRefData](t, id)
		decl, ok := b.scopes.lookup(ref.Name)
		switch {
		case ref.Injected:
			if ok && t.Decl(decl).Injected {
				ref.Decl = decl
			}
		case ok:
			ref.Decl = decl
		default:
			diag.Emit(b.r, errUndefinedVar, t.Loc(id), "$"+ref.Name, ref.Name)
		}
		return true
	})
}

func diagAt(kind diag.Kind, loc source.Location, text string, args ...any) diag.Diagnostic {
	return diag.Diagnostic{
		Severity: kind.Severity,
		Code:     kind.Code,
		Message:  kind.Message(args...),
		Primary:  loc,
		Text:     text,
	}
}
