package sema_test

import (
	"testing"

	"tmplc/internal/ast"
	"tmplc/internal/diag"
	"tmplc/internal/parser"
	"tmplc/internal/sema"
	"tmplc/internal/source"
	"tmplc/internal/testkit"
	"tmplc/internal/types"
)

func parse(t *testing.T, src string) (*ast.Tree, ast.NodeID) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("s.tpl", []byte(src)))
	tree := ast.NewTree(0)
	r := diag.NewBagReporter(16)
	root := parser.ParseFile(tree, f, r)
	if r.Bag.HasErrors() {
		t.Fatalf("parse errors: %v", r.Bag.Items())
	}
	return tree, root
}

func codes(b *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range b.Items() {
		out = append(out, d.Code)
	}
	return out
}

// refDecl returns the declaration bound to the n-th $name reference.
func refDecl(tree *ast.Tree, root ast.NodeID, name string, n int) ast.NodeID {
	for _, id := range tree.Collect(root, ast.KindVarRef) {
		if ast.MustData[*ast.VarRefData](tree, id).Name != name {
			continue
		}
		if n == 0 {
			return ast.MustData[*ast.VarRefData](tree, id).Decl
		}
		n--
	}
	return ast.NoNodeID
}

func TestBindVarsScopes(t *testing.T) {
	tree, root := parse(t, `{template .a}
  {@param x: int}
  {$x}
  {for $x in [$x]}{$x}{/for}
  {let $y: $x + 1 /}
  {if $y > 2}{let $z: 1 /}{$z}{/if}
  {call .b}{param p kind="text"}{$y}{/param}{/call}
{/template}`)
	r := diag.NewBagReporter(16)
	sema.BindVars(tree, root, r)
	if r.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.Bag.Items())
	}
	tmpl := tree.Templates(root)[0]
	param := tree.TemplateDecls(tmpl)[0]
	loop := tree.Collect(root, ast.KindFor)[0]
	let := tree.Collect(root, ast.KindLetValue)[0]

	if got := refDecl(tree, root, "x", 0); got != param {
		t.Errorf("first $x bound to %d; want param %d", got, param)
	}
	if got := refDecl(tree, root, "x", 1); got != param {
		t.Errorf("loop list $x bound to %d; want param %d", got, param)
	}
	if got := refDecl(tree, root, "x", 2); got != loop {
		t.Errorf("loop body $x bound to %d; want for %d", got, loop)
	}
	if got := refDecl(tree, root, "x", 3); got != param {
		t.Errorf("let value $x bound to %d; want param %d", got, param)
	}
	if got := refDecl(tree, root, "y", 1); got != let {
		t.Errorf("content param $y bound to %d; want let %d", got, let)
	}
	if err := testkit.CheckTreeInvariants(tree, root); err != nil {
		t.Fatal(err)
	}
}

func TestBindVarsDiagnostics(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []diag.Code
	}{
		{"undefined", "{template .a}{$nope}{/template}", []diag.Code{diag.SemUndefinedVar}},
		{"let out of scope", "{template .a}{if true}{let $z: 1 /}{/if}{$z}{/template}", []diag.Code{diag.SemUndefinedVar}},
		{"let sees not itself", "{template .a}{let $z: $z /}{/template}", []diag.Code{diag.SemUndefinedVar}},
		{"duplicate param", "{template .a}{@param x: int}{@param x: string}{/template}", []diag.Code{diag.SemDuplicateDecl}},
		{"duplicate let", "{template .a}{let $v: 1 /}{let $v: 2 /}{/template}", []diag.Code{diag.SemDuplicateDecl}},
		{"duplicate template", "{template .a}{/template}{template .a}{/template}", []diag.Code{diag.SemDuplicateTemplate}},
		{"shadowing is allowed", "{template .a}{@param x: int}{for $x in [1]}{$x}{/for}{/template}", nil},
		{"injected stays open", "{template .a}{$ij.locale}{/template}", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree, root := parse(t, tc.src)
			r := diag.NewBagReporter(16)
			sema.BindVars(tree, root, r)
			got := codes(r.Bag)
			if len(got) != len(tc.want) {
				t.Fatalf("codes = %v; want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("code %d = %s; want %s", i, got[i].ID(), tc.want[i].ID())
				}
			}
		})
	}
}

func TestBindVarsInjectedParam(t *testing.T) {
	tree, root := parse(t, "{template .a}{@inject locale: string}{$ij.locale}{$locale}{/template}")
	sema.BindVars(tree, root, diag.Exploding())
	decl := tree.TemplateDecls(tree.Templates(root)[0])[0]
	if refDecl(tree, root, "locale", 0) != decl || refDecl(tree, root, "locale", 1) != decl {
		t.Errorf("injected references must bind to the @inject param")
	}
}

func TestResolveTypes(t *testing.T) {
	tree, root := parse(t, `{template .a}
  {@param? title: string}
  {@param items: list<int>}
  {@param m: map<string, html|null>}
  {@state n:= 0}
  {for $i in $items}{$i}{/for}
  {let $s: 'a' /}
  {let $h kind="html"}x{/let}
{/template}`)
	sema.BindVars(tree, root, diag.Exploding())
	in := types.NewInterner()
	rs := sema.NewResolver(in)
	rs.ResolveTypes(tree, root, diag.Exploding())

	decls := tree.TemplateDecls(tree.Templates(root)[0])
	want := []string{"null|string", "list<int>", "map<string, null|html>", "int"}
	for i, d := range decls {
		if got := in.String(tree.Decl(d).Type()); got != want[i] {
			t.Errorf("decl %s: type %s; want %s", tree.Decl(d).RefName(), got, want[i])
		}
	}
	if got := in.String(tree.Decl(tree.Collect(root, ast.KindFor)[0]).Type()); got != "int" {
		t.Errorf("loop var type = %s", got)
	}
	if got := tree.Decl(tree.Collect(root, ast.KindLetValue)[0]).Type(); got != in.Builtins().String {
		t.Errorf("let type = %s", in.String(got))
	}
	if got := tree.Decl(tree.Collect(root, ast.KindLetContent)[0]).Type(); got != in.Builtins().HTML {
		t.Errorf("content let type = %s", in.String(got))
	}
}

func TestResolveTypesReportsUnknown(t *testing.T) {
	tree, root := parse(t, "{template .a}{@param a: Nope}{@param b: list<int, int>}{@param c: list}{/template}")
	r := diag.NewBagReporter(16)
	rs := sema.NewResolver(types.NewInterner())
	rs.ResolveTypes(tree, root, r)
	want := []diag.Code{diag.SemUnknownType, diag.SemBadTypeArity, diag.SemBadTypeArity}
	got := codes(r.Bag)
	if len(got) != len(want) {
		t.Fatalf("codes = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("code %d = %s; want %s", i, got[i].ID(), want[i].ID())
		}
	}
	for _, d := range tree.TemplateDecls(tree.Templates(root)[0]) {
		if tree.Decl(d).Type() != rs.Types.Builtins().Unknown {
			t.Errorf("%s should fall back to unknown", tree.Decl(d).RefName())
		}
	}
}

func TestResolveTypesSetsOnce(t *testing.T) {
	tree, root := parse(t, "{template .a}{@param a: int}{/template}")
	rs := sema.NewResolver(types.NewInterner())
	rs.ResolveTypes(tree, root, diag.Exploding())
	// повторный проход пропускает уже типизированные объявления
	rs.ResolveTypes(tree, root, diag.Exploding())

	d := tree.Decl(tree.TemplateDecls(tree.Templates(root)[0])[0])
	defer func() {
		if recover() == nil {
			t.Errorf("second SetType must panic")
		}
	}()
	d.SetType(rs.Types.Builtins().String)
}

func TestResolverImports(t *testing.T) {
	tree, root := parse(t, "{template .a}{@param css: Styles}{/template}")
	rs := sema.NewResolver(types.NewInterner())
	id := rs.RegisterImport("Styles", types.CSSModuleImport("a/b.css"))
	rs.ResolveTypes(tree, root, diag.Exploding())
	d := tree.Decl(tree.TemplateDecls(tree.Templates(root)[0])[0])
	if d.Type() != id {
		t.Fatalf("type = %s", rs.Types.String(d.Type()))
	}
	imp, ok := rs.Types.ImportInfo(id)
	if !ok || !imp.HasMember("classes") {
		t.Errorf("import = %+v", imp)
	}
}
