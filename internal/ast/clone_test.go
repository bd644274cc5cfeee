package ast_test

import (
	"testing"

	"tmplc/internal/ast"
	"tmplc/internal/source"
	"tmplc/internal/testkit"
	"tmplc/internal/typenode"
)

func at(line uint32) source.Location {
	return source.NewLocation("c.tpl", line, 1, line, 10)
}

// {let $z: 1 /}{print $z + $z}
func buildLetBlock(t *ast.Tree) (block, let, x, y ast.NodeID) {
	block = t.NewIfElse(at(1))
	let = t.NewLetValue(at(2), "z", t.NewInt(at(2), 1))
	x = t.NewVarRef(at(3), "z", false, let)
	y = t.NewVarRef(at(3), "z", false, let)
	t.AttachAll(block, let, t.NewPrint(at(3), t.NewBinary(at(3), ast.OpAdd, x, y)))
	return block, let, x, y
}

func TestCloneRedirectsSharedReference(t *testing.T) {
	tree := ast.NewTree(0)
	block, let, x, y := buildLetBlock(tree)

	clone, st := tree.Clone(block, nil)
	if clone == block {
		t.Fatalf("clone returned the original")
	}
	letC := st.MustLookup(let)
	xC, yC := st.MustLookup(x), st.MustLookup(y)
	if letC == let {
		t.Fatalf("declaration was not copied")
	}
	xd := ast.MustData[*ast.VarRefData](tree, xC)
	yd := ast.MustData[*ast.VarRefData](tree, yC)
	if xd.Decl != letC || yd.Decl != letC {
		t.Fatalf("clones reference %d and %d; want single clone %d", xd.Decl, yd.Decl, letC)
	}
	// the original is untouched
	if ast.MustData[*ast.VarRefData](tree, x).Decl != let {
		t.Fatalf("original reference was rewritten")
	}
	if tree.Parent(clone) != ast.NoNodeID {
		t.Errorf("clone root must be detached")
	}
	if err := testkit.CheckTreeInvariants(tree, clone); err != nil {
		t.Fatalf("clone invariants: %v", err)
	}
	if err := testkit.CheckTreeInvariants(tree, block); err != nil {
		t.Fatalf("original invariants: %v", err)
	}
	for _, n := range []ast.NodeID{letC, xC, yC} {
		for p := tree.Parent(n); p.IsValid(); p = tree.Parent(p) {
			if p == block {
				t.Fatalf("clone %d links into the source tree", n)
			}
		}
	}
}

func TestCloneKeepsOutsideReferencesShared(t *testing.T) {
	tree := ast.NewTree(0)
	tmpl := tree.NewTemplate(at(1), "ns.t", "")
	param := tree.NewParamDecl(at(2), ast.DeclSpec{Name: "p", Type: typenode.Named("int", at(2))})
	ref := tree.NewVarRef(at(3), "p", false, param)
	pr := tree.NewPrint(at(3), ref)
	tree.AttachAll(tmpl, param, pr)

	clone, st := tree.Clone(pr, nil)
	refC := st.MustLookup(ref)
	if got := ast.MustData[*ast.VarRefData](tree, refC).Decl; got != param {
		t.Fatalf("outside reference = %d; want shared %d", got, param)
	}
	if _, ok := st.Lookup(param); ok {
		t.Fatalf("declaration outside the region was copied")
	}
	if tree.Child(clone, 0) != refC {
		t.Fatalf("clone children not rebuilt")
	}
}

// References across pieces cloned with one state resolve regardless of order.
func TestCloneSharedStateAcrossPieces(t *testing.T) {
	tree := ast.NewTree(0)
	let := tree.NewLetValue(at(1), "a", tree.NewInt(at(1), 2))
	ref := tree.NewVarRef(at(2), "a", false, let)
	use := tree.NewPrint(at(2), ref)

	st := ast.NewCopyState()
	useC, _ := tree.Clone(use, st)
	refC := st.MustLookup(ref)
	if got := ast.MustData[*ast.VarRefData](tree, refC).Decl; got != let {
		t.Fatalf("before the target is copied the reference stays shared")
	}
	letC, _ := tree.Clone(let, st)
	if got := ast.MustData[*ast.VarRefData](tree, refC).Decl; got != letC {
		t.Fatalf("pending reference = %d; want %d", got, letC)
	}
	_ = useC
}

func TestCloneTwicePanics(t *testing.T) {
	tree := ast.NewTree(0)
	n := tree.NewInt(at(1), 1)
	st := ast.NewCopyState()
	tree.Clone(n, st)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on copying a node twice under one state")
		}
	}()
	tree.Clone(n, st)
}

func TestCloneSentinelIsShared(t *testing.T) {
	tree := ast.NewTree(0)
	errExpr := tree.ErrorNode(ast.KindGlobal)
	p1 := tree.NewPrint(at(1), errExpr)
	p2 := tree.NewPrint(at(2), errExpr)
	if tree.Parent(errExpr) != ast.NoNodeID {
		t.Fatalf("sentinel acquired a parent")
	}
	c, st := tree.Clone(p1, nil)
	if tree.Child(c, 0) != errExpr {
		t.Fatalf("sentinel was copied")
	}
	if _, ok := st.Lookup(errExpr); ok {
		t.Fatalf("sentinel recorded in copy state")
	}
	if err := testkit.CheckTreeInvariants(tree, p2); err != nil {
		t.Fatal(err)
	}
}

func TestAttachTwicePanics(t *testing.T) {
	tree := ast.NewTree(0)
	n := tree.NewInt(at(1), 1)
	tree.NewPrint(at(1), n)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on second attach")
		}
	}()
	tree.NewPrint(at(2), n)
}

func TestCloneCopiesPayloads(t *testing.T) {
	tree := ast.NewTree(0)
	s := tree.NewString(at(1), "x")
	c, _ := tree.Clone(s, nil)
	ast.MustData[*ast.StringData](tree, c).Value = "y"
	if ast.MustData[*ast.StringData](tree, s).Value != "x" {
		t.Fatalf("payload shared between original and clone")
	}
	if tree.Loc(c) != tree.Loc(s) || tree.Kind(c) != ast.KindString {
		t.Fatalf("kind or location not preserved")
	}
}

func TestParamDeclNormalizesOnce(t *testing.T) {
	tree := ast.NewTree(0)
	typ := typenode.Named("string", at(4))
	id := tree.NewParamDecl(at(4), ast.DeclSpec{Name: "name", Optional: true, Type: typ})
	d := tree.Decl(id)
	if d.Declared != typ {
		t.Fatalf("declared type not retained")
	}
	if d.Effective.String() != "string|null" {
		t.Fatalf("effective = %s", d.Effective)
	}
	if d.RefName() != "$name" {
		t.Errorf("RefName = %q", d.RefName())
	}
}

func TestSetTypeOnce(t *testing.T) {
	tree := ast.NewTree(0)
	id := tree.NewLetValue(at(1), "x", tree.NewInt(at(1), 1))
	d := tree.Decl(id)
	d.SetType(3)
	defer func() {
		if recover() == nil {
			t.Fatalf("second SetType must panic")
		}
	}()
	d.SetType(4)
}
