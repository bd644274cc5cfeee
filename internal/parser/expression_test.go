package parser

import (
	"testing"

	"tmplc/internal/ast"
	"tmplc/internal/diag"
	"tmplc/internal/source"
)

var exprLoc = source.NewLocation("e.tpl", 3, 5, 3, 40)

func TestParseExprShapes(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"$a ? 1 : $b ? 2 : 3", "(?: $a 1 (?: $b 2 3))"},
		{"-1", "-1"},
		{"-2.5", "-2.5"},
		{"-$x", "(- $x)"},
		{"not $a and $b", "(and (not $a) $b)"},
		{"!$a", "(not $a)"},
		{"$a ?? $b or $c", "(or (?? $a $b) $c)"},
		{"$a < 1 == $b >= 2", "(== (< $a 1) (>= $b 2))"},
		{"$a?.b.c", "(. (?. $a b) c)"},
		{"$a[0]?[1]", "(?[] ([] $a 0) 1)"},
		{"$x.foo(1, 'a')", `(.foo $x 1 "a")`},
		{"$x?.bar()", "(?.bar $x)"},
		{"length($xs)", "(length $xs)"},
		{"map('a': 1, 'b': $c)", `(map "a" 1 "b" $c)`},
		{"[1, 2.5, true, null]", "[1 2.5 true null]"},
		{"[]", "[]"},
		{"foo.bar.BAZ", "foo.bar.BAZ"},
		{"$ij.locale", "$ij.locale"},
		{"0x1F", "31"},
		{"012", "12"},
		{`'it\'s'`, `"it's"`},
		{`"a\nb"`, `"a\nb"`},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			tree := ast.NewTree(0)
			r := diag.NewBagReporter(10)
			id := ParseExpr(tree, tc.text, exprLoc, r)
			if r.Bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %v", r.Bag.Items())
			}
			if got := dump(tree, id); got != tc.want {
				t.Errorf("ParseExpr(%q) = %s; want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestParseExprInjectedFlag(t *testing.T) {
	tree := ast.NewTree(0)
	id := ParseExpr(tree, "$ij.locale", exprLoc, diag.Exploding())
	d := ast.MustData[*ast.VarRefData](tree, id)
	if !d.Injected || d.Name != "locale" {
		t.Fatalf("got %+v", d)
	}
}

func TestParseExprErrors(t *testing.T) {
	cases := []struct {
		text string
		code diag.Code
		want string
	}{
		{"1 +", diag.SynExpectExpression, "(+ 1 <error>)"},
		{"", diag.SynExpectExpression, "<error>"},
		{"1 2", diag.SynTrailingInput, "1"},
		{"(1", diag.SynUnclosedParen, "1"},
		{"[1", diag.SynUnclosedBracket, "<error>"},
		{"f(1", diag.SynUnclosedParen, "<error>"},
		{"$a ? 1", diag.SynUnexpectedToken, "<error>"},
		{"99999999999999999999", diag.LexBadNumber, "<error>"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			tree := ast.NewTree(0)
			r := diag.NewBagReporter(10)
			id := ParseExpr(tree, tc.text, exprLoc, r)
			if !r.Bag.HasErrors() {
				t.Fatalf("expected an error")
			}
			if got := r.Bag.Items()[0].Code; got != tc.code {
				t.Errorf("code = %s; want %s (%v)", got.ID(), tc.code.ID(), r.Bag.Items())
			}
			if got := dump(tree, id); got != tc.want {
				t.Errorf("tree = %s; want %s", got, tc.want)
			}
		})
	}
}

func TestParseExprLocations(t *testing.T) {
	tree := ast.NewTree(0)
	id := ParseExpr(tree, "$a + 10", exprLoc, diag.Exploding())
	if got, want := tree.Loc(id), source.NewLocation("e.tpl", 3, 5, 3, 11); got != want {
		t.Errorf("binary loc = %v; want %v", got, want)
	}
	rhs := tree.Child(id, 1)
	if got, want := tree.Loc(rhs), source.NewLocation("e.tpl", 3, 10, 3, 11); got != want {
		t.Errorf("literal loc = %v; want %v", got, want)
	}
}

func TestParseExprAsParamValueParser(t *testing.T) {
	tree := ast.NewTree(0)
	loc := source.NewLocation("p.tpl", 2, 3, 2, 12)
	id := ast.NewCallParamValueBuilder(`foo: "bar"`, loc).BuildOrPanic(tree, ParseExpr)
	if tree.Kind(id) != ast.KindCallParamValue || tree.CallParamKey(id) != "foo" {
		t.Fatalf("got %s %q", tree.Kind(id), tree.CallParamKey(id))
	}
	if got := dump(tree, tree.Child(id, 0)); got != `"bar"` {
		t.Errorf("value = %s", got)
	}
}

func TestParseType(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"string", "string"},
		{"list<int>", "list<int>"},
		{"map<string, int|null>", "map<string, int|null>"},
		{"a.b.Proto", "a.b.Proto"},
		{"?", "?"},
		{"html|null", "html|null"},
	}
	for _, tc := range cases {
		n := ParseType(tc.text, exprLoc, diag.Exploding())
		if n == nil || n.String() != tc.want {
			t.Errorf("ParseType(%q) = %v; want %s", tc.text, n, tc.want)
		}
	}
	for _, bad := range []string{"", "list<", "int|", "1", "list<int"} {
		r := diag.NewBagReporter(10)
		if n := ParseType(bad, exprLoc, r); n != nil || r.Bag.ErrorCount() != 1 {
			t.Errorf("ParseType(%q) = %v with %d errors", bad, n, r.Bag.ErrorCount())
		}
	}
}
