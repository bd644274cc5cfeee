package pysrc

import (
	"fmt"
	"strconv"
	"strings"

	"tmplc/internal/ast"
	"tmplc/internal/codegen"
	"tmplc/internal/diag"
)

// Python operator precedence, loosest first.
const (
	precCond = 2 + iota
	precOr
	precAnd
	precNot
	precCompare
	_ // |
	_ // ^
	_ // &
	_ // shifts
	precAdd
	precMul
	precUnary
)

var (
	errUnresolvedGlobal = diag.ErrorKind(diag.GenUnresolvedGlobal, "unresolved global %s")
	errUnresolvedVar    = diag.ErrorKind(diag.GenUnresolvedVar, "variable %s is not in scope")
)

type exprVisitor struct {
	codegen.BaseExprVisitor
	s *genState
}

func (v *exprVisitor) visit(id ast.NodeID) codegen.Fragment {
	return codegen.VisitExpr(v.s.tree, id, v)
}

func (v *exprVisitor) visitAll(ids []ast.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = v.visit(id).Text
	}
	return out
}

func (v *exprVisitor) VisitString(id ast.NodeID) codegen.Fragment {
	return codegen.Atom(pyString(ast.MustData[*ast.StringData](v.s.tree, id).Value))
}

func (v *exprVisitor) VisitInt(id ast.NodeID) codegen.Fragment {
	n := ast.MustData[*ast.IntData](v.s.tree, id).Value
	if n < 0 {
		return codegen.Op(strconv.FormatInt(n, 10), precUnary)
	}
	return codegen.Atom(strconv.FormatInt(n, 10))
}

func (v *exprVisitor) VisitFloat(id ast.NodeID) codegen.Fragment {
	f := ast.MustData[*ast.FloatData](v.s.tree, id).Value
	if f < 0 {
		return codegen.Op(pyFloat(f), precUnary)
	}
	return codegen.Atom(pyFloat(f))
}

func (v *exprVisitor) VisitBool(id ast.NodeID) codegen.Fragment {
	return codegen.Atom(pyBool(ast.MustData[*ast.BoolData](v.s.tree, id).Value))
}

func (v *exprVisitor) VisitNull(ast.NodeID) codegen.Fragment { return codegen.Atom("None") }

func (v *exprVisitor) VisitVarRef(id ast.NodeID) codegen.Fragment {
	d := ast.MustData[*ast.VarRefData](v.s.tree, id)
	if f, ok := v.s.scope.Lookup(d.Name); ok && (!d.Injected || d.Decl.IsValid()) {
		return f
	}
	if d.Injected {
		return codegen.Atom(fmt.Sprintf("ij_data.get(%s)", pyString(d.Name)))
	}
	return v.L.Fail(errUnresolvedVar, id, "$"+d.Name)
}

func (v *exprVisitor) VisitGlobal(id ast.NodeID) codegen.Fragment {
	name := ast.MustData[*ast.GlobalData](v.s.tree, id).Name
	if val, ok := v.s.g.deps.Globals.Lookup(name); ok {
		if f, ok := valueLiteral(val); ok {
			return f
		}
	}
	return v.L.Fail(errUnresolvedGlobal, id, name)
}

func (v *exprVisitor) VisitList(id ast.NodeID) codegen.Fragment {
	return codegen.Atom("[" + strings.Join(v.visitAll(v.s.tree.Children(id)), ", ") + "]")
}

func (v *exprVisitor) VisitMap(id ast.NodeID) codegen.Fragment {
	kv := v.visitAll(v.s.tree.Children(id))
	entries := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		entries = append(entries, kv[i]+": "+kv[i+1])
	}
	return codegen.Atom("{" + strings.Join(entries, ", ") + "}")
}

// nullSafe guards access against a None base.
func nullSafe(base codegen.Fragment, access string) codegen.Fragment {
	b := base.Wrap(precCompare + 1)
	return codegen.Op(fmt.Sprintf("None if %s is None else %s", b, access), precCond)
}

func (v *exprVisitor) VisitFieldAccess(id ast.NodeID) codegen.Fragment {
	t := v.s.tree
	d := ast.MustData[*ast.AccessData](t, id)
	base := v.visit(t.Child(id, 0))
	access := fmt.Sprintf("%s.get(%s)", base.Wrap(codegen.PrecAtom), pyString(d.Field))
	if d.NullSafe {
		return nullSafe(base, access)
	}
	return codegen.Atom(access)
}

func (v *exprVisitor) VisitItemAccess(id ast.NodeID) codegen.Fragment {
	t := v.s.tree
	d := ast.MustData[*ast.AccessData](t, id)
	base := v.visit(t.Child(id, 0))
	index := v.visit(t.Child(id, 1))
	access := fmt.Sprintf("runtime.key_safe_data_access(%s, %s)", base.Text, index.Text)
	if d.NullSafe {
		return nullSafe(base, access)
	}
	return codegen.Atom(access)
}

func (v *exprVisitor) VisitUnary(id ast.NodeID) codegen.Fragment {
	t := v.s.tree
	operand := v.visit(t.Child(id, 0))
	switch t.Op(id) {
	case ast.OpNeg:
		return codegen.Op("-"+operand.Wrap(precUnary), precUnary)
	case ast.OpNot:
		return codegen.Op("not "+operand.Wrap(precNot), precNot)
	}
	return v.BaseExprVisitor.VisitUnary(id)
}

var binaryOps = map[ast.Op]struct {
	text string
	prec int
}{
	ast.OpMul: {"*", precMul},
	ast.OpDiv: {"/", precMul},
	ast.OpMod: {"%", precMul},
	ast.OpSub: {"-", precAdd},
	ast.OpLt:  {"<", precCompare},
	ast.OpGt:  {">", precCompare},
	ast.OpLe:  {"<=", precCompare},
	ast.OpGe:  {">=", precCompare},
	ast.OpAnd: {"and", precAnd},
	ast.OpOr:  {"or", precOr},
}

func (v *exprVisitor) VisitBinary(id ast.NodeID) codegen.Fragment {
	t := v.s.tree
	lhs := v.visit(t.Child(id, 0))
	rhs := v.visit(t.Child(id, 1))
	switch op := t.Op(id); op {
	case ast.OpAdd:
		return codegen.Atom(fmt.Sprintf("runtime.type_safe_add(%s, %s)", lhs.Text, rhs.Text))
	case ast.OpEq:
		return codegen.Atom(fmt.Sprintf("runtime.type_safe_eq(%s, %s)", lhs.Text, rhs.Text))
	case ast.OpNe:
		return codegen.Op(fmt.Sprintf("not runtime.type_safe_eq(%s, %s)", lhs.Text, rhs.Text), precNot)
	case ast.OpNullCoalesce:
		l := lhs.Wrap(precCompare + 1)
		return codegen.Op(fmt.Sprintf("%s if %s is not None else %s", l, l, rhs.Wrap(precCond)), precCond)
	default:
		spec, ok := binaryOps[op]
		if !ok {
			return v.BaseExprVisitor.VisitBinary(id)
		}
		// сравнения в Python цепочечные, поэтому обе стороны строже
		left := spec.prec
		if spec.prec == precCompare {
			left++
		}
		return codegen.Op(lhs.Wrap(left)+" "+spec.text+" "+rhs.Wrap(spec.prec+1), spec.prec)
	}
}

func (v *exprVisitor) VisitTernary(id ast.NodeID) codegen.Fragment {
	t := v.s.tree
	cond := v.visit(t.Child(id, 0))
	then := v.visit(t.Child(id, 1))
	els := v.visit(t.Child(id, 2))
	return codegen.Op(fmt.Sprintf("%s if %s else %s", then.Wrap(precCond+1), cond.Wrap(precCond+1), els.Wrap(precCond)), precCond)
}
