package parser

import (
	"fmt"
	"strconv"
	"strings"

	"tmplc/internal/ast"
)

// dump renders an expression as a compact s-expression for assertions.
func dump(t *ast.Tree, id ast.NodeID) string {
	if t.IsError(id) {
		return "<error>"
	}
	kids := t.Children(id)
	all := func(ids []ast.NodeID) string {
		parts := make([]string, len(ids))
		for i, c := range ids {
			parts[i] = dump(t, c)
		}
		return strings.Join(parts, " ")
	}
	safe := func(ns bool) string {
		if ns {
			return "?"
		}
		return ""
	}
	switch t.Kind(id) {
	case ast.KindString:
		return strconv.Quote(ast.MustData[*ast.StringData](t, id).Value)
	case ast.KindInt:
		return strconv.FormatInt(ast.MustData[*ast.IntData](t, id).Value, 10)
	case ast.KindFloat:
		return strconv.FormatFloat(ast.MustData[*ast.FloatData](t, id).Value, 'g', -1, 64)
	case ast.KindBool:
		return strconv.FormatBool(ast.MustData[*ast.BoolData](t, id).Value)
	case ast.KindNull:
		return "null"
	case ast.KindVarRef:
		d := ast.MustData[*ast.VarRefData](t, id)
		if d.Injected {
			return "$ij." + d.Name
		}
		return "$" + d.Name
	case ast.KindGlobal:
		return ast.MustData[*ast.GlobalData](t, id).Name
	case ast.KindList:
		return "[" + all(kids) + "]"
	case ast.KindMap:
		return "(map " + all(kids) + ")"
	case ast.KindFieldAccess:
		d := ast.MustData[*ast.AccessData](t, id)
		return fmt.Sprintf("(%s. %s %s)", safe(d.NullSafe), dump(t, kids[0]), d.Field)
	case ast.KindItemAccess:
		d := ast.MustData[*ast.AccessData](t, id)
		return fmt.Sprintf("(%s[] %s)", safe(d.NullSafe), all(kids))
	case ast.KindFuncCall:
		return fmt.Sprintf("(%s %s)", ast.MustData[*ast.FuncCallData](t, id).Name, all(kids))
	case ast.KindMethodCall:
		d := ast.MustData[*ast.MethodCallData](t, id)
		return fmt.Sprintf("(%s.%s %s)", safe(d.NullSafe), d.Method, all(kids))
	case ast.KindUnary, ast.KindBinary:
		return fmt.Sprintf("(%s %s)", t.Op(id), all(kids))
	case ast.KindTernary:
		return "(?: " + all(kids) + ")"
	}
	return "<" + t.Kind(id).String() + ">"
}
