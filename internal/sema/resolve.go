package sema

import (
	"tmplc/internal/ast"
	"tmplc/internal/diag"
	"tmplc/internal/typenode"
	"tmplc/internal/types"
)

var (
	errUnknownType = diag.ErrorKind(diag.SemUnknownType, "unknown type %q")
	errTypeArity   = diag.ErrorKind(diag.SemBadTypeArity, "%s expects %d type argument(s), got %d")
)

// Resolver turns declared type expressions into interned types. Names that
// are not builtins are looked up among the registered extra names (imports,
// records known to the driver).
type Resolver struct {
	Types *types.Interner
	extra map[string]types.TypeID
}

func NewResolver(in *types.Interner) *Resolver {
	return &Resolver{Types: in, extra: make(map[string]types.TypeID)}
}

// Register makes name resolve to id.
func (rs *Resolver) Register(name string, id types.TypeID) {
	rs.extra[name] = id
}

// RegisterImport registers an import type under name, e.g. a CSS module.
func (rs *Resolver) RegisterImport(name string, imp types.ImportType) types.TypeID {
	id := rs.Types.Import(imp)
	rs.extra[name] = id
	return id
}

// Resolve maps n to a type. Unknown names are reported and resolve to the
// unknown type, so one bad name does not hide other errors.
func (rs *Resolver) Resolve(n *typenode.Node, r diag.Reporter) types.TypeID {
	b := rs.Types.Builtins()
	if n == nil {
		return b.Unknown
	}
	switch n.Kind {
	case typenode.KindUnion:
		members := make([]types.TypeID, 0, len(n.Args))
		for _, m := range n.Args {
			members = append(members, rs.Resolve(m, r))
		}
		return rs.Types.Union(members...)
	case typenode.KindGeneric:
		want := 0
		switch n.Name {
		case "list":
			want = 1
		case "map":
			want = 2
		default:
			diag.Emit(r, errUnknownType, n.Loc, n.String(), n.Name)
			return b.Unknown
		}
		if len(n.Args) != want {
			diag.Emit(r, errTypeArity, n.Loc, n.String(), n.Name, want, len(n.Args))
			return b.Unknown
		}
		if want == 1 {
			return rs.Types.List(rs.Resolve(n.Args[0], r))
		}
		return rs.Types.Map(rs.Resolve(n.Args[0], r), rs.Resolve(n.Args[1], r))
	}
	if id, ok := rs.Types.Named(n.Name); ok {
		return id
	}
	if id, ok := rs.extra[n.Name]; ok {
		return id
	}
	if n.Name == "list" || n.Name == "map" {
		want := 1
		if n.Name == "map" {
			want = 2
		}
		diag.Emit(r, errTypeArity, n.Loc, n.Name, n.Name, want, 0)
		return b.Unknown
	}
	diag.Emit(r, errUnknownType, n.Loc, n.Name, n.Name)
	return b.Unknown
}

// ResolveTypes sets the type of every declaration under file. Params and
// state vars use their effective declared type; a missing declared type
// and lets are typed from the value's shape, loop variables from the list's
// element type. Each declaration's type is set exactly once.
func (rs *Resolver) ResolveTypes(t *ast.Tree, file ast.NodeID, r diag.Reporter) {
	t.Walk(file, func(id ast.NodeID) bool {
		if t.IsError(id) {
			return false
		}
		d := t.Decl(id)
		if d == nil || d.Type() != types.NoTypeID {
			return true
		}
		d.SetType(rs.declType(t, id, d, r))
		return true
	})
}

func (rs *Resolver) declType(t *ast.Tree, id ast.NodeID, d *ast.VarDecl, r diag.Reporter) types.TypeID {
	b := rs.Types.Builtins()
	switch t.Kind(id) {
	case ast.KindParamDecl, ast.KindStateDecl:
		if d.Effective != nil {
			return rs.Resolve(d.Effective, r)
		}
		return rs.exprType(t, t.DeclDefault(id))
	case ast.KindLetValue:
		return rs.exprType(t, t.Child(id, 0))
	case ast.KindLetContent:
		return rs.contentType(d.ContentKind)
	case ast.KindFor:
		list := rs.exprType(t, t.Child(id, 0))
		if tt, ok := rs.Types.Lookup(list); ok && tt.Kind == types.KindList {
			return tt.Elem
		}
	}
	return b.Unknown
}

func (rs *Resolver) contentType(kind string) types.TypeID {
	b := rs.Types.Builtins()
	switch kind {
	case "html":
		return b.HTML
	case "uri":
		return b.URI
	case "css":
		return b.CSS
	case "js":
		return b.JS
	case "attributes":
		return b.Attributes
	}
	return b.String
}

// exprType is a shallow, declaration-free typing of literals and of
// references to already typed declarations.
func (rs *Resolver) exprType(t *ast.Tree, id ast.NodeID) types.TypeID {
	b := rs.Types.Builtins()
	if !id.IsValid() || t.IsError(id) {
		return b.Unknown
	}
	switch t.Kind(id) {
	case ast.KindString:
		return b.String
	case ast.KindInt:
		return b.Int
	case ast.KindFloat:
		return b.Float
	case ast.KindBool:
		return b.Bool
	case ast.KindNull:
		return b.Null
	case ast.KindList:
		var elems []types.TypeID
		for _, c := range t.Children(id) {
			elems = append(elems, rs.exprType(t, c))
		}
		if len(elems) == 0 {
			return rs.Types.List(b.Unknown)
		}
		return rs.Types.List(rs.Types.Union(elems...))
	case ast.KindMap:
		kv := t.Children(id)
		if len(kv) < 2 {
			return rs.Types.Map(b.Unknown, b.Unknown)
		}
		var keys, vals []types.TypeID
		for i := 0; i+1 < len(kv); i += 2 {
			keys = append(keys, rs.exprType(t, kv[i]))
			vals = append(vals, rs.exprType(t, kv[i+1]))
		}
		return rs.Types.Map(rs.Types.Union(keys...), rs.Types.Union(vals...))
	case ast.KindVarRef:
		ref := ast.MustData[*ast.VarRefData](t, id)
		if d := t.Decl(ref.Decl); d != nil && d.Type() != types.NoTypeID {
			return d.Type()
		}
	case ast.KindUnary:
		if t.Op(id) == ast.OpNot {
			return b.Bool
		}
		return rs.exprType(t, t.Child(id, 0))
	case ast.KindBinary:
		switch t.Op(id) {
		case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe, ast.OpEq, ast.OpNe, ast.OpAnd, ast.OpOr:
			return b.Bool
		}
	}
	return b.Unknown
}
