package ast

import (
	"tmplc/internal/source"
	"tmplc/internal/typenode"
)

// DeclSpec carries the authored parts of a declaration.
type DeclSpec struct {
	Name     string
	Doc      string
	Optional bool
	Type     *typenode.Node
	Injected bool
	// Default is an expression node; NoNodeID when absent.
	Default NodeID
}

func newVarDecl(spec DeclSpec) *VarDecl {
	return &VarDecl{
		Name:       spec.Name,
		Doc:        spec.Doc,
		Optional:   spec.Optional,
		Declared:   spec.Type,
		Effective:  typenode.Normalize(spec.Type, spec.Optional),
		HasDefault: spec.Default.IsValid(),
		Injected:   spec.Injected,
	}
}

// NewParamDecl creates a {@param} declaration. The effective type is
// computed here, once.
func (t *Tree) NewParamDecl(loc source.Location, spec DeclSpec) NodeID {
	id := t.New(KindParamDecl, loc, newVarDecl(spec))
	t.Attach(id, spec.Default)
	return id
}

// NewStateDecl creates a {@state} declaration; state vars always carry a default.
func (t *Tree) NewStateDecl(loc source.Location, spec DeclSpec) NodeID {
	if !spec.Default.IsValid() {
		panic("ast: state var without default: " + spec.Name)
	}
	id := t.New(KindStateDecl, loc, newVarDecl(spec))
	t.Attach(id, spec.Default)
	return id
}

// NewLetValue creates {let $name: value /}.
func (t *Tree) NewLetValue(loc source.Location, name string, value NodeID) NodeID {
	id := t.New(KindLetValue, loc, &VarDecl{Name: name})
	t.Attach(id, value)
	return id
}

// NewLetContent creates {let $name kind="..."}body{/let}; the body is attached later.
func (t *Tree) NewLetContent(loc source.Location, name, contentKind string) NodeID {
	return t.New(KindLetContent, loc, &VarDecl{Name: name, ContentKind: contentKind})
}

// NewFor creates {for $name in list}; the list expression is the first child,
// the body follows.
func (t *Tree) NewFor(loc source.Location, name string, list NodeID) NodeID {
	id := t.New(KindFor, loc, &VarDecl{Name: name})
	t.Attach(id, list)
	return id
}

// Decl returns the declaration payload of a declaring node.
func (t *Tree) Decl(id NodeID) *VarDecl {
	if !t.Kind(id).IsDecl() {
		return nil
	}
	d, _ := Data[*VarDecl](t, id)
	return d
}

// DeclDefault returns the default value expression of a param or state var.
func (t *Tree) DeclDefault(id NodeID) NodeID {
	d := t.Decl(id)
	if d == nil || !d.HasDefault {
		return NoNodeID
	}
	return t.Child(id, 0)
}
