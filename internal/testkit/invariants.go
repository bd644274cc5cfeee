package testkit

import (
	"fmt"

	"tmplc/internal/ast"
)

// CheckTreeInvariants runs the structural invariants on the subtree at root:
// 1) every non-sentinel child's Parent is the node that lists it
// 2) no non-sentinel node is reachable twice (single ownership)
// 3) every VarRef.Decl, when set, points at a declaring node
// 4) every known child location lies in the parent's file
func CheckTreeInvariants(t *ast.Tree, root ast.NodeID) error {
	if t == nil {
		return fmt.Errorf("nil tree")
	}
	if t.Get(root) == nil {
		return fmt.Errorf("root node %d not found", root)
	}
	seen := make(map[ast.NodeID]ast.NodeID)
	var check func(parent, id ast.NodeID) error
	check = func(parent, id ast.NodeID) error {
		n := t.Get(id)
		if n == nil {
			return fmt.Errorf("dangling child %d under %d", id, parent)
		}
		if t.IsError(id) {
			if n.Parent.IsValid() {
				return fmt.Errorf("sentinel %d (%s) has parent %d", id, n.Kind, n.Parent)
			}
			return nil
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("node %d (%s) owned by both %d and %d", id, n.Kind, prev, parent)
		}
		seen[id] = parent
		if parent.IsValid() && n.Parent != parent {
			return fmt.Errorf("node %d (%s) has parent %d, listed under %d", id, n.Kind, n.Parent, parent)
		}
		if ref, ok := n.Data.(*ast.VarRefData); ok && ref.Decl.IsValid() {
			if !t.Kind(ref.Decl).IsDecl() {
				return fmt.Errorf("var ref %d points at %s node %d", id, t.Kind(ref.Decl), ref.Decl)
			}
		}
		for _, c := range n.Children {
			cl := t.Loc(c)
			if parent.IsValid() && cl.IsKnown() && n.Loc.IsKnown() && cl.Path != n.Loc.Path {
				return fmt.Errorf("child %d location %v outside file %q", c, cl, n.Loc.Path)
			}
			if err := check(id, c); err != nil {
				return err
			}
		}
		return nil
	}
	return check(ast.NoNodeID, root)
}
