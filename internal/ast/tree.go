package ast

import (
	"fmt"

	"tmplc/internal/source"
)

// Node is one element of a Tree. Children are owned; Parent is a back-link
// used for upward navigation only and is NoNodeID at roots and detached
// nodes.
type Node struct {
	Kind     Kind
	Loc      source.Location
	Parent   NodeID
	Children []NodeID
	Data     NodeData
}

// Tree is an arena of nodes for one compilation unit. It is not safe for
// concurrent mutation.
type Tree struct {
	Nodes *Arena[Node]
	Root  NodeID

	sentinels map[Kind]NodeID
	isError   map[NodeID]struct{}
}

func NewTree(capHint uint) *Tree {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Tree{
		Nodes:     NewArena[Node](capHint),
		sentinels: make(map[Kind]NodeID),
		isError:   make(map[NodeID]struct{}),
	}
}

// New allocates a detached node.
func (t *Tree) New(kind Kind, loc source.Location, data NodeData) NodeID {
	return NodeID(t.Nodes.Allocate(Node{Kind: kind, Loc: loc, Data: data}))
}

func (t *Tree) Get(id NodeID) *Node {
	return t.Nodes.Get(uint32(id))
}

// MustGet panics on an id that the tree never issued.
func (t *Tree) MustGet(id NodeID) *Node {
	n := t.Get(id)
	if n == nil {
		panic(fmt.Sprintf("ast: unknown node %d", id))
	}
	return n
}

func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Get(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

func (t *Tree) Loc(id NodeID) source.Location {
	if n := t.Get(id); n != nil {
		return n.Loc
	}
	return source.Unknown
}

// Parent returns NoNodeID for roots, detached nodes and sentinels.
func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Get(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Get(id); n != nil {
		return n.Children
	}
	return nil
}

// Child returns the i-th child or NoNodeID.
func (t *Tree) Child(id NodeID, i int) NodeID {
	ch := t.Children(id)
	if i < 0 || i >= len(ch) {
		return NoNodeID
	}
	return ch[i]
}

// Attach appends child to parent. A node can have only one parent; attaching
// an attached node panics. Sentinels are appended without a back-link, so the
// same sentinel may sit under many parents.
func (t *Tree) Attach(parent, child NodeID) {
	if !child.IsValid() {
		return
	}
	p := t.MustGet(parent)
	c := t.MustGet(child)
	if !t.IsError(child) {
		if c.Parent.IsValid() {
			panic(fmt.Sprintf("ast: node %d (%s) already attached to %d", child, c.Kind, c.Parent))
		}
		if child == parent {
			panic("ast: node attached to itself")
		}
		c.Parent = parent
	}
	p.Children = append(p.Children, child)
}

// AttachAll attaches children in order.
func (t *Tree) AttachAll(parent NodeID, children ...NodeID) {
	for _, c := range children {
		t.Attach(parent, c)
	}
}

// IsError reports whether id is one of the tree's sentinel error nodes.
func (t *Tree) IsError(id NodeID) bool {
	_, ok := t.isError[id]
	return ok
}

// Data returns a node's payload as T. ok is false when the node is missing
// or carries another payload type.
func Data[T NodeData](t *Tree, id NodeID) (T, bool) {
	var zero T
	n := t.Get(id)
	if n == nil {
		return zero, false
	}
	d, ok := n.Data.(T)
	if !ok {
		return zero, false
	}
	return d, true
}

// MustData is Data that panics on a payload mismatch.
func MustData[T NodeData](t *Tree, id NodeID) T {
	d, ok := Data[T](t, id)
	if !ok {
		panic(fmt.Sprintf("ast: node %d (%s) has payload %T", id, t.Kind(id), t.Get(id).Data))
	}
	return d
}
