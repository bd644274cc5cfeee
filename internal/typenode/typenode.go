// Package typenode holds declared type expressions as the author wrote them
// and the optional-to-nullable normalization applied to declarations.
package typenode

import (
	"strings"

	"tmplc/internal/source"
)

type Kind uint8

const (
	// KindNamed is a bare type name: int, string, null, a record or proto name.
	KindNamed Kind = iota
	// KindGeneric is a parameterized type: list<T>, map<K, V>.
	KindGeneric
	// KindUnion is a|b|c.
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindGeneric:
		return "generic"
	case KindUnion:
		return "union"
	}
	return "unknown"
}

// NullName is the spelling of the null type.
const NullName = "null"

// Node is an immutable type expression. Name is set for named and generic
// nodes; Args holds the type arguments of a generic and the members of a
// union.
type Node struct {
	Kind Kind
	Loc  source.Location
	Name string
	Args []*Node
}

func Named(name string, loc source.Location) *Node {
	return &Node{Kind: KindNamed, Loc: loc, Name: name}
}

// Null synthesizes the null type at loc.
func Null(loc source.Location) *Node {
	return Named(NullName, loc)
}

func Generic(name string, loc source.Location, args ...*Node) *Node {
	return &Node{Kind: KindGeneric, Loc: loc, Name: name, Args: args}
}

// Union builds a union node; members are kept in the given order.
func Union(loc source.Location, members ...*Node) *Node {
	if len(members) < 2 {
		panic("typenode: union needs at least two members")
	}
	return &Node{Kind: KindUnion, Loc: loc, Args: members}
}

// IsNull reports whether n is literally the null type.
func (n *Node) IsNull() bool {
	return n != nil && n.Kind == KindNamed && n.Name == NullName
}

// Members returns the alternatives of a union, or n itself otherwise.
func (n *Node) Members() []*Node {
	if n == nil {
		return nil
	}
	if n.Kind == KindUnion {
		return n.Args
	}
	return []*Node{n}
}

// Copy returns a deep copy of n.
func (n *Node) Copy() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Loc: n.Loc, Name: n.Name}
	if len(n.Args) > 0 {
		out.Args = make([]*Node, len(n.Args))
		for i, a := range n.Args {
			out.Args[i] = a.Copy()
		}
	}
	return out
}

// Equal compares structure and names, ignoring locations.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind || n.Name != other.Name || len(n.Args) != len(other.Args) {
		return false
	}
	for i := range n.Args {
		if !n.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

func (n *Node) String() string {
	if n == nil {
		return "<none>"
	}
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Kind {
	case KindNamed:
		b.WriteString(n.Name)
	case KindGeneric:
		b.WriteString(n.Name)
		b.WriteByte('<')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b)
		}
		b.WriteByte('>')
	case KindUnion:
		for i, m := range n.Args {
			if i > 0 {
				b.WriteByte('|')
			}
			m.write(b)
		}
	}
}
