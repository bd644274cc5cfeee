package types

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for primitive types.
type Builtins struct {
	Unknown    TypeID
	Any        TypeID
	Null       TypeID
	Bool       TypeID
	Int        TypeID
	Float      TypeID
	String     TypeID
	HTML       TypeID
	URI        TypeID
	CSS        TypeID
	JS         TypeID
	Attributes TypeID
	// Number is int|float.
	Number TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// It is owned by one compilation unit and not safe for concurrent use.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	named    map[string]TypeID
	unions   [][]TypeID
	unionIdx map[string]uint32
	imports  []ImportType
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:    make(map[typeKey]TypeID, 64),
		named:    make(map[string]TypeID, 16),
		unions:   [][]TypeID{nil}, // reserve 0
		unionIdx: make(map[string]uint32),
		imports:  []ImportType{{}},
	}
	in.types = append(in.types, Type{Kind: KindInvalid}) // NoTypeID
	b := &in.builtins
	b.Unknown = in.Intern(Type{Kind: KindUnknown})
	b.Any = in.Intern(Type{Kind: KindAny})
	b.Null = in.Intern(Type{Kind: KindNull})
	b.Bool = in.Intern(Type{Kind: KindBool})
	b.Int = in.Intern(Type{Kind: KindInt})
	b.Float = in.Intern(Type{Kind: KindFloat})
	b.String = in.Intern(Type{Kind: KindString})
	b.HTML = in.Intern(Type{Kind: KindHTML})
	b.URI = in.Intern(Type{Kind: KindURI})
	b.CSS = in.Intern(Type{Kind: KindCSS})
	b.JS = in.Intern(Type{Kind: KindJS})
	b.Attributes = in.Intern(Type{Kind: KindAttributes})
	b.Number = in.Union(b.Int, b.Float)

	for name, id := range map[string]TypeID{
		"?": b.Unknown, "any": b.Any, "null": b.Null, "bool": b.Bool,
		"int": b.Int, "float": b.Float, "number": b.Number, "string": b.String,
		"html": b.HTML, "uri": b.URI, "css": b.CSS, "js": b.JS,
		"attributes": b.Attributes,
	} {
		in.named[name] = id
	}
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Named resolves a builtin type name.
func (in *Interner) Named(name string) (TypeID, bool) {
	id, ok := in.named[name]
	return id, ok
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// List interns list<elem>.
func (in *Interner) List(elem TypeID) TypeID {
	return in.Intern(MakeList(elem))
}

// Map interns map<key, value>.
func (in *Interner) Map(key, value TypeID) TypeID {
	return in.Intern(MakeMap(key, value))
}

// Union interns the union of members. Nested unions are flattened, members
// are deduplicated and sorted, so the result does not depend on the order
// of alternatives. A single distinct member is returned as is.
func (in *Interner) Union(members ...TypeID) TypeID {
	flat := make([]TypeID, 0, len(members))
	for _, m := range members {
		if m == NoTypeID {
			continue
		}
		flat = append(flat, in.UnionMembers(m)...)
	}
	slices.Sort(flat)
	flat = slices.Compact(flat)
	switch len(flat) {
	case 0:
		return NoTypeID
	case 1:
		return flat[0]
	}
	key := unionKey(flat)
	slot, ok := in.unionIdx[key]
	if !ok {
		n, err := safecast.Conv[uint32](len(in.unions))
		if err != nil {
			panic(fmt.Errorf("len(unions) overflow: %w", err))
		}
		slot = n
		in.unions = append(in.unions, flat)
		in.unionIdx[key] = slot
	}
	return in.Intern(Type{Kind: KindUnion, Payload: slot})
}

// UnionMembers returns the alternatives of a union, or id itself.
func (in *Interner) UnionMembers(id TypeID) []TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return nil
	}
	if tt.Kind != KindUnion {
		return []TypeID{id}
	}
	return slices.Clone(in.unions[tt.Payload])
}

// IsNullable reports whether null is one of id's alternatives.
func (in *Interner) IsNullable(id TypeID) bool {
	return slices.Contains(in.UnionMembers(id), in.builtins.Null)
}

// RemoveNull strips null from a union.
func (in *Interner) RemoveNull(id TypeID) TypeID {
	var keep []TypeID
	for _, m := range in.UnionMembers(id) {
		if m != in.builtins.Null {
			keep = append(keep, m)
		}
	}
	if len(keep) == 0 {
		return id
	}
	return in.Union(keep...)
}

// String renders id in the template type syntax.
func (in *Interner) String(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindList:
		return "list<" + in.String(tt.Elem) + ">"
	case KindMap:
		return "map<" + in.String(tt.Key) + ", " + in.String(tt.Elem) + ">"
	case KindUnion:
		parts := make([]string, 0, len(in.unions[tt.Payload]))
		for _, m := range in.unions[tt.Payload] {
			parts = append(parts, in.String(m))
		}
		return strings.Join(parts, "|")
	case KindImport:
		return in.imports[tt.Payload].String()
	}
	return tt.Kind.String()
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Key     TypeID
	Payload uint32
}

func unionKey(members []TypeID) string {
	var b strings.Builder
	for _, m := range members {
		fmt.Fprintf(&b, "%d,", m)
	}
	return b.String()
}
