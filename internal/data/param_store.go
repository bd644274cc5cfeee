// Package data holds call-time parameter records: interned parameter names
// (properties), value providers and the frozen ParamStore built from them.
package data

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Record is anything that exposes properties with providers.
type Record interface {
	Len() int
	Range(fn func(p *Property, v Provider) bool)
}

// StoreBacked is implemented by records whose fields live in a ParamStore.
type StoreBacked interface {
	ParamStore() *ParamStore
}

// ParamStoreBuilder collects parameters. It is frozen exactly once by
// Freeze; every mutation afterwards panics.
type ParamStoreBuilder struct {
	fields map[*Property]Provider
	frozen bool
}

// NewParamStoreBuilder presizes the builder for size entries.
func NewParamStoreBuilder(size int) *ParamStoreBuilder {
	return &ParamStoreBuilder{fields: make(map[*Property]Provider, size)}
}

// NewParamStoreBuilderFrom starts a builder with a copy of base's entries
// and room for size more.
func NewParamStoreBuilderFrom(base *ParamStore, size int) *ParamStoreBuilder {
	b := NewParamStoreBuilder(base.Len() + size)
	maps.Copy(b.fields, base.fields)
	return b
}

func (b *ParamStoreBuilder) checkOpen(op string) {
	if b.frozen {
		panic(fmt.Sprintf("data: %s on a frozen param store", op))
	}
}

// Set inserts or overwrites the provider for p.
func (b *ParamStoreBuilder) Set(p *Property, v Provider) *ParamStoreBuilder {
	b.checkOpen("Set")
	if p == nil || v == nil {
		panic("data: nil property or provider")
	}
	b.fields[p] = v
	return b
}

// SetStrict inserts the provider for p; a second value for the same
// property is a binding conflict and panics.
func (b *ParamStoreBuilder) SetStrict(p *Property, v Provider) *ParamStoreBuilder {
	b.checkOpen("SetStrict")
	if p == nil || v == nil {
		panic("data: nil property or provider")
	}
	if _, dup := b.fields[p]; dup {
		panic(fmt.Sprintf("data: value already set for param %s", p.name))
	}
	b.fields[p] = v
	return b
}

func (b *ParamStoreBuilder) Has(p *Property) bool {
	_, ok := b.fields[p]
	return ok
}

func (b *ParamStoreBuilder) Len() int { return len(b.fields) }

// Freeze ends population and returns the read-only store. It may be called
// once.
func (b *ParamStoreBuilder) Freeze() *ParamStore {
	if b.frozen {
		panic("data: param store frozen twice")
	}
	b.frozen = true
	s := &ParamStore{fields: b.fields}
	b.fields = nil
	return s
}

// ParamStore is a frozen mapping from properties to providers. It is safe
// for concurrent readers. Equality and hashing are defined only here, on the
// frozen type.
type ParamStore struct {
	fields map[*Property]Provider
}

// EmptyParamStore is the shared empty store.
var EmptyParamStore = NewParamStoreBuilder(0).Freeze()

// Get returns the provider for p, or Undefined when p is absent.
func (s *ParamStore) Get(p *Property) Provider {
	if v, ok := s.fields[p]; ok {
		return v
	}
	return Undefined
}

func (s *ParamStore) Has(p *Property) bool {
	_, ok := s.fields[p]
	return ok
}

func (s *ParamStore) Len() int { return len(s.fields) }

// Properties returns the store's properties ordered by id.
func (s *ParamStore) Properties() []*Property {
	out := slices.Collect(maps.Keys(s.fields))
	slices.SortFunc(out, func(a, b *Property) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Range calls fn for each entry in property-id order until fn returns false.
func (s *ParamStore) Range(fn func(p *Property, v Provider) bool) {
	for _, p := range s.Properties() {
		if !fn(p, s.fields[p]) {
			return
		}
	}
}

func (s *ParamStore) ParamStore() *ParamStore { return s }

// Equal reports whether both stores hold equal values under the same
// properties.
func (s *ParamStore) Equal(other *ParamStore) bool {
	if s == other {
		return true
	}
	if other == nil || len(s.fields) != len(other.fields) {
		return false
	}
	for p, v := range s.fields {
		w, ok := other.fields[p]
		if !ok || !ProvidersEqual(v, w) {
			return false
		}
	}
	return true
}

// Hash is the wrapping sum of identity(p) ^ hash(value) over all entries,
// which does not depend on iteration order.
func (s *ParamStore) Hash() uint64 {
	var sum uint64
	for p, v := range s.fields {
		sum += mix64(uint64(p.id)) ^ v.Resolve().Hash()
	}
	return sum
}

// AsStringMap exports the store by name, for debugging and interop.
func (s *ParamStore) AsStringMap() map[string]Provider {
	out := make(map[string]Provider, len(s.fields))
	for p, v := range s.fields {
		out[p.name] = v
	}
	return out
}

func (s *ParamStore) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range s.Properties() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", p.name, s.fields[p].Resolve())
	}
	b.WriteByte('}')
	return b.String()
}

// Merge returns a frozen store with the entries of a and then b. The inputs
// must be disjoint; a shared property panics.
func Merge(a, b *ParamStore) *ParamStore {
	out := NewParamStoreBuilder(a.Len() + b.Len())
	for p, v := range a.fields {
		out.SetStrict(p, v)
	}
	for p, v := range b.fields {
		out.SetStrict(p, v)
	}
	return out.Freeze()
}

// FromRecord returns the backing store of a store-backed record without
// copying; any other record is copied strictly and frozen.
func FromRecord(r Record) *ParamStore {
	if sb, ok := r.(StoreBacked); ok {
		return sb.ParamStore()
	}
	out := NewParamStoreBuilder(r.Len())
	r.Range(func(p *Property, v Provider) bool {
		out.SetStrict(p, v)
		return true
	})
	return out.Freeze()
}
