package data

import (
	"sync"

	"tmplc/internal/source"
)

// Property is a canonical parameter name. Each name is interned exactly once
// per table, so properties are compared by pointer and hashed by id.
type Property struct {
	id   source.StringID
	name string
}

func (p *Property) Name() string { return p.name }

// ID is the numeric identity of the property within its table.
func (p *Property) ID() uint32 { return uint32(p.id) }

func (p *Property) String() string { return p.name }

// PropertyTable interns parameter names into properties. Safe for
// concurrent use.
type PropertyTable struct {
	names *source.Interner
	mu    sync.RWMutex
	props []*Property // по StringID
}

func NewPropertyTable() *PropertyTable {
	return &PropertyTable{names: source.NewInterner(), props: []*Property{nil}}
}

// Intern returns the single property for name.
func (t *PropertyTable) Intern(name string) *Property {
	id := t.names.Intern(name)
	t.mu.RLock()
	if int(id) < len(t.props) && t.props[id] != nil {
		p := t.props[id]
		t.mu.RUnlock()
		return p
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	for int(id) >= len(t.props) {
		t.props = append(t.props, nil)
	}
	if t.props[id] == nil {
		t.props[id] = &Property{id: id, name: t.names.MustLookup(id)}
	}
	return t.props[id]
}

// Len counts interned properties.
func (t *PropertyTable) Len() int {
	return t.names.Len() - 1
}

var defaultTable = NewPropertyTable()

// Prop interns name in the process-wide table.
func Prop(name string) *Property {
	return defaultTable.Intern(name)
}
