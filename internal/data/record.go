package data

import (
	"maps"
	"slices"
)

// MapRecord is a record over plain names, e.g. values decoded from a file.
// Its names are interned through a property table when it is ranged.
type MapRecord struct {
	Table  *PropertyTable
	Fields map[string]Value
}

func (r MapRecord) Len() int { return len(r.Fields) }

// Range visits fields in name order.
func (r MapRecord) Range(fn func(p *Property, v Provider) bool) {
	table := r.Table
	if table == nil {
		table = defaultTable
	}
	for _, name := range slices.Sorted(maps.Keys(r.Fields)) {
		if !fn(table.Intern(name), r.Fields[name]) {
			return
		}
	}
}

// RecordValue is a record value backed by a frozen store.
type RecordValue struct {
	store *ParamStore
}

func NewRecordValue(s *ParamStore) RecordValue { return RecordValue{store: s} }

func (v RecordValue) Resolve() Value { return v }

func (v RecordValue) Equal(o Value) bool {
	w, ok := o.(RecordValue)
	return ok && v.store.Equal(w.store)
}

func (v RecordValue) Hash() uint64 { return mix64(v.store.Hash()) }

func (v RecordValue) String() string { return v.store.String() }

func (v RecordValue) Len() int { return v.store.Len() }

func (v RecordValue) Range(fn func(p *Property, v Provider) bool) { v.store.Range(fn) }

func (v RecordValue) ParamStore() *ParamStore { return v.store }
