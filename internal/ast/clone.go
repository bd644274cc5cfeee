package ast

import "fmt"

// CopyState is the remap table of one top-level clone operation. Thread the
// same state through every Clone call of that operation so references
// between separately cloned pieces are rewritten consistently. A CopyState
// must not be shared between goroutines.
type CopyState struct {
	mapped map[NodeID]NodeID
	// old target -> new nodes still pointing at it
	pending map[NodeID][]NodeID
}

func NewCopyState() *CopyState {
	return &CopyState{
		mapped:  make(map[NodeID]NodeID),
		pending: make(map[NodeID][]NodeID),
	}
}

// Lookup returns the clone of old, if old was cloned under this state.
func (s *CopyState) Lookup(old NodeID) (NodeID, bool) {
	id, ok := s.mapped[old]
	return id, ok
}

// MustLookup panics when old was not cloned.
func (s *CopyState) MustLookup(old NodeID) NodeID {
	id, ok := s.mapped[old]
	if !ok {
		panic(fmt.Sprintf("ast: node %d was not copied", old))
	}
	return id
}

// Len is the number of cloned nodes.
func (s *CopyState) Len() int { return len(s.mapped) }

func (s *CopyState) record(t *Tree, old, repl NodeID) {
	if prev, ok := s.mapped[old]; ok {
		panic(fmt.Sprintf("ast: node %d copied twice (as %d and %d)", old, prev, repl))
	}
	s.mapped[old] = repl
	for _, ref := range s.pending[old] {
		t.retarget(ref, old, repl)
	}
	delete(s.pending, old)
}

// Clone deep-copies the subtree rooted at id inside t and returns the
// detached copy. References to nodes inside the copied region (or copied
// earlier under the same state) are redirected to their clones; references
// leaving the region stay shared. Sentinel error nodes are not copied. A nil
// state starts a fresh operation.
func (t *Tree) Clone(id NodeID, state *CopyState) (NodeID, *CopyState) {
	if state == nil {
		state = NewCopyState()
	}
	return t.cloneRec(id, state), state
}

func (t *Tree) cloneRec(id NodeID, state *CopyState) NodeID {
	if !id.IsValid() || t.IsError(id) {
		return id
	}
	src := t.MustGet(id)
	var data NodeData
	if src.Data != nil {
		data = src.Data.copyData()
	}
	kind, loc := src.Kind, src.Loc
	children := append([]NodeID(nil), src.Children...)
	// src may be invalidated by the arena growing below
	repl := t.New(kind, loc, data)
	state.record(t, id, repl)

	if ref, ok := data.(*VarRefData); ok && ref.Decl.IsValid() {
		if target, done := state.mapped[ref.Decl]; done {
			ref.Decl = target
		} else {
			state.pending[ref.Decl] = append(state.pending[ref.Decl], repl)
		}
	}

	for _, c := range children {
		t.Attach(repl, t.cloneRec(c, state))
	}
	return repl
}

func (t *Tree) retarget(ref, old, repl NodeID) {
	d, ok := Data[*VarRefData](t, ref)
	if !ok || d.Decl != old {
		panic(fmt.Sprintf("ast: inconsistent remap for node %d", ref))
	}
	if t.Kind(old) != t.Kind(repl) {
		panic(fmt.Sprintf("ast: remap changes kind %s -> %s", t.Kind(old), t.Kind(repl)))
	}
	d.Decl = repl
}
