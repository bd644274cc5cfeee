package ast

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the node's children. Sentinels are visited but not descended into.
func (t *Tree) Walk(id NodeID, fn func(id NodeID) bool) {
	if !id.IsValid() {
		return
	}
	if !fn(id) || t.IsError(id) {
		return
	}
	for _, c := range t.Children(id) {
		t.Walk(c, fn)
	}
}

// Collect returns every node of the given kind under id, in pre-order.
func (t *Tree) Collect(id NodeID, kind Kind) []NodeID {
	var out []NodeID
	t.Walk(id, func(n NodeID) bool {
		if t.Kind(n) == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}
