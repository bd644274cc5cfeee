package typenode

// HasNullAlternative reports whether t is null or a union with a direct null
// member. Nested unions are not looked into; the grammar never produces them.
func HasNullAlternative(t *Node) bool {
	if t == nil {
		return false
	}
	if t.IsNull() {
		return true
	}
	if t.Kind != KindUnion {
		return false
	}
	for _, m := range t.Args {
		if m.IsNull() {
			return true
		}
	}
	return false
}

// Normalize computes the effective type of a declaration. An optional
// declaration whose type has no null alternative gets null appended: to the
// member list if declared is already a union, otherwise as a new two-member
// union. The synthesized null and union take declared's location. In every
// other case declared is returned as is. declared is never modified.
func Normalize(declared *Node, optional bool) *Node {
	if declared == nil || !optional || HasNullAlternative(declared) {
		return declared
	}
	null := Null(declared.Loc)
	if declared.Kind == KindUnion {
		members := make([]*Node, 0, len(declared.Args)+1)
		for _, m := range declared.Args {
			members = append(members, m.Copy())
		}
		return Union(declared.Loc, append(members, null)...)
	}
	return Union(declared.Loc, declared.Copy(), null)
}
