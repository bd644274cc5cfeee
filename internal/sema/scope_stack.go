package sema

import "tmplc/internal/ast"

// scopeStack maps variable names to their declaring nodes, innermost frame
// last. Lookups walk from the innermost frame out, so inner declarations
// shadow outer ones.
type scopeStack struct {
	frames []map[string]ast.NodeID
}

func (s *scopeStack) push() {
	s.frames = append(s.frames, make(map[string]ast.NodeID, 4))
}

func (s *scopeStack) pop() {
	if len(s.frames) == 0 {
		panic("sema: scope stack underflow")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// declare adds name to the innermost frame. It returns the previous
// declaration when the name already exists in that frame.
func (s *scopeStack) declare(name string, id ast.NodeID) (ast.NodeID, bool) {
	top := s.frames[len(s.frames)-1]
	if prev, ok := top[name]; ok {
		return prev, true
	}
	top[name] = id
	return ast.NoNodeID, false
}

func (s *scopeStack) lookup(name string) (ast.NodeID, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if id, ok := s.frames[i][name]; ok {
			return id, true
		}
	}
	return ast.NoNodeID, false
}
