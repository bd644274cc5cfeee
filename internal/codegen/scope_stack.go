package codegen

// ScopeStack maps source variable names to their lowered form. Lookups go
// innermost first, so inner declarations shadow outer ones.
type ScopeStack struct {
	frames []map[string]Fragment
}

func (s *ScopeStack) Push() {
	s.frames = append(s.frames, make(map[string]Fragment))
}

func (s *ScopeStack) Pop() {
	if len(s.frames) == 0 {
		panic("codegen: pop of an empty scope stack")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *ScopeStack) Depth() int { return len(s.frames) }

// Declare binds name in the innermost frame, replacing any earlier binding
// there.
func (s *ScopeStack) Declare(name string, lowered Fragment) {
	if len(s.frames) == 0 {
		panic("codegen: declare outside of any scope")
	}
	s.frames[len(s.frames)-1][name] = lowered
}

func (s *ScopeStack) Lookup(name string) (Fragment, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if f, ok := s.frames[i][name]; ok {
			return f, true
		}
	}
	return Fragment{}, false
}
