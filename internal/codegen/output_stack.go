package codegen

import "fmt"

// Accumulator is one output variable: the template body or a nested content
// block. Its code goes to a private writer until the block is popped.
type Accumulator struct {
	Name        string
	initialized bool
	code        *Writer
}

// Code is where statements of this block are written.
func (a *Accumulator) Code() *Writer { return a.code }

func (a *Accumulator) Initialized() bool { return a.initialized }

// MarkInitialized flags the variable as declared. It returns true on the
// first call, when the backend must emit the declaration.
func (a *Accumulator) MarkInitialized() bool {
	if a.initialized {
		return false
	}
	a.initialized = true
	return true
}

// ReadBack builds the expression that reads an accumulator's result. An
// accumulator that was never initialized has no variable to read.
type ReadBack func(name string, initialized bool) Fragment

// OutputStack tracks the output variables of nested content blocks.
type OutputStack struct {
	frames   []*Accumulator
	base     string
	counter  int
	readBack ReadBack
	unit     string
}

// NewOutputStack names the outermost variable base and nested ones base_2,
// base_3 and so on.
func NewOutputStack(base, indentUnit string, readBack ReadBack) *OutputStack {
	return &OutputStack{base: base, unit: indentUnit, readBack: readBack}
}

// Push opens a block whose statements start at indent.
func (s *OutputStack) Push(indent int) *Accumulator {
	s.counter++
	name := s.base
	if s.counter > 1 {
		name = fmt.Sprintf("%s_%d", s.base, s.counter)
	}
	acc := &Accumulator{Name: name, code: NewWriter(s.unit, indent)}
	s.frames = append(s.frames, acc)
	return acc
}

// Top is the innermost open block, or nil.
func (s *OutputStack) Top() *Accumulator {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *OutputStack) Depth() int { return len(s.frames) }

// Pop closes the innermost block and returns its code and the expression
// that reads its result.
func (s *OutputStack) Pop() (code string, result Fragment) {
	if len(s.frames) == 0 {
		panic("codegen: pop of an empty output stack")
	}
	acc := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return acc.code.String(), s.readBack(acc.Name, acc.initialized)
}

// Reset forgets all frames and restarts naming; used between templates.
func (s *OutputStack) Reset() {
	s.frames = s.frames[:0]
	s.counter = 0
}
