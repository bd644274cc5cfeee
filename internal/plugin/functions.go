package plugin

import (
	"fmt"
	"maps"
	"slices"
)

// Variadic as MaxArgs accepts any number of arguments from MinArgs up.
const Variadic = -1

// Function is a plugin function callable from templates. Target names the
// backend callable, e.g. "myapp.fmt.money" for Python.
type Function struct {
	Name    string
	Target  string
	MinArgs int
	MaxArgs int
}

// Accepts reports whether n arguments fit the function's arity.
func (f Function) Accepts(n int) bool {
	if n < f.MinArgs {
		return false
	}
	return f.MaxArgs == Variadic || n <= f.MaxArgs
}

// Arity renders the accepted argument counts for diagnostics.
func (f Function) Arity() string {
	switch {
	case f.MaxArgs == Variadic:
		return fmt.Sprintf("at least %d", f.MinArgs)
	case f.MinArgs == f.MaxArgs:
		return fmt.Sprintf("%d", f.MinArgs)
	}
	return fmt.Sprintf("%d to %d", f.MinArgs, f.MaxArgs)
}

// Registry maps function names to plugin functions. It is filled before
// compilation starts and only read afterwards.
type Registry struct {
	funcs map[string]Function
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Function)}
}

// Register adds fn. Names are unique; a second registration is an error.
func (r *Registry) Register(fn Function) error {
	switch {
	case fn.Name == "":
		return fmt.Errorf("plugin: function without a name")
	case fn.Target == "":
		return fmt.Errorf("plugin: function %s: missing target", fn.Name)
	case fn.MinArgs < 0 || (fn.MaxArgs != Variadic && fn.MaxArgs < fn.MinArgs):
		return fmt.Errorf("plugin: function %s: bad arity %d..%d", fn.Name, fn.MinArgs, fn.MaxArgs)
	}
	if _, dup := r.funcs[fn.Name]; dup {
		return fmt.Errorf("plugin: function %s registered twice", fn.Name)
	}
	r.funcs[fn.Name] = fn
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(fns ...Function) *Registry {
	for _, fn := range fns {
		if err := r.Register(fn); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Lookup(name string) (Function, bool) {
	if r == nil {
		return Function{}, false
	}
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.funcs))
}
