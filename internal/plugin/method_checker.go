// Package plugin describes what templates may call beyond the language
// itself: plugin functions with fixed arities and methods confirmed by
// pluggable checkers.
package plugin

import (
	"fmt"
	"strings"
)

// MethodSignature identifies a method by receiver class, name, return type
// and argument types. Types are spelled as the type interner prints them.
type MethodSignature struct {
	Class       string
	Method      string
	ReturnType  string
	Args        []string
	InInterface bool
}

func (s MethodSignature) String() string {
	ret := s.ReturnType
	if ret == "" {
		ret = "?"
	}
	return fmt.Sprintf("%s.%s(%s) %s", s.Class, s.Method, strings.Join(s.Args, ", "), ret)
}

// MethodChecker confirms that a method exists. A checker that knows the
// class but rejects the call may explain why through report.
type MethodChecker interface {
	HasMethod(sig MethodSignature, report func(msg string)) bool
}

// MethodCheckerFunc adapts a function to MethodChecker.
type MethodCheckerFunc func(sig MethodSignature, report func(msg string)) bool

func (f MethodCheckerFunc) HasMethod(sig MethodSignature, report func(string)) bool {
	return f(sig, report)
}

// Delegating asks each checker in order and stops at the first that
// confirms. Every consulted checker gets the same report sink.
type Delegating []MethodChecker

func (d Delegating) HasMethod(sig MethodSignature, report func(string)) bool {
	for _, c := range d {
		if c != nil && c.HasMethod(sig, report) {
			return true
		}
	}
	return false
}

// methodSpec is one row of a static method table.
type methodSpec struct {
	class  string
	name   string
	params []string
	result string
}

// StaticChecker confirms methods from a fixed table. An empty param type
// matches any argument type; "?" as the class matches any receiver.
type StaticChecker struct {
	specs map[string][]methodSpec // по имени метода
}

func NewStaticChecker() *StaticChecker {
	return &StaticChecker{specs: make(map[string][]methodSpec)}
}

// Add registers class.name(params...) result.
func (c *StaticChecker) Add(class, name, result string, params ...string) *StaticChecker {
	c.specs[name] = append(c.specs[name], methodSpec{class: class, name: name, params: params, result: result})
	return c
}

// Result returns the declared result type of the first matching method.
func (c *StaticChecker) Result(sig MethodSignature) (string, bool) {
	for _, spec := range c.specs[sig.Method] {
		if spec.matches(sig) {
			return spec.result, true
		}
	}
	return "", false
}

func (c *StaticChecker) HasMethod(sig MethodSignature, report func(string)) bool {
	candidates := c.specs[sig.Method]
	for _, spec := range candidates {
		if spec.matches(sig) {
			return true
		}
	}
	if report == nil {
		return false
	}
	for _, spec := range candidates {
		if !spec.classMatches(sig.Class) {
			continue
		}
		if len(spec.params) != len(sig.Args) {
			report(fmt.Sprintf("%s.%s takes %d argument(s), got %d", sig.Class, sig.Method, len(spec.params), len(sig.Args)))
		} else {
			report(fmt.Sprintf("%s.%s(%s) does not accept (%s)", sig.Class, sig.Method,
				strings.Join(spec.params, ", "), strings.Join(sig.Args, ", ")))
		}
		break
	}
	return false
}

func (s methodSpec) classMatches(class string) bool {
	return s.class == "?" || s.class == class
}

func (s methodSpec) matches(sig MethodSignature) bool {
	if !s.classMatches(sig.Class) || len(s.params) != len(sig.Args) {
		return false
	}
	if sig.ReturnType != "" && s.result != "" && sig.ReturnType != s.result {
		return false
	}
	for i, p := range s.params {
		if p != "" && sig.Args[i] != "?" && p != sig.Args[i] {
			return false
		}
	}
	return true
}
