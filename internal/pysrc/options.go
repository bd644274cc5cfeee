package pysrc

import (
	"fmt"
	"strings"
)

// Options configure the generated Python modules.
type Options struct {
	// RuntimePath is the package holding runtime and sanitize, e.g.
	// "example.runtime".
	RuntimePath string
	// EnvironmentModule replaces the runtime's default environment module.
	EnvironmentModule string
	// BidiIsRtlFn is a dotted function reporting a right-to-left locale.
	BidiIsRtlFn string
	// TranslationClass is the dotted class used for translation.
	TranslationClass string
	// NamespaceManifest maps template namespaces to Python modules for
	// cross-namespace calls.
	NamespaceManifest map[string]string
}

// Validate checks that every dotted path is well formed.
func (o Options) Validate() error {
	if o.RuntimePath == "" {
		return fmt.Errorf("pysrc: runtime path is required")
	}
	for what, path := range map[string]string{
		"runtime path":       o.RuntimePath,
		"environment module": o.EnvironmentModule,
		"bidi function":      o.BidiIsRtlFn,
		"translation class":  o.TranslationClass,
	} {
		if path != "" && !isDotted(path) {
			return fmt.Errorf("pysrc: %s %q is not a dotted Python name", what, path)
		}
	}
	for ns, mod := range o.NamespaceManifest {
		if !isDotted(mod) {
			return fmt.Errorf("pysrc: namespace %s maps to invalid module %q", ns, mod)
		}
	}
	if o.BidiIsRtlFn != "" && !strings.Contains(o.BidiIsRtlFn, ".") {
		return fmt.Errorf("pysrc: bidi function %q needs a module", o.BidiIsRtlFn)
	}
	if o.TranslationClass != "" && !strings.Contains(o.TranslationClass, ".") {
		return fmt.Errorf("pysrc: translation class %q needs a module", o.TranslationClass)
	}
	return nil
}

func isDotted(s string) bool {
	for part := range strings.SplitSeq(s, ".") {
		if !isIdent(part) {
			return false
		}
	}
	return true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// splitDotted splits "a.b.c" into "a.b" and "c".
func splitDotted(s string) (string, string) {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}
