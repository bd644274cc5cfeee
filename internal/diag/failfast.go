package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Failure is the panic value raised by ExplodingReporter.
type Failure struct {
	Diagnostic Diagnostic
}

func (f *Failure) Error() string {
	if f.Diagnostic.Text != "" {
		return fmt.Sprintf("%s (in %q)", f.Diagnostic, f.Diagnostic.Text)
	}
	return f.Diagnostic.String()
}

// ExplodingReporter aborts on the first error by panicking with *Failure.
// Warnings and infos are ignored. Use it where a diagnostic can only mean a
// bug: compiler-internal sentinels, generated input, tests.
type ExplodingReporter struct{}

// Exploding returns the fail-fast reporter.
func Exploding() ErrorReporter { return ExplodingReporter{} }

func (ExplodingReporter) Report(d Diagnostic) {
	if d.Severity >= SevError {
		panic(&Failure{Diagnostic: d})
	}
}

func (ExplodingReporter) Checkpoint() Checkpoint { return Checkpoint{} }

// ErrorsSince is always false: an error would already have panicked.
func (ExplodingReporter) ErrorsSince(Checkpoint) bool { return false }

// ThrowingReporter collects diagnostics without bound and converts them into
// a Go error on demand.
type ThrowingReporter struct {
	items  []Diagnostic
	errors int
}

func (r *ThrowingReporter) Report(d Diagnostic) {
	if d.Severity >= SevError {
		r.errors++
	}
	r.items = append(r.items, d)
}

func (r *ThrowingReporter) Checkpoint() Checkpoint { return Checkpoint{errors: r.errors} }

func (r *ThrowingReporter) ErrorsSince(cp Checkpoint) bool { return r.errors > cp.errors }

// Err returns nil when no errors were reported, otherwise an error joining
// one *Failure per error diagnostic.
func (r *ThrowingReporter) Err() error {
	if r.errors == 0 {
		return nil
	}
	errs := make([]error, 0, r.errors)
	for _, d := range r.items {
		if d.Severity >= SevError {
			errs = append(errs, &Failure{Diagnostic: d})
		}
	}
	return errors.Join(errs...)
}

// Summary renders all collected diagnostics one per line.
func (r *ThrowingReporter) Summary() string {
	var b strings.Builder
	for i, d := range r.items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.String())
	}
	return b.String()
}
