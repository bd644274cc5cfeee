package diag

import "tmplc/internal/source"

type dedupKey struct {
	code Code
	sev  Severity
	loc  source.Location
	msg  string
}

// DedupReporter forwards each distinct diagnostic (code, severity, primary
// location, message) once. Parser recovery tends to hit the same defect
// more than once.
//
// Checkpoints count every reported error, suppressed duplicates included,
// so a builder that repeats an earlier error still sees it.
type DedupReporter struct {
	next   Reporter
	seen   map[dedupKey]struct{}
	errors int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	if d.Severity >= SevError {
		r.errors++
	}
	key := dedupKey{code: d.Code, sev: d.Severity, loc: d.Primary, msg: d.Message}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(d)
	}
}

func (r *DedupReporter) Checkpoint() Checkpoint { return Checkpoint{errors: r.errors} }

func (r *DedupReporter) ErrorsSince(cp Checkpoint) bool { return r.errors > cp.errors }
