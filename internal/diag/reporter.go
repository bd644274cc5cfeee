package diag

import "tmplc/internal/source"

// Reporter — минимальный контракт получения диагностик от фаз.
type Reporter interface {
	Report(d Diagnostic)
}

// Checkpoint marks the number of errors a reporter had seen at some moment.
type Checkpoint struct {
	errors int
}

// ErrorReporter is a Reporter that supports checkpoints: builders mark the
// current error count, run all their checks and then ask whether any errors
// were added since.
type ErrorReporter interface {
	Reporter
	Checkpoint() Checkpoint
	ErrorsSince(cp Checkpoint) bool
}

// Emit formats kind with args and reports it at loc, quoting text.
func Emit(r Reporter, kind Kind, loc source.Location, text string, args ...any) {
	if r == nil {
		return
	}
	r.Report(Diagnostic{
		Severity: kind.Severity,
		Code:     kind.Code,
		Message:  kind.Message(args...),
		Primary:  loc,
		Text:     text,
	})
}

// BagReporter — адаптер, который пишет в *Bag.
type BagReporter struct{ Bag *Bag }

// NewBagReporter returns a reporter backed by a fresh bag of the given size.
func NewBagReporter(max int) BagReporter {
	return BagReporter{Bag: NewBag(max)}
}

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

func (r BagReporter) Checkpoint() Checkpoint {
	if r.Bag == nil {
		return Checkpoint{}
	}
	return Checkpoint{errors: r.Bag.ErrorCount()}
}

func (r BagReporter) ErrorsSince(cp Checkpoint) bool {
	return r.Bag != nil && r.Bag.ErrorCount() > cp.errors
}

// NopReporter drops everything but still counts errors, so it can be used
// where only the checkpoint answer matters.
type NopReporter struct {
	errors int
}

func (r *NopReporter) Report(d Diagnostic) {
	if d.Severity >= SevError {
		r.errors++
	}
}

func (r *NopReporter) Checkpoint() Checkpoint { return Checkpoint{errors: r.errors} }

func (r *NopReporter) ErrorsSince(cp Checkpoint) bool { return r.errors > cp.errors }

// MultiReporter fans out every diagnostic to all reporters.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}
