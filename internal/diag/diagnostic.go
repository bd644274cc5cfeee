package diag

import (
	"fmt"

	"tmplc/internal/source"
)

type Note struct {
	Loc source.Location
	Msg string
}

// Diagnostic is one finding. Text carries the offending raw source text
// verbatim (a command text, a globals line) when the producer has it.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Location
	Text     string
	Notes    []Note
}

func (d Diagnostic) WithNote(loc source.Location, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Loc: loc, Msg: msg})
	return d
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Primary, d.Severity, d.Code.ID(), d.Message)
}

// Kind is a reusable diagnostic template: a code, a severity and a
// fmt-style message format. Producers declare their kinds as package vars.
type Kind struct {
	Code     Code
	Severity Severity
	Format   string
}

// ErrorKind declares an error-severity Kind.
func ErrorKind(code Code, format string) Kind {
	return Kind{Code: code, Severity: SevError, Format: format}
}

// WarningKind declares a warning-severity Kind.
func WarningKind(code Code, format string) Kind {
	return Kind{Code: code, Severity: SevWarning, Format: format}
}

// Message formats the kind's message with args.
func (k Kind) Message(args ...any) string {
	if len(args) == 0 {
		return k.Format
	}
	return fmt.Sprintf(k.Format, args...)
}
