package codegen

// PrecAtom is the precedence of literals, names, calls and anything else
// that never needs parentheses.
const PrecAtom = 100

// Fragment is lowered backend code together with the precedence of its
// outermost operator, so callers parenthesize only where needed.
type Fragment struct {
	Text string
	Prec int
}

// Atom wraps text that binds tighter than any operator.
func Atom(text string) Fragment {
	return Fragment{Text: text, Prec: PrecAtom}
}

// Op wraps text whose outermost operator has precedence prec.
func Op(text string, prec int) Fragment {
	return Fragment{Text: text, Prec: prec}
}

// Wrap returns the text parenthesized when it binds looser than min.
func (f Fragment) Wrap(min int) string {
	if f.Prec < min {
		return "(" + f.Text + ")"
	}
	return f.Text
}

func (f Fragment) String() string { return f.Text }
