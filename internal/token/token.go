package token

// Token is one lexeme of a command text. Start and End are byte offsets
// into that text; Text is the raw spelling and Value the decoded contents
// of a string literal.
type Token struct {
	Kind  Kind
	Start int
	End   int
	Text  string
	Value string
}

// IsLiteral reports whether the token is a numeric, boolean, null or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, KwTrue, KwFalse, KwNull:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	switch t.Kind {
	case KwTrue, KwFalse, KwNull, KwAnd, KwOr, KwNot, KwIn:
		return true
	default:
		return false
	}
}

func (t Token) Is(kinds ...Kind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}

var keywords = map[string]Kind{
	"true":  KwTrue,
	"false": KwFalse,
	"null":  KwNull,
	"and":   KwAnd,
	"or":    KwOr,
	"not":   KwNot,
	"in":    KwIn,
}

// LookupKeyword returns the keyword kind for ident, or Ident.
func LookupKeyword(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}
