package token

// Kind represents the category of an expression token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the command text.
	EOF

	// Ident is a bare identifier, possibly part of a dotted global name.
	Ident
	// Var is $name.
	Var
	IntLit
	FloatLit
	StringLit

	KwTrue
	KwFalse
	KwNull
	KwAnd
	KwOr
	KwNot
	KwIn

	Plus
	Minus
	Star
	Slash
	Percent
	EqEq
	BangEq
	Bang
	Lt
	LtEq
	Gt
	GtEq
	Assign
	ColonAssign // :=
	Question
	QuestionQuestion // ??
	QuestionDot      // ?.
	QuestionBracket  // ?[
	Colon
	Comma
	Dot
	Pipe
	LParen
	RParen
	LBracket
	RBracket
)

var kindNames = [...]string{
	Invalid:          "invalid",
	EOF:              "end of input",
	Ident:            "identifier",
	Var:              "variable",
	IntLit:           "integer",
	FloatLit:         "float",
	StringLit:        "string",
	KwTrue:           "true",
	KwFalse:          "false",
	KwNull:           "null",
	KwAnd:            "and",
	KwOr:             "or",
	KwNot:            "not",
	KwIn:             "in",
	Plus:             "+",
	Minus:            "-",
	Star:             "*",
	Slash:            "/",
	Percent:          "%",
	EqEq:             "==",
	BangEq:           "!=",
	Bang:             "!",
	Lt:               "<",
	LtEq:             "<=",
	Gt:               ">",
	GtEq:             ">=",
	Assign:           "=",
	ColonAssign:      ":=",
	Question:         "?",
	QuestionQuestion: "??",
	QuestionDot:      "?.",
	QuestionBracket:  "?[",
	Colon:            ":",
	Comma:            ",",
	Dot:              ".",
	Pipe:             "|",
	LParen:           "(",
	RParen:           ")",
	LBracket:         "[",
	RBracket:         "]",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}
