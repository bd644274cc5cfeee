package ast

type Op uint8

const (
	OpInvalid Op = iota
	OpNeg
	OpNot
	OpMul
	OpDiv
	OpMod
	OpAdd
	OpSub
	OpLt
	OpGt
	OpLe
	OpGe
	OpEq
	OpNe
	OpAnd
	OpOr
	OpNullCoalesce
)

var opSpelling = [...]string{
	OpInvalid:      "?",
	OpNeg:          "-",
	OpNot:          "not",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpAdd:          "+",
	OpSub:          "-",
	OpLt:           "<",
	OpGt:           ">",
	OpLe:           "<=",
	OpGe:           ">=",
	OpEq:           "==",
	OpNe:           "!=",
	OpAnd:          "and",
	OpOr:           "or",
	OpNullCoalesce: "??",
}

func (op Op) String() string {
	if int(op) < len(opSpelling) {
		return opSpelling[op]
	}
	return "?"
}

// Precedence of template-language operators; higher binds tighter.
// Ternary is 1.
func (op Op) Precedence() int {
	switch op {
	case OpNeg, OpNot:
		return 8
	case OpMul, OpDiv, OpMod:
		return 7
	case OpAdd, OpSub:
		return 6
	case OpLt, OpGt, OpLe, OpGe:
		return 5
	case OpEq, OpNe:
		return 4
	case OpAnd:
		return 3
	case OpOr, OpNullCoalesce:
		return 2
	}
	return 0
}

// TernaryPrecedence is the precedence of cond ? a : b.
const TernaryPrecedence = 1
