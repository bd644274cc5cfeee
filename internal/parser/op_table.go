package parser

import (
	"tmplc/internal/ast"
	"tmplc/internal/token"
)

// binaryOp maps a token to its binary operator; ok is false for non-operators.
func binaryOp(kind token.Kind) (ast.Op, bool) {
	switch kind {
	case token.Star:
		return ast.OpMul, true
	case token.Slash:
		return ast.OpDiv, true
	case token.Percent:
		return ast.OpMod, true
	case token.Plus:
		return ast.OpAdd, true
	case token.Minus:
		return ast.OpSub, true
	case token.Lt:
		return ast.OpLt, true
	case token.Gt:
		return ast.OpGt, true
	case token.LtEq:
		return ast.OpLe, true
	case token.GtEq:
		return ast.OpGe, true
	case token.EqEq:
		return ast.OpEq, true
	case token.BangEq:
		return ast.OpNe, true
	case token.KwAnd:
		return ast.OpAnd, true
	case token.KwOr:
		return ast.OpOr, true
	case token.QuestionQuestion:
		return ast.OpNullCoalesce, true
	}
	return ast.OpInvalid, false
}
