package parser

import (
	"strconv"
	"strings"

	"tmplc/internal/ast"
	"tmplc/internal/diag"
	"tmplc/internal/lexer"
	"tmplc/internal/source"
	"tmplc/internal/token"
)

var (
	errExpectExpr   = diag.ErrorKind(diag.SynExpectExpression, "expected expression, found %s")
	errUnexpected   = diag.ErrorKind(diag.SynUnexpectedToken, "expected %s, found %s")
	errTrailing     = diag.ErrorKind(diag.SynTrailingInput, "unexpected %q after expression")
	errUnclosed     = diag.ErrorKind(diag.SynUnclosedParen, "missing ')'")
	errUnclosedList = diag.ErrorKind(diag.SynUnclosedBracket, "missing ']'")
	errIntRange     = diag.ErrorKind(diag.LexBadNumber, "integer %s out of range")
)

// operand is a parsed node with its byte range in the command text.
type operand struct {
	id         ast.NodeID
	start, end int
}

type exprParser struct {
	tree *ast.Tree
	lx   *lexer.Lexer
	r    diag.Reporter
	tok  token.Token
	// prev is the last consumed token
	prev token.Token
}

// ParseExpr parses text, found at loc, as a single expression. Syntax errors
// are reported to r and replaced by the tree's error expression so the
// result is always usable. It has the ast.ExprParser signature.
func ParseExpr(t *ast.Tree, text string, loc source.Location, r diag.Reporter) ast.NodeID {
	p := newExprParser(t, text, loc, r)
	e := p.parseExpr(0)
	if p.tok.Kind != token.EOF {
		diag.Emit(r, errTrailing, p.lx.Loc(p.tok.Start, len(text)), text, strings.TrimSpace(p.lx.Rest(p.tok.Start)))
	}
	return e.id
}

var _ ast.ExprParser = ParseExpr

func newExprParser(t *ast.Tree, text string, loc source.Location, r diag.Reporter) *exprParser {
	p := &exprParser{tree: t, lx: lexer.New(text, loc, r), r: r}
	p.tok = p.lx.Next()
	return p
}

func (p *exprParser) advance() token.Token {
	p.prev = p.tok
	p.tok = p.lx.Next()
	return p.prev
}

func (p *exprParser) at(kinds ...token.Kind) bool {
	return p.tok.Is(kinds...)
}

func (p *exprParser) expect(kind token.Kind, what string) bool {
	if p.tok.Kind == kind {
		p.advance()
		return true
	}
	p.errAt(errUnexpected, p.tok, what, describe(p.tok))
	return false
}

func (p *exprParser) errAt(kind diag.Kind, tok token.Token, args ...any) {
	end := tok.End
	if end == tok.Start {
		end = tok.Start + 1
	}
	diag.Emit(p.r, kind, p.lx.Loc(tok.Start, end), p.lx.Text(), args...)
}

func (p *exprParser) loc(start, end int) source.Location {
	return p.lx.Loc(start, end)
}

func (p *exprParser) errorOperand(start int) operand {
	return operand{id: p.tree.ErrorNode(ast.KindGlobal), start: start, end: max(start, p.prev.End)}
}

func describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of input"
	}
	return strconv.Quote(tok.Text)
}

// parseExpr реализует Pratt parsing; minPrec - минимальный приоритет.
func (p *exprParser) parseExpr(minPrec int) operand {
	left := p.parseUnary()
	for {
		if p.at(token.Question) && ast.TernaryPrecedence >= minPrec {
			p.advance()
			then := p.parseExpr(0)
			if !p.expect(token.Colon, "':' in conditional expression") {
				return operand{id: p.tree.ErrorNode(ast.KindTernary), start: left.start, end: p.prev.End}
			}
			// правоассоциативно
			els := p.parseExpr(ast.TernaryPrecedence)
			left = operand{
				id:    p.tree.NewTernary(p.loc(left.start, els.end), left.id, then.id, els.id),
				start: left.start, end: els.end,
			}
			continue
		}
		op, ok := binaryOp(p.tok.Kind)
		if !ok || op.Precedence() < minPrec {
			return left
		}
		p.advance()
		right := p.parseExpr(op.Precedence() + 1)
		left = operand{
			id:    p.tree.NewBinary(p.loc(left.start, right.end), op, left.id, right.id),
			start: left.start, end: right.end,
		}
	}
}

func (p *exprParser) parseUnary() operand {
	switch p.tok.Kind {
	case token.Minus:
		minus := p.advance()
		// -1 и -1.5 сворачиваются в литерал
		if p.at(token.IntLit, token.FloatLit) {
			lit := p.parseNumber(true)
			lit.start = minus.Start
			if !p.tree.IsError(lit.id) {
				p.tree.Get(lit.id).Loc = p.loc(lit.start, lit.end)
			}
			return p.parsePostfix(lit)
		}
		x := p.parseUnary()
		return p.unary(minus, ast.OpNeg, x)
	case token.KwNot, token.Bang:
		not := p.advance()
		return p.unary(not, ast.OpNot, p.parseUnary())
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *exprParser) unary(opTok token.Token, op ast.Op, x operand) operand {
	return operand{
		id:    p.tree.NewUnary(p.loc(opTok.Start, x.end), op, x.id),
		start: opTok.Start, end: x.end,
	}
}

func (p *exprParser) parsePrimary() operand {
	tok := p.tok
	switch tok.Kind {
	case token.IntLit, token.FloatLit:
		return p.parseNumber(false)
	case token.StringLit:
		p.advance()
		return operand{id: p.tree.NewString(p.loc(tok.Start, tok.End), tok.Value), start: tok.Start, end: tok.End}
	case token.KwTrue, token.KwFalse:
		p.advance()
		return operand{id: p.tree.NewBool(p.loc(tok.Start, tok.End), tok.Kind == token.KwTrue), start: tok.Start, end: tok.End}
	case token.KwNull:
		p.advance()
		return operand{id: p.tree.NewNull(p.loc(tok.Start, tok.End)), start: tok.Start, end: tok.End}
	case token.Var:
		return p.parseVar()
	case token.Ident:
		return p.parseIdent()
	case token.LBracket:
		return p.parseList()
	case token.LParen:
		p.advance()
		inner := p.parseExpr(0)
		if !p.at(token.RParen) {
			p.errAt(errUnclosed, p.tok)
			return operand{id: inner.id, start: tok.Start, end: p.prev.End}
		}
		end := p.advance().End
		return operand{id: inner.id, start: tok.Start, end: end}
	}
	p.errAt(errExpectExpr, tok, describe(tok))
	if tok.Kind != token.EOF {
		p.advance()
	}
	return p.errorOperand(tok.Start)
}

func (p *exprParser) parseNumber(negate bool) operand {
	tok := p.advance()
	loc := p.loc(tok.Start, tok.End)
	text := tok.Text
	if negate {
		text = "-" + text
	}
	if tok.Kind == token.FloatLit {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.errAt(errIntRange, tok, text)
			return p.errorOperand(tok.Start)
		}
		return operand{id: p.tree.NewFloat(loc, v), start: tok.Start, end: tok.End}
	}
	base := 10
	if strings.HasPrefix(tok.Text, "0x") || strings.HasPrefix(tok.Text, "0X") {
		base = 0
	}
	v, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		p.errAt(errIntRange, tok, text)
		return p.errorOperand(tok.Start)
	}
	return operand{id: p.tree.NewInt(loc, v), start: tok.Start, end: tok.End}
}

// parseVar handles $name and $ij.name.
func (p *exprParser) parseVar() operand {
	tok := p.advance()
	name := strings.TrimPrefix(tok.Text, "$")
	if name == "ij" && p.at(token.Dot) {
		p.advance()
		field := p.tok
		if !p.expect(token.Ident, "injected parameter name") {
			return p.errorOperand(tok.Start)
		}
		return operand{
			id:    p.tree.NewVarRef(p.loc(tok.Start, field.End), field.Text, true, ast.NoNodeID),
			start: tok.Start, end: field.End,
		}
	}
	return operand{id: p.tree.NewVarRef(p.loc(tok.Start, tok.End), name, false, ast.NoNodeID), start: tok.Start, end: tok.End}
}

// parseIdent handles function calls, map(...) literals and dotted globals.
func (p *exprParser) parseIdent() operand {
	first := p.advance()
	if p.at(token.LParen) {
		if first.Text == "map" {
			return p.parseMap(first)
		}
		return p.parseFuncCall(first)
	}
	name := first.Text
	end := first.End
	// глобальное имя: ident(.ident)*
	for p.at(token.Dot) && p.lx.Peek().Kind == token.Ident {
		p.advance()
		name += "." + p.tok.Text
		end = p.advance().End
	}
	return operand{id: p.tree.NewGlobal(p.loc(first.Start, end), name), start: first.Start, end: end}
}

func (p *exprParser) parseArgs(close token.Kind, each func()) (end int, ok bool) {
	p.advance() // opening
	for !p.at(close) {
		each()
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if !p.at(close) {
		if close == token.RParen {
			p.errAt(errUnclosed, p.tok)
		} else {
			p.errAt(errUnclosedList, p.tok)
		}
		return p.prev.End, false
	}
	return p.advance().End, true
}

func (p *exprParser) parseFuncCall(name token.Token) operand {
	var args []ast.NodeID
	end, ok := p.parseArgs(token.RParen, func() {
		args = append(args, p.parseExpr(0).id)
	})
	if !ok {
		return p.errorOperand(name.Start)
	}
	return operand{id: p.tree.NewFuncCall(p.loc(name.Start, end), name.Text, args...), start: name.Start, end: end}
}

func (p *exprParser) parseMap(kw token.Token) operand {
	var kv []ast.NodeID
	bad := false
	end, ok := p.parseArgs(token.RParen, func() {
		k := p.parseExpr(0)
		if !p.expect(token.Colon, "':' in map literal") {
			bad = true
			return
		}
		v := p.parseExpr(0)
		kv = append(kv, k.id, v.id)
	})
	if !ok || bad {
		return p.errorOperand(kw.Start)
	}
	return operand{id: p.tree.NewMap(p.loc(kw.Start, end), kv...), start: kw.Start, end: end}
}

func (p *exprParser) parseList() operand {
	start := p.tok.Start
	var items []ast.NodeID
	end, ok := p.parseArgs(token.RBracket, func() {
		items = append(items, p.parseExpr(0).id)
	})
	if !ok {
		return p.errorOperand(start)
	}
	return operand{id: p.tree.NewList(p.loc(start, end), items...), start: start, end: end}
}

// parsePostfix handles .f, ?.f, [i], ?[i] and method calls.
func (p *exprParser) parsePostfix(base operand) operand {
	for {
		switch p.tok.Kind {
		case token.Dot, token.QuestionDot:
			nullSafe := p.tok.Kind == token.QuestionDot
			p.advance()
			field := p.tok
			if !p.expect(token.Ident, "field name") {
				return p.errorOperand(base.start)
			}
			if p.at(token.LParen) {
				var args []ast.NodeID
				end, ok := p.parseArgs(token.RParen, func() {
					args = append(args, p.parseExpr(0).id)
				})
				if !ok {
					return p.errorOperand(base.start)
				}
				base = operand{
					id:    p.tree.NewMethodCall(p.loc(base.start, end), base.id, field.Text, nullSafe, args...),
					start: base.start, end: end,
				}
				continue
			}
			base = operand{
				id:    p.tree.NewFieldAccess(p.loc(base.start, field.End), base.id, field.Text, nullSafe),
				start: base.start, end: field.End,
			}
		case token.LBracket, token.QuestionBracket:
			nullSafe := p.tok.Kind == token.QuestionBracket
			p.advance()
			index := p.parseExpr(0)
			if !p.at(token.RBracket) {
				p.errAt(errUnclosedList, p.tok)
				return p.errorOperand(base.start)
			}
			end := p.advance().End
			base = operand{
				id:    p.tree.NewItemAccess(p.loc(base.start, end), base.id, index.id, nullSafe),
				start: base.start, end: end,
			}
		default:
			return base
		}
	}
}
