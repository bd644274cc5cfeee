package parser

import (
	"tmplc/internal/diag"
	"tmplc/internal/lexer"
	"tmplc/internal/source"
	"tmplc/internal/token"
	"tmplc/internal/typenode"
)

var errExpectType = diag.ErrorKind(diag.SynExpectType, "expected type, found %s")

type typeParser struct {
	lx   *lexer.Lexer
	r    diag.Reporter
	tok  token.Token
	prev token.Token
	bad  bool
}

// ParseType parses a declared type expression: names (dotted allowed),
// generics with angle brackets, and unions with '|'. On a syntax error it
// reports and returns nil.
func ParseType(text string, loc source.Location, r diag.Reporter) *typenode.Node {
	p := &typeParser{lx: lexer.New(text, loc, r), r: r}
	p.tok = p.lx.Next()
	n := p.parseUnion()
	if !p.bad && p.tok.Kind != token.EOF {
		p.fail(p.tok)
	}
	if p.bad {
		return nil
	}
	return n
}

func (p *typeParser) advance() token.Token {
	p.prev = p.tok
	p.tok = p.lx.Next()
	return p.prev
}

func (p *typeParser) fail(tok token.Token) {
	if p.bad {
		return
	}
	p.bad = true
	end := max(tok.End, tok.Start+1)
	diag.Emit(p.r, errExpectType, p.lx.Loc(tok.Start, end), p.lx.Text(), describe(tok))
}

func (p *typeParser) parseUnion() *typenode.Node {
	start := p.tok.Start
	first := p.parseSingle()
	if p.tok.Kind != token.Pipe {
		return first
	}
	members := []*typenode.Node{first}
	for p.tok.Kind == token.Pipe && !p.bad {
		p.advance()
		members = append(members, p.parseSingle())
	}
	if p.bad {
		return nil
	}
	return typenode.Union(p.lx.Loc(start, p.prev.End), members...)
}

func (p *typeParser) parseSingle() *typenode.Node {
	if p.bad {
		return nil
	}
	tok := p.tok
	switch tok.Kind {
	case token.Question:
		p.advance()
		return typenode.Named("?", p.lx.Loc(tok.Start, tok.End))
	case token.KwNull:
		p.advance()
		return typenode.Null(p.lx.Loc(tok.Start, tok.End))
	case token.Ident:
	default:
		p.fail(tok)
		return nil
	}
	p.advance()
	name := tok.Text
	for p.tok.Kind == token.Dot {
		p.advance()
		if p.tok.Kind != token.Ident {
			p.fail(p.tok)
			return nil
		}
		name += "." + p.advance().Text
	}
	if p.tok.Kind != token.Lt {
		return typenode.Named(name, p.lx.Loc(tok.Start, p.prev.End))
	}
	p.advance()
	var args []*typenode.Node
	for {
		args = append(args, p.parseUnion())
		if p.bad {
			return nil
		}
		if p.tok.Kind != token.Comma {
			break
		}
		p.advance()
	}
	if p.tok.Kind != token.Gt {
		p.fail(p.tok)
		return nil
	}
	end := p.advance().End
	return typenode.Generic(name, p.lx.Loc(tok.Start, end), args...)
}
