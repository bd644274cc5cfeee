package lexer

import (
	"tmplc/internal/diag"
	"tmplc/internal/source"
	"tmplc/internal/token"
)

var (
	errUnknownChar = diag.ErrorKind(diag.LexUnknownChar, "unexpected character %q")
	errUnterm      = diag.ErrorKind(diag.LexUnterminatedString, "unterminated string literal")
	errBadEscape   = diag.ErrorKind(diag.LexBadEscape, "invalid escape sequence %q")
	errBadNumber   = diag.ErrorKind(diag.LexBadNumber, "malformed number %q")
)

// Lexer tokenizes one command text. Locations of reported problems are
// computed against base, the location of the whole text.
type Lexer struct {
	text string
	base source.Location
	r    diag.Reporter
	off  int
	look *token.Token // 1 элементный буфер для токена
}

func New(text string, base source.Location, r diag.Reporter) *Lexer {
	return &Lexer{text: text, base: base, r: r}
}

// Text returns the command text being lexed.
func (lx *Lexer) Text() string { return lx.text }

// Loc returns the file location of text[start:end].
func (lx *Lexer) Loc(start, end int) source.Location {
	return lx.base.Within(lx.text, start, end)
}

// Rest returns the unconsumed text starting at off.
func (lx *Lexer) Rest(off int) string {
	if off >= len(lx.text) {
		return ""
	}
	return lx.text[off:]
}

// Next возвращает следующий токен. После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	lx.skipSpace()
	if lx.off >= len(lx.text) {
		return token.Token{Kind: token.EOF, Start: lx.off, End: lx.off}
	}
	ch := lx.text[lx.off]
	switch {
	case ch == '$':
		return lx.scanVar()
	case isIdentStart(ch):
		return lx.scanIdent()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '\'' || ch == '"':
		return lx.scanString(ch)
	default:
		return lx.scanOperator()
	}
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// All lexes the whole text, EOF included.
func (lx *Lexer) All() []token.Token {
	var out []token.Token
	for {
		t := lx.Next()
		out = append(out, t)
		if t.Kind == token.EOF {
			return out
		}
	}
}

func (lx *Lexer) skipSpace() {
	for lx.off < len(lx.text) {
		switch lx.text[lx.off] {
		case ' ', '\t', '\n', '\r':
			lx.off++
		default:
			return
		}
	}
}

func (lx *Lexer) emit(kind token.Kind, start int) token.Token {
	return token.Token{Kind: kind, Start: start, End: lx.off, Text: lx.text[start:lx.off]}
}

func (lx *Lexer) report(kind diag.Kind, start, end int, args ...any) {
	diag.Emit(lx.r, kind, lx.Loc(start, end), lx.text, args...)
}

func (lx *Lexer) scanIdent() token.Token {
	start := lx.off
	for lx.off < len(lx.text) && isIdentContinue(lx.text[lx.off]) {
		lx.off++
	}
	return lx.emit(token.LookupKeyword(lx.text[start:lx.off]), start)
}

func (lx *Lexer) scanVar() token.Token {
	start := lx.off
	lx.off++ // '$'
	if lx.off >= len(lx.text) || !isIdentStart(lx.text[lx.off]) {
		lx.report(errUnknownChar, start, lx.off, "$")
		return lx.emit(token.Invalid, start)
	}
	for lx.off < len(lx.text) && isIdentContinue(lx.text[lx.off]) {
		lx.off++
	}
	return lx.emit(token.Var, start)
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDec(b)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
