package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"tmplc/internal/token"
)

// Поддержка: 123, 0x1F, 1.5, 1e-3, 1.0e+10.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.off
	kind := token.IntLit
	if strings.HasPrefix(lx.text[lx.off:], "0x") || strings.HasPrefix(lx.text[lx.off:], "0X") {
		lx.off += 2
		digits := lx.off
		for lx.off < len(lx.text) && isHex(lx.text[lx.off]) {
			lx.off++
		}
		if lx.off == digits {
			lx.report(errBadNumber, start, lx.off, lx.text[start:lx.off])
			return lx.emit(token.Invalid, start)
		}
		return lx.emit(token.IntLit, start)
	}
	for lx.off < len(lx.text) && isDec(lx.text[lx.off]) {
		lx.off++
	}
	// дробная часть только если за точкой цифра: 1.foo остаётся доступом к полю
	if lx.off+1 < len(lx.text) && lx.text[lx.off] == '.' && isDec(lx.text[lx.off+1]) {
		kind = token.FloatLit
		lx.off++
		for lx.off < len(lx.text) && isDec(lx.text[lx.off]) {
			lx.off++
		}
	}
	if lx.off < len(lx.text) && (lx.text[lx.off] == 'e' || lx.text[lx.off] == 'E') {
		kind = token.FloatLit
		lx.off++
		if lx.off < len(lx.text) && (lx.text[lx.off] == '+' || lx.text[lx.off] == '-') {
			lx.off++
		}
		digits := lx.off
		for lx.off < len(lx.text) && isDec(lx.text[lx.off]) {
			lx.off++
		}
		if lx.off == digits {
			lx.report(errBadNumber, start, lx.off, lx.text[start:lx.off])
			return lx.emit(token.Invalid, start)
		}
	}
	if lx.off < len(lx.text) && isIdentStart(lx.text[lx.off]) {
		for lx.off < len(lx.text) && isIdentContinue(lx.text[lx.off]) {
			lx.off++
		}
		lx.report(errBadNumber, start, lx.off, lx.text[start:lx.off])
		return lx.emit(token.Invalid, start)
	}
	return lx.emit(kind, start)
}

// scanString reads a quoted literal. Both quote styles are accepted and the
// decoded value goes to Token.Value.
func (lx *Lexer) scanString(quote byte) token.Token {
	start := lx.off
	lx.off++ // opening quote
	var b strings.Builder
	bad := false
	for lx.off < len(lx.text) {
		c := lx.text[lx.off]
		switch {
		case c == quote:
			lx.off++
			tok := lx.emit(token.StringLit, start)
			if bad {
				tok.Kind = token.Invalid
			}
			tok.Value = b.String()
			return tok
		case c == '\\':
			escStart := lx.off
			lx.off++
			if lx.off >= len(lx.text) {
				break
			}
			r, ok := lx.scanEscape()
			if !ok {
				lx.report(errBadEscape, escStart, lx.off, lx.text[escStart:lx.off])
				bad = true
				continue
			}
			b.WriteRune(r)
		case c == '\n':
			lx.report(errUnterm, start, lx.off)
			return lx.emit(token.Invalid, start)
		default:
			r, size := utf8.DecodeRuneInString(lx.text[lx.off:])
			b.WriteRune(r)
			lx.off += size
		}
	}
	lx.report(errUnterm, start, lx.off)
	return lx.emit(token.Invalid, start)
}

// scanEscape is called with off just past the backslash.
func (lx *Lexer) scanEscape() (rune, bool) {
	c := lx.text[lx.off]
	lx.off++
	switch c {
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case '\\', '\'', '"':
		return rune(c), true
	case 'u':
		if lx.off+4 > len(lx.text) {
			lx.off = len(lx.text)
			return 0, false
		}
		hex := lx.text[lx.off : lx.off+4]
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, false
		}
		lx.off += 4
		return rune(v), true
	}
	return 0, false
}

var twoCharOps = map[string]token.Kind{
	"==": token.EqEq,
	"!=": token.BangEq,
	"<=": token.LtEq,
	">=": token.GtEq,
	":=": token.ColonAssign,
	"??": token.QuestionQuestion,
	"?.": token.QuestionDot,
	"?[": token.QuestionBracket,
}

var oneCharOps = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'!': token.Bang,
	'<': token.Lt,
	'>': token.Gt,
	'=': token.Assign,
	'?': token.Question,
	':': token.Colon,
	',': token.Comma,
	'.': token.Dot,
	'|': token.Pipe,
	'(': token.LParen,
	')': token.RParen,
	'[': token.LBracket,
	']': token.RBracket,
}

func (lx *Lexer) scanOperator() token.Token {
	start := lx.off
	if lx.off+2 <= len(lx.text) {
		if k, ok := twoCharOps[lx.text[lx.off:lx.off+2]]; ok {
			lx.off += 2
			return lx.emit(k, start)
		}
	}
	if k, ok := oneCharOps[lx.text[lx.off]]; ok {
		lx.off++
		return lx.emit(k, start)
	}
	_, size := utf8.DecodeRuneInString(lx.text[lx.off:])
	lx.off += size
	lx.report(errUnknownChar, start, lx.off, lx.text[start:lx.off])
	return lx.emit(token.Invalid, start)
}
