package parser

import (
	"regexp"
	"strings"

	"tmplc/internal/diag"
)

type pieceKind uint8

const (
	pieceText pieceKind = iota
	pieceTag
	pieceDoc
)

// piece is a lexical chunk of a template file: raw text, a {tag} or a
// /** doc */ comment. Offsets are byte offsets into the file.
type piece struct {
	kind       pieceKind
	start, end int
	text       string

	name        string
	cmd         string
	cmdStart    int
	closing     bool
	selfClosing bool
}

// key identifies a tag for block matching: "if", "/if", "else"...
func (pc piece) key() string {
	if pc.closing {
		return "/" + pc.name
	}
	return pc.name
}

var commandNames = map[string]bool{
	"namespace": true, "template": true,
	"@param": true, "@param?": true, "@inject": true, "@inject?": true, "@state": true, "@state?": true,
	"print": true, "let": true, "if": true, "elseif": true, "else": true,
	"for": true, "call": true, "param": true,
}

// special character commands
var specialChars = map[string]string{
	"sp":  " ",
	"nil": "",
	"lb":  "{",
	"rb":  "}",
	`\n`:  "\n",
	`\r`:  "\r",
	`\t`:  "\t",
}

var commandWordRe = regexp.MustCompile(`^(@?[a-z]+\??)`)

var errUnclosedTag = diag.ErrorKind(diag.SynUnclosedTag, "unclosed %s")

// scanPieces splits content into pieces. An unterminated tag is reported and
// the rest of the file becomes text.
func (p *fileParser) scanPieces(content string) []piece {
	var out []piece
	textStart := 0
	flushText := func(end int) {
		if end > textStart {
			out = append(out, piece{kind: pieceText, start: textStart, end: end, text: content[textStart:end]})
		}
	}
	for i := 0; i < len(content); {
		switch {
		case content[i] == '{':
			j := findTagEnd(content, i+1)
			if j < 0 {
				flushText(i)
				p.emit(errUnclosedTag, i, len(content), "tag")
				out = append(out, piece{kind: pieceText, start: i, end: len(content), text: content[i:]})
				return out
			}
			flushText(i)
			out = append(out, p.makeTag(content, i, j))
			i = j + 1
			textStart = i
		case strings.HasPrefix(content[i:], "/*"):
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				flushText(i)
				p.emit(errUnclosedTag, i, len(content), "comment")
				return out
			}
			end += i + 4
			flushText(i)
			if strings.HasPrefix(content[i:], "/**") && end-i > 4 {
				out = append(out, piece{kind: pieceDoc, start: i, end: end, text: cleanDoc(content[i+3 : end-2])})
			}
			i = end
			textStart = i
		case strings.HasPrefix(content[i:], "//") && atLineStart(content, i):
			end := strings.IndexByte(content[i:], '\n')
			if end < 0 {
				end = len(content) - i
			}
			flushText(i)
			i += end
			textStart = i
		default:
			i++
		}
	}
	flushText(len(content))
	return out
}

// findTagEnd returns the index of the '}' closing a tag whose body starts at
// from, skipping quoted strings; -1 when there is none.
func findTagEnd(s string, from int) int {
	var quote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '}':
			return i
		case c == '{':
			return -1
		}
	}
	return -1
}

func atLineStart(s string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch s[j] {
		case '\n':
			return true
		case ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func (p *fileParser) makeTag(content string, open, close int) piece {
	inner := content[open+1 : close]
	pc := piece{kind: pieceTag, start: open, end: close + 1}
	body := strings.TrimSpace(inner)
	bodyStart := open + 1 + strings.Index(inner, body)
	if body == "" {
		pc.name = "print"
		pc.cmdStart = bodyStart
		return pc
	}
	if v, ok := specialChars[body]; ok {
		pc.name = "char"
		pc.text = v
		pc.selfClosing = true
		return pc
	}
	if body[0] == '/' {
		pc.closing = true
		pc.name = strings.TrimSpace(body[1:])
		return pc
	}
	if strings.HasSuffix(body, "/") {
		pc.selfClosing = true
		body = strings.TrimSpace(body[:len(body)-1])
	}
	word := commandWordRe.FindString(body)
	if word != "" && commandNames[word] && (len(body) == len(word) || isSpaceByte(body[len(word)])) {
		pc.name = word
		rest := body[len(word):]
		trimmed := strings.TrimLeft(rest, " \t\r\n")
		pc.cmd = strings.TrimSpace(trimmed)
		pc.cmdStart = bodyStart + len(word) + len(rest) - len(trimmed)
		return pc
	}
	pc.name = "print"
	pc.cmd = body
	pc.cmdStart = bodyStart
	return pc
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// cleanDoc strips the leading '*' gutter of doc comment lines.
func cleanDoc(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimSpace(strings.TrimPrefix(l, "*"))
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// joinLines applies template line joining: line breaks and the whitespace
// around them are removed, and a single space is kept between two lines
// unless the join touches an HTML tag.
func joinLines(text string) string {
	if !strings.ContainsAny(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	parts := make([]string, 0, len(lines))
	for i, l := range lines {
		switch i {
		case 0:
			l = strings.TrimRight(l, " \t\r")
		case len(lines) - 1:
			l = strings.TrimLeft(l, " \t\r")
		default:
			l = strings.TrimSpace(l)
		}
		if strings.TrimSpace(l) == "" {
			continue
		}
		parts = append(parts, l)
	}
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			prev := parts[i-1]
			if !strings.HasSuffix(prev, ">") && !strings.HasPrefix(part, "<") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(part)
	}
	return b.String()
}
