package parser

import (
	"fmt"
	"regexp"
	"strings"

	"fortio.org/safecast"

	"tmplc/internal/ast"
	"tmplc/internal/diag"
	"tmplc/internal/source"
)

var (
	errMismatched     = diag.ErrorKind(diag.SynMismatchedTag, "unexpected closing tag {%s}")
	errOutside        = diag.ErrorKind(diag.SynTagOutsideTemplate, "%s is not allowed outside of a template")
	errMalformed      = diag.ErrorKind(diag.SynMalformedCommand, "malformed {%s} command: %s")
	errMisplaced      = diag.ErrorKind(diag.SynUnexpectedToken, "{%s} is not allowed here")
	errUnknownAttr    = diag.ErrorKind(diag.SynUnknownAttribute, "unknown attribute %q on {%s}")
	errDupNamespace   = diag.ErrorKind(diag.SynDuplicateAttribute, "namespace already declared")
	errDeclAfterBody  = diag.ErrorKind(diag.SynUnexpectedToken, "declarations must precede the template body")
	errCallBodyNotArg = diag.ErrorKind(diag.SynUnexpectedToken, "only {param} tags are allowed inside {call}")
)

var (
	declRe = regexp.MustCompile(`(?s)^([A-Za-z_][A-Za-z0-9_]*)\s*(?::=\s*(.+)|:\s*(.+?)(?:\s*:=\s*(.+))?)$`)
	letRe  = regexp.MustCompile(`(?s)^\$([A-Za-z_][A-Za-z0-9_]*)\s*(.*)$`)
	forRe  = regexp.MustCompile(`(?s)^\$([A-Za-z_][A-Za-z0-9_]*)\s+in\s+(.+)$`)
	attrRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_-]*)\s*=\s*"([^"]*)"`)
	nameRe = regexp.MustCompile(`^\.?[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`)
)

type fileParser struct {
	tree   *ast.Tree
	file   *source.File
	r      diag.ErrorReporter
	pieces []piece
	pos    int
	doc    string
	// open holds the names of the blocks being parsed, innermost last
	open []string
}

// ParseFile parses a whole template file into t and returns the file node.
// Every syntax error is reported to r; malformed constructs are replaced by
// sentinels or skipped so the rest of the file is still parsed.
func ParseFile(t *ast.Tree, f *source.File, r diag.ErrorReporter) ast.NodeID {
	p := &fileParser{tree: t, file: f, r: r}
	content := string(f.Content)
	p.pieces = p.scanPieces(content)
	root := t.NewFile(p.loc(0, len(content)), "")
	p.parseTop(root)
	return root
}

func (p *fileParser) loc(start, end int) source.Location {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return p.file.Location(source.Span{File: p.file.ID, Start: s, End: e})
}

func (p *fileParser) emit(kind diag.Kind, start, end int, args ...any) {
	diag.Emit(p.r, kind, p.loc(start, end), string(p.file.Content[start:end]), args...)
}

func (p *fileParser) emitAt(kind diag.Kind, pc piece, args ...any) {
	p.emit(kind, pc.start, pc.end, args...)
}

func (p *fileParser) cmdLoc(pc piece) source.Location {
	return p.loc(pc.cmdStart, pc.cmdStart+len(pc.cmd))
}

func (p *fileParser) next() (piece, bool) {
	if p.pos >= len(p.pieces) {
		return piece{}, false
	}
	pc := p.pieces[p.pos]
	p.pos++
	return pc, true
}

func (p *fileParser) takeDoc() string {
	d := p.doc
	p.doc = ""
	return d
}

func (p *fileParser) parseTop(root ast.NodeID) {
	fd := ast.MustData[*ast.FileData](p.tree, root)
	nsSet := false
	for {
		pc, ok := p.next()
		if !ok {
			return
		}
		switch pc.kind {
		case pieceDoc:
			p.doc = pc.text
			continue
		case pieceText:
			if strings.TrimSpace(pc.text) != "" {
				p.emitAt(errOutside, pc, "text")
			}
			continue
		}
		switch pc.key() {
		case "namespace":
			if nsSet {
				p.emitAt(errDupNamespace, pc)
				continue
			}
			nsSet = true
			ns := strings.Fields(pc.cmd)
			if len(ns) == 0 {
				p.emitAt(errMalformed, pc, "namespace", "missing name")
				continue
			}
			fd.Namespace = ns[0]
		case "template":
			p.tree.Attach(root, p.parseTemplate(pc))
		default:
			p.emitAt(errOutside, pc, "{"+pc.key()+"}")
		}
		p.doc = ""
	}
}

func (p *fileParser) parseTemplate(open piece) ast.NodeID {
	name := nameRe.FindString(open.cmd)
	if name == "" {
		p.emitAt(errMalformed, open, "template", "missing template name")
		name = "error"
	} else {
		p.checkAttrs(open, strings.TrimSpace(open.cmd[len(name):]), "template", "kind", "visibility", "stricthtml")
	}
	tmpl := p.tree.NewTemplate(p.loc(open.start, open.end), strings.TrimPrefix(name, "."), p.takeDoc())
	p.parseBlock(tmpl, open, true, "/template")
	return tmpl
}

// parseBlock parses children of parent until one of the stop tags. It
// returns false when the file ended first; the unclosed opening tag is
// reported here. decls allows declarations before any body content.
func (p *fileParser) parseBlock(parent ast.NodeID, open piece, decls bool, stop ...string) bool {
	_, ok := p.parseUntil(parent, open, decls, stop...)
	return ok
}

func (p *fileParser) parseUntil(parent ast.NodeID, open piece, decls bool, stop ...string) (piece, bool) {
	p.open = append(p.open, open.name)
	defer func() { p.open = p.open[:len(p.open)-1] }()
	for {
		pc, ok := p.next()
		if !ok {
			p.emitAt(errUnclosedTag, open, "{"+open.name+"}")
			return piece{}, false
		}
		switch pc.kind {
		case pieceDoc:
			p.doc = pc.text
			continue
		case pieceText:
			text := joinLines(pc.text)
			if text != "" {
				p.tree.Attach(parent, p.tree.NewRawText(p.loc(pc.start, pc.end), text))
				decls = decls && strings.TrimSpace(text) == ""
			}
			continue
		}
		key := pc.key()
		for _, s := range stop {
			if key == s {
				return pc, true
			}
		}
		if pc.closing {
			if p.closesOuter(pc.name) {
				// закрывающий тег внешнего блока: этот блок не закрыт
				p.emitAt(errUnclosedTag, open, "{"+open.name+"}")
				p.pos--
				return pc, false
			}
			p.emitAt(errMismatched, pc, key)
			continue
		}
		switch pc.name {
		case "@param", "@param?", "@inject", "@inject?", "@state", "@state?":
			if !decls {
				p.emitAt(errDeclAfterBody, pc)
			}
			if id := p.parseDecl(pc); id.IsValid() {
				p.tree.Attach(parent, id)
			}
			p.doc = ""
			continue
		}
		decls = false
		p.doc = ""
		switch pc.name {
		case "char":
			p.tree.Attach(parent, p.tree.NewRawText(p.loc(pc.start, pc.end), pc.text))
		case "print":
			p.tree.Attach(parent, p.tree.NewPrint(p.loc(pc.start, pc.end), p.parseCmdExpr(pc)))
		case "let":
			p.tree.Attach(parent, p.parseLet(pc))
		case "if":
			p.tree.Attach(parent, p.parseIf(pc))
		case "for":
			p.tree.Attach(parent, p.parseFor(pc))
		case "call":
			p.tree.Attach(parent, p.parseCall(pc))
		default:
			p.emitAt(errMisplaced, pc, pc.name)
		}
	}
}

func (p *fileParser) closesOuter(name string) bool {
	for i := len(p.open) - 2; i >= 0; i-- {
		if p.open[i] == name {
			return true
		}
	}
	return false
}

func (p *fileParser) parseCmdExpr(pc piece) ast.NodeID {
	if strings.TrimSpace(pc.cmd) == "" {
		p.emitAt(errMalformed, pc, pc.name, "missing expression")
		return p.tree.ErrorNode(ast.KindGlobal)
	}
	return ParseExpr(p.tree, pc.cmd, p.cmdLoc(pc), p.r)
}

// sub returns the location of cmd[start:end].
func (p *fileParser) sub(pc piece, start, end int) source.Location {
	return p.cmdLoc(pc).Within(pc.cmd, start, end)
}

func (p *fileParser) parseDecl(pc piece) ast.NodeID {
	cp := p.r.Checkpoint()
	m := declRe.FindStringSubmatchIndex(pc.cmd)
	if m == nil {
		p.emitAt(errMalformed, pc, pc.name, "expected 'name: type'")
		return ast.NoNodeID
	}
	group := func(i int) (string, int, bool) {
		if m[2*i] < 0 {
			return "", 0, false
		}
		return pc.cmd[m[2*i]:m[2*i+1]], m[2*i], true
	}
	name, _, _ := group(1)
	spec := ast.DeclSpec{
		Name:     name,
		Doc:      p.doc,
		Optional: strings.HasSuffix(pc.name, "?"),
		Injected: strings.HasPrefix(pc.name, "@inject"),
	}
	if text, off, ok := group(2); ok {
		spec.Default = ParseExpr(p.tree, text, p.sub(pc, off, off+len(text)), p.r)
	}
	if text, off, ok := group(3); ok {
		spec.Type = ParseType(text, p.sub(pc, off, off+len(text)), p.r)
	}
	if text, off, ok := group(4); ok {
		spec.Default = ParseExpr(p.tree, text, p.sub(pc, off, off+len(text)), p.r)
	}
	loc := p.loc(pc.start, pc.end)
	if strings.HasPrefix(pc.name, "@state") {
		if !spec.Default.IsValid() {
			p.emitAt(errMalformed, pc, pc.name, "state requires a default value")
			return ast.NoNodeID
		}
		if p.r.ErrorsSince(cp) {
			return p.tree.ErrorNode(ast.KindStateDecl)
		}
		return p.tree.NewStateDecl(loc, spec)
	}
	if spec.Default.IsValid() && spec.Injected {
		p.emitAt(errMalformed, pc, pc.name, "injected params cannot have defaults")
	}
	if p.r.ErrorsSince(cp) {
		return p.tree.ErrorNode(ast.KindParamDecl)
	}
	return p.tree.NewParamDecl(loc, spec)
}

func (p *fileParser) parseLet(pc piece) ast.NodeID {
	loc := p.loc(pc.start, pc.end)
	m := letRe.FindStringSubmatchIndex(pc.cmd)
	if m == nil {
		p.emitAt(errMalformed, pc, "let", "expected '$name'")
		if !pc.selfClosing {
			p.skipBlock(pc, "/let")
		}
		return p.tree.ErrorNode(ast.KindLetValue)
	}
	name := pc.cmd[m[2]:m[3]]
	rest := pc.cmd[m[4]:m[5]]
	if pc.selfClosing {
		if !strings.HasPrefix(rest, ":") {
			p.emitAt(errMalformed, pc, "let", "expected ': value' in self-closing let")
			return p.tree.ErrorNode(ast.KindLetValue)
		}
		raw := rest[1:]
		value := strings.TrimSpace(raw)
		off := m[4] + 1 + (len(raw) - len(strings.TrimLeft(raw, " \t\r\n")))
		return p.tree.NewLetValue(loc, name, ParseExpr(p.tree, value, p.sub(pc, off, off+len(value)), p.r))
	}
	kind := ""
	attrs := attrRe.FindAllStringSubmatch(rest, -1)
	if strings.HasPrefix(rest, ":") {
		p.emitAt(errMalformed, pc, "let", "a let with content must not have a value")
	}
	for _, a := range attrs {
		if a[1] != "kind" {
			p.emitAt(errUnknownAttr, pc, a[1], "let")
			continue
		}
		kind = a[2]
	}
	if kind == "" {
		p.emitAt(errMalformed, pc, "let", "a let with content requires a kind attribute")
		kind = "text"
	}
	id := p.tree.NewLetContent(loc, name, kind)
	p.parseBlock(id, pc, false, "/let")
	return id
}

func (p *fileParser) parseIf(open piece) ast.NodeID {
	ifNode := p.tree.NewIf(p.loc(open.start, open.end))
	cur := open
	for {
		var branch ast.NodeID
		switch cur.name {
		case "if", "elseif":
			branch = p.tree.NewIfCond(p.loc(cur.start, cur.end), p.parseCmdExpr(cur))
		default:
			branch = p.tree.NewIfElse(p.loc(cur.start, cur.end))
		}
		p.tree.Attach(ifNode, branch)
		stops := []string{"elseif", "else", "/if"}
		if cur.name == "else" {
			stops = []string{"/if"}
		}
		closer, ok := p.parseUntil(branch, open, false, stops...)
		if !ok || closer.key() == "/if" {
			return ifNode
		}
		cur = closer
	}
}

func (p *fileParser) parseFor(pc piece) ast.NodeID {
	m := forRe.FindStringSubmatchIndex(pc.cmd)
	if m == nil {
		p.emitAt(errMalformed, pc, "for", "expected '$var in expr'")
		p.skipBlock(pc, "/for")
		return p.tree.ErrorNode(ast.KindFor)
	}
	name := pc.cmd[m[2]:m[3]]
	listText := pc.cmd[m[4]:m[5]]
	list := ParseExpr(p.tree, listText, p.sub(pc, m[4], m[5]), p.r)
	id := p.tree.NewFor(p.loc(pc.start, pc.end), name, list)
	p.parseBlock(id, pc, false, "/for")
	return id
}

func (p *fileParser) parseCall(open piece) ast.NodeID {
	callee := nameRe.FindString(open.cmd)
	if callee == "" {
		p.emitAt(errMalformed, open, "call", "missing template name")
		if !open.selfClosing {
			p.skipBlock(open, "/call")
		}
		return p.tree.ErrorNode(ast.KindCall)
	}
	attrs := p.checkAttrs(open, strings.TrimSpace(open.cmd[len(callee):]), "call", "data")
	dataAll := false
	if v, ok := attrs["data"]; ok {
		if v != "all" {
			p.emitAt(errMalformed, open, "call", `only data="all" is supported`)
		}
		dataAll = true
	}
	call := p.tree.NewCall(p.loc(open.start, open.end), callee, dataAll)
	if open.selfClosing {
		return call
	}
	p.open = append(p.open, "call")
	defer func() { p.open = p.open[:len(p.open)-1] }()
	for {
		pc, ok := p.next()
		if !ok {
			p.emitAt(errUnclosedTag, open, "{call}")
			return call
		}
		switch {
		case pc.kind == pieceDoc:
		case pc.kind == pieceText:
			if strings.TrimSpace(pc.text) != "" {
				p.emitAt(errCallBodyNotArg, pc)
			}
		case pc.key() == "/call":
			return call
		case pc.closing && p.closesOuter(pc.name):
			p.emitAt(errUnclosedTag, open, "{call}")
			p.pos--
			return call
		case pc.key() == "param" && pc.selfClosing:
			p.tree.Attach(call, ast.NewCallParamValueBuilder(pc.cmd, p.cmdLoc(pc)).Build(p.tree, p.r, ParseExpr))
		case pc.key() == "param":
			param := ast.NewCallParamContentBuilder(pc.cmd, p.cmdLoc(pc)).Build(p.tree, p.r)
			body := param
			if p.tree.IsError(param) {
				// тело разбирается, но в отдельный узел: у sentinel детей нет
				body = p.tree.NewIfElse(p.loc(pc.start, pc.end))
			}
			p.parseBlock(body, pc, false, "/param")
			p.tree.Attach(call, param)
		default:
			p.emitAt(errCallBodyNotArg, pc)
			if !pc.closing && !pc.selfClosing && blockTags[pc.name] {
				p.skipBlock(pc, "/"+pc.name)
			}
		}
	}
}

var blockTags = map[string]bool{"if": true, "for": true, "let": true, "call": true, "param": true}

// skipBlock parses a block into a detached scratch node to keep tag
// matching in sync after an error.
func (p *fileParser) skipBlock(open piece, closer string) {
	scratch := p.tree.NewIfElse(p.loc(open.start, open.end))
	p.parseBlock(scratch, open, false, closer)
}

// checkAttrs parses name="value" attributes, reporting unknown ones.
func (p *fileParser) checkAttrs(pc piece, text, cmd string, allowed ...string) map[string]string {
	out := make(map[string]string)
	rest := attrRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := attrRe.FindStringSubmatch(m)
		known := false
		for _, a := range allowed {
			known = known || a == sub[1]
		}
		if !known {
			p.emitAt(errUnknownAttr, pc, sub[1], cmd)
		}
		out[sub[1]] = sub[2]
		return ""
	})
	if strings.TrimSpace(rest) != "" {
		p.emitAt(errMalformed, pc, cmd, fmt.Sprintf("unexpected %q", strings.TrimSpace(rest)))
	}
	return out
}
