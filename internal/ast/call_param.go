package ast

import (
	"regexp"
	"strings"

	"tmplc/internal/diag"
	"tmplc/internal/source"
)

// ExprParser parses the expression text found at loc into t, reporting
// syntax errors to r.
type ExprParser func(t *Tree, text string, loc source.Location, r diag.Reporter) NodeID

var (
	errParamMalformed = diag.ErrorKind(diag.SynMalformedCommand,
		"invalid 'param' command text %q; expected a name optionally followed by ': value' and attributes")
	errParamNoValue = diag.ErrorKind(diag.SynParamNoValue,
		"a 'param' tag should be self-ending (with a trailing '/') if and only if it also contains a value (invalid tag is {param %s /})")
	errParamKindOnValue = diag.ErrorKind(diag.SynParamKindOnValue,
		"the 'kind' attribute is not allowed on self-ending 'param' tags (invalid tag is {param %s /})")
	errParamContentValue = diag.ErrorKind(diag.SynParamContentHasValue,
		"a 'param' tag should be self-ending (with a trailing '/') if and only if it also contains a value (invalid tag is {param %s}...{/param})")
	errParamContentKind = diag.ErrorKind(diag.SynParamContentNoKind,
		"the 'kind' attribute is required on 'param' tags with content (invalid tag is {param %s})")
	errParamUnknownAttr = diag.ErrorKind(diag.SynUnknownAttribute,
		"unknown attribute %q on 'param' tag")
	errParamDuplicateAttr = diag.ErrorKind(diag.SynDuplicateAttribute,
		"duplicate attribute %q on 'param' tag")
)

var (
	paramKeyRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
	trailAttrRe = regexp.MustCompile(`(?:^|\s)([A-Za-z_][A-Za-z0-9_-]*)\s*=\s*"([^"]*)"\s*$`)
)

type attr struct {
	name, value string
	start, end  int
}

// paramCommand is the split form of a param tag's command text.
type paramCommand struct {
	key        string
	hasValue   bool
	value      string
	valueStart int
	attrs      []attr
}

// parseParamCommand splits "key[: value] [attr=\"v\"...]". It reports
// nothing; ok is false only when no key can be found or garbage follows it.
func parseParamCommand(text string) (paramCommand, bool) {
	var pc paramCommand
	trimmed := strings.TrimRight(text, " \t\r\n")
	lead := len(trimmed) - len(strings.TrimLeft(trimmed, " \t\r\n"))
	body := trimmed[lead:]
	key := paramKeyRe.FindString(body)
	if key == "" {
		return pc, false
	}
	pc.key = key
	restStart := lead + len(key)
	rest := trimmed[restStart:]

	// attributes are only recognized at the end of the text
	for {
		m := trailAttrRe.FindStringSubmatchIndex(rest)
		if m == nil {
			break
		}
		pc.attrs = append([]attr{{
			name:  rest[m[2]:m[3]],
			value: rest[m[4]:m[5]],
			start: restStart + m[2],
			end:   restStart + m[1],
		}}, pc.attrs...)
		rest = rest[:m[0]]
	}

	r := strings.TrimLeft(rest, " \t\r\n")
	switch {
	case r == "":
	case r[0] == ':':
		pc.hasValue = true
		vs := restStart + len(rest) - len(r) + 1
		pc.value = strings.TrimSpace(r[1:])
		pc.valueStart = vs + (len(r[1:]) - len(strings.TrimLeft(r[1:], " \t\r\n")))
	default:
		return pc, false
	}
	return pc, true
}

func (pc paramCommand) attr(name string) (attr, bool) {
	for _, a := range pc.attrs {
		if a.name == name {
			return a, true
		}
	}
	return attr{}, false
}

func (pc paramCommand) checkAttrs(r diag.Reporter, text string, loc source.Location) {
	seen := make(map[string]bool, len(pc.attrs))
	for _, a := range pc.attrs {
		aloc := loc.Within(text, a.start, a.end)
		if a.name != "kind" {
			diag.Emit(r, errParamUnknownAttr, aloc, text, a.name)
		}
		if seen[a.name] {
			diag.Emit(r, errParamDuplicateAttr, aloc, text, a.name)
		}
		seen[a.name] = true
	}
}

// CallParamValueBuilder builds a self-ending {param key: value /} node.
type CallParamValueBuilder struct {
	text string
	loc  source.Location
}

func NewCallParamValueBuilder(commandText string, loc source.Location) *CallParamValueBuilder {
	return &CallParamValueBuilder{text: commandText, loc: loc}
}

// Build validates the command text and returns a call-param-value node with
// the parsed value as its only child. If any error is reported along the
// way, including errors from parse, the tree's sentinel is returned instead.
func (b *CallParamValueBuilder) Build(t *Tree, r diag.ErrorReporter, parse ExprParser) NodeID {
	cp := r.Checkpoint()
	pc, ok := parseParamCommand(b.text)
	if !ok {
		diag.Emit(r, errParamMalformed, b.loc, b.text, b.text)
		return t.ErrorNode(KindCallParamValue)
	}
	if !pc.hasValue || pc.value == "" {
		diag.Emit(r, errParamNoValue, b.loc, b.text, b.text)
	}
	if a, ok := pc.attr("kind"); ok {
		diag.Emit(r, errParamKindOnValue, b.loc.Within(b.text, a.start, a.end), b.text, b.text)
	}
	pc.checkAttrs(r, b.text, b.loc)

	var value NodeID
	if pc.hasValue && pc.value != "" {
		vloc := b.loc.Within(b.text, pc.valueStart, pc.valueStart+len(pc.value))
		value = parse(t, pc.value, vloc, r)
	}
	if r.ErrorsSince(cp) {
		return t.ErrorNode(KindCallParamValue)
	}
	id := t.New(KindCallParamValue, b.loc, &CallParamData{Key: pc.key})
	t.Attach(id, value)
	return id
}

// BuildOrPanic builds with a fail-fast reporter: the first error panics with
// *diag.Failure.
func (b *CallParamValueBuilder) BuildOrPanic(t *Tree, parse ExprParser) NodeID {
	return b.Build(t, diag.Exploding(), parse)
}

// CallParamContentBuilder builds an open {param key kind="..."} node; the
// body is attached by the caller.
type CallParamContentBuilder struct {
	text string
	loc  source.Location
}

func NewCallParamContentBuilder(commandText string, loc source.Location) *CallParamContentBuilder {
	return &CallParamContentBuilder{text: commandText, loc: loc}
}

func (b *CallParamContentBuilder) Build(t *Tree, r diag.ErrorReporter) NodeID {
	cp := r.Checkpoint()
	pc, ok := parseParamCommand(b.text)
	if !ok {
		diag.Emit(r, errParamMalformed, b.loc, b.text, b.text)
		return t.ErrorNode(KindCallParamContent)
	}
	if pc.hasValue {
		diag.Emit(r, errParamContentValue, b.loc, b.text, b.text)
	}
	kind, hasKind := pc.attr("kind")
	if !hasKind || kind.value == "" {
		diag.Emit(r, errParamContentKind, b.loc, b.text, b.text)
	}
	pc.checkAttrs(r, b.text, b.loc)
	if r.ErrorsSince(cp) {
		return t.ErrorNode(KindCallParamContent)
	}
	return t.New(KindCallParamContent, b.loc, &CallParamData{Key: pc.key, ContentKind: kind.value})
}

func (b *CallParamContentBuilder) BuildOrPanic(t *Tree) NodeID {
	return b.Build(t, diag.Exploding())
}

// CallParamKey returns the key of a call param node.
func (t *Tree) CallParamKey(id NodeID) string {
	if d, ok := Data[*CallParamData](t, id); ok {
		return d.Key
	}
	return ""
}
