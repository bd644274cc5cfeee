package pysrc

import (
	"fmt"
	"strings"

	"tmplc/internal/ast"
	"tmplc/internal/codegen"
	"tmplc/internal/diag"
	"tmplc/internal/plugin"
	"tmplc/internal/types"
)

var (
	errUnknownFunction = diag.ErrorKind(diag.GenUnknownFunction, "unknown function %s")
	errSignature       = diag.ErrorKind(diag.GenUnsupportedSignature, "function %s takes %s argument(s), got %d")
	errUnknownMethod   = diag.ErrorKind(diag.GenUnknownMethod, "no method %s on %s")
	errLoopVarArg      = diag.ErrorKind(diag.GenUnsupportedSignature, "%s() needs a for-loop variable")
)

// builtinFunc lowers a call whose args are already lowered.
type builtinFunc struct {
	fn    plugin.Function
	lower func(v *exprVisitor, call ast.NodeID, args []codegen.Fragment) codegen.Fragment
}

func simple(format string) func(*exprVisitor, ast.NodeID, []codegen.Fragment) codegen.Fragment {
	return func(_ *exprVisitor, _ ast.NodeID, args []codegen.Fragment) codegen.Fragment {
		texts := make([]any, len(args))
		for i, a := range args {
			texts[i] = a.Text
		}
		return codegen.Atom(fmt.Sprintf(format, texts...))
	}
}

var builtinFuncs map[string]builtinFunc

func init() {
	arity := func(name string, lo, hi int) plugin.Function {
		return plugin.Function{Name: name, Target: "builtin", MinArgs: lo, MaxArgs: hi}
	}
	builtinFuncs = map[string]builtinFunc{
		"length":    {arity("length", 1, 1), simple("len(%s)")},
		"keys":      {arity("keys", 1, 1), simple("list(%s.keys())")},
		"floor":     {arity("floor", 1, 1), simple("int(math.floor(%s))")},
		"ceiling":   {arity("ceiling", 1, 1), simple("int(math.ceil(%s))")},
		"randomInt": {arity("randomInt", 1, 1), simple("int(random.random() * %s)")},
		"join":      {arity("join", 2, 2), func(_ *exprVisitor, _ ast.NodeID, a []codegen.Fragment) codegen.Fragment {
			return codegen.Atom(fmt.Sprintf("%s.join(%s)", a[1].Wrap(codegen.PrecAtom), a[0].Text))
		}},
		"round": {arity("round", 1, 2), func(_ *exprVisitor, _ ast.NodeID, a []codegen.Fragment) codegen.Fragment {
			if len(a) == 1 {
				return codegen.Atom(fmt.Sprintf("runtime.simplify_num(round(%s), 0)", a[0].Text))
			}
			return codegen.Atom(fmt.Sprintf("runtime.simplify_num(round(%s, %s), %s)", a[0].Text, a[1].Text, a[1].Text))
		}},
		"isNonnull": {arity("isNonnull", 1, 1), func(_ *exprVisitor, _ ast.NodeID, a []codegen.Fragment) codegen.Fragment {
			return codegen.Op(a[0].Wrap(precCompare+1)+" is not None", precCompare)
		}},
		"max": {arity("max", 2, 2), simple("max(%s, %s)")},
		"min": {arity("min", 2, 2), simple("min(%s, %s)")},
		"bidiGlobalDir": {arity("bidiGlobalDir", 0, 0), func(v *exprVisitor, _ ast.NodeID, _ []codegen.Fragment) codegen.Fragment {
			if v.s.g.opts.BidiIsRtlFn == "" {
				return codegen.Atom("1")
			}
			_, fn := splitDotted(v.s.g.opts.BidiIsRtlFn)
			return codegen.Op(fmt.Sprintf("-1 if external_bidi.%s() else 1", fn), precCond)
		}},
		"index":   {arity("index", 1, 1), loopFunc(func(lv loopVars) codegen.Fragment { return codegen.Atom(lv.index) })},
		"isFirst": {arity("isFirst", 1, 1), loopFunc(func(lv loopVars) codegen.Fragment { return codegen.Op(lv.index+" == 0", precCompare) })},
		"isLast": {arity("isLast", 1, 1), loopFunc(func(lv loopVars) codegen.Fragment {
			return codegen.Op(fmt.Sprintf("%s == len(%s) - 1", lv.index, lv.list), precCompare)
		})},
	}
}

// loopFunc lowers functions whose argument must be a for-loop variable.
func loopFunc(lower func(loopVars) codegen.Fragment) func(*exprVisitor, ast.NodeID, []codegen.Fragment) codegen.Fragment {
	return func(v *exprVisitor, call ast.NodeID, _ []codegen.Fragment) codegen.Fragment {
		t := v.s.tree
		arg := t.Child(call, 0)
		name := ast.MustData[*ast.FuncCallData](t, call).Name
		if t.Kind(arg) != ast.KindVarRef || t.IsError(arg) {
			return v.L.Fail(errLoopVarArg, call, name)
		}
		lv, ok := v.s.loops[ast.MustData[*ast.VarRefData](t, arg).Decl]
		if !ok {
			return v.L.Fail(errLoopVarArg, call, name)
		}
		return lower(lv)
	}
}

func (v *exprVisitor) VisitFuncCall(id ast.NodeID) codegen.Fragment {
	t := v.s.tree
	name := ast.MustData[*ast.FuncCallData](t, id).Name
	argIDs := t.Children(id)

	if b, ok := builtinFuncs[name]; ok {
		if !b.fn.Accepts(len(argIDs)) {
			return v.L.Fail(errSignature, id, name, b.fn.Arity(), len(argIDs))
		}
		args := make([]codegen.Fragment, len(argIDs))
		for i, a := range argIDs {
			args[i] = v.visit(a)
		}
		return b.lower(v, id, args)
	}

	fn, ok := v.s.g.deps.Functions.Lookup(name)
	if !ok {
		return v.L.Fail(errUnknownFunction, id, name)
	}
	if !fn.Accepts(len(argIDs)) {
		return v.L.Fail(errSignature, id, name, fn.Arity(), len(argIDs))
	}
	mod, callable := splitDotted(fn.Target)
	target := callable
	if mod != "" {
		alias := "plugin_" + strings.ReplaceAll(mod, ".", "_")
		v.s.imports[fmt.Sprintf("import %s as %s", mod, alias)] = struct{}{}
		target = alias + "." + callable
	}
	return codegen.Atom(target + "(" + strings.Join(v.visitAll(argIDs), ", ") + ")")
}

// builtinMethods are confirmed and lowered without asking the plugin
// checkers. Receivers are matched by their base type name.
var builtinMethods = plugin.NewStaticChecker().
	Add("string", "contains", "bool", "string").
	Add("string", "indexOf", "int", "string").
	Add("string", "startsWith", "bool", "string").
	Add("string", "endsWith", "bool", "string").
	Add("string", "toLowerCase", "string").
	Add("string", "toUpperCase", "string").
	Add("string", "trim", "string").
	Add("string", "split", "list<string>", "string").
	Add("list", "length", "int").
	Add("list", "contains", "bool", "").
	Add("list", "join", "string", "string").
	Add("map", "keys", "list").
	Add("map", "values", "list").
	Add("map", "containsKey", "bool", "").
	Add("map", "get", "", "")

type methodLowering func(base codegen.Fragment, args []codegen.Fragment) codegen.Fragment

func call(format string) methodLowering {
	return func(base codegen.Fragment, args []codegen.Fragment) codegen.Fragment {
		texts := []any{base.Wrap(codegen.PrecAtom)}
		for _, a := range args {
			texts = append(texts, a.Text)
		}
		return codegen.Atom(fmt.Sprintf(format, texts...))
	}
}

func membership(base codegen.Fragment, args []codegen.Fragment) codegen.Fragment {
	return codegen.Op(args[0].Wrap(precCompare+1)+" in "+base.Wrap(precCompare+1), precCompare)
}

var methodLowerings = map[string]methodLowering{
	"string.contains":    membership,
	"string.indexOf":     call("%s.find(%s)"),
	"string.startsWith":  call("%s.startswith(%s)"),
	"string.endsWith":    call("%s.endswith(%s)"),
	"string.toLowerCase": call("%s.lower()"),
	"string.toUpperCase": call("%s.upper()"),
	"string.trim":        call("%s.strip()"),
	"string.split":       call("%s.split(%s)"),
	"list.length": func(base codegen.Fragment, _ []codegen.Fragment) codegen.Fragment {
		return codegen.Atom("len(" + base.Text + ")")
	},
	"list.contains": membership,
	"list.join": func(base codegen.Fragment, args []codegen.Fragment) codegen.Fragment {
		return codegen.Atom(args[0].Wrap(codegen.PrecAtom) + ".join(" + base.Text + ")")
	},
	"map.keys":        call("list(%s.keys())"),
	"map.values":      call("list(%s.values())"),
	"map.containsKey": membership,
	"map.get":         call("%s.get(%s)"),
}

func (v *exprVisitor) VisitMethodCall(id ast.NodeID) codegen.Fragment {
	t := v.s.tree
	d := ast.MustData[*ast.MethodCallData](t, id)
	ch := t.Children(id)
	recv, argIDs := ch[0], ch[1:]

	sig := plugin.MethodSignature{Class: v.s.className(recv), Method: d.Method}
	for _, a := range argIDs {
		sig.Args = append(sig.Args, v.s.className(a))
	}
	base := v.visit(recv)
	args := make([]codegen.Fragment, len(argIDs))
	for i, a := range argIDs {
		args[i] = v.visit(a)
	}

	var lowered codegen.Fragment
	var notes []string
	report := func(msg string) { notes = append(notes, msg) }
	switch {
	case builtinMethods.HasMethod(sig, report):
		lowered = methodLowerings[sig.Class+"."+sig.Method](base, args)
	case v.s.g.deps.Methods != nil && v.s.g.deps.Methods.HasMethod(sig, report):
		texts := make([]string, len(args))
		for i, a := range args {
			texts[i] = a.Text
		}
		lowered = codegen.Atom(fmt.Sprintf("%s.%s(%s)", base.Wrap(codegen.PrecAtom), d.Method, strings.Join(texts, ", ")))
	default:
		dg := diag.Diagnostic{
			Severity: errUnknownMethod.Severity,
			Code:     errUnknownMethod.Code,
			Message:  errUnknownMethod.Message(sig.Method, sig.Class),
			Primary:  t.Loc(id),
		}
		for _, n := range notes {
			dg = dg.WithNote(t.Loc(id), n)
		}
		return v.L.FailWith(dg)
	}
	if d.NullSafe {
		return nullSafe(base, lowered.Text)
	}
	return lowered
}

// className is the base type name of an expression for method lookup:
// "string", "list", "map", ... or "?" when unknown.
func (s *genState) className(id ast.NodeID) string {
	t := s.tree
	if t.IsError(id) {
		return "?"
	}
	switch t.Kind(id) {
	case ast.KindString:
		return "string"
	case ast.KindInt:
		return "int"
	case ast.KindFloat:
		return "float"
	case ast.KindBool:
		return "bool"
	case ast.KindNull:
		return "null"
	case ast.KindList:
		return "list"
	case ast.KindMap:
		return "map"
	case ast.KindVarRef:
		decl := ast.MustData[*ast.VarRefData](t, id).Decl
		if !decl.IsValid() || s.g.deps.Types == nil {
			return "?"
		}
		d := t.Decl(decl)
		if d == nil || d.Type() == types.NoTypeID {
			return "?"
		}
		return baseName(s.g.deps.Types.String(s.g.deps.Types.RemoveNull(d.Type())))
	}
	return "?"
}

// baseName strips generic arguments: "list<int>" → "list". Unions have
// no single base.
func baseName(typ string) string {
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		typ = typ[:i]
	}
	if strings.Contains(typ, "|") || typ == "unknown" || typ == "any" {
		return "?"
	}
	return typ
}
