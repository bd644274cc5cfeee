package pysrc

import (
	"fmt"
	"strings"

	"tmplc/internal/ast"
	"tmplc/internal/codegen"
	"tmplc/internal/data"
	"tmplc/internal/diag"
)

var errDuplicateParam = diag.ErrorKind(diag.GenDuplicateParam, "duplicate param %s in call to %s")

// callExpr lowers {call} to an invocation of the callee function. Params are
// collected into a ParamStore keyed by interned names, which rejects
// duplicates; content params are rendered into temporaries first.
func (s *genState) callExpr(nv *nodeVisitor, id ast.NodeID) codegen.Fragment {
	t := s.tree
	cd := ast.MustData[*ast.CallData](t, id)
	ev := s.exprs()

	params := t.Children(id)
	builder := data.NewParamStoreBuilder(len(params))
	order := make([]*data.Property, 0, len(params))
	for _, p := range params {
		if t.IsError(p) {
			continue
		}
		key := t.CallParamKey(p)
		prop := s.g.props.Intern(key)
		if builder.Has(prop) {
			s.low.Report(errDuplicateParam, p, key, cd.Callee)
			continue
		}
		var val codegen.Fragment
		switch t.Kind(p) {
		case ast.KindCallParamValue:
			val = codegen.VisitExpr(t, t.Child(p, 0), ev)
		case ast.KindCallParamContent:
			kind := ast.MustData[*ast.CallParamData](t, p).ContentKind
			content := nv.content(p, kind)
			name := fmt.Sprintf("param%d", p)
			nv.w().Line("%s = %s", name, content.Text)
			val = codegen.Atom(name)
		default:
			continue
		}
		builder.SetStrict(prop, pyValue(val))
		order = append(order, prop)
	}
	store := builder.Freeze()

	entries := make([]string, 0, len(order))
	for _, prop := range order {
		entries = append(entries, pyString(prop.Name())+": "+store.Get(prop).Resolve().String())
	}
	var dataExpr string
	switch {
	case cd.DataAll && len(entries) == 0:
		dataExpr = "data"
	case cd.DataAll:
		dataExpr = "runtime.merge(data, {" + strings.Join(entries, ", ") + "})"
	default:
		dataExpr = "{" + strings.Join(entries, ", ") + "}"
	}
	return codegen.Atom(fmt.Sprintf("%s(%s, ij_data)", s.calleeName(cd.Callee), dataExpr))
}

// calleeName resolves ".tmpl" and same-namespace names to local functions
// and other namespaces to imported modules.
func (s *genState) calleeName(callee string) string {
	if strings.HasPrefix(callee, ".") {
		return callee[1:]
	}
	ns, name := splitDotted(callee)
	if ns == "" || ns == s.namespace {
		return name
	}
	module, ok := s.g.opts.NamespaceManifest[ns]
	if !ok {
		module = ns
	}
	alias := strings.ReplaceAll(ns, ".", "_")
	s.imports[fmt.Sprintf("import %s as %s", module, alias)] = struct{}{}
	return alias + "." + name
}
