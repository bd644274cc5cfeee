package ast

import (
	"tmplc/internal/source"
)

func (t *Tree) NewFile(loc source.Location, namespace string) NodeID {
	id := t.New(KindFile, loc, &FileData{Namespace: namespace})
	if !t.Root.IsValid() {
		t.Root = id
	}
	return id
}

func (t *Tree) NewTemplate(loc source.Location, name, doc string) NodeID {
	return t.New(KindTemplate, loc, &TemplateData{Name: name, Doc: doc})
}

func (t *Tree) NewRawText(loc source.Location, text string) NodeID {
	return t.New(KindRawText, loc, &RawTextData{Text: text})
}

func (t *Tree) NewPrint(loc source.Location, expr NodeID) NodeID {
	id := t.New(KindPrint, loc, nil)
	t.Attach(id, expr)
	return id
}

func (t *Tree) NewIf(loc source.Location) NodeID {
	return t.New(KindIf, loc, nil)
}

// NewIfCond creates an if or elseif branch; the condition is the first child.
func (t *Tree) NewIfCond(loc source.Location, cond NodeID) NodeID {
	id := t.New(KindIfCond, loc, nil)
	t.Attach(id, cond)
	return id
}

func (t *Tree) NewIfElse(loc source.Location) NodeID {
	return t.New(KindIfElse, loc, nil)
}

func (t *Tree) NewCall(loc source.Location, callee string, dataAll bool) NodeID {
	return t.New(KindCall, loc, &CallData{Callee: callee, DataAll: dataAll})
}

// Templates returns the template nodes of a file.
func (t *Tree) Templates(file NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.Children(file) {
		if t.Kind(c) == KindTemplate {
			out = append(out, c)
		}
	}
	return out
}

// Body returns the statement children of a block node, skipping its leading
// header children (conditions, loop lists, declarations).
func (t *Tree) Body(id NodeID) []NodeID {
	ch := t.Children(id)
	switch t.Kind(id) {
	case KindIfCond, KindFor:
		if len(ch) > 0 {
			return ch[1:]
		}
	case KindTemplate:
		i := 0
		for i < len(ch) {
			if k := t.Kind(ch[i]); k != KindParamDecl && k != KindStateDecl {
				break
			}
			i++
		}
		return ch[i:]
	}
	return ch
}

// TemplateDecls returns the param and state declarations of a template.
func (t *Tree) TemplateDecls(tmpl NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.Children(tmpl) {
		if k := t.Kind(c); k == KindParamDecl || k == KindStateDecl {
			out = append(out, c)
		}
	}
	return out
}
