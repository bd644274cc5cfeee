package ast

import (
	"tmplc/internal/diag"
	"tmplc/internal/source"
)

// errorName is the name carried by sentinel payloads.
const errorName = "error"

// ErrorNode returns the tree's shared sentinel of kind k, creating it on first
// use. Builders return it when validation fails. It has a kind and a
// location, never gets a parent link and is returned as is by Clone.
func (t *Tree) ErrorNode(k Kind) NodeID {
	if id, ok := t.sentinels[k]; ok {
		return id
	}
	var id NodeID
	switch k {
	case KindCallParamValue:
		id = NewCallParamValueBuilder("error: error", source.Unknown).BuildOrPanic(t, sentinelExpr)
	case KindCallParamContent:
		id = NewCallParamContentBuilder(`error kind="text"`, source.Unknown).BuildOrPanic(t)
	default:
		id = t.New(k, source.Unknown, sentinelData(k))
	}
	t.sentinels[k] = id
	t.isError[id] = struct{}{}
	return id
}

// sentinelExpr accepts only the bare identifier used by sentinel command texts.
func sentinelExpr(t *Tree, text string, loc source.Location, r diag.Reporter) NodeID {
	if text != errorName {
		diag.Emit(r, diag.ErrorKind(diag.SynExpectExpression, "unexpected sentinel expression %q"), loc, text, text)
		return NoNodeID
	}
	return t.ErrorNode(KindGlobal)
}

func sentinelData(k Kind) NodeData {
	switch k {
	case KindFile:
		return &FileData{Namespace: errorName}
	case KindTemplate:
		return &TemplateData{Name: errorName}
	case KindRawText:
		return &RawTextData{}
	case KindParamDecl, KindStateDecl, KindLetValue, KindLetContent, KindFor:
		return &VarDecl{Name: errorName}
	case KindCall:
		return &CallData{Callee: errorName}
	case KindString:
		return &StringData{}
	case KindInt:
		return &IntData{}
	case KindFloat:
		return &FloatData{}
	case KindBool:
		return &BoolData{}
	case KindVarRef:
		return &VarRefData{Name: errorName}
	case KindGlobal:
		return &GlobalData{Name: errorName}
	case KindFieldAccess, KindItemAccess:
		return &AccessData{Field: errorName}
	case KindFuncCall:
		return &FuncCallData{Name: errorName}
	case KindMethodCall:
		return &MethodCallData{Method: errorName}
	case KindUnary, KindBinary:
		return &OpData{}
	}
	return nil
}
