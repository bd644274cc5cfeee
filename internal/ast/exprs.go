package ast

import (
	"tmplc/internal/source"
)

func (t *Tree) NewString(loc source.Location, v string) NodeID {
	return t.New(KindString, loc, &StringData{Value: v})
}

func (t *Tree) NewInt(loc source.Location, v int64) NodeID {
	return t.New(KindInt, loc, &IntData{Value: v})
}

func (t *Tree) NewFloat(loc source.Location, v float64) NodeID {
	return t.New(KindFloat, loc, &FloatData{Value: v})
}

func (t *Tree) NewBool(loc source.Location, v bool) NodeID {
	return t.New(KindBool, loc, &BoolData{Value: v})
}

func (t *Tree) NewNull(loc source.Location) NodeID {
	return t.New(KindNull, loc, nil)
}

// NewVarRef creates an unbound reference; decl may be NoNodeID.
func (t *Tree) NewVarRef(loc source.Location, name string, injected bool, decl NodeID) NodeID {
	return t.New(KindVarRef, loc, &VarRefData{Name: name, Injected: injected, Decl: decl})
}

func (t *Tree) NewGlobal(loc source.Location, name string) NodeID {
	return t.New(KindGlobal, loc, &GlobalData{Name: name})
}

func (t *Tree) NewList(loc source.Location, items ...NodeID) NodeID {
	id := t.New(KindList, loc, nil)
	t.AttachAll(id, items...)
	return id
}

// NewMap takes alternating keys and values.
func (t *Tree) NewMap(loc source.Location, kv ...NodeID) NodeID {
	if len(kv)%2 != 0 {
		panic("ast: map literal needs key/value pairs")
	}
	id := t.New(KindMap, loc, nil)
	t.AttachAll(id, kv...)
	return id
}

func (t *Tree) NewFieldAccess(loc source.Location, base NodeID, field string, nullSafe bool) NodeID {
	id := t.New(KindFieldAccess, loc, &AccessData{Field: field, NullSafe: nullSafe})
	t.Attach(id, base)
	return id
}

func (t *Tree) NewItemAccess(loc source.Location, base, index NodeID, nullSafe bool) NodeID {
	id := t.New(KindItemAccess, loc, &AccessData{NullSafe: nullSafe})
	t.AttachAll(id, base, index)
	return id
}

func (t *Tree) NewFuncCall(loc source.Location, name string, args ...NodeID) NodeID {
	id := t.New(KindFuncCall, loc, &FuncCallData{Name: name})
	t.AttachAll(id, args...)
	return id
}

// NewMethodCall: first child is the receiver, the rest are arguments.
func (t *Tree) NewMethodCall(loc source.Location, base NodeID, method string, nullSafe bool, args ...NodeID) NodeID {
	id := t.New(KindMethodCall, loc, &MethodCallData{Method: method, NullSafe: nullSafe})
	t.Attach(id, base)
	t.AttachAll(id, args...)
	return id
}

func (t *Tree) NewUnary(loc source.Location, op Op, operand NodeID) NodeID {
	id := t.New(KindUnary, loc, &OpData{Op: op})
	t.Attach(id, operand)
	return id
}

func (t *Tree) NewBinary(loc source.Location, op Op, lhs, rhs NodeID) NodeID {
	id := t.New(KindBinary, loc, &OpData{Op: op})
	t.AttachAll(id, lhs, rhs)
	return id
}

func (t *Tree) NewTernary(loc source.Location, cond, then, els NodeID) NodeID {
	id := t.New(KindTernary, loc, nil)
	t.AttachAll(id, cond, then, els)
	return id
}

// Op returns the operator of a unary or binary node.
func (t *Tree) Op(id NodeID) Op {
	if d, ok := Data[*OpData](t, id); ok {
		return d.Op
	}
	return OpInvalid
}
