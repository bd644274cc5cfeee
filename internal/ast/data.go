package ast

import (
	"tmplc/internal/typenode"
	"tmplc/internal/types"
)

// NodeData is the kind-specific payload of a node. Payloads are owned by
// their node and copied with it.
type NodeData interface {
	copyData() NodeData
}

type FileData struct {
	Namespace string
}

type TemplateData struct {
	Name string
	Doc  string
}

type RawTextData struct {
	Text string
}

// VarDecl is the payload of every declaring node: template params, state
// vars, lets and for-loop variables.
//
// Declared is the type as authored, Effective the type after optional
// normalization. Both are fixed at construction.
type VarDecl struct {
	Name      string
	Doc       string
	Optional  bool
	Declared  *typenode.Node
	Effective *typenode.Node
	// ContentKind is the kind attribute of content lets.
	ContentKind string
	// HasDefault marks a default value expression as the first child.
	HasDefault bool
	// Injected marks params supplied through ij_data.
	Injected bool

	typ types.TypeID
}

// RefName is the spelling used to reference the variable.
func (d *VarDecl) RefName() string {
	return "$" + d.Name
}

// Type returns the resolved type or types.NoTypeID before resolution.
func (d *VarDecl) Type() types.TypeID {
	return d.typ
}

// SetType records the resolved type. It may be called once.
func (d *VarDecl) SetType(id types.TypeID) {
	if d.typ != types.NoTypeID {
		panic("ast: declaration type already resolved for " + d.RefName())
	}
	d.typ = id
}

type CallData struct {
	Callee string
	// DataAll forwards the caller's data to the callee.
	DataAll bool
}

type CallParamData struct {
	Key         string
	ContentKind string
}

type StringData struct{ Value string }

type IntData struct{ Value int64 }

type FloatData struct{ Value float64 }

type BoolData struct{ Value bool }

// VarRefData is a $name reference. Decl points at the declaring node once
// variables are bound; it is the only node-to-node reference in the tree.
type VarRefData struct {
	Name     string
	Injected bool
	Decl     NodeID
}

type GlobalData struct{ Name string }

type AccessData struct {
	Field    string
	NullSafe bool
}

type FuncCallData struct{ Name string }

type MethodCallData struct {
	Method   string
	NullSafe bool
}

type OpData struct{ Op Op }

func (d *FileData) copyData() NodeData       { c := *d; return &c }
func (d *TemplateData) copyData() NodeData   { c := *d; return &c }
func (d *RawTextData) copyData() NodeData    { c := *d; return &c }
func (d *VarDecl) copyData() NodeData        { c := *d; return &c }
func (d *CallData) copyData() NodeData       { c := *d; return &c }
func (d *CallParamData) copyData() NodeData  { c := *d; return &c }
func (d *StringData) copyData() NodeData     { c := *d; return &c }
func (d *IntData) copyData() NodeData        { c := *d; return &c }
func (d *FloatData) copyData() NodeData      { c := *d; return &c }
func (d *BoolData) copyData() NodeData       { c := *d; return &c }
func (d *VarRefData) copyData() NodeData     { c := *d; return &c }
func (d *GlobalData) copyData() NodeData     { c := *d; return &c }
func (d *AccessData) copyData() NodeData     { c := *d; return &c }
func (d *FuncCallData) copyData() NodeData   { c := *d; return &c }
func (d *MethodCallData) copyData() NodeData { c := *d; return &c }
func (d *OpData) copyData() NodeData         { c := *d; return &c }
