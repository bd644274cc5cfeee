// Package codegen is the backend-independent part of code generation: the
// output and scope stacks, exhaustive dispatch over node kinds, and the
// report-and-placeholder policy for lowering failures.
//
// A backend embeds BaseExprVisitor and BaseNodeVisitor, overrides the kinds
// it lowers, and walks templates with VisitNode and VisitExpr. Kinds it does
// not override are reported as unsupported and replaced by a placeholder, so
// one pass surfaces every defect of a file.
package codegen

import (
	"fmt"

	"tmplc/internal/ast"
	"tmplc/internal/diag"
)

var (
	errUnsupportedExpr = diag.ErrorKind(diag.GenUnsupportedExpr, "%s expressions are not supported by the %s backend")
	errUnsupportedNode = diag.ErrorKind(diag.GenUnsupportedNode, "%s nodes are not supported by the %s backend")
)

// Lowering is the state shared by the visitors of one backend run.
type Lowering struct {
	Tree     *ast.Tree
	Reporter diag.Reporter
	// Backend names the target in diagnostics.
	Backend string
	// Placeholder is emitted in place of an expression that failed to lower.
	Placeholder Fragment

	failures int
}

// Fail reports kind at the node's location and returns the placeholder.
func (l *Lowering) Fail(kind diag.Kind, id ast.NodeID, args ...any) Fragment {
	l.failures++
	diag.Emit(l.Reporter, kind, l.Tree.Loc(id), "", args...)
	return l.Placeholder
}

// Report records a failure that has no expression result.
func (l *Lowering) Report(kind diag.Kind, id ast.NodeID, args ...any) {
	l.failures++
	diag.Emit(l.Reporter, kind, l.Tree.Loc(id), "", args...)
}

// FailWith reports a prepared diagnostic, e.g. one carrying notes, and
// returns the placeholder.
func (l *Lowering) FailWith(d diag.Diagnostic) Fragment {
	l.failures++
	if l.Reporter != nil {
		l.Reporter.Report(d)
	}
	return l.Placeholder
}

// Failures counts the lowering failures so far.
func (l *Lowering) Failures() int { return l.failures }

// ExprVisitor lowers one expression node per method. VisitError handles
// the sentinels that stand in for expressions which failed to build.
type ExprVisitor interface {
	VisitString(id ast.NodeID) Fragment
	VisitInt(id ast.NodeID) Fragment
	VisitFloat(id ast.NodeID) Fragment
	VisitBool(id ast.NodeID) Fragment
	VisitNull(id ast.NodeID) Fragment
	VisitVarRef(id ast.NodeID) Fragment
	VisitGlobal(id ast.NodeID) Fragment
	VisitList(id ast.NodeID) Fragment
	VisitMap(id ast.NodeID) Fragment
	VisitFieldAccess(id ast.NodeID) Fragment
	VisitItemAccess(id ast.NodeID) Fragment
	VisitFuncCall(id ast.NodeID) Fragment
	VisitMethodCall(id ast.NodeID) Fragment
	VisitUnary(id ast.NodeID) Fragment
	VisitBinary(id ast.NodeID) Fragment
	VisitTernary(id ast.NodeID) Fragment
	VisitError(id ast.NodeID) Fragment
}

var exprDispatch = map[ast.Kind]func(ExprVisitor, ast.NodeID) Fragment{
	ast.KindString:      ExprVisitor.VisitString,
	ast.KindInt:         ExprVisitor.VisitInt,
	ast.KindFloat:       ExprVisitor.VisitFloat,
	ast.KindBool:        ExprVisitor.VisitBool,
	ast.KindNull:        ExprVisitor.VisitNull,
	ast.KindVarRef:      ExprVisitor.VisitVarRef,
	ast.KindGlobal:      ExprVisitor.VisitGlobal,
	ast.KindList:        ExprVisitor.VisitList,
	ast.KindMap:         ExprVisitor.VisitMap,
	ast.KindFieldAccess: ExprVisitor.VisitFieldAccess,
	ast.KindItemAccess:  ExprVisitor.VisitItemAccess,
	ast.KindFuncCall:    ExprVisitor.VisitFuncCall,
	ast.KindMethodCall:  ExprVisitor.VisitMethodCall,
	ast.KindUnary:       ExprVisitor.VisitUnary,
	ast.KindBinary:      ExprVisitor.VisitBinary,
	ast.KindTernary:     ExprVisitor.VisitTernary,
}

func init() {
	for _, k := range ast.ExprKinds() {
		if exprDispatch[k] == nil {
			panic(fmt.Sprintf("codegen: no visitor method for %s expressions", k))
		}
	}
}

// VisitExpr dispatches id to the matching method of v.
func VisitExpr(t *ast.Tree, id ast.NodeID, v ExprVisitor) Fragment {
	if t.IsError(id) {
		return v.VisitError(id)
	}
	fn, ok := exprDispatch[t.Kind(id)]
	if !ok {
		panic(fmt.Sprintf("codegen: node %d (%s) is not an expression", id, t.Kind(id)))
	}
	return fn(v, id)
}

// BaseExprVisitor reports every kind as unsupported. A sentinel was already
// reported when it was built, so VisitError only returns the placeholder.
type BaseExprVisitor struct {
	L *Lowering
}

func (b BaseExprVisitor) unsupported(id ast.NodeID) Fragment {
	return b.L.Fail(errUnsupportedExpr, id, b.L.Tree.Kind(id), b.L.Backend)
}

func (b BaseExprVisitor) VisitString(id ast.NodeID) Fragment      { return b.unsupported(id) }
func (b BaseExprVisitor) VisitInt(id ast.NodeID) Fragment         { return b.unsupported(id) }
func (b BaseExprVisitor) VisitFloat(id ast.NodeID) Fragment       { return b.unsupported(id) }
func (b BaseExprVisitor) VisitBool(id ast.NodeID) Fragment        { return b.unsupported(id) }
func (b BaseExprVisitor) VisitNull(id ast.NodeID) Fragment        { return b.unsupported(id) }
func (b BaseExprVisitor) VisitVarRef(id ast.NodeID) Fragment      { return b.unsupported(id) }
func (b BaseExprVisitor) VisitGlobal(id ast.NodeID) Fragment      { return b.unsupported(id) }
func (b BaseExprVisitor) VisitList(id ast.NodeID) Fragment        { return b.unsupported(id) }
func (b BaseExprVisitor) VisitMap(id ast.NodeID) Fragment         { return b.unsupported(id) }
func (b BaseExprVisitor) VisitFieldAccess(id ast.NodeID) Fragment { return b.unsupported(id) }
func (b BaseExprVisitor) VisitItemAccess(id ast.NodeID) Fragment  { return b.unsupported(id) }
func (b BaseExprVisitor) VisitFuncCall(id ast.NodeID) Fragment    { return b.unsupported(id) }
func (b BaseExprVisitor) VisitMethodCall(id ast.NodeID) Fragment  { return b.unsupported(id) }
func (b BaseExprVisitor) VisitUnary(id ast.NodeID) Fragment       { return b.unsupported(id) }
func (b BaseExprVisitor) VisitBinary(id ast.NodeID) Fragment      { return b.unsupported(id) }
func (b BaseExprVisitor) VisitTernary(id ast.NodeID) Fragment     { return b.unsupported(id) }
func (b BaseExprVisitor) VisitError(ast.NodeID) Fragment          { return b.L.Placeholder }

// NodeVisitor lowers template-level nodes. Branches of if and params of call
// are handled by their parents' methods.
type NodeVisitor interface {
	VisitFile(id ast.NodeID)
	VisitTemplate(id ast.NodeID)
	VisitParamDecl(id ast.NodeID)
	VisitStateDecl(id ast.NodeID)
	VisitRawText(id ast.NodeID)
	VisitPrint(id ast.NodeID)
	VisitLetValue(id ast.NodeID)
	VisitLetContent(id ast.NodeID)
	VisitIf(id ast.NodeID)
	VisitFor(id ast.NodeID)
	VisitCall(id ast.NodeID)
}

var nodeDispatch = map[ast.Kind]func(NodeVisitor, ast.NodeID){
	ast.KindFile:       NodeVisitor.VisitFile,
	ast.KindTemplate:   NodeVisitor.VisitTemplate,
	ast.KindParamDecl:  NodeVisitor.VisitParamDecl,
	ast.KindStateDecl:  NodeVisitor.VisitStateDecl,
	ast.KindRawText:    NodeVisitor.VisitRawText,
	ast.KindPrint:      NodeVisitor.VisitPrint,
	ast.KindLetValue:   NodeVisitor.VisitLetValue,
	ast.KindLetContent: NodeVisitor.VisitLetContent,
	ast.KindIf:         NodeVisitor.VisitIf,
	ast.KindFor:        NodeVisitor.VisitFor,
	ast.KindCall:       NodeVisitor.VisitCall,
}

// VisitNode dispatches id to v. Sentinels are skipped; their defect is
// already reported. Kinds without a dispatch entry are reported.
func VisitNode(l *Lowering, id ast.NodeID, v NodeVisitor) {
	if l.Tree.IsError(id) {
		return
	}
	fn, ok := nodeDispatch[l.Tree.Kind(id)]
	if !ok {
		l.Report(errUnsupportedNode, id, l.Tree.Kind(id), l.Backend)
		return
	}
	fn(v, id)
}

// VisitBody dispatches each body node of id in order.
func VisitBody(l *Lowering, id ast.NodeID, v NodeVisitor) {
	for _, c := range l.Tree.Body(id) {
		VisitNode(l, c, v)
	}
}

// BaseNodeVisitor reports every node kind as unsupported.
type BaseNodeVisitor struct {
	L *Lowering
}

func (b BaseNodeVisitor) unsupported(id ast.NodeID) {
	b.L.Report(errUnsupportedNode, id, b.L.Tree.Kind(id), b.L.Backend)
}

func (b BaseNodeVisitor) VisitFile(id ast.NodeID)       { b.unsupported(id) }
func (b BaseNodeVisitor) VisitTemplate(id ast.NodeID)   { b.unsupported(id) }
func (b BaseNodeVisitor) VisitParamDecl(id ast.NodeID)  { b.unsupported(id) }
func (b BaseNodeVisitor) VisitStateDecl(id ast.NodeID)  { b.unsupported(id) }
func (b BaseNodeVisitor) VisitRawText(id ast.NodeID)    { b.unsupported(id) }
func (b BaseNodeVisitor) VisitPrint(id ast.NodeID)      { b.unsupported(id) }
func (b BaseNodeVisitor) VisitLetValue(id ast.NodeID)   { b.unsupported(id) }
func (b BaseNodeVisitor) VisitLetContent(id ast.NodeID) { b.unsupported(id) }
func (b BaseNodeVisitor) VisitIf(id ast.NodeID)         { b.unsupported(id) }
func (b BaseNodeVisitor) VisitFor(id ast.NodeID)        { b.unsupported(id) }
func (b BaseNodeVisitor) VisitCall(id ast.NodeID)       { b.unsupported(id) }
