package ast

type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

type Kind uint8

const (
	KindInvalid Kind = iota

	// шаблонные узлы
	KindFile
	KindTemplate
	KindParamDecl
	KindStateDecl
	KindRawText
	KindPrint
	KindLetValue
	KindLetContent
	KindIf
	KindIfCond
	KindIfElse
	KindFor
	KindCall
	KindCallParamValue
	KindCallParamContent

	// выражения
	KindString
	KindInt
	KindFloat
	KindBool
	KindNull
	KindVarRef
	KindGlobal
	KindList
	KindMap
	KindFieldAccess
	KindItemAccess
	KindFuncCall
	KindMethodCall
	KindUnary
	KindBinary
	KindTernary

	kindCount
)

var kindNames = [...]string{
	KindInvalid:          "invalid",
	KindFile:             "file",
	KindTemplate:         "template",
	KindParamDecl:        "param-decl",
	KindStateDecl:        "state-decl",
	KindRawText:          "raw-text",
	KindPrint:            "print",
	KindLetValue:         "let-value",
	KindLetContent:       "let-content",
	KindIf:               "if",
	KindIfCond:           "if-cond",
	KindIfElse:           "if-else",
	KindFor:              "for",
	KindCall:             "call",
	KindCallParamValue:   "call-param-value",
	KindCallParamContent: "call-param-content",
	KindString:           "string",
	KindInt:              "int",
	KindFloat:            "float",
	KindBool:             "bool",
	KindNull:             "null",
	KindVarRef:           "var-ref",
	KindGlobal:           "global",
	KindList:             "list",
	KindMap:              "map",
	KindFieldAccess:      "field-access",
	KindItemAccess:       "item-access",
	KindFuncCall:         "func-call",
	KindMethodCall:       "method-call",
	KindUnary:            "unary",
	KindBinary:           "binary",
	KindTernary:          "ternary",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// IsExpr reports whether k is an expression kind.
func (k Kind) IsExpr() bool {
	return k >= KindString && k < kindCount
}

// IsDecl reports whether nodes of kind k introduce a variable.
func (k Kind) IsDecl() bool {
	switch k {
	case KindParamDecl, KindStateDecl, KindLetValue, KindLetContent, KindFor:
		return true
	}
	return false
}

// IsPrimitiveLiteral reports whether k is a string, number, bool or null literal.
func (k Kind) IsPrimitiveLiteral() bool {
	switch k {
	case KindString, KindInt, KindFloat, KindBool, KindNull:
		return true
	}
	return false
}

// ExprKinds lists every expression kind. Backends use it to check that their
// dispatch is exhaustive.
func ExprKinds() []Kind {
	out := make([]Kind, 0, kindCount-KindString)
	for k := KindString; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
