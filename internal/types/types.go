package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnknown
	KindAny
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindHTML
	KindURI
	KindCSS
	KindJS
	KindAttributes
	KindList
	KindMap
	KindUnion
	KindImport
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnknown:
		return "?"
	case KindAny:
		return "any"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindHTML:
		return "html"
	case KindURI:
		return "uri"
	case KindCSS:
		return "css"
	case KindJS:
		return "js"
	case KindAttributes:
		return "attributes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	case KindImport:
		return "import"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsContent reports whether values of kind k are sanitized content.
func (k Kind) IsContent() bool {
	switch k {
	case KindHTML, KindURI, KindCSS, KindJS, KindAttributes:
		return true
	}
	return false
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind Kind
	Elem TypeID // list element, map value
	Key  TypeID // map key
	// Payload indexes side tables: union members, import types.
	Payload uint32
}

// MakeList describes list<elem>.
func MakeList(elem TypeID) Type {
	return Type{Kind: KindList, Elem: elem}
}

// MakeMap describes map<key, value>.
func MakeMap(key, value TypeID) Type {
	return Type{Kind: KindMap, Key: key, Elem: value}
}
