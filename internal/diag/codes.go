package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo               Code = 1000
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexBadEscape          Code = 1004

	// Синтаксические: выражения и типы
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynExpectExpression Code = 2002
	SynExpectType       Code = 2003
	SynUnclosedParen    Code = 2004
	SynUnclosedBracket  Code = 2005
	SynTrailingInput    Code = 2006

	// Синтаксические: теги шаблонов
	SynUnclosedTag          Code = 2100
	SynMismatchedTag        Code = 2101
	SynUnknownCommand       Code = 2102
	SynMalformedCommand     Code = 2103
	SynUnknownAttribute     Code = 2104
	SynDuplicateAttribute   Code = 2105
	SynTagOutsideTemplate   Code = 2106
	SynParamNoValue         Code = 2110
	SynParamKindOnValue     Code = 2111
	SynParamContentHasValue Code = 2112
	SynParamContentNoKind   Code = 2113
	SynBadVarName           Code = 2114

	// Семантические
	SemInfo              Code = 3000
	SemUndefinedVar      Code = 3001
	SemUnknownType       Code = 3002
	SemDuplicateDecl     Code = 3003
	SemDuplicateTemplate Code = 3004
	SemBadTypeArity      Code = 3005

	// Кодогенерация
	GenInfo                 Code = 4000
	GenUnresolvedGlobal     Code = 4001
	GenUnknownFunction      Code = 4002
	GenUnsupportedSignature Code = 4003
	GenUnsupportedExpr      Code = 4004
	GenDuplicateParam       Code = 4005
	GenUnknownMethod        Code = 4006
	GenUnsupportedNode      Code = 4007
	GenUnresolvedVar        Code = 4008

	// Файл констант
	GlbInfo          Code = 5000
	GlbInvalidFormat Code = 5001
	GlbInvalidValue  Code = 5002
	GlbNonPrimitive  Code = 5003

	// Ввод-вывод
	IOInfo          Code = 6000
	IOLoadFileError Code = 6001
	IOWriteError    Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	LexInfo:                 "Lexical information",
	LexUnknownChar:          "Unknown character",
	LexUnterminatedString:   "Unterminated string literal",
	LexBadNumber:            "Malformed number literal",
	LexBadEscape:            "Invalid escape sequence",
	SynInfo:                 "Syntax information",
	SynUnexpectedToken:      "Unexpected token",
	SynExpectExpression:     "Expected expression",
	SynExpectType:           "Expected type",
	SynUnclosedParen:        "Unclosed parenthesis",
	SynUnclosedBracket:      "Unclosed bracket",
	SynTrailingInput:        "Unexpected trailing input",
	SynUnclosedTag:          "Unclosed tag",
	SynMismatchedTag:        "Mismatched closing tag",
	SynUnknownCommand:       "Unknown command",
	SynMalformedCommand:     "Malformed command text",
	SynUnknownAttribute:     "Unknown attribute",
	SynDuplicateAttribute:   "Duplicate attribute",
	SynTagOutsideTemplate:   "Tag outside of template",
	SynParamNoValue:         "Self-ending param without value",
	SynParamKindOnValue:     "Kind attribute on self-ending param",
	SynParamContentHasValue: "Content param with value",
	SynParamContentNoKind:   "Content param without kind",
	SynBadVarName:           "Invalid variable name",
	SemInfo:                 "Semantic information",
	SemUndefinedVar:         "Undefined variable",
	SemUnknownType:          "Unknown type",
	SemDuplicateDecl:        "Duplicate declaration",
	SemDuplicateTemplate:    "Duplicate template",
	SemBadTypeArity:         "Wrong number of type arguments",
	GenInfo:                 "Codegen information",
	GenUnresolvedGlobal:     "Unresolved global",
	GenUnknownFunction:      "Unknown function",
	GenUnsupportedSignature: "Unsupported plugin signature",
	GenUnsupportedExpr:      "Unsupported expression",
	GenDuplicateParam:       "Duplicate call param",
	GenUnknownMethod:        "Unknown method",
	GenUnsupportedNode:      "Unsupported node",
	GenUnresolvedVar:        "Unresolved variable",
	GlbInfo:                 "Globals information",
	GlbInvalidFormat:        "Invalid globals line format",
	GlbInvalidValue:         "Invalid global value",
	GlbNonPrimitive:         "Non-primitive global value",
	IOInfo:                  "I/O information",
	IOLoadFileError:         "Cannot read file",
	IOWriteError:            "Cannot write output",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("GLB%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
