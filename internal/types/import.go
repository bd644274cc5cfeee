package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// ImportKind says what kind of non-template file an import refers to.
type ImportKind uint8

const (
	ImportInvalid ImportKind = iota
	// ImportCSSModule is a CSS file imported for its class map.
	ImportCSSModule
	// ImportTemplates is another template file; members are template names.
	ImportTemplates
)

func (k ImportKind) String() string {
	switch k {
	case ImportCSSModule:
		return "css_module"
	case ImportTemplates:
		return "templates"
	}
	return "invalid"
}

// ImportType is the type of a symbol imported from another file. It is an
// immutable value; two import types are equal when they name the same file
// with the same kind.
type ImportType struct {
	Path    string
	Kind    ImportKind
	members []string
}

// CSSModuleImport is the type of `import * as css from 'x.css'`. It exposes a
// single member, "classes".
func CSSModuleImport(path string) ImportType {
	return ImportType{Path: path, Kind: ImportCSSModule, members: []string{"classes"}}
}

// TemplatesImport is the type of an imported template file.
func TemplatesImport(path string, templates ...string) ImportType {
	members := slices.Clone(templates)
	slices.Sort(members)
	return ImportType{Path: path, Kind: ImportTemplates, members: slices.Compact(members)}
}

func (t ImportType) Members() []string {
	return slices.Clone(t.members)
}

func (t ImportType) HasMember(name string) bool {
	_, found := slices.BinarySearch(t.members, name)
	return found
}

func (t ImportType) Equal(other ImportType) bool {
	return t.Path == other.Path && t.Kind == other.Kind
}

func (t ImportType) String() string {
	return t.Path
}

// Import interns an import type; equal imports share a TypeID.
func (in *Interner) Import(t ImportType) TypeID {
	for i := 1; i < len(in.imports); i++ {
		if in.imports[i].Equal(t) {
			n, err := safecast.Conv[uint32](i)
			if err != nil {
				panic(fmt.Errorf("imports overflow: %w", err))
			}
			return in.Intern(Type{Kind: KindImport, Payload: n})
		}
	}
	n, err := safecast.Conv[uint32](len(in.imports))
	if err != nil {
		panic(fmt.Errorf("imports overflow: %w", err))
	}
	in.imports = append(in.imports, t)
	return in.Intern(Type{Kind: KindImport, Payload: n})
}

// ImportInfo returns the import type behind id.
func (in *Interner) ImportInfo(id TypeID) (ImportType, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindImport {
		return ImportType{}, false
	}
	return in.imports[tt.Payload], true
}
