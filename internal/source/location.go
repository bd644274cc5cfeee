package source

import "fmt"

// Point is a human-readable position in a source file.
type Point struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}

// Before reports whether p comes strictly before other.
func (p Point) Before(other Point) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Col < other.Col
}

// Location identifies a region of a template file: the file path plus the
// begin and end points (both inclusive, like the command text they quote).
// The zero value is Unknown.
type Location struct {
	Path  string
	Begin Point
	End   Point
}

// Unknown is the location of synthesized and sentinel nodes.
var Unknown = Location{}

// NewLocation builds a location from raw line/column coordinates.
func NewLocation(path string, beginLine, beginCol, endLine, endCol uint32) Location {
	return Location{
		Path:  path,
		Begin: Point{Line: beginLine, Col: beginCol},
		End:   Point{Line: endLine, Col: endCol},
	}
}

// IsKnown is false for Unknown and for any location without a begin line.
func (l Location) IsKnown() bool {
	return l.Begin.Line > 0
}

// Extend returns a location spanning from l to other.
func (l Location) Extend(other Location) Location {
	if !l.IsKnown() {
		return other
	}
	if !other.IsKnown() || other.Path != l.Path {
		return l
	}
	out := l
	if other.Begin.Before(out.Begin) {
		out.Begin = other.Begin
	}
	if out.End.Before(other.End) {
		out.End = other.End
	}
	return out
}

// Offset shifts a location that is relative to the start of a command text
// so it becomes relative to the file. Only single-line command texts are
// shifted by column; multi-line ones keep the base column.
func (l Location) Offset(base Location) Location {
	if !base.IsKnown() {
		return l
	}
	if !l.IsKnown() {
		return base
	}
	shift := func(p Point) Point {
		if p.Line == 1 {
			return Point{Line: base.Begin.Line, Col: base.Begin.Col + p.Col - 1}
		}
		return Point{Line: base.Begin.Line + p.Line - 1, Col: p.Col}
	}
	return Location{Path: base.Path, Begin: shift(l.Begin), End: shift(l.End)}
}

func (l Location) String() string {
	if !l.IsKnown() {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", l.Path, l.Begin.Line, l.Begin.Col, l.End.Line, l.End.Col)
}

// Within returns the location of text[start:end] when text is the command
// text that l covers.
func (l Location) Within(text string, start, end int) Location {
	start = max(0, min(start, len(text)))
	end = max(start, min(end, len(text)))
	rel := func(off int) Point {
		p := Point{Line: 1, Col: 1}
		for i := 0; i < off; i++ {
			if text[i] == '\n' {
				p.Line++
				p.Col = 1
				continue
			}
			p.Col++
		}
		return p
	}
	last := end
	if last > start {
		last--
	}
	return Location{Begin: rel(start), End: rel(last)}.Offset(l)
}
