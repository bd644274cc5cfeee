package typenode

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tmplc/internal/source"
)

var loc = source.NewLocation("t.tpl", 3, 10, 3, 20)

func TestNormalizeCases(t *testing.T) {
	cases := []struct {
		name     string
		declared *Node
		optional bool
		want     string
	}{
		{"required keeps type", Named("int", loc), false, "int"},
		{"optional named becomes union", Named("int", loc), true, "int|null"},
		{"optional null stays null", Null(loc), true, "null"},
		{"optional union appends", Union(loc, Named("int", loc), Named("string", loc)), true, "int|string|null"},
		{"optional union with null unchanged", Union(loc, Named("int", loc), Null(loc)), true, "int|null"},
		{"optional generic", Generic("list", loc, Named("string", loc)), true, "list<string>|null"},
		{"required null", Null(loc), false, "null"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.declared, tc.optional)
			if got.String() != tc.want {
				t.Fatalf("Normalize(%s, %v) = %s; want %s", tc.declared, tc.optional, got, tc.want)
			}
			if got.Loc != loc {
				t.Errorf("effective type location = %v; want %v", got.Loc, loc)
			}
		})
	}
}

func TestNormalizeDoesNotMutateDeclared(t *testing.T) {
	declared := Union(loc, Named("int", loc), Named("string", loc))
	_ = Normalize(declared, true)
	if len(declared.Args) != 2 {
		t.Fatalf("declared union was modified: %s", declared)
	}
}

func TestNormalizeAbsentType(t *testing.T) {
	if got := Normalize(nil, true); got != nil {
		t.Fatalf("Normalize(nil) = %s; want nil", got)
	}
}

func TestNormalizeSyntheticNullLocation(t *testing.T) {
	got := Normalize(Named("bool", loc), true)
	null := got.Args[len(got.Args)-1]
	if !null.IsNull() || null.Loc != loc {
		t.Fatalf("synthesized member = %s at %v", null, null.Loc)
	}
}

// Nested unions are not flattened before the null check.
func TestHasNullAlternativeIsShallow(t *testing.T) {
	inner := &Node{Kind: KindUnion, Loc: loc, Args: []*Node{Named("int", loc), Null(loc)}}
	outer := &Node{Kind: KindUnion, Loc: loc, Args: []*Node{inner, Named("string", loc)}}
	if HasNullAlternative(outer) {
		t.Fatalf("nested null must not be seen")
	}
	if !HasNullAlternative(inner) {
		t.Fatalf("direct null must be seen")
	}
}

var memberPool = []string{"int", "string", "bool", "null", "float"}

func nodeFrom(idxs []int, n int) *Node {
	if n <= 1 {
		return Named(memberPool[idxs[0]], loc)
	}
	members := make([]*Node, n)
	for i := range n {
		members[i] = Named(memberPool[idxs[i]], loc)
	}
	return Union(loc, members...)
}

func TestNormalizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	idxGen := gen.SliceOfN(4, gen.IntRange(0, len(memberPool)-1))

	properties.Property("optional without null gains exactly one null", prop.ForAll(
		func(idxs []int, n int) bool {
			declared := nodeFrom(idxs, n)
			if HasNullAlternative(declared) {
				return true
			}
			got := Normalize(declared, true)
			if got.Kind != KindUnion || !HasNullAlternative(got) {
				return false
			}
			return len(got.Args) == len(declared.Members())+1
		},
		idxGen, gen.IntRange(1, 4),
	))

	properties.Property("optional with null is unchanged", prop.ForAll(
		func(idxs []int, n int) bool {
			declared := nodeFrom(idxs, n)
			if !HasNullAlternative(declared) {
				return true
			}
			return Normalize(declared, true) == declared
		},
		idxGen, gen.IntRange(1, 4),
	))

	properties.Property("required is always unchanged", prop.ForAll(
		func(idxs []int, n int) bool {
			declared := nodeFrom(idxs, n)
			return Normalize(declared, false) == declared
		},
		idxGen, gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

func TestCopyAndEqual(t *testing.T) {
	orig := Generic("map", loc, Named("string", loc), Union(loc, Named("int", loc), Null(loc)))
	cp := orig.Copy()
	if !orig.Equal(cp) {
		t.Fatalf("copy differs: %s vs %s", orig, cp)
	}
	if cp.Args[1] == orig.Args[1] {
		t.Fatalf("copy shares children")
	}
	if got := orig.String(); got != "map<string, int|null>" {
		t.Errorf("String() = %q", got)
	}
}
