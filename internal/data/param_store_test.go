package data

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/sync/errgroup"
)

func mustPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", what)
		}
	}()
	fn()
}

func valueFor(k int) Value {
	switch k {
	case 7:
		return FloatValue(math.Copysign(0, -1))
	case 11:
		return FloatValue(math.NaN())
	}
	switch k % 4 {
	case 0:
		return IntValue(k)
	case 1:
		return StringValue(fmt.Sprintf("v%d", k))
	case 2:
		return BoolValue(k%3 == 0)
	}
	return FloatValue(float64(k) / 2)
}

func build(table *PropertyTable, keys []int) *ParamStore {
	b := NewParamStoreBuilder(len(keys))
	for _, k := range keys {
		b.SetStrict(table.Intern(fmt.Sprintf("p%d", k)), valueFor(k))
	}
	return b.Freeze()
}

func distinct(keys []int) []int {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

func TestParamStoreProperties(t *testing.T) {
	table := NewPropertyTable()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	keysGen := gen.SliceOf(gen.IntRange(0, 40))

	properties.Property("equality and hash do not depend on insertion order", prop.ForAll(
		func(keys []int, seed int) bool {
			keys = distinct(keys)
			shuffled := slices.Clone(keys)
			// детерминированная перестановка
			for i := len(shuffled) - 1; i > 0; i-- {
				j := (seed + i*7) % (i + 1)
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			}
			a, b := build(table, keys), build(table, shuffled)
			return a.Equal(b) && b.Equal(a) && a.Hash() == b.Hash()
		},
		keysGen, gen.IntRange(0, 1000),
	))

	properties.Property("merge of disjoint stores holds both", prop.ForAll(
		func(keys []int) bool {
			keys = distinct(keys)
			var left, right []int
			for _, k := range keys {
				if k%2 == 0 {
					left = append(left, k)
				} else {
					right = append(right, k)
				}
			}
			a, b := build(table, left), build(table, right)
			m := Merge(a, b)
			if m.Len() != a.Len()+b.Len() {
				return false
			}
			for _, k := range keys {
				p := table.Intern(fmt.Sprintf("p%d", k))
				if !m.Has(p) || !m.Get(p).Resolve().Equal(valueFor(k)) {
					return false
				}
			}
			return m.Equal(build(table, keys))
		},
		keysGen,
	))

	properties.Property("merge of overlapping stores panics", prop.ForAll(
		func(keys []int, shared int) (ok bool) {
			keys = distinct(append(keys, shared))
			a := build(table, keys)
			b := build(table, []int{shared})
			defer func() { ok = recover() != nil }()
			Merge(a, b)
			return false
		},
		keysGen, gen.IntRange(0, 40),
	))

	properties.Property("different values are not equal", prop.ForAll(
		func(keys []int, extra int) bool {
			keys = distinct(keys)
			if slices.Contains(keys, extra) {
				return true
			}
			return !build(table, keys).Equal(build(table, append(keys, extra)))
		},
		keysGen, gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func TestFloatSignedZeroAndNaN(t *testing.T) {
	table := NewPropertyTable()
	p := table.Intern("f")
	single := func(v float64) *ParamStore {
		b := NewParamStoreBuilder(1)
		b.Set(p, FloatValue(v))
		return b.Freeze()
	}
	negZero := math.Copysign(0, -1)
	if single(0).Equal(single(negZero)) {
		t.Error("0 and -0 stores are equal")
	}
	if !single(negZero).Equal(single(negZero)) || single(negZero).Hash() != single(negZero).Hash() {
		t.Error("-0 store not equal to itself")
	}
	nanA, nanB := single(math.NaN()), single(-math.NaN())
	if !nanA.Equal(nanB) || nanA.Hash() != nanB.Hash() {
		t.Errorf("NaN stores: equal=%v hashA=%x hashB=%x", nanA.Equal(nanB), nanA.Hash(), nanB.Hash())
	}
}

func TestParamStoreLifecycle(t *testing.T) {
	table := NewPropertyTable()
	a, b := table.Intern("a"), table.Intern("b")

	builder := NewParamStoreBuilder(2)
	builder.Set(a, IntValue(1)).Set(a, IntValue(2)).SetStrict(b, StringValue("x"))
	mustPanic(t, "SetStrict duplicate", func() { builder.SetStrict(b, StringValue("y")) })
	store := builder.Freeze()

	mustPanic(t, "Set after Freeze", func() { builder.Set(a, IntValue(3)) })
	mustPanic(t, "SetStrict after Freeze", func() { builder.SetStrict(table.Intern("c"), Null) })
	mustPanic(t, "second Freeze", func() { builder.Freeze() })

	if got := store.Get(a).Resolve(); !got.Equal(IntValue(2)) {
		t.Errorf("Set must overwrite, got %s", got)
	}
	if store.Get(table.Intern("missing")) != Undefined {
		t.Errorf("missing lookup must return Undefined")
	}
	if names := store.AsStringMap(); len(names) != 2 || !names["b"].Resolve().Equal(StringValue("x")) {
		t.Errorf("AsStringMap = %v", names)
	}
	if props := store.Properties(); len(props) != 2 || props[0] != a || props[1] != b {
		t.Errorf("Properties = %v", props)
	}
	if got := store.String(); got != "{a: 2, b: x}" {
		t.Errorf("String = %q", got)
	}
	if EmptyParamStore.Len() != 0 || !EmptyParamStore.Equal(NewParamStoreBuilder(0).Freeze()) {
		t.Errorf("EmptyParamStore must be empty")
	}
}

func TestBuilderFromStore(t *testing.T) {
	table := NewPropertyTable()
	base := build(table, []int{1, 2})
	b := NewParamStoreBuilderFrom(base, 1)
	b.Set(table.Intern("p3"), IntValue(3))
	ext := b.Freeze()
	if ext.Len() != 3 || base.Len() != 2 {
		t.Fatalf("len = %d, base %d", ext.Len(), base.Len())
	}
	if !ext.Get(table.Intern("p1")).Resolve().Equal(valueFor(1)) {
		t.Errorf("seeded entry lost")
	}
}

func TestFromRecord(t *testing.T) {
	table := NewPropertyTable()
	store := build(table, []int{1, 2})
	if FromRecord(store) != store {
		t.Errorf("a store must be returned as is")
	}
	rv := NewRecordValue(store)
	if FromRecord(rv) != store {
		t.Errorf("a store-backed record must not be copied")
	}

	rec := MapRecord{Table: table, Fields: map[string]Value{"p1": valueFor(1), "p2": valueFor(2)}}
	copied := FromRecord(rec)
	if copied == store || !copied.Equal(store) || copied.Hash() != store.Hash() {
		t.Errorf("map record copy = %s; want %s", copied, store)
	}
	if !rv.Equal(NewRecordValue(copied)) || rv.Hash() != NewRecordValue(copied).Hash() {
		t.Errorf("record values over equal stores must be equal")
	}
}

func TestPropertyIdentity(t *testing.T) {
	t1, t2 := NewPropertyTable(), NewPropertyTable()
	if t1.Intern("x") != t1.Intern("x") {
		t.Errorf("same table must return the same property")
	}
	if t1.Intern("x") == t2.Intern("x") {
		t.Errorf("tables must not share properties")
	}
	s1 := NewParamStoreBuilder(1).Set(t1.Intern("x"), IntValue(1)).Freeze()
	s2 := NewParamStoreBuilder(1).Set(t2.Intern("x"), IntValue(1)).Freeze()
	if s1.Equal(s2) {
		t.Errorf("stores keyed by distinct properties must differ even with equal names")
	}
	if Prop("shared") != Prop("shared") || Prop("shared").Name() != "shared" {
		t.Errorf("default table must intern")
	}
	if t1.Len() != 1 {
		t.Errorf("Len = %d", t1.Len())
	}
}

func TestLazyProvider(t *testing.T) {
	var calls atomic.Int32
	p := Lazy(func() Value {
		calls.Add(1)
		return StringValue("computed")
	})
	store := NewParamStoreBuilder(1).Set(Prop("lazy"), p).Freeze()

	g, _ := errgroup.WithContext(context.Background())
	for range 16 {
		g.Go(func() error {
			if got := store.Get(Prop("lazy")).Resolve(); !got.Equal(StringValue("computed")) {
				return fmt.Errorf("got %s", got)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("compute called %d times", calls.Load())
	}
	if !ProvidersEqual(p, StringValue("computed")) {
		t.Errorf("lazy provider must equal its value")
	}
}

func TestConcurrentReaders(t *testing.T) {
	table := NewPropertyTable()
	keys := make([]int, 64)
	for i := range keys {
		keys[i] = i
	}
	store := build(table, keys)
	want := store.Hash()

	var g errgroup.Group
	g.SetLimit(8)
	for i := range 32 {
		g.Go(func() error {
			if store.Hash() != want {
				return fmt.Errorf("hash changed")
			}
			p := table.Intern(fmt.Sprintf("p%d", i))
			if !store.Get(p).Resolve().Equal(valueFor(i)) {
				return fmt.Errorf("lookup of p%d", i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
