package data

import (
	"math"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Provider supplies a parameter value, possibly computing it on first use.
type Provider interface {
	Resolve() Value
}

// Value is a resolved template value. Every value is its own provider.
type Value interface {
	Provider
	Equal(other Value) bool
	Hash() uint64
	String() string
}

type (
	StringValue string
	IntValue    int64
	FloatValue  float64
	BoolValue   bool
	nullValue   struct{}
	undefValue  struct{}
)

var (
	// Null is the template null.
	Null Value = nullValue{}
	// Undefined is returned by lookups of missing parameters.
	Undefined Value = undefValue{}
)

func (v StringValue) Resolve() Value { return v }
func (v IntValue) Resolve() Value    { return v }
func (v FloatValue) Resolve() Value  { return v }
func (v BoolValue) Resolve() Value   { return v }
func (v nullValue) Resolve() Value   { return v }
func (v undefValue) Resolve() Value  { return v }

func (v StringValue) Equal(o Value) bool { w, ok := o.(StringValue); return ok && v == w }
func (v IntValue) Equal(o Value) bool    { w, ok := o.(IntValue); return ok && v == w }
func (v FloatValue) Equal(o Value) bool  { w, ok := o.(FloatValue); return ok && v.bits() == w.bits() }
func (v BoolValue) Equal(o Value) bool   { w, ok := o.(BoolValue); return ok && v == w }
func (nullValue) Equal(o Value) bool     { _, ok := o.(nullValue); return ok }
func (undefValue) Equal(o Value) bool    { _, ok := o.(undefValue); return ok }

func (v StringValue) Hash() uint64 { return xxhash.Sum64String(string(v)) }
func (v IntValue) Hash() uint64    { return mix64(uint64(v)) }
func (v FloatValue) Hash() uint64  { return mix64(v.bits() ^ 0x9e3779b97f4a7c15) }
func (v BoolValue) Hash() uint64 {
	if v {
		return 0x51ed270b27cfe8a1
	}
	return 0x2545f4914f6cdd1d
}
func (nullValue) Hash() uint64  { return 0x6a09e667f3bcc908 }
func (undefValue) Hash() uint64 { return 0xbb67ae8584caa73b }

func (v StringValue) String() string { return string(v) }
func (v IntValue) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v FloatValue) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v BoolValue) String() string   { return strconv.FormatBool(bool(v)) }
func (nullValue) String() string     { return "null" }
func (undefValue) String() string    { return "undefined" }

// bits compares floats like Java's Double.equals: every NaN is the same
// value and -0 differs from 0. Equal and Hash both go through it.
func (v FloatValue) bits() uint64 {
	if math.IsNaN(float64(v)) {
		return 0x7ff8000000000001
	}
	return math.Float64bits(float64(v))
}

// mix64 is the splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Lazy returns a provider that calls compute once, on first Resolve.
func Lazy(compute func() Value) Provider {
	return &lazyProvider{compute: compute}
}

type lazyProvider struct {
	once    sync.Once
	compute func() Value
	value   Value
}

func (p *lazyProvider) Resolve() Value {
	p.once.Do(func() {
		p.value = p.compute()
		if p.value == nil {
			p.value = Null
		}
		p.compute = nil
	})
	return p.value
}

// ProvidersEqual compares two providers by their resolved values.
func ProvidersEqual(a, b Provider) bool {
	return a.Resolve().Equal(b.Resolve())
}
