package plugin

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingChecker struct {
	answer bool
	msg    string
	calls  int
}

func (c *recordingChecker) HasMethod(sig MethodSignature, report func(string)) bool {
	c.calls++
	if c.msg != "" {
		report(c.msg)
	}
	return c.answer
}

func TestDelegatingShortCircuits(t *testing.T) {
	first := &recordingChecker{msg: "first: no such method"}
	second := &recordingChecker{answer: true}
	third := &recordingChecker{answer: true}
	d := Delegating{first, second, third}

	var msgs []string
	sig := MethodSignature{Class: "string", Method: "trim"}
	if !d.HasMethod(sig, func(m string) { msgs = append(msgs, m) }) {
		t.Fatal("second checker confirms, delegation must succeed")
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Errorf("calls = %d %d %d; want 1 1 0", first.calls, second.calls, third.calls)
	}
	if diff := cmp.Diff([]string{"first: no such method"}, msgs); diff != "" {
		t.Errorf("reports (-want +got):\n%s", diff)
	}
}

func TestDelegatingNoneConfirm(t *testing.T) {
	a, b := &recordingChecker{msg: "a"}, &recordingChecker{msg: "b"}
	var msgs []string
	if (Delegating{a, nil, b}).HasMethod(MethodSignature{}, func(m string) { msgs = append(msgs, m) }) {
		t.Fatal("nobody confirmed")
	}
	if diff := cmp.Diff([]string{"a", "b"}, msgs); diff != "" {
		t.Errorf("every checker must be consulted (-want +got):\n%s", diff)
	}
	if (Delegating{}).HasMethod(MethodSignature{}, nil) {
		t.Error("empty delegation confirms nothing")
	}
}

func TestStaticChecker(t *testing.T) {
	c := NewStaticChecker().
		Add("string", "contains", "bool", "string").
		Add("?", "toString", "string").
		Add("list<int>", "at", "int", "")

	cases := []struct {
		sig  MethodSignature
		want bool
	}{
		{MethodSignature{Class: "string", Method: "contains", Args: []string{"string"}}, true},
		{MethodSignature{Class: "string", Method: "contains", Args: []string{"?"}}, true},
		{MethodSignature{Class: "string", Method: "contains", Args: []string{"int"}}, false},
		{MethodSignature{Class: "string", Method: "contains", ReturnType: "int", Args: []string{"string"}}, false},
		{MethodSignature{Class: "map<string, int>", Method: "toString"}, true},
		{MethodSignature{Class: "list<int>", Method: "at", Args: []string{"float"}}, true},
		{MethodSignature{Class: "int", Method: "contains", Args: []string{"string"}}, false},
	}
	for _, tc := range cases {
		if got := c.HasMethod(tc.sig, nil); got != tc.want {
			t.Errorf("%s: got %v", tc.sig, got)
		}
	}

	var msg string
	c.HasMethod(MethodSignature{Class: "string", Method: "contains"}, func(m string) { msg = m })
	if msg != "string.contains takes 1 argument(s), got 0" {
		t.Errorf("arity report = %q", msg)
	}
	if res, ok := c.Result(MethodSignature{Class: "bool", Method: "toString"}); !ok || res != "string" {
		t.Errorf("Result = %q, %v", res, ok)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		Function{Name: "money", Target: "app.fmt.money", MinArgs: 1, MaxArgs: 2},
		Function{Name: "concat", Target: "app.concat", MinArgs: 0, MaxArgs: Variadic},
	)
	if err := r.Register(Function{Name: "money", Target: "x", MinArgs: 1, MaxArgs: 1}); err == nil {
		t.Error("duplicate registration must fail")
	}
	for _, bad := range []Function{
		{Target: "x"},
		{Name: "f"},
		{Name: "f", Target: "x", MinArgs: 2, MaxArgs: 1},
	} {
		if err := r.Register(bad); err == nil {
			t.Errorf("Register(%+v) must fail", bad)
		}
	}

	money, ok := r.Lookup("money")
	if !ok || money.Accepts(0) || !money.Accepts(2) || money.Accepts(3) || money.Arity() != "1 to 2" {
		t.Errorf("money = %+v", money)
	}
	concat, _ := r.Lookup("concat")
	if !concat.Accepts(10) || concat.Arity() != "at least 0" {
		t.Errorf("concat = %+v", concat)
	}
	if diff := cmp.Diff([]string{"concat", "money"}, r.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
	var nilReg *Registry
	if _, ok := nilReg.Lookup("money"); ok {
		t.Error("nil registry has no functions")
	}
}
