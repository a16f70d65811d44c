package term

import "testing"

func TestInternerIdempotent(t *testing.T) {
	in := NewInterner()
	a := in.Intern("Alice")
	b := in.Intern("Alice")
	if a != b {
		t.Fatalf("Intern not idempotent: %d != %d", a, b)
	}
	if in.String(a) != "Alice" {
		t.Fatalf("String round-trip failed: got %q", in.String(a))
	}
	if !in.IsConstant(a) {
		t.Fatalf("Alice should classify as constant")
	}
}

func TestInternerVariableAndUnknown(t *testing.T) {
	in := NewInterner()
	v := in.Intern("x")
	if !in.IsVariable(v) {
		t.Fatalf("x should classify as variable")
	}
	u := in.FreshUnknown()
	if !in.IsUnknown(u) {
		t.Fatalf("fresh unknown should classify as unknown")
	}
	u2 := in.FreshUnknown()
	if in.String(u) == in.String(u2) {
		t.Fatalf("fresh unknowns should be distinct: both %q", in.String(u))
	}
}

func TestUnifiableConstants(t *testing.T) {
	in := NewInterner()
	a := in.Intern("A")
	b := in.Intern("B")
	x := in.Intern("x")

	if in.Unifiable(a, b) {
		t.Fatalf("two distinct constants must not be unifiable")
	}
	if !in.Unifiable(a, a) {
		t.Fatalf("a constant must unify with itself")
	}
	if !in.Unifiable(a, x) {
		t.Fatalf("a constant and a variable must be unifiable")
	}
}

func TestUnknownNamesCounterOrder(t *testing.T) {
	in := NewInterner()
	u0 := in.FreshUnknown()
	u1 := in.FreshUnknown()
	if in.String(u0) != "_u0" || in.String(u1) != "_u1" {
		t.Fatalf("unexpected unknown names: %q %q", in.String(u0), in.String(u1))
	}
}
