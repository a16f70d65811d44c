package term

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLibraryReservedIDs(t *testing.T) {
	lib := NewLibrary()
	if id, _ := lib.Lookup("=", 2); id != EqualityPredicate {
		t.Fatalf("equality predicate should be id 1, got %d", id)
	}
	p, ok := lib.Get(InvalidPredicate)
	if !ok || p.Name != "" {
		t.Fatalf("id 0 should be the reserved invalid predicate")
	}
}

func TestLibraryAddIdempotent(t *testing.T) {
	lib := NewLibrary()
	before := lib.Len()
	id1, ok1 := lib.Add(Predicate{Name: "p", Arity: 1})
	id2, ok2 := lib.Add(Predicate{Name: "p", Arity: 1})
	if !ok1 || !ok2 || id1 != id2 {
		t.Fatalf("Add should be idempotent: %v %v %d %d", ok1, ok2, id1, id2)
	}
	if lib.Len() != before+1 {
		t.Fatalf("Add should only grow the library once, got len=%d", lib.Len())
	}
}

func TestLibraryRejectsInvalidPredicate(t *testing.T) {
	lib := NewLibrary()
	if _, ok := lib.Add(Predicate{Name: "", Arity: 1}); ok {
		t.Fatalf("empty-name predicate should be rejected")
	}
	if _, ok := lib.Add(Predicate{Name: "q", Arity: 0}); ok {
		t.Fatalf("zero-arity predicate should be rejected")
	}
}

func TestDeriveUnifiabilityRightUnique(t *testing.T) {
	pid, _ := NewLibrary().Add(Predicate{Name: "parentOf", Arity: 2})
	prop := NewProperty(pid, 2, FlagRightUnique)
	want := []Unifiability{UnifyWeaklyLimited, UnifyStronglyLimited}
	if diff := cmp.Diff(want, prop.Unifiability); diff != "" {
		t.Fatalf("unifiability mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveUnifiabilityUnrestrictedByDefault(t *testing.T) {
	pid, _ := NewLibrary().Add(Predicate{Name: "siblingOf", Arity: 3})
	prop := NewProperty(pid, 3, 0)
	want := []Unifiability{UnifyUnlimited, UnifyUnlimited, UnifyUnlimited}
	if diff := cmp.Diff(want, prop.Unifiability); diff != "" {
		t.Fatalf("unifiability mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupTags(t *testing.T) {
	r1 := Rule{Name: "g#r1"}
	r2 := Rule{Name: "g#r2"}
	r3 := Rule{Name: "h#r3"}
	if !r1.SharesGroup(r2) {
		t.Fatalf("r1 and r2 should share group g")
	}
	if r1.SharesGroup(r3) {
		t.Fatalf("r1 and r3 should not share a group")
	}
}

func TestEqualityCanonicalization(t *testing.T) {
	in := NewInterner()
	a, b := in.Intern("x"), in.Intern("y")
	eq := NewEquality(b, a, true)
	if eq.Terms[0] != a || eq.Terms[1] != b {
		t.Fatalf("equality atom should be sorted by term id: got %v", eq.Terms)
	}
}
