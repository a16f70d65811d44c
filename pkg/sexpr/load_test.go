package sexpr_test

import (
	"testing"

	"github.com/gitrdm/abductio/pkg/sexpr"
	"github.com/gitrdm/abductio/pkg/term"
)

func TestLoaderBuildsRuleFromBlock(t *testing.T) {
	src := `(B (=> (bird X) (flies X)) (name "wing"))`
	forms, err := sexpr.ReadAll([]byte(src), "test")
	if err != nil {
		t.Fatal(err)
	}
	in := term.NewInterner()
	doc, err := sexpr.NewLoader(in).Load(forms)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(doc.Rules))
	}
	r := doc.Rules[0]
	if len(r.LHS.Atoms) != 1 || len(r.RHS.Atoms) != 1 {
		t.Fatalf("expected single-atom lhs/rhs, got %+v", r)
	}
	if got, want := r.GroupTags(), []string{"wing"}; len(got) != 1 || got[0] != want[0] {
		t.Fatalf("expected group tag %v, got %v", want, got)
	}
	if len(doc.Predicates) != 2 {
		t.Fatalf("expected bird/1 and flies/1 registered, got %d predicates", len(doc.Predicates))
	}
}

func TestLoaderBuildsObservationWithRequirement(t *testing.T) {
	src := `(O (^ (flies Tweety)) (req (bird Tweety)) (name "tweety"))`
	forms, err := sexpr.ReadAll([]byte(src), "test")
	if err != nil {
		t.Fatal(err)
	}
	in := term.NewInterner()
	doc, err := sexpr.NewLoader(in).Load(forms)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(doc.Observations))
	}
	obs := doc.Observations[0]
	if obs.Name != "tweety" {
		t.Fatalf("expected name %q, got %q", "tweety", obs.Name)
	}
	if len(obs.Atoms) != 1 || len(obs.Requirements) != 1 {
		t.Fatalf("unexpected observation shape: %+v", obs)
	}
}

func TestLoaderBuildsExclusionFromXor(t *testing.T) {
	src := `(B (xor (red X) (blue X)))`
	forms, err := sexpr.ReadAll([]byte(src), "test")
	if err != nil {
		t.Fatal(err)
	}
	in := term.NewInterner()
	doc, err := sexpr.NewLoader(in).Load(forms)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Exclusions) != 1 {
		t.Fatalf("expected 1 exclusion, got %d", len(doc.Exclusions))
	}
	if doc.Exclusions[0].A == doc.Exclusions[0].B {
		t.Fatal("expected two distinct predicates in the exclusion pair")
	}
}

func TestLoaderAppliesDefineProperties(t *testing.T) {
	src := `(B (define (parent-of X Y) right-unique asymmetric))`
	forms, err := sexpr.ReadAll([]byte(src), "test")
	if err != nil {
		t.Fatal(err)
	}
	in := term.NewInterner()
	doc, err := sexpr.NewLoader(in).Load(forms)
	if err != nil {
		t.Fatal(err)
	}
	var pid term.PredicateID
	for id, p := range doc.Predicates {
		if p.Name == "parent-of" {
			pid = id
		}
	}
	if pid == term.InvalidPredicate {
		t.Fatal("expected parent-of to be registered")
	}
	flags := doc.Flags[pid]
	if flags&term.FlagRightUnique == 0 || flags&term.FlagAsymmetric == 0 {
		t.Fatalf("expected right-unique and asymmetric flags, got %v", flags)
	}
}

func TestLoaderRejectsUnknownTopLevelForm(t *testing.T) {
	forms, err := sexpr.ReadAll([]byte(`(Q (foo bar))`), "test")
	if err != nil {
		t.Fatal(err)
	}
	in := term.NewInterner()
	if _, err := sexpr.NewLoader(in).Load(forms); err == nil {
		t.Fatal("expected an error for an unknown top-level form")
	}
}
