package kb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gitrdm/abductio/pkg/term"
)

func buildSmokeKB(t *testing.T, dir string) *term.Interner {
	t.Helper()
	in := term.NewInterner()

	k, err := OpenCompile(dir, in, Config{MaxDistance: 10, DistanceKey: "basic"})
	if err != nil {
		t.Fatal(err)
	}

	bird, err := k.AddPredicate(term.Predicate{Name: "bird", Arity: 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	flies, err := k.AddPredicate(term.Predicate{Name: "flies", Arity: 1}, 0)
	if err != nil {
		t.Fatal(err)
	}

	x := in.Intern("x")
	rule := term.Rule{
		Name: "wing#bird-flies",
		LHS:  term.Conjunction{Atoms: []term.Atom{term.NewAtom(bird, []term.ID{x}, true)}},
		RHS:  term.Conjunction{Atoms: []term.Atom{term.NewAtom(flies, []term.ID{x}, true)}},
	}
	if _, err := k.AddRule(rule); err != nil {
		t.Fatal(err)
	}

	if err := k.Finalize(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	return in
}

func TestCompileThenQueryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := buildSmokeKB(t, dir)

	q, err := OpenQuery(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	if q.RuleCount() != 1 {
		t.Fatalf("expected 1 compiled rule, got %d", q.RuleCount())
	}

	rule, err := q.Rule(0, in)
	if err != nil {
		t.Fatal(err)
	}
	if rule.Name != "wing#bird-flies" {
		t.Fatalf("unexpected rule name: %q", rule.Name)
	}
	if got := rule.GroupTags(); len(got) != 1 || got[0] != "wing" {
		t.Fatalf("unexpected group tags: %v", got)
	}

	ids := q.RuleIDsInGroup("wing")
	if len(ids) != 1 || ids[0] != 0 {
		t.Fatalf("unexpected rule ids in group wing: %v", ids)
	}

	bird, ok := q.Predicates().Lookup("bird", 1)
	if !ok {
		t.Fatal("bird/1 not found in query-mode predicate library")
	}
	flies, ok := q.Predicates().Lookup("flies", 1)
	if !ok {
		t.Fatal("flies/1 not found in query-mode predicate library")
	}

	if d := q.Distance(bird, flies); d != 1 {
		t.Fatalf("expected bird->flies distance 1, got %v", d)
	}

	occs, err := q.FeaturesFor(bird)
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 1 || !occs[0].IsBackward {
		t.Fatalf("expected one backward occurrence for bird, got %+v", occs)
	}
}

func TestOpenQueryRejectsVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	buildSmokeKB(t, dir)

	path := filepath.Join(dir, fileMeta)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[0] = 0xFF // corrupt the version byte
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenQuery(dir); err == nil {
		t.Fatal("expected version mismatch error")
	}
}
