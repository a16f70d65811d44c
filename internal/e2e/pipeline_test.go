// Package e2e exercises the full text-in, XML-out pipeline (sexpr load,
// KB compile, proof-graph construction, ILP encoding, solving, XML
// rendering) the way cmd/abductio wires it, against a handful of named
// reasoning scenarios.
package e2e

import (
	"context"
	"strings"
	"testing"

	"github.com/gitrdm/abductio/pkg/ilp"
	"github.com/gitrdm/abductio/pkg/kb"
	"github.com/gitrdm/abductio/pkg/proof"
	"github.com/gitrdm/abductio/pkg/sexpr"
	"github.com/gitrdm/abductio/pkg/solve"
	"github.com/gitrdm/abductio/pkg/term"
	"github.com/gitrdm/abductio/pkg/xmlout"
)

// compileKB parses kbSource's (B ...) blocks and compiles them into a
// fresh query-mode KB under dir.
func compileKB(t *testing.T, dir, kbSource string) *kb.KnowledgeBase {
	t.Helper()
	in := term.NewInterner()

	forms, err := sexpr.ReadAll([]byte(kbSource), "kb")
	if err != nil {
		t.Fatalf("parsing KB source: %v", err)
	}
	doc, err := sexpr.NewLoader(in).Load(forms)
	if err != nil {
		t.Fatalf("loading KB source: %v", err)
	}

	store, err := kb.OpenCompile(dir, in, kb.Config{MaxDistance: 10, DistanceKey: "basic"})
	if err != nil {
		t.Fatalf("opening compile KB: %v", err)
	}
	for id, p := range doc.Predicates {
		if _, err := store.AddPredicate(p, doc.Flags[id]); err != nil {
			t.Fatalf("registering predicate %s: %v", p, err)
		}
	}
	for _, r := range doc.Rules {
		if _, err := store.AddRule(r); err != nil {
			t.Fatalf("adding rule %q: %v", r.Name, err)
		}
	}
	if err := store.Finalize(context.Background(), 2); err != nil {
		t.Fatalf("finalizing KB: %v", err)
	}

	q, err := kb.OpenQuery(dir)
	if err != nil {
		t.Fatalf("opening query KB: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

// runObservation parses obsSource's single (O ...) form against an
// already-opened query KB and runs it through the enumerate/encode/solve
// pipeline, returning the built graph and first solution.
func runObservation(t *testing.T, store *kb.KnowledgeBase, in *term.Interner, obsSource string) (*proof.Graph, solve.Solution) {
	t.Helper()
	forms, err := sexpr.ReadAll([]byte(obsSource), "obs")
	if err != nil {
		t.Fatalf("parsing observation: %v", err)
	}
	loader := sexpr.NewLoader(in)
	loader.SeedFromLibrary(store.Predicates())
	doc, err := loader.Load(forms)
	if err != nil {
		t.Fatalf("loading observation: %v", err)
	}
	if len(doc.Observations) != 1 {
		t.Fatalf("expected exactly one observation, got %d", len(doc.Observations))
	}
	obs := doc.Observations[0]

	g := proof.NewGraph(store, in)
	g.Inconsistencies = exclusionsOf(doc)
	for _, a := range obs.Atoms {
		g.AddObservation(a, 0, nil)
	}

	if err := (proof.BreadthFirstEnumerator{}).Run(context.Background(), g, proof.RunConfig{}); err != nil {
		t.Fatalf("enumerating: %v", err)
	}

	p := ilp.Encoder{Graph: g}.Encode()
	sols, err := solve.GreedySolver{}.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solving: %v", err)
	}
	if len(sols) == 0 {
		t.Fatal("expected at least one solution")
	}
	return g, sols[0]
}

func exclusionsOf(doc *sexpr.Document) proof.InconsistentPairs {
	if len(doc.Exclusions) == 0 {
		return nil
	}
	m := make(proof.InconsistentPairs, len(doc.Exclusions))
	for _, pair := range doc.Exclusions {
		m[pair.A] = append(m[pair.A], pair.B)
		m[pair.B] = append(m[pair.B], pair.A)
	}
	return m
}

// S1 — smallest abduction: KB p(x) => q(x), observation (q A) should
// introduce a hypothesis node p(A) reached by an abduction edge from the
// observed q(A), with both active in the optimal solution.
func TestS1SmallestAbduction(t *testing.T) {
	store := compileKB(t, t.TempDir(), `(B (=> (p X) (q X)) (name "pq"))`)
	in := term.NewInterner()
	g, sol := runObservation(t, store, in, `(O (^ (q A)))`)

	p, ok := store.Predicates().Lookup("p", 1)
	if !ok {
		t.Fatal("predicate p/1 not found in compiled KB")
	}
	a := in.Intern("A")

	var hypothesisNode proof.NodeID = proof.InvalidNode
	for i := 0; i < g.NodeCount(); i++ {
		n := g.Node(proof.NodeID(i))
		if n.Type == proof.NodeHypothesis && n.Atom.Predicate == p && len(n.Atom.Terms) == 1 && n.Atom.Terms[0] == a {
			hypothesisNode = proof.NodeID(i)
			break
		}
	}
	if hypothesisNode == proof.InvalidNode {
		t.Fatal("expected a hypothesis node p(A)")
	}

	var sawAbductionEdge bool
	for i := 0; i < g.EdgeCount(); i++ {
		e := g.Edge(proof.EdgeID(i))
		if e.IsUnification || e.Direction != proof.DirectionBackward {
			continue
		}
		for _, m := range g.Hypernode(e.Head).Members {
			if m == hypothesisNode {
				sawAbductionEdge = true
			}
		}
	}
	if !sawAbductionEdge {
		t.Fatal("expected an abduction edge whose head includes p(A)")
	}

	if !sol.VariableActive(sol.Problem.NodeVariable(hypothesisNode)) {
		t.Fatal("expected p(A) active in the optimal solution")
	}
}

// S2 — forbidden unification of constants: two observations of the same
// predicate over distinct constants must not be unified into a
// hypernode beyond their own singleton tails.
func TestS2NoUnificationOfDistinctConstants(t *testing.T) {
	store := compileKB(t, t.TempDir(), `(B (define (p x) ))`)
	in := term.NewInterner()
	g, _ := runObservation(t, store, in, `(O (^ (p A) (p B)))`)

	if g.NodeCount() != 2 {
		t.Fatalf("expected 2 observation nodes, got %d", g.NodeCount())
	}
	for i := 0; i < g.EdgeCount(); i++ {
		if g.Edge(proof.EdgeID(i)).IsUnification {
			t.Fatalf("expected no unification edge between distinct constants A and B")
		}
	}
}

// S4 — mutual exclusion: (xor (p x) (q x)) over a shared constant forces
// the solution to pick at most one of p(A)/q(A).
func TestS4MutualExclusion(t *testing.T) {
	store := compileKB(t, t.TempDir(), `(B (xor (p X) (q X)))`)
	in := term.NewInterner()
	g, sol := runObservation(t, store, in, `(O (^ (p A) (q A)))`)

	if len(g.Exclusions()) != 1 {
		t.Fatalf("expected 1 mutual-exclusion entry, got %d", len(g.Exclusions()))
	}

	active := 0
	for i := 0; i < g.NodeCount(); i++ {
		if sol.VariableActive(sol.Problem.NodeVariable(proof.NodeID(i))) {
			active++
		}
	}
	if active > 1 {
		t.Fatalf("expected at most one of p(A)/q(A) active, got %d", active)
	}
}

// TestCLIPipelineXMLOutputIsWellFormed runs S1's scenario end to end
// through xmlout.Write, the same call cmd/abductio makes per
// observation, and checks every top-level section appears.
func TestCLIPipelineXMLOutputIsWellFormed(t *testing.T) {
	store := compileKB(t, t.TempDir(), `(B (=> (p X) (q X)) (name "pq"))`)
	in := term.NewInterner()
	g, sol := runObservation(t, store, in, `(O (^ (q A)) (name "s1"))`)

	var buf strings.Builder
	timing := xmlout.Timing{}
	if err := xmlout.Write(&buf, "s1", "run-e2e", g, sol, timing, xmlout.Timeout{}); err != nil {
		t.Fatalf("writing XML: %v", err)
	}
	out := buf.String()
	for _, tag := range []string{"<proofgraph ", `id="run-e2e"`, "<time ", "<timeout ", "<requirements ", "<literals ", "<explanations ", "<unifications ", "</proofgraph>"} {
		if !strings.Contains(out, tag) {
			t.Fatalf("expected output to contain %q, got:\n%s", tag, out)
		}
	}
}

// TestLoaderSkipsMalformedFormsByDefault exercises the loader's default
// lenient behavior through the same Loader cmd/abductio uses: a
// malformed form is skipped, not fatal, and the well-formed remainder
// still loads.
func TestLoaderSkipsMalformedFormsByDefault(t *testing.T) {
	in := term.NewInterner()
	forms, err := sexpr.ReadAll([]byte(`(O (^ (p A))) (Unknown (foo bar))`), "mixed")
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	doc, err := sexpr.NewLoader(in).Load(forms)
	if err == nil {
		t.Fatal("expected a non-nil error for the skipped malformed form")
	}
	if len(doc.Observations) != 1 {
		t.Fatalf("expected the well-formed observation to still load, got %d", len(doc.Observations))
	}
}
