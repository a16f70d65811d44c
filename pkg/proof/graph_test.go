package proof

import (
	"context"
	"testing"

	"github.com/gitrdm/abductio/pkg/kb"
	"github.com/gitrdm/abductio/pkg/term"
)

// buildFlightKB compiles a tiny two-rule KB: bird(x) => flies(x), and
// penguin(x) => bird(x). Returns the query-mode KB, its interner, and the
// three predicate ids.
func buildFlightKB(t *testing.T, dir string) (*kb.KnowledgeBase, *term.Interner, term.PredicateID, term.PredicateID, term.PredicateID) {
	t.Helper()
	in := term.NewInterner()

	c, err := kb.OpenCompile(dir, in, kb.Config{MaxDistance: 10, DistanceKey: "basic"})
	if err != nil {
		t.Fatal(err)
	}

	bird, err := c.AddPredicate(term.Predicate{Name: "bird", Arity: 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	flies, err := c.AddPredicate(term.Predicate{Name: "flies", Arity: 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	penguin, err := c.AddPredicate(term.Predicate{Name: "penguin", Arity: 1}, 0)
	if err != nil {
		t.Fatal(err)
	}

	x := in.Intern("x")
	wing := term.Rule{
		Name: "wing#bird-flies",
		LHS:  term.Conjunction{Atoms: []term.Atom{term.NewAtom(bird, []term.ID{x}, true)}},
		RHS:  term.Conjunction{Atoms: []term.Atom{term.NewAtom(flies, []term.ID{x}, true)}},
	}
	taxon := term.Rule{
		Name: "taxon#penguin-bird",
		LHS:  term.Conjunction{Atoms: []term.Atom{term.NewAtom(penguin, []term.ID{x}, true)}},
		RHS:  term.Conjunction{Atoms: []term.Atom{term.NewAtom(bird, []term.ID{x}, true)}},
	}
	if _, err := c.AddRule(wing); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddRule(taxon); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(context.Background(), 2); err != nil {
		t.Fatal(err)
	}

	q, err := kb.OpenQuery(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { q.Close() })

	return q, in, bird, flies, penguin
}

func TestAddObservationIndexesNode(t *testing.T) {
	q, in, bird, _, _ := buildFlightKB(t, t.TempDir())
	g := NewGraph(q, in)

	tweety := in.Intern("tweety")
	id := g.AddObservation(term.NewAtom(bird, []term.ID{tweety}, true), 0, nil)

	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}
	nodes := g.NodesWithPredicate(bird)
	if len(nodes) != 1 || nodes[0] != id {
		t.Fatalf("unexpected predicate index: %v", nodes)
	}
}

func TestChainBackwardAbduction(t *testing.T) {
	q, in, _, flies, _ := buildFlightKB(t, t.TempDir())
	g := NewGraph(q, in)

	tweety := in.Intern("tweety")
	obs := g.AddObservation(term.NewAtom(flies, []term.ID{tweety}, true), 0, nil)

	cands := g.CandidatesForNode(obs)
	if len(cands) != 1 || !cands[0].IsBackward {
		t.Fatalf("expected one backward candidate, got %+v", cands)
	}

	head := g.Chain(cands[0].Tail, cands[0].RuleID, cands[0].IsBackward)
	if head == InvalidHypernode {
		t.Fatal("expected a valid head hypernode")
	}
	hn := g.Hypernode(head)
	if len(hn.Members) != 1 {
		t.Fatalf("expected single-member head hypernode, got %+v", hn)
	}
	headNode := g.Node(hn.Members[0])
	if headNode.Type != NodeHypothesis {
		t.Fatalf("expected a hypothesis node, got %v", headNode.Type)
	}
	if headNode.Depth != 1 {
		t.Fatalf("expected head depth 1, got %d", headNode.Depth)
	}

	// Repeating the same chain is refused by the idempotency key.
	if again := g.Chain(cands[0].Tail, cands[0].RuleID, cands[0].IsBackward); again != InvalidHypernode {
		t.Fatalf("expected repeated chain to be refused, got %v", again)
	}
}

func TestChainForwardDeduction(t *testing.T) {
	q, in, bird, flies, _ := buildFlightKB(t, t.TempDir())
	g := NewGraph(q, in)

	tweety := in.Intern("tweety")
	obs := g.AddObservation(term.NewAtom(bird, []term.ID{tweety}, true), 0, nil)

	var fwd ChainCandidate
	found := false
	for _, c := range g.CandidatesForNode(obs) {
		if !c.IsBackward {
			fwd = c
			found = true
		}
	}
	if !found {
		t.Fatal("expected a forward candidate from bird(tweety)")
	}

	head := g.Chain(fwd.Tail, fwd.RuleID, fwd.IsBackward)
	if head == InvalidHypernode {
		t.Fatal("expected a valid head hypernode")
	}
	headNode := g.Node(g.Hypernode(head).Members[0])
	if headNode.Atom.Predicate != flies {
		t.Fatalf("expected derived flies atom, got predicate %d", headNode.Atom.Predicate)
	}
}

func TestProposeUnificationMergesUnifiableAtoms(t *testing.T) {
	q, in, bird, _, _ := buildFlightKB(t, t.TempDir())
	g := NewGraph(q, in)

	a := in.Intern("a")
	b := in.Intern("b")

	n1 := g.AddObservation(term.NewAtom(bird, []term.ID{a}, true), 0, nil)
	edgesBefore := g.EdgeCount()
	n2 := g.AddObservation(term.NewAtom(bird, []term.ID{b}, true), 0, nil)

	if g.EdgeCount() <= edgesBefore {
		t.Fatal("expected a unification edge after adding the second bird atom")
	}
	if !g.uf.sameCluster(a, b) {
		t.Fatal("expected a and b to land in the same variable cluster")
	}
	_ = n1
	_ = n2
}

func TestEnumerateMutualExclusiveEdges(t *testing.T) {
	q, in, bird, _, _ := buildFlightKB(t, t.TempDir())
	g := NewGraph(q, in)

	a := in.Intern("a")
	pos := g.AddObservation(term.NewAtom(bird, []term.ID{a}, true), 0, nil)
	neg := g.AddObservation(term.NewAtom(bird, []term.ID{a}, false), 0, nil)

	if len(g.EnumerateMutualExclusiveNodes()) == 0 {
		t.Fatal("expected a node exclusion between opposite-truth bird(a) atoms")
	}

	// Give each node a producing edge by chaining a forward rule from it
	// is not applicable here (bird has no lhs match producing bird
	// itself), so instead verify the edge-exclusion helper degrades to
	// empty when neither node is the head of any edge yet.
	if edges := g.EnumerateMutualExclusiveEdges(); len(edges) != 0 {
		t.Fatalf("expected no edge exclusions without producing edges, got %v", edges)
	}
	_ = pos
	_ = neg
}

func TestChainRefusesFromExplainedAwayNode(t *testing.T) {
	q, in, _, flies, _ := buildFlightKB(t, t.TempDir())
	g := NewGraph(q, in)

	tweety := in.Intern("tweety")
	obs := g.AddObservation(term.NewAtom(flies, []term.ID{tweety}, true), 0, nil)
	g.MarkExplainedAway(obs)

	cands := g.CandidatesForNode(obs)
	if len(cands) == 0 {
		t.Fatal("expected at least one candidate to attempt")
	}
	if head := g.Chain(cands[0].Tail, cands[0].RuleID, cands[0].IsBackward); head != InvalidHypernode {
		t.Fatal("expected chain from an explained-away node to be refused")
	}
}
