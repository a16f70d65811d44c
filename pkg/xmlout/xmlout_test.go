package xmlout_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gitrdm/abductio/pkg/ilp"
	"github.com/gitrdm/abductio/pkg/kb"
	"github.com/gitrdm/abductio/pkg/proof"
	"github.com/gitrdm/abductio/pkg/solve"
	"github.com/gitrdm/abductio/pkg/term"
	"github.com/gitrdm/abductio/pkg/xmlout"
)

func buildGraph(t *testing.T) *proof.Graph {
	t.Helper()
	dir := t.TempDir()
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
	x := in.Intern("x")
	rule := term.Rule{
		Name: "wing#bird-flies",
		LHS:  term.Conjunction{Atoms: []term.Atom{term.NewAtom(bird, []term.ID{x}, true)}},
		RHS:  term.Conjunction{Atoms: []term.Atom{term.NewAtom(flies, []term.ID{x}, true)}},
	}
	if _, err := c.AddRule(rule); err != nil {
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

	g := proof.NewGraph(q, in)
	tweety := in.Intern("tweety")
	obs := g.AddObservation(term.NewAtom(flies, []term.ID{tweety}, true), 0, nil)
	for _, cand := range g.CandidatesForNode(obs) {
		g.Chain(cand.Tail, cand.RuleID, cand.IsBackward)
	}
	return g
}

func TestWriteProducesWellFormedSections(t *testing.T) {
	g := buildGraph(t)
	p := ilp.Encoder{Graph: g}.Encode()
	sols, err := solve.GreedySolver{}.Solve(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(sols) != 1 {
		t.Fatalf("expected one solution, got %d", len(sols))
	}

	var buf bytes.Buffer
	timing := xmlout.Timing{LHS: 10 * time.Millisecond, ILP: 5 * time.Millisecond, Sol: 2 * time.Millisecond, All: 17 * time.Millisecond}
	if err := xmlout.Write(&buf, "test", "run-1", g, sols[0], timing, xmlout.Timeout{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, tag := range []string{"<proofgraph ", "<time ", "<timeout ", "<requirements ", "<literals ", "<explanations ", "<unifications ", "</proofgraph>"} {
		if !strings.Contains(out, tag) {
			t.Fatalf("expected output to contain %q, got:\n%s", tag, out)
		}
	}
	if !strings.Contains(out, `type="observation"`) {
		t.Fatalf("expected at least one observation literal, got:\n%s", out)
	}
	if !strings.Contains(out, `type="hypothesis"`) {
		t.Fatalf("expected at least one hypothesis literal, got:\n%s", out)
	}
}

func TestWriteEscapesAttributeAndTextContent(t *testing.T) {
	g := buildGraph(t)
	p := ilp.Encoder{Graph: g}.Encode()
	sols, err := solve.GreedySolver{}.Solve(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := xmlout.Write(&buf, `a "quoted" & <name>`, "run-2", g, sols[0], xmlout.Timing{}, xmlout.Timeout{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, `a "quoted"`) {
		t.Fatalf("expected the document name's quotes to be escaped, got:\n%s", out)
	}
	if !strings.Contains(out, "&quot;quoted&quot;") {
		t.Fatalf("expected &quot; escaping in the name attribute, got:\n%s", out)
	}
}
