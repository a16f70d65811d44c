package proof

import (
	"context"
	"testing"
	"time"

	"github.com/gitrdm/abductio/pkg/term"
)

func TestBreadthFirstEnumeratorDerivesFlight(t *testing.T) {
	q, in, _, _, penguin := buildFlightKB(t, t.TempDir())
	g := NewGraph(q, in)

	tweety := in.Intern("tweety")
	g.AddObservation(term.NewAtom(penguin, []term.ID{tweety}, true), 0, nil)

	var bfs BreadthFirstEnumerator
	if err := bfs.Run(context.Background(), g, RunConfig{MaxDepth: 5}); err != nil {
		t.Fatal(err)
	}

	if g.NodeCount() < 3 {
		t.Fatalf("expected penguin to chain forward through bird to flies, got %d nodes", g.NodeCount())
	}
	if g.TimedOut {
		t.Fatal("did not expect a timeout")
	}
}

func TestAStarEnumeratorDerivesFlight(t *testing.T) {
	q, in, _, flies, _ := buildFlightKB(t, t.TempDir())
	g := NewGraph(q, in)

	tweety := in.Intern("tweety")
	g.AddObservation(term.NewAtom(flies, []term.ID{tweety}, true), 0, nil)

	var astar AStarEnumerator
	if err := astar.Run(context.Background(), g, RunConfig{MaxDepth: 5}); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, n := range g.byType[NodeHypothesis] {
		if g.Node(n).Atom.Predicate != 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one hypothesis node from abductive chaining")
	}
}

func TestEnumeratorRespectsTimeout(t *testing.T) {
	q, in, _, flies, _ := buildFlightKB(t, t.TempDir())
	g := NewGraph(q, in)

	tweety := in.Intern("tweety")
	g.AddObservation(term.NewAtom(flies, []term.ID{tweety}, true), 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	var bfs BreadthFirstEnumerator
	if err := bfs.Run(ctx, g, RunConfig{}); err != nil {
		t.Fatal(err)
	}
	if !g.TimedOut {
		t.Fatal("expected TimedOut to be set once the context expired")
	}
}
