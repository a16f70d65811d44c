package proof

import (
	"container/heap"
	"context"

	"github.com/gitrdm/abductio/pkg/kb"
	"github.com/gitrdm/abductio/pkg/term"
)

// ChainCandidate is one scheduling option the enumerator can choose to
// apply: chain ruleID from tail in the given direction. Ported from
// original_source/src/proof_graph.h's chain_candidate_t.
type ChainCandidate struct {
	Tail       []NodeID
	RuleID     term.RuleID
	IsBackward bool
}

// RunConfig bounds one enumerator run.
type RunConfig struct {
	MaxDepth int
}

// Enumerator decides the order nodes are chained and unified in,
// driving the proof graph to completion or timeout.
type Enumerator interface {
	Run(ctx context.Context, g *Graph, cfg RunConfig) error
}

// CandidatesForNode enumerates the single-atom-conjunction chaining
// options available from node n, by asking the KB's feature index which
// rules have a matching lhs or rhs predicate. Multi-atom conjunction
// joins (requiring several tail nodes matched jointly) are not
// enumerated here — see DESIGN.md for the scope note.
func (g *Graph) CandidatesForNode(n NodeID) []ChainCandidate {
	pid := g.nodes[n].Atom.Predicate
	matches, err := g.KB.MatchesFor(term.Feature{pid}, nil)
	if err != nil {
		return nil
	}
	var out []ChainCandidate
	for _, m := range matches {
		rule, err := g.KB.Rule(m.RuleID, g.Interner)
		if err != nil {
			continue
		}
		if m.IsBackward {
			// pid occurs on the rule's lhs: forward/deductive chain.
			if len(rule.LHS.Atoms) == 1 {
				out = append(out, ChainCandidate{Tail: []NodeID{n}, RuleID: m.RuleID, IsBackward: false})
			}
		} else {
			// pid occurs on the rule's rhs: backward/abductive chain.
			if len(rule.RHS.Atoms) == 1 {
				out = append(out, ChainCandidate{Tail: []NodeID{n}, RuleID: m.RuleID, IsBackward: true})
			}
		}
	}
	return out
}

// BreadthFirstEnumerator processes the frontier in FIFO order, bounding
// search by node depth.
type BreadthFirstEnumerator struct{}

func (BreadthFirstEnumerator) Run(ctx context.Context, g *Graph, cfg RunConfig) error {
	queue := make([]NodeID, g.NodeCount())
	for i := range queue {
		queue[i] = NodeID(i)
	}
	expanded := make(map[NodeID]struct{})

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			g.TimedOut = true
			return nil
		default:
		}

		n := queue[0]
		queue = queue[1:]
		if _, done := expanded[n]; done {
			continue
		}
		expanded[n] = struct{}{}

		if cfg.MaxDepth > 0 && g.nodes[n].Depth > cfg.MaxDepth {
			continue
		}

		before := g.NodeCount()
		for _, c := range g.CandidatesForNode(n) {
			g.Chain(c.Tail, c.RuleID, c.IsBackward)
		}
		for i := before; i < g.NodeCount(); i++ {
			queue = append(queue, NodeID(i))
		}
	}
	return nil
}

// AStarEnumerator processes the frontier in order of accumulated depth
// plus a reachability-matrix heuristic estimating remaining distance to
// the graph's original observations.
type AStarEnumerator struct{}

type astarItem struct {
	node     NodeID
	priority float32
	index    int
}

type astarQueue []*astarItem

func (q astarQueue) Len() int            { return len(q) }
func (q astarQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q astarQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index, q[j].index = i, j }
func (q *astarQueue) Push(x interface{}) { it := x.(*astarItem); it.index = len(*q); *q = append(*q, it) }
func (q *astarQueue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

func (AStarEnumerator) Run(ctx context.Context, g *Graph, cfg RunConfig) error {
	pq := &astarQueue{}
	heap.Init(pq)
	for i := 0; i < g.NodeCount(); i++ {
		n := NodeID(i)
		heap.Push(pq, &astarItem{node: n, priority: astarHeuristic(g, n)})
	}
	expanded := make(map[NodeID]struct{})

	for pq.Len() > 0 {
		select {
		case <-ctx.Done():
			g.TimedOut = true
			return nil
		default:
		}

		item := heap.Pop(pq).(*astarItem)
		n := item.node
		if _, done := expanded[n]; done {
			continue
		}
		expanded[n] = struct{}{}

		if cfg.MaxDepth > 0 && g.nodes[n].Depth > cfg.MaxDepth {
			continue
		}

		before := g.NodeCount()
		for _, c := range g.CandidatesForNode(n) {
			g.Chain(c.Tail, c.RuleID, c.IsBackward)
		}
		for i := before; i < g.NodeCount(); i++ {
			nn := NodeID(i)
			heap.Push(pq, &astarItem{node: nn, priority: float32(g.nodes[nn].Depth) + astarHeuristic(g, nn)})
		}
	}
	return nil
}

// astarHeuristic estimates remaining distance from node n's predicate to
// the nearest depth-0 observation, via the KB reachability matrix.
func astarHeuristic(g *Graph, n NodeID) float32 {
	pid := g.nodes[n].Atom.Predicate
	best := float32(-1)
	for _, obs := range g.byDepth[0] {
		if obs == n {
			continue
		}
		d := g.KB.Distance(pid, g.nodes[obs].Atom.Predicate)
		if d == kb.Unreachable {
			continue
		}
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
