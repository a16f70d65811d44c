package proof

import "github.com/gitrdm/abductio/pkg/term"

// ancestorSet returns every node reachable by walking Node.Parents
// upward from n, not including n itself.
func (g *Graph) ancestorSet(n NodeID) map[NodeID]struct{} {
	seen := make(map[NodeID]struct{})
	var visit func(NodeID)
	visit = func(x NodeID) {
		if _, ok := seen[x]; ok {
			return
		}
		seen[x] = struct{}{}
		for _, p := range g.nodes[x].Parents {
			visit(p)
		}
	}
	for _, p := range g.nodes[n].Parents {
		visit(p)
	}
	return seen
}

// descendantSet returns every node reachable by walking the reverse of
// Node.Parents downward from n, not including n itself.
func (g *Graph) descendantSet(n NodeID) map[NodeID]struct{} {
	seen := make(map[NodeID]struct{})
	var visit func(NodeID)
	visit = func(x NodeID) {
		if _, ok := seen[x]; ok {
			return
		}
		seen[x] = struct{}{}
		for _, c := range g.children[x] {
			visit(c)
		}
	}
	for _, c := range g.children[n] {
		visit(c)
	}
	return seen
}

func sharesPredicate(set map[NodeID]struct{}, nodes []Node, pid term.PredicateID) bool {
	for n := range set {
		if nodes[n].Atom.Predicate == pid {
			return true
		}
	}
	return false
}

// wouldCycle checks for a cycle: when proposing to unify
// explainer into explained's position, enumerate the descendant set of
// explainer and the ancestor set of explained. If the two sets overlap,
// or share a predicate matching either node's own predicate, unifying
// them would close a self-referential loop.
func (g *Graph) wouldCycle(explainer, explained NodeID) bool {
	desc := g.descendantSet(explainer)
	anc := g.ancestorSet(explained)
	for n := range desc {
		if _, ok := anc[n]; ok {
			return true
		}
	}
	pid := g.nodes[explainer].Atom.Predicate
	if sharesPredicate(desc, g.nodes, pid) && sharesPredicate(anc, g.nodes, pid) {
		return true
	}
	return false
}

// MarkExplainedAway records that n was the "explained" side of a
// unification or chain step and must not be chained from again:
// chaining from a node that has just been unified away is forbidden.
func (g *Graph) MarkExplainedAway(n NodeID) {
	if g.explainedAway == nil {
		g.explainedAway = make(map[NodeID]struct{})
	}
	g.explainedAway[n] = struct{}{}
}

// IsExplainedAway reports whether n has been marked explained-away.
func (g *Graph) IsExplainedAway(n NodeID) bool {
	_, ok := g.explainedAway[n]
	return ok
}
