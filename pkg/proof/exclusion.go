package proof

import "github.com/gitrdm/abductio/pkg/term"

// InconsistentPairs declares predicate pairs the KB has marked mutually
// inconsistent, an explicit inconsistency declaration from the KB. This
// is a lightweight, same-arity,
// same-position correspondence: p(x1..xn) and q(x1..xn) are treated as
// inconsistent the same way two opposite-truth atoms of the same
// predicate are (source 1), just across predicate identity instead of
// truth sign. Populate before building the graph; nil/empty disables
// source 2 entirely.
type InconsistentPairs map[term.PredicateID][]term.PredicateID

func (m InconsistentPairs) partnersOf(pid term.PredicateID) []term.PredicateID {
	if m == nil {
		return nil
	}
	return m[pid]
}

// enumerateExclusions implements add-node step 5 for the newly added
// node id: it checks all three mutual-exclusion sources against every
// existing node that could conflict with it.
func (g *Graph) enumerateExclusions(id NodeID) {
	a := g.nodes[id].Atom

	// Source 1: same predicate, opposite truth signs.
	for _, other := range g.byPredicate[a.Predicate] {
		if other == id {
			continue
		}
		b := g.nodes[other].Atom
		if b.Truth == a.Truth {
			continue
		}
		if pairs, ok := g.termwiseUnifier(a, b); ok {
			g.recordExclusion(id, other, pairs)
		}
	}

	// Source 2: explicit KB inconsistency declarations.
	for _, partner := range g.Inconsistencies.partnersOf(a.Predicate) {
		for _, other := range g.byPredicate[partner] {
			b := g.nodes[other].Atom
			if pairs, ok := g.termwiseUnifier(a, b); ok {
				g.recordExclusion(id, other, pairs)
			}
		}
	}

	// Source 3: functional-predicate conflicts (right-unique predicate
	// mapping the same governor to two distinct dependents).
	prop, hasProp := g.KB.Predicates().Property(a.Predicate)
	if hasProp && prop.Is(term.FlagRightUnique) && len(a.Terms) >= 2 {
		for _, other := range g.byPredicate[a.Predicate] {
			if other == id {
				continue
			}
			b := g.nodes[other].Atom
			if b.Truth != a.Truth {
				continue // already covered by source 1
			}
			if g.sameGovernor(a, b) && a.Terms[len(a.Terms)-1] != b.Terms[len(b.Terms)-1] {
				dep := NewTermPair(a.Terms[len(a.Terms)-1], b.Terms[len(b.Terms)-1])
				g.recordExclusion(id, other, []TermPair{dep})
			}
		}
	}
}

// termwiseUnifier returns the set of differing-term pairs between two
// same-predicate, same-arity atoms, and whether every pair is in fact
// unifiable (an exclusion with an unsatisfiable unifier is dropped).
func (g *Graph) termwiseUnifier(a, b term.Atom) ([]TermPair, bool) {
	if len(a.Terms) != len(b.Terms) {
		return nil, false
	}
	var pairs []TermPair
	for k := range a.Terms {
		if a.Terms[k] == b.Terms[k] {
			continue
		}
		if !g.Interner.Unifiable(a.Terms[k], b.Terms[k]) {
			return nil, false
		}
		pairs = append(pairs, NewTermPair(a.Terms[k], b.Terms[k]))
	}
	return pairs, true
}

func (g *Graph) sameGovernor(a, b term.Atom) bool {
	for k := 0; k < len(a.Terms)-1; k++ {
		if a.Terms[k] != b.Terms[k] {
			return false
		}
	}
	return true
}

func (g *Graph) recordExclusion(n1, n2 NodeID, unifier []TermPair) {
	g.exclusions = append(g.exclusions, Exclusion{N1: n1, N2: n2, Unifier: unifier})
}
