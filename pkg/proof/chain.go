package proof

import "github.com/gitrdm/abductio/pkg/term"

// Chain applies a rule against a tail of already-present nodes. tail
// names the node indices being chained from; ruleID and isBackward
// select the rule and direction. Returns the index of the newly added
// head hypernode, or InvalidHypernode (-1) if the chain is refused — Chain
// never errors.
func (g *Graph) Chain(tail []NodeID, ruleID term.RuleID, isBackward bool) HypernodeID {
	if len(tail) == 0 {
		return InvalidHypernode
	}
	for _, t := range tail {
		if g.IsExplainedAway(t) {
			return InvalidHypernode
		}
	}

	tailHyper := g.getOrCreateHypernode(tail)
	key := appliedKey{rule: ruleID, hypernode: tailHyper, isBackward: isBackward}
	if _, seen := g.appliedRules[key]; seen {
		return InvalidHypernode
	}

	rule, err := g.KB.Rule(ruleID, g.Interner)
	if err != nil {
		return InvalidHypernode
	}

	var matchConj, headConj term.Conjunction
	if isBackward {
		// Abduction: tail observes the consequent (rhs); head hypothesizes
		// the antecedent (lhs).
		matchConj, headConj = rule.RHS, rule.LHS
	} else {
		// Deduction: tail holds the antecedent (lhs); head derives the
		// consequent (rhs).
		matchConj, headConj = rule.LHS, rule.RHS
	}
	if len(tail) != len(matchConj.Atoms) {
		return InvalidHypernode
	}

	subst := make(map[term.ID]term.ID)
	var positive, negative []TermPair
	for idx, tailID := range tail {
		tailAtom := g.nodes[tailID].Atom
		ruleAtom := matchConj.Atoms[idx]
		if len(tailAtom.Terms) != len(ruleAtom.Terms) {
			return InvalidHypernode
		}
		for k, ruleTerm := range ruleAtom.Terms {
			graphTerm := tailAtom.Terms[k]
			if existing, ok := subst[ruleTerm]; ok {
				if existing != graphTerm {
					pair := NewTermPair(existing, graphTerm)
					if ruleAtom.NAF {
						negative = append(negative, pair)
					} else {
						positive = append(positive, pair)
					}
				}
				continue
			}
			subst[ruleTerm] = graphTerm
		}
	}

	maxDepth := 0
	for _, t := range tail {
		if d := g.nodes[t].Depth; d > maxDepth {
			maxDepth = d
		}
	}
	headDepth := maxDepth + 1

	var headNodes []NodeID
	for _, ruleAtom := range headConj.Atoms {
		terms := make([]term.ID, len(ruleAtom.Terms))
		for k, ruleTerm := range ruleAtom.Terms {
			if gt, ok := subst[ruleTerm]; ok {
				terms[k] = gt
				continue
			}
			fresh := g.Interner.FreshUnknown()
			subst[ruleTerm] = fresh
			terms[k] = fresh
		}
		atom := term.NewAtom(ruleAtom.Predicate, terms, ruleAtom.Truth)
		atom.NAF = ruleAtom.NAF

		depth := headDepth
		nt := NodeHypothesis
		if atom.IsEquality() {
			depth = -1
			nt = NodeEquality
		}
		headNodes = append(headNodes, g.addNode(atom, nt, depth, tail))
	}

	headHyper := g.getOrCreateHypernode(headNodes)
	direction := DirectionForward
	if isBackward {
		direction = DirectionBackward
	}
	g.appliedRules[key] = struct{}{}
	g.addEdge(Edge{
		RuleID:       ruleID,
		Direction:    direction,
		Tail:         tailHyper,
		Head:         headHyper,
		PositiveSubs: positive,
		NegativeSubs: negative,
	})
	return headHyper
}
