package proof

import "github.com/gitrdm/abductio/pkg/term"

func consideredKey(i, j NodeID) [2]NodeID {
	if i > j {
		i, j = j, i
	}
	return [2]NodeID{i, j}
}

// proposeUnification checks predicate id, arity, and term-pairwise
// unifiability; on success it locates or
// creates an equality sub-node per differing term pair, folds the pairs
// into the union-find variable clusters (materializing any newly
// induced transitive pairs), and records a unification edge. Returns
// true iff a new unification edge was recorded.
func (g *Graph) proposeUnification(i, j NodeID) bool {
	key := consideredKey(i, j)
	if _, seen := g.consideredUnify[key]; seen {
		return false
	}
	g.consideredUnify[key] = struct{}{}

	ni, nj := g.nodes[i], g.nodes[j]
	if ni.Atom.Predicate != nj.Atom.Predicate {
		return false
	}
	if len(ni.Atom.Terms) != len(nj.Atom.Terms) {
		return false
	}

	if g.needsPostponement(ni.Atom, nj.Atom) {
		g.postponedUnify = append(g.postponedUnify, postponedPair{i: i, j: j})
		return false
	}

	var pairs []TermPair
	for k := range ni.Atom.Terms {
		ta, tb := ni.Atom.Terms[k], nj.Atom.Terms[k]
		if ta == tb {
			continue
		}
		if !g.Interner.Unifiable(ta, tb) {
			return false
		}
		pairs = append(pairs, NewTermPair(ta, tb))
	}
	if len(pairs) == 0 {
		return false // atoms are already term-identical; nothing to unify
	}

	if g.wouldCycle(i, j) || g.wouldCycle(j, i) {
		g.recordExclusion(i, j, nil)
		return false
	}
	if g.IsExplainedAway(i) || g.IsExplainedAway(j) {
		return false
	}

	headNodes := make([]NodeID, 0, len(pairs))
	for _, p := range pairs {
		headNodes = append(headNodes, g.getOrCreateEqualityNode(p))
		if g.uf.union(p.A, p.B) {
			g.materializeTransitiveClosure(p.A, p.B)
		}
	}

	tail := g.getOrCreateHypernode([]NodeID{i, j})
	head := g.getOrCreateHypernode(headNodes)
	g.addEdge(Edge{Direction: DirectionForward, Tail: tail, Head: head, IsUnification: true})
	return true
}

// needsPostponement implements the unification-postponement rule: two
// atoms of a right-unique (functional) predicate require their governor
// argument positions (every slot but the last) to already be unified
// before the dependent slot may be unified.
func (g *Graph) needsPostponement(a, b term.Atom) bool {
	prop, ok := g.KB.Predicates().Property(a.Predicate)
	if !ok || !prop.Is(term.FlagRightUnique) {
		return false
	}
	if len(a.Terms) < 2 {
		return false
	}
	for k := 0; k < len(a.Terms)-1; k++ {
		if a.Terms[k] == b.Terms[k] {
			continue
		}
		if !g.uf.sameCluster(a.Terms[k], b.Terms[k]) {
			return true
		}
	}
	return false
}

// retryPostponed re-attempts every postponed unification pair, dropping
// any that are no longer postponed (whether they now succeed or are
// permanently refused).
func (g *Graph) retryPostponed() {
	if len(g.postponedUnify) == 0 {
		return
	}
	pending := g.postponedUnify
	g.postponedUnify = nil
	for _, p := range pending {
		delete(g.consideredUnify, consideredKey(p.i, p.j))
		g.proposeUnification(p.i, p.j)
	}
}

// getOrCreateEqualityNode returns the (positive) equality sub-node for
// pair, creating it via the full add-node path if absent.
func (g *Graph) getOrCreateEqualityNode(pair TermPair) NodeID {
	if id, ok := g.subNode[pair]; ok {
		return id
	}
	atom := term.NewEquality(pair.A, pair.B, true)
	return g.addNode(atom, NodeEquality, -1, nil)
}

// materializeTransitiveClosure records equality sub-nodes for every pair
// newly connected by merging the clusters containing a and b, skipping
// constant-constant pairs (unreachable: two distinct constants can never
// be unified).
func (g *Graph) materializeTransitiveClosure(a, b term.ID) {
	membersA := g.uf.membersOf(g.uf.find(a))
	membersB := g.uf.membersOf(g.uf.find(b))
	for _, x := range membersA {
		for _, y := range membersB {
			if x == y {
				continue
			}
			if g.Interner.IsConstant(x) && g.Interner.IsConstant(y) {
				continue
			}
			g.getOrCreateEqualityNode(NewTermPair(x, y))
		}
	}
}

func memberKey(members []NodeID) string {
	sorted := append([]NodeID(nil), members...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	buf := make([]byte, 0, len(sorted)*8)
	for _, id := range sorted {
		buf = appendInt(buf, int64(id))
		buf = append(buf, ',')
	}
	return string(buf)
}

func appendInt(buf []byte, v int64) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	if v < 0 {
		buf = append(buf, '-')
		v = -v
	}
	start := len(buf)
	for v > 0 {
		buf = append(buf, byte('0'+v%10))
		v /= 10
	}
	for l, r := start, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return buf
}

// getOrCreateHypernode returns the hypernode grouping exactly members,
// deduplicated by member set, creating one if absent.
func (g *Graph) getOrCreateHypernode(members []NodeID) HypernodeID {
	key := memberKey(members)
	if id, ok := g.hypernodeByKey[key]; ok {
		return id
	}
	id := HypernodeID(len(g.hypernodes))
	g.hypernodes = append(g.hypernodes, Hypernode{ID: id, Members: append([]NodeID(nil), members...)})
	g.hypernodeByKey[key] = id
	for _, m := range members {
		g.masterHypernodes[m] = append(g.masterHypernodes[m], id)
	}
	return id
}

func (g *Graph) addEdge(e Edge) EdgeID {
	id := EdgeID(len(g.edges))
	e.ID = id
	g.edges = append(g.edges, e)
	if e.Head != InvalidHypernode && e.Tail != InvalidHypernode {
		h := g.hypernodes[e.Head]
		h.Parents = append(h.Parents, e.Tail)
		g.hypernodes[e.Head] = h
	}
	if !e.IsUnification {
		g.retryPostponed()
	}
	return id
}
