package proof

import (
	"github.com/gitrdm/abductio/pkg/kb"
	"github.com/gitrdm/abductio/pkg/term"
)

// Graph is the incrementally-built proof graph for one observation. It is
// built by a single-threaded driver: no internal locking.
type Graph struct {
	KB       *kb.KnowledgeBase
	Interner *term.Interner

	nodes      []Node
	hypernodes []Hypernode
	edges      []Edge

	byPredicate map[term.PredicateID][]NodeID
	byTerm      map[term.ID][]NodeID
	byDepth     map[int][]NodeID
	byType      map[NodeType][]NodeID

	subNode    map[TermPair]NodeID
	negSubNode map[TermPair]NodeID

	masterHypernodes map[NodeID][]HypernodeID
	hypernodeByKey   map[string]HypernodeID
	children         map[NodeID][]NodeID
	explainedAway    map[NodeID]struct{}

	uf *unionFind

	consideredUnify map[[2]NodeID]struct{}
	postponedUnify  []postponedPair

	exclusions []Exclusion

	appliedRules map[appliedKey]struct{}

	// Inconsistencies declares predicate-pair mutual exclusions from the
	// KB (exclusion source 2). Optional; nil disables source 2.
	Inconsistencies InconsistentPairs

	TimedOut bool
}

type postponedPair struct{ i, j NodeID }

type appliedKey struct {
	rule       term.RuleID
	hypernode  HypernodeID
	isBackward bool
}

// NewGraph returns an empty proof graph over kb (opened in query mode).
func NewGraph(k *kb.KnowledgeBase, interner *term.Interner) *Graph {
	return &Graph{
		KB:               k,
		Interner:         interner,
		byPredicate:      make(map[term.PredicateID][]NodeID),
		byTerm:           make(map[term.ID][]NodeID),
		byDepth:          make(map[int][]NodeID),
		byType:           make(map[NodeType][]NodeID),
		subNode:          make(map[TermPair]NodeID),
		negSubNode:       make(map[TermPair]NodeID),
		masterHypernodes: make(map[NodeID][]HypernodeID),
		hypernodeByKey:   make(map[string]HypernodeID),
		children:         make(map[NodeID][]NodeID),
		uf:               newUnionFind(),
		consideredUnify:  make(map[[2]NodeID]struct{}),
		appliedRules:     make(map[appliedKey]struct{}),
	}
}

// Node returns the node stored at id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Hypernode returns the hypernode stored at id.
func (g *Graph) Hypernode(id HypernodeID) Hypernode { return g.hypernodes[id] }

// HypernodeCount returns the number of hypernodes in the graph.
func (g *Graph) HypernodeCount() int { return len(g.hypernodes) }

// Edge returns the edge stored at id.
func (g *Graph) Edge(id EdgeID) Edge { return g.edges[id] }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// MasterHypernodes returns every hypernode that counts n as a member
// (constraint family 2).
func (g *Graph) MasterHypernodes(n NodeID) []HypernodeID { return g.masterHypernodes[n] }

// NodesWithPredicate returns every node whose atom uses predicate pid.
func (g *Graph) NodesWithPredicate(pid term.PredicateID) []NodeID { return g.byPredicate[pid] }

// Exclusions returns every recorded mutual-exclusion pair.
func (g *Graph) Exclusions() []Exclusion { return g.exclusions }

// EnumerateMutualExclusiveNodes returns every recorded node-pair mutual
// exclusion, used by the ILP encoder's constraint family 5.
func (g *Graph) EnumerateMutualExclusiveNodes() []Exclusion { return g.exclusions }

// EdgeExclusion is a pair of edges that cannot both be selected: each
// produces, in its head hypernode, a node mutually exclusive with a node
// the other produces.
type EdgeExclusion struct{ E1, E2 EdgeID }

// EnumerateMutualExclusiveEdges derives edge-level mutual exclusion from
// node-level exclusion: if edge e1's head contains n1 and e2's head
// contains n2, and (n1, n2) is a recorded node exclusion, then e1 and e2
// cannot both be selected. Used by the ILP encoder's constraint family 8.
func (g *Graph) EnumerateMutualExclusiveEdges() []EdgeExclusion {
	producedBy := make(map[NodeID][]EdgeID)
	for _, e := range g.edges {
		if e.Head == InvalidHypernode {
			continue
		}
		for _, m := range g.hypernodes[e.Head].Members {
			producedBy[m] = append(producedBy[m], e.ID)
		}
	}

	seen := make(map[[2]EdgeID]struct{})
	var out []EdgeExclusion
	for _, excl := range g.exclusions {
		for _, e1 := range producedBy[excl.N1] {
			for _, e2 := range producedBy[excl.N2] {
				if e1 == e2 {
					continue
				}
				key := [2]EdgeID{e1, e2}
				if key[0] > key[1] {
					key[0], key[1] = key[1], key[0]
				}
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, EdgeExclusion{E1: key[0], E2: key[1]})
			}
		}
	}
	return out
}

// EnumerateVariableClusters returns the current union-find partition of
// terms, used by the ILP encoder's constraint family 6 (transitive
// unification) and exposed for diagnostics.
func (g *Graph) EnumerateVariableClusters() [][]term.ID { return g.uf.clusters() }

// EqualityNode returns the positive equality sub-node recorded for pair,
// if one has been added (via a unification step or directly), used by
// the ILP encoder's constraint families 5, 6 and 7 to find the variable
// representing whether two terms coincide.
func (g *Graph) EqualityNode(pair TermPair) (NodeID, bool) {
	id, ok := g.subNode[pair]
	return id, ok
}

// NegatedEqualityNode returns the negative equality sub-node recorded
// for pair, if one has been added.
func (g *Graph) NegatedEqualityNode(pair TermPair) (NodeID, bool) {
	id, ok := g.negSubNode[pair]
	return id, ok
}

// addNodeRaw appends a node and updates the four lookup indices (add-node
// steps 1–2). It does not perform equality sub-node registration,
// unification proposals, or exclusion enumeration — callers needing the
// full five-step add-node operation should use AddObservation or the
// internal chain/unify helpers that call this plus the remaining steps.
func (g *Graph) addNodeRaw(a term.Atom, t NodeType, depth int, parents []NodeID) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Atom: a, Type: t, Depth: depth, Parents: parents})

	g.byPredicate[a.Predicate] = append(g.byPredicate[a.Predicate], id)
	for _, tm := range a.Terms {
		g.byTerm[tm] = append(g.byTerm[tm], id)
	}
	g.byDepth[depth] = append(g.byDepth[depth], id)
	g.byType[t] = append(g.byType[t], id)
	for _, p := range parents {
		g.children[p] = append(g.children[p], id)
	}
	return id
}

// AddObservation performs the full five-step add-node operation for an
// externally-supplied observation atom: append, index, register
// equality sub-node bookkeeping, propose unification against existing
// same-predicate nodes, and enumerate mutual-exclusion candidates.
func (g *Graph) AddObservation(a term.Atom, depth int, parents []NodeID) NodeID {
	return g.addNode(a, NodeObservation, depth, parents)
}

// AddRequirement adds a requirement atom at depth 0: an atom the final
// solution must either support with an active explaining node, or pay a
// large violation penalty for (the ILP encoder's constraint family 9).
func (g *Graph) AddRequirement(a term.Atom) NodeID {
	return g.addNode(a, NodeRequired, 0, nil)
}

// addNode is the shared five-step implementation used by both
// AddObservation and the internal chain/unify node-creation paths.
func (g *Graph) addNode(a term.Atom, t NodeType, depth int, parents []NodeID) NodeID {
	// Step 1-2: append + index.
	id := g.addNodeRaw(a, t, depth, parents)

	// Step 3: equality sub-node bookkeeping.
	if a.IsEquality() && len(a.Terms) == 2 {
		pair := NewTermPair(a.Terms[0], a.Terms[1])
		if a.Truth {
			if _, exists := g.subNode[pair]; !exists {
				g.subNode[pair] = id
			}
		} else {
			if _, exists := g.negSubNode[pair]; !exists {
				g.negSubNode[pair] = id
			}
		}
	}

	// Step 4: propose unification against existing nodes sharing the
	// predicate that have not already been considered.
	for _, other := range g.byPredicate[a.Predicate] {
		if other == id {
			continue
		}
		g.proposeUnification(id, other)
	}

	// Step 5: enumerate mutual-exclusion candidates.
	g.enumerateExclusions(id)

	return id
}
