// Package proof builds the proof graph that backward/forward chaining and
// unification populate from an observation: nodes (atom instances),
// hypernodes (node groups sharing a common master edge), and edges (rule
// applications or unification steps).
package proof

import "github.com/gitrdm/abductio/pkg/term"

// NodeID indexes Graph.nodes. InvalidNode is the universal "refused"
// sentinel returned by operations that never error.
type NodeID int

const InvalidNode NodeID = -1

// HypernodeID indexes Graph.hypernodes.
type HypernodeID int

const InvalidHypernode HypernodeID = -1

// EdgeID indexes Graph.edges.
type EdgeID int

// NodeType classifies what a node represents.
type NodeType uint8

const (
	NodeObservation NodeType = iota
	NodeHypothesis
	NodeRequired
	NodeEquality
	NodeNegEquality
)

// Node is one atom instance in the graph.
type Node struct {
	ID      NodeID
	Atom    term.Atom
	Type    NodeType
	Depth   int
	Parents []NodeID // immediate justifying nodes, used by cycle avoidance (§4.3.5)
}

// Hypernode groups one or more member nodes produced together by a single
// chain step (or passed together as a chain's tail). Parents records the
// tail hypernodes of every edge whose head is this hypernode — constraint
// family 3 ("hypernode implies at least one parent is true").
type Hypernode struct {
	ID      HypernodeID
	Members []NodeID
	Parents []HypernodeID
}

// Direction is the chaining direction an edge was produced by.
type Direction uint8

const (
	DirectionBackward Direction = iota
	DirectionForward
)

// TermPair is an unordered pair of terms, canonicalized so (a, b) and
// (b, a) compare equal — used as sub-node map keys and as the "unifier"
// attached to conditional substitutions and mutual exclusions.
type TermPair struct{ A, B term.ID }

// NewTermPair canonicalizes (a, b) by numeric id order.
func NewTermPair(a, b term.ID) TermPair {
	if a > b {
		a, b = b, a
	}
	return TermPair{A: a, B: b}
}

// Edge is one rule application (chain) or one unification step.
type Edge struct {
	ID            EdgeID
	RuleID        term.RuleID
	Direction     Direction
	Tail          HypernodeID
	Head          HypernodeID // for unification edges, the hypernode of the equality sub-nodes
	IsUnification bool
	PositiveSubs  []TermPair // conditional substitutions live only if unified
	NegativeSubs  []TermPair // conditional substitutions live only if NOT unified
}

// Exclusion records a mutual-exclusion pair and the unifier (set of term
// pairs) that must hold for the exclusion to bite.
type Exclusion struct {
	N1, N2  NodeID
	Unifier []TermPair
}
