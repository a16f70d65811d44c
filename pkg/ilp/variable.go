package ilp

import "github.com/gitrdm/abductio/pkg/proof"

// VariableKind identifies which proof-graph element a variable
// represents.
type VariableKind uint8

const (
	VarNode VariableKind = iota
	VarHypernode
	VarEdge
	VarViolation
)

// Variable is a named 0/1 decision variable with an objective
// coefficient (ilp_problem.h's variable_t).
type Variable struct {
	Index       int
	Name        string
	Kind        VariableKind
	Coefficient float64

	Node      proof.NodeID
	Hypernode proof.HypernodeID
	Edge      proof.EdgeID

	// IsHypothesis is true for node variables backed by a hypothesis
	// node, used by pkg/solve's k-best adapter to measure how much two
	// solutions' active hypotheses differ.
	IsHypothesis bool
}
