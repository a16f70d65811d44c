package ilp

import "github.com/gitrdm/abductio/pkg/term"

// CostProvider assigns an objective coefficient to a node's atom. The
// encoder sums these as the node-variable coefficients of the linear
// objective.
type CostProvider interface {
	Cost(a term.Atom) float64
}

// UniformCost assigns every node the same cost, the simplest concrete
// CostProvider and the encoder's default.
type UniformCost struct {
	Value float64
}

func (u UniformCost) Cost(term.Atom) float64 {
	if u.Value == 0 {
		return 1
	}
	return u.Value
}

// WeightedCost looks up a per-predicate weight, falling back to Default
// when a predicate has none recorded. This is the hook an out-of-scope
// weight-learning subsystem would populate; abductio itself only ever
// constructs it with static weights.
type WeightedCost struct {
	Weights map[term.PredicateID]float64
	Default float64
}

func (w WeightedCost) Cost(a term.Atom) float64 {
	if c, ok := w.Weights[a.Predicate]; ok {
		return c
	}
	return w.Default
}
