package ilp

import "github.com/gitrdm/abductio/pkg/proof"

// Problem is a 0/1 integer linear program describing a proof graph's
// admissible hypothesis selections (ilp_problem.h's ilp_problem_t).
type Problem struct {
	Name     string
	Maximize bool

	Variables   []Variable
	Constraints []Constraint

	nodeVar      map[proof.NodeID]int
	hypernodeVar map[proof.HypernodeID]int
	edgeVar      map[proof.EdgeID]int

	lazyIndices []int

	// TimedOut mirrors the source graph's timeout flag: the encoder
	// still produces a well-formed (possibly smaller) problem from a
	// timed-out graph.
	TimedOut bool
}

func newProblem(name string, maximize bool) *Problem {
	return &Problem{
		Name:         name,
		Maximize:     maximize,
		nodeVar:      make(map[proof.NodeID]int),
		hypernodeVar: make(map[proof.HypernodeID]int),
		edgeVar:      make(map[proof.EdgeID]int),
	}
}

func (p *Problem) addVariable(v Variable) int {
	v.Index = len(p.Variables)
	p.Variables = append(p.Variables, v)
	return v.Index
}

func (p *Problem) addConstraint(c Constraint) int {
	c.Index = len(p.Constraints)
	p.Constraints = append(p.Constraints, c)
	if c.Lazy {
		p.lazyIndices = append(p.lazyIndices, c.Index)
	}
	return c.Index
}

// NodeVariable returns the variable index representing n, or -1 if n has
// no variable in this problem.
func (p *Problem) NodeVariable(n proof.NodeID) int {
	if idx, ok := p.nodeVar[n]; ok {
		return idx
	}
	return -1
}

// HypernodeVariable returns the variable index representing h (after
// economization, this may be the same index as one of h's members'
// node variable).
func (p *Problem) HypernodeVariable(h proof.HypernodeID) int {
	if idx, ok := p.hypernodeVar[h]; ok {
		return idx
	}
	return -1
}

// EdgeVariable returns the variable index representing e (after
// economization, this may be the same index as its head hypernode's
// variable).
func (p *Problem) EdgeVariable(e proof.EdgeID) int {
	if idx, ok := p.edgeVar[e]; ok {
		return idx
	}
	return -1
}

// ViolationVariable returns the index of the violation variable attached
// to requirement node n by constraint family 9, or -1 if n has none
// (either n is not a requirement node, or the problem predates that
// encoding pass).
func (p *Problem) ViolationVariable(n proof.NodeID) int {
	for _, v := range p.Variables {
		if v.Kind == VarViolation && v.Node == n {
			return v.Index
		}
	}
	return -1
}

// AddConstraint appends c to the problem, returning its assigned index.
// Exported for pkg/solve's cutting-plane and k-best loops, which append
// constraints between solve rounds.
func (p *Problem) AddConstraint(c Constraint) int {
	return p.addConstraint(c)
}

// LazyConstraints returns the indices of constraints marked lazy.
func (p *Problem) LazyConstraints() []int { return p.lazyIndices }

// Subset returns a new Problem sharing p's variables and objective sense
// but containing only the constraints at the given indices (re-indexed
// from 0), used by pkg/solve's cutting-plane driver to build the
// "non-lazy constraints only" working problem.
func (p *Problem) Subset(constraintIndices []int) *Problem {
	out := newProblem(p.Name, p.Maximize)
	out.Variables = p.Variables
	for n, idx := range p.nodeVar {
		out.nodeVar[n] = idx
	}
	for h, idx := range p.hypernodeVar {
		out.hypernodeVar[h] = idx
	}
	for e, idx := range p.edgeVar {
		out.edgeVar[e] = idx
	}
	for _, idx := range constraintIndices {
		out.addConstraint(p.Constraints[idx])
	}
	return out
}

// ObjectiveValue computes the objective for a complete assignment
// (indexed by Variable.Index).
func (p *Problem) ObjectiveValue(values []float64) float64 {
	var total float64
	for _, v := range p.Variables {
		total += v.Coefficient * values[v.Index]
	}
	return total
}

// FilterUnsatisfiedConstraints reports which of candidates (constraint
// indices, typically p.LazyConstraints()) are violated by values
// (ilp_problem_t's filter_unsatisfied_constraints, used by the
// cutting-plane driver loop in pkg/solve).
func (p *Problem) FilterUnsatisfiedConstraints(candidates []int, values []float64) []int {
	var out []int
	for _, idx := range candidates {
		if !p.Constraints[idx].IsSatisfied(values) {
			out = append(out, idx)
		}
	}
	return out
}
