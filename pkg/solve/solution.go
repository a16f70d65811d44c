package solve

import "github.com/gitrdm/abductio/pkg/ilp"

// SolutionType classifies how a Solution was reached (ilp_problem.h's
// solution_type_e).
type SolutionType uint8

const (
	Optimal SolutionType = iota
	SubOptimal
	NotAvailable
)

func (t SolutionType) String() string {
	switch t {
	case Optimal:
		return "optimal"
	case SubOptimal:
		return "sub-optimal"
	default:
		return "not-available"
	}
}

// Solution is one assignment returned by a Solver (ilp_problem.h's
// ilp_solution_t).
type Solution struct {
	Problem *ilp.Problem

	// Values holds one 0/1 entry per Problem.Variables, indexed the
	// same way.
	Values []float64

	// ConstraintSatisfied holds one entry per Problem.Constraints.
	ConstraintSatisfied []bool

	Objective float64
	Type      SolutionType
	TimedOut  bool
}

// VariableActive reports whether variable idx is active (1) in this
// solution.
func (s Solution) VariableActive(idx int) bool {
	return idx >= 0 && idx < len(s.Values) && s.Values[idx] != 0
}

// evaluate fills ConstraintSatisfied and Objective from
// Values, used by every Solver implementation after producing Values.
func (s *Solution) evaluate() {
	s.ConstraintSatisfied = make([]bool, len(s.Problem.Constraints))
	for i, c := range s.Problem.Constraints {
		s.ConstraintSatisfied[i] = c.IsSatisfied(s.Values)
	}
	s.Objective = s.Problem.ObjectiveValue(s.Values)
}
