package solve

import (
	"context"

	"github.com/gitrdm/abductio/pkg/ilp"
)

// Solver is the pluggable backend contract: solve(problem) ->
// list<solution>. Concrete ILP libraries/solvers stay
// out of scope; callers reach them only through this interface.
type Solver interface {
	Solve(ctx context.Context, p *ilp.Problem) ([]Solution, error)
}

// NullSolver always reports NotAvailable, matching the original's
// sol_null.cpp: the solver used when no backend is configured.
type NullSolver struct{}

func (NullSolver) Solve(ctx context.Context, p *ilp.Problem) ([]Solution, error) {
	s := Solution{Problem: p, Values: make([]float64, len(p.Variables)), Type: NotAvailable}
	s.evaluate()
	return []Solution{s}, nil
}
