package solve

import (
	"context"

	"github.com/gitrdm/abductio/pkg/ilp"
)

const defaultMaxCuttingPlaneRounds = 16

// RunCuttingPlane runs the cutting-plane loop: solve a working problem
// containing only the non-lazy constraints, check the full problem's
// lazy constraints against the returned values, add any
// violated ones to the working problem, and repeat until none are
// violated or maxRounds is exhausted (ilp_problem_t's lazy-constraint
// round-trip contract via filter_unsatisfied_constraints).
func RunCuttingPlane(ctx context.Context, base Solver, p *ilp.Problem, maxRounds int) ([]Solution, error) {
	if maxRounds <= 0 {
		maxRounds = defaultMaxCuttingPlaneRounds
	}

	var nonLazy []int
	lazySet := make(map[int]bool)
	for _, idx := range p.LazyConstraints() {
		lazySet[idx] = true
	}
	for i := range p.Constraints {
		if !lazySet[i] {
			nonLazy = append(nonLazy, i)
		}
	}
	working := p.Subset(nonLazy)

	var last []Solution
	for round := 0; round < maxRounds; round++ {
		select {
		case <-ctx.Done():
			for i := range last {
				last[i].TimedOut = true
			}
			return last, nil
		default:
		}

		sols, err := base.Solve(ctx, working)
		if err != nil {
			return last, err
		}
		if len(sols) == 0 {
			return last, nil
		}
		last = sols

		violated := p.FilterUnsatisfiedConstraints(p.LazyConstraints(), sols[0].Values)
		if len(violated) == 0 {
			return last, nil
		}
		for _, idx := range violated {
			working.AddConstraint(p.Constraints[idx])
		}
	}
	return last, nil
}
