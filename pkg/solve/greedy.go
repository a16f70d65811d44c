package solve

import (
	"context"

	"github.com/gitrdm/abductio/pkg/ilp"
)

// GreedySolver is a deterministic reference backend, grounded on
// original_source/src/sol/sol_plain.cpp and sol_null.cpp's role as
// simple stand-ins for a real ILP library: it repeatedly activates the
// unconstrained variable with the best coverage/cost ratio against the
// currently-violated constraints (a textbook greedy set-cover
// heuristic), until every constraint is satisfied or no remaining
// variable helps. It never reports Optimal.
type GreedySolver struct{}

func (GreedySolver) Solve(ctx context.Context, p *ilp.Problem) ([]Solution, error) {
	values := make([]float64, len(p.Variables))
	timedOut := false

	for iter := 0; iter <= len(p.Variables); iter++ {
		select {
		case <-ctx.Done():
			timedOut = true
		default:
		}
		if timedOut {
			break
		}

		violated := violatedConstraints(p, values)
		if len(violated) == 0 {
			break
		}

		best, bestRatio := -1, -1.0
		for _, v := range p.Variables {
			if values[v.Index] != 0 {
				continue
			}
			coverage := coverageOf(p, v.Index, violated)
			if coverage == 0 {
				continue
			}
			cost := v.Coefficient
			if cost <= 0 {
				cost = 1e-6
			}
			ratio := float64(coverage) / cost
			if ratio > bestRatio {
				bestRatio, best = ratio, v.Index
			}
		}
		if best < 0 {
			break
		}
		values[best] = 1
	}

	sol := Solution{Problem: p, Values: values, Type: SubOptimal, TimedOut: timedOut}
	sol.evaluate()
	for _, ok := range sol.ConstraintSatisfied {
		if !ok {
			sol.Type = NotAvailable
			break
		}
	}
	return []Solution{sol}, nil
}

func violatedConstraints(p *ilp.Problem, values []float64) []int {
	var out []int
	for i, c := range p.Constraints {
		if !c.IsSatisfied(values) {
			out = append(out, i)
		}
	}
	return out
}

func coverageOf(p *ilp.Problem, varIdx int, constraints []int) int {
	n := 0
	for _, ci := range constraints {
		for _, t := range p.Constraints[ci].Terms {
			if t.VarIndex == varIdx && t.Coefficient > 0 {
				n++
				break
			}
		}
	}
	return n
}
