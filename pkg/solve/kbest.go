package solve

import (
	"context"
	"fmt"
	"math"

	"github.com/gitrdm/abductio/pkg/ilp"
)

// KBestSolver wraps a basic Solver, appending a differencing constraint
// after each round so the next solve is forced to activate at least
// Margin different hypothesis-node variables, until MaxCount solutions
// have been found, the objective gap against the first (best) solution
// exceeds Threshold, or the base solver reports NotAvailable.
type KBestSolver struct {
	Base      Solver
	MaxCount  int
	Margin    int
	Threshold float64
}

func (k KBestSolver) Solve(ctx context.Context, p *ilp.Problem) ([]Solution, error) {
	maxCount := k.MaxCount
	if maxCount <= 0 {
		maxCount = 1
	}
	margin := k.Margin
	if margin <= 0 {
		margin = 1
	}

	var results []Solution
	bestObjective := math.NaN()

	for i := 0; i < maxCount; i++ {
		select {
		case <-ctx.Done():
			return results, nil
		default:
		}

		sols, err := k.Base.Solve(ctx, p)
		if err != nil {
			return results, err
		}
		if len(sols) == 0 || sols[0].Type == NotAvailable {
			break
		}
		sol := sols[0]

		if math.IsNaN(bestObjective) {
			bestObjective = sol.Objective
		} else if k.Threshold > 0 && math.Abs(sol.Objective-bestObjective) > k.Threshold {
			break
		}
		results = append(results, sol)

		if i == maxCount-1 {
			break
		}
		p.AddConstraint(differenceConstraint(p, sol, margin, i))
	}

	return results, nil
}

// differenceConstraint forces the next solve round to activate at least
// margin hypothesis-node variables differently from sol.
func differenceConstraint(p *ilp.Problem, sol Solution, margin, round int) ilp.Constraint {
	c := ilp.Constraint{Name: fmt.Sprintf("kbest-diff(%d)", round), Op: ilp.OpGreaterEq}
	activeCount := 0
	for _, v := range p.Variables {
		if !v.IsHypothesis {
			continue
		}
		if sol.VariableActive(v.Index) {
			c.AddTerm(v.Index, -1)
			activeCount++
		} else {
			c.AddTerm(v.Index, 1)
		}
	}
	c.Lower = float64(margin - activeCount)
	return c
}
