package kb

import (
	"fmt"
	"strconv"

	"github.com/gitrdm/abductio/pkg/term"
)

// DistanceFunc maps a rule to a non-negative real "distance" used when
// seeding the reachability matrix.
// Implementations are serialized into the KB configuration blob by Key, so
// compile and query must agree on which one produced the matrix on disk.
type DistanceFunc interface {
	Distance(r term.Rule) float32
	Key() string
}

// BasicDistance assigns every rule a constant distance of 1.
type BasicDistance struct{}

func (BasicDistance) Distance(term.Rule) float32 { return 1 }
func (BasicDistance) Key() string                { return "basic" }

// CostDistance reads a numeric parameter off the rule's rhs conjunction
// parameter string (the rule's declared cost), defaulting to 1 if absent
// or unparseable.
type CostDistance struct{}

func (CostDistance) Distance(r term.Rule) float32 {
	if v, ok := parseFloatParam(r.RHS.Param); ok {
		return v
	}
	return 1
}
func (CostDistance) Key() string { return "cost" }

// SumOfLHSDistance sums per-atom distance parameters found on each lhs
// atom's parameter string, defaulting each missing/unparseable atom to 1.
type SumOfLHSDistance struct{}

func (SumOfLHSDistance) Distance(r term.Rule) float32 {
	var sum float32
	for _, a := range r.LHS.Atoms {
		if v, ok := parseFloatParam(a.Param); ok {
			sum += v
		} else {
			sum++
		}
	}
	return sum
}
func (SumOfLHSDistance) Key() string { return "sum-of-lhs" }

func parseFloatParam(s string) (float32, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}

// distanceFuncs registers the known distance-function keys, mirroring the
// original's distance_provider_library_t factory (main/binary.h).
var distanceFuncs = map[string]func() DistanceFunc{
	"basic":      func() DistanceFunc { return BasicDistance{} },
	"cost":       func() DistanceFunc { return CostDistance{} },
	"sum-of-lhs": func() DistanceFunc { return SumOfLHSDistance{} },
}

// DistanceFuncByKey resolves a registered distance function by its Key().
func DistanceFuncByKey(key string) (DistanceFunc, error) {
	if f, ok := distanceFuncs[key]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("kb: unknown distance function key %q", key)
}
