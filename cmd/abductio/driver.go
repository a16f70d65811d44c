package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/gitrdm/abductio/pkg/ilp"
	"github.com/gitrdm/abductio/pkg/kb"
	"github.com/gitrdm/abductio/pkg/proof"
	"github.com/gitrdm/abductio/pkg/sexpr"
	"github.com/gitrdm/abductio/pkg/solve"
	"github.com/gitrdm/abductio/pkg/term"
)

// options bundles every flag-derived setting the driver needs, threaded
// explicitly rather than read off package globals.
type options struct {
	kbPath     string
	params     map[string]string
	flags      map[string]bool
	timeouts   Timeouts
	components Components
	log        hclog.Logger
}

// kbConfigFromOptions builds the KB compile-time Config from -p/-c, with
// the same defaults the original's binary.cpp ships (a basic distance
// function, no stop words, and a max distance wide enough to reach most
// rule libraries).
func kbConfigFromOptions(o options) (kb.Config, error) {
	cfg := kb.Config{MaxDistance: 10, DistanceKey: "basic"}
	if o.components.Dist != "" {
		cfg.DistanceKey = o.components.Dist
	}
	if v, ok := o.params["max-distance"]; ok {
		d, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return cfg, fmt.Errorf("-p max-distance: %w", err)
		}
		cfg.MaxDistance = float32(d)
	}
	if _, err := kb.DistanceFuncByKey(cfg.DistanceKey); err != nil {
		return cfg, err
	}
	if v, ok := o.params["stop-words"]; ok && v != "" {
		cfg.StopWords = strings.Split(v, ",")
	}
	return cfg, nil
}

// buildEnumerator resolves the -c lhs=key component to a concrete
// proof.Enumerator, defaulting to breadth-first since the enumerator
// contract names no default and this is the simplest total order.
func buildEnumerator(c Components) (proof.Enumerator, error) {
	switch c.LHS {
	case "", "bfs":
		return proof.BreadthFirstEnumerator{}, nil
	case "astar":
		return proof.AStarEnumerator{}, nil
	default:
		return nil, fmt.Errorf("-c lhs: unknown enumerator %q (want bfs or astar)", c.LHS)
	}
}

// buildCostProvider resolves the -c ilp=key component to a concrete
// ilp.CostProvider. "weighted" has no per-predicate weight source on the
// CLI (that is the out-of-scope weight-learning subsystem's job), so it
// only ever exercises WeightedCost's Default fallback.
func buildCostProvider(c Components, params map[string]string) (ilp.CostProvider, error) {
	switch c.ILP {
	case "", "uniform":
		v := 1.0
		if s, ok := params["ilp-cost"]; ok {
			parsed, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("-p ilp-cost: %w", err)
			}
			v = parsed
		}
		return ilp.UniformCost{Value: v}, nil
	case "weighted":
		def := 1.0
		if s, ok := params["ilp-default-weight"]; ok {
			parsed, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("-p ilp-default-weight: %w", err)
			}
			def = parsed
		}
		return ilp.WeightedCost{Default: def}, nil
	default:
		return nil, fmt.Errorf("-c ilp: unknown cost provider %q (want uniform or weighted)", c.ILP)
	}
}

// buildSolver resolves the -c sol=key component to a concrete
// solve.Solver. The unconfigured default is NullSolver, matching the
// original's sol_null.cpp: abductio ships no ILP backend of its own.
func buildSolver(c Components, params map[string]string) (solve.Solver, error) {
	switch c.Sol {
	case "", "null":
		return solve.NullSolver{}, nil
	case "greedy":
		return solve.GreedySolver{}, nil
	case "kbest":
		base, err := buildSolver(Components{Sol: "greedy"}, params)
		if err != nil {
			return nil, err
		}
		k := solve.KBestSolver{Base: base, MaxCount: 1, Margin: 1}
		if s, ok := params["kbest-max"]; ok {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("-p kbest-max: %w", err)
			}
			k.MaxCount = n
		}
		if s, ok := params["kbest-margin"]; ok {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("-p kbest-margin: %w", err)
			}
			k.Margin = n
		}
		if s, ok := params["kbest-threshold"]; ok {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("-p kbest-threshold: %w", err)
			}
			k.Threshold = v
		}
		return k, nil
	default:
		return nil, fmt.Errorf("-c sol: unknown solver %q (want null, greedy, or kbest)", c.Sol)
	}
}

// phaseContext derives a child context bounded by d when d > 0, and a
// plain cancellable child of parent (no deadline of its own) otherwise.
func phaseContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// loadDocument reads and parses every input path into one Document,
// seeding predicate ids from an already-compiled library when seed is
// non-nil (the infer/learn path, where ids must match the KB on disk).
// In lenient mode (the default) a load error is a batch of skipped
// malformed forms: log carries it rather than aborting, and doc still
// holds every well-formed form's contribution. In strict mode the
// loader's error for the first malformed form is returned.
func loadDocument(log hclog.Logger, in *term.Interner, seed *term.Library, strict bool, paths []string) (*sexpr.Document, error) {
	loader := sexpr.NewLoader(in)
	loader.Strict = strict
	if seed != nil {
		loader.SeedFromLibrary(seed)
	}
	var all []*sexpr.Node
	for _, path := range paths {
		forms, err := sexpr.ReadFileTree(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		all = append(all, forms...)
	}
	doc, err := loader.Load(all)
	if err != nil {
		if strict {
			return nil, err
		}
		log.Warn("skipped malformed form(s) while loading", "error", err)
	}
	return doc, nil
}

func inconsistentPairsFrom(doc *sexpr.Document) proof.InconsistentPairs {
	if len(doc.Exclusions) == 0 {
		return nil
	}
	m := make(proof.InconsistentPairs, len(doc.Exclusions))
	for _, pair := range doc.Exclusions {
		m[pair.A] = append(m[pair.A], pair.B)
		m[pair.B] = append(m[pair.B], pair.A)
	}
	return m
}
