package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gitrdm/abductio/internal/metrics"
	"github.com/gitrdm/abductio/pkg/ilp"
	"github.com/gitrdm/abductio/pkg/kb"
	"github.com/gitrdm/abductio/pkg/proof"
	"github.com/gitrdm/abductio/pkg/sexpr"
	"github.com/gitrdm/abductio/pkg/solve"
	"github.com/gitrdm/abductio/pkg/term"
	"github.com/gitrdm/abductio/pkg/xmlout"
)

// runInfer implements -m infer: open an already-compiled KB, parse every
// input file's (O ...) observations, and for each one build a proof
// graph, encode it as an ILP problem, solve it, and write the resulting
// <proofgraph> document(s) to stdout.
func runInfer(o options, paths []string) error {
	if o.kbPath == "" {
		return fmt.Errorf("-k is required in infer mode")
	}
	if len(paths) == 0 {
		return fmt.Errorf("infer mode requires at least one input file")
	}

	store, err := kb.OpenQuery(o.kbPath)
	if err != nil {
		return fmt.Errorf("opening KB: %w", err)
	}
	defer store.Close()

	in := term.NewInterner()
	doc, err := loadDocument(o.log, in, store.Predicates(), o.flags["strict"], paths)
	if err != nil {
		return err
	}
	if len(doc.Observations) == 0 {
		return fmt.Errorf("no observations found in input")
	}

	enumerator, err := buildEnumerator(o.components)
	if err != nil {
		return err
	}
	cost, err := buildCostProvider(o.components, o.params)
	if err != nil {
		return err
	}
	solver, err := buildSolver(o.components, o.params)
	if err != nil {
		return err
	}
	maxRounds := 0
	if s, ok := o.params["cutting-plane-rounds"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("-p cutting-plane-rounds: invalid value %q", s)
		}
		maxRounds = n
	}

	exclusions := inconsistentPairsFrom(doc)
	maxDepth := 0
	if s, ok := o.params["max-depth"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("-p max-depth: invalid value %q", s)
		}
		maxDepth = n
	}

	root, cancelAll := phaseContext(context.Background(), o.timeouts.All)
	defer cancelAll()

	for _, obs := range doc.Observations {
		if err := runOneObservation(root, o, store, in, exclusions, enumerator, cost, solver, maxRounds, maxDepth, obs); err != nil {
			return err
		}
	}
	return nil
}

func runOneObservation(
	root context.Context,
	o options,
	store *kb.KnowledgeBase,
	in *term.Interner,
	exclusions proof.InconsistentPairs,
	enumerator proof.Enumerator,
	cost ilp.CostProvider,
	solver solve.Solver,
	maxRounds, maxDepth int,
	obs sexpr.Observation,
) error {
	runID := uuid.NewString()
	log := o.log.Named(runID[:8])

	g := proof.NewGraph(store, in)
	g.Inconsistencies = exclusions
	for _, a := range obs.Atoms {
		g.AddObservation(a, 0, nil)
	}
	for _, a := range obs.Requirements {
		g.AddRequirement(a)
	}

	overallStart := time.Now()

	lhsCtx, cancelLHS := phaseContext(root, o.timeouts.LHS)
	lhsStart := time.Now()
	if err := enumerator.Run(lhsCtx, g, proof.RunConfig{MaxDepth: maxDepth}); err != nil {
		cancelLHS()
		return fmt.Errorf("enumerating %q: %w", obs.Name, err)
	}
	lhsElapsed := time.Since(lhsStart)
	lhsTimedOut := g.TimedOut
	cancelLHS()
	metrics.ObservePhase(metrics.PhaseEnumerate, lhsElapsed)
	metrics.ObserveGraphSize(g.NodeCount())
	if lhsTimedOut {
		metrics.RecordPhaseTimeout(metrics.PhaseEnumerate)
	}

	ilpCtx, cancelILP := phaseContext(root, o.timeouts.ILP)
	ilpStart := time.Now()
	problem := ilp.Encoder{Graph: g, Cost: cost, Economize: o.flags["economize"]}.Encode()
	ilpElapsed := time.Since(ilpStart)
	ilpTimedOut := ilpCtx.Err() != nil
	cancelILP()
	metrics.ObservePhase(metrics.PhaseILP, ilpElapsed)
	metrics.ObserveProblemSize(len(problem.Variables))
	if ilpTimedOut {
		metrics.RecordPhaseTimeout(metrics.PhaseILP)
	}

	solCtx, cancelSol := phaseContext(root, o.timeouts.Sol)
	solStart := time.Now()
	var sols []solve.Solution
	var err error
	if len(problem.LazyConstraints()) > 0 {
		sols, err = solve.RunCuttingPlane(solCtx, solver, problem, maxRounds)
	} else {
		sols, err = solver.Solve(solCtx, problem)
	}
	solElapsed := time.Since(solStart)
	solTimedOut := solCtx.Err() != nil
	cancelSol()
	if err != nil {
		return fmt.Errorf("solving %q: %w", obs.Name, err)
	}
	metrics.ObservePhase(metrics.PhaseSolve, solElapsed)
	if solTimedOut {
		metrics.RecordPhaseTimeout(metrics.PhaseSolve)
	}

	timing := xmlout.Timing{LHS: lhsElapsed, ILP: ilpElapsed, Sol: solElapsed, All: time.Since(overallStart)}
	timeout := xmlout.Timeout{LHS: lhsTimedOut, ILP: ilpTimedOut, Sol: solTimedOut}

	name := obs.Name
	if name == "" {
		name = runID
	}
	for _, sol := range sols {
		metrics.RecordSolution(sol.Type.String())
		if err := xmlout.Write(os.Stdout, name, runID, g, sol, timing, timeout); err != nil {
			return err
		}
	}
	log.Info("solved observation", "name", name, "solutions", len(sols), "elapsed", timing.All)
	return nil
}
