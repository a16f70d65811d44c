// Package metrics exposes the process's Prometheus metrics: per-phase
// durations and counters for compile, enumerate (lhs), ILP conversion,
// and solve (the three main inference phases plus compile), grounded on
// other_examples's promauto package-variable style
// (jinterlante1206-AleutianLocal/services/trace/agent/routing/metrics.go).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "abductio",
		Name:      "phase_duration_seconds",
		Help:      "Wall-clock duration of a reasoning phase.",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"phase"})

	phaseTimeout = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abductio",
		Name:      "phase_timeout_total",
		Help:      "Phases that hit their time budget before reaching a fixed point.",
	}, []string{"phase"})

	graphNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "abductio",
		Name:      "proof_graph_nodes",
		Help:      "Node count of a finished proof graph.",
		Buckets:   prometheus.ExponentialBuckets(4, 2, 12),
	})

	ilpVariables = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "abductio",
		Name:      "ilp_variables",
		Help:      "Variable count of an encoded ILP problem.",
		Buckets:   prometheus.ExponentialBuckets(4, 2, 12),
	})

	cuttingPlaneRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "abductio",
		Name:      "cutting_plane_rounds",
		Help:      "Rounds run by the cutting-plane solve loop before converging.",
		Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
	})

	solutionsReturned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abductio",
		Name:      "solutions_total",
		Help:      "Solutions returned by a Solver run, by solution type.",
	}, []string{"type"})
)

// Phase names recorded against phaseDuration/phaseTimeout.
const (
	PhaseCompile   = "compile"
	PhaseEnumerate = "lhs"
	PhaseILP       = "ilp"
	PhaseSolve     = "sol"
)

// ObservePhase records how long phase took.
func ObservePhase(phase string, d time.Duration) {
	phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordPhaseTimeout records that phase hit its time budget.
func RecordPhaseTimeout(phase string) {
	phaseTimeout.WithLabelValues(phase).Inc()
}

// ObserveGraphSize records a finished proof graph's node count.
func ObserveGraphSize(nodes int) {
	graphNodes.Observe(float64(nodes))
}

// ObserveProblemSize records an encoded ILP problem's variable count.
func ObserveProblemSize(variables int) {
	ilpVariables.Observe(float64(variables))
}

// ObserveCuttingPlaneRounds records how many rounds a cutting-plane run took.
func ObserveCuttingPlaneRounds(rounds int) {
	cuttingPlaneRounds.Observe(float64(rounds))
}

// RecordSolution records one returned solution by its type label
// ("optimal", "sub-optimal", "not-available").
func RecordSolution(solutionType string) {
	solutionsReturned.WithLabelValues(solutionType).Inc()
}
