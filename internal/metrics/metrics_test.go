package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSolutionIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(solutionsReturned.WithLabelValues("optimal"))
	RecordSolution("optimal")
	after := testutil.ToFloat64(solutionsReturned.WithLabelValues("optimal"))
	if after != before+1 {
		t.Fatalf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordPhaseTimeoutIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(phaseTimeout.WithLabelValues(PhaseILP))
	RecordPhaseTimeout(PhaseILP)
	after := testutil.ToFloat64(phaseTimeout.WithLabelValues(PhaseILP))
	if after != before+1 {
		t.Fatalf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestObserveHelpersDoNotPanic(t *testing.T) {
	ObservePhase(PhaseEnumerate, 10*time.Millisecond)
	ObserveGraphSize(42)
	ObserveProblemSize(128)
	ObserveCuttingPlaneRounds(3)
}
