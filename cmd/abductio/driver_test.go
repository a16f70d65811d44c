package main

import (
	"testing"

	"github.com/gitrdm/abductio/pkg/ilp"
	"github.com/gitrdm/abductio/pkg/proof"
	"github.com/gitrdm/abductio/pkg/solve"
	"github.com/stretchr/testify/require"
)

func TestBuildEnumeratorDefaultsToBreadthFirst(t *testing.T) {
	e, err := buildEnumerator(Components{})
	require.NoError(t, err)
	require.IsType(t, proof.BreadthFirstEnumerator{}, e)
}

func TestBuildEnumeratorSelectsAStar(t *testing.T) {
	e, err := buildEnumerator(Components{LHS: "astar"})
	require.NoError(t, err)
	require.IsType(t, proof.AStarEnumerator{}, e)
}

func TestBuildEnumeratorRejectsUnknownKey(t *testing.T) {
	_, err := buildEnumerator(Components{LHS: "bogus"})
	require.Error(t, err, "expected an error for an unknown enumerator key")
}

func TestBuildCostProviderUniformHonorsParam(t *testing.T) {
	c, err := buildCostProvider(Components{}, map[string]string{"ilp-cost": "3"})
	require.NoError(t, err)
	uc, ok := c.(ilp.UniformCost)
	require.True(t, ok, "expected UniformCost, got %T", c)
	require.Equal(t, 3.0, uc.Value)
}

func TestBuildCostProviderWeightedHonorsDefault(t *testing.T) {
	c, err := buildCostProvider(Components{ILP: "weighted"}, map[string]string{"ilp-default-weight": "2.5"})
	require.NoError(t, err)
	wc, ok := c.(ilp.WeightedCost)
	require.True(t, ok, "expected WeightedCost, got %T", c)
	require.Equal(t, 2.5, wc.Default)
}

func TestBuildSolverDefaultsToNull(t *testing.T) {
	s, err := buildSolver(Components{}, nil)
	require.NoError(t, err)
	require.IsType(t, solve.NullSolver{}, s)
}

func TestBuildSolverKBestWrapsGreedyWithParams(t *testing.T) {
	s, err := buildSolver(Components{Sol: "kbest"}, map[string]string{"kbest-max": "3", "kbest-margin": "2"})
	require.NoError(t, err)
	kb, ok := s.(solve.KBestSolver)
	require.True(t, ok, "expected KBestSolver, got %T", s)
	require.Equal(t, 3, kb.MaxCount)
	require.Equal(t, 2, kb.Margin)
	require.IsType(t, solve.GreedySolver{}, kb.Base)
}

func TestKBConfigFromOptionsDefaults(t *testing.T) {
	cfg, err := kbConfigFromOptions(options{params: map[string]string{}, components: Components{}})
	require.NoError(t, err)
	require.Equal(t, "basic", cfg.DistanceKey)
}

func TestKBConfigFromOptionsRejectsUnknownDistance(t *testing.T) {
	_, err := kbConfigFromOptions(options{params: map[string]string{}, components: Components{Dist: "bogus"}})
	require.Error(t, err, "expected an error for an unknown distance function key")
}
