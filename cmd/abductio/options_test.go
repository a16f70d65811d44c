package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseParamsOverwritesOnDuplicateKey(t *testing.T) {
	p, err := parseParams([]string{"max-distance=5", "max-distance=7"})
	require.NoError(t, err)
	require.Equal(t, "7", p["max-distance"], "expected last occurrence to win")
}

func TestParseParamsRejectsMissingKey(t *testing.T) {
	_, err := parseParams([]string{"novalue"})
	require.Error(t, err, "expected an error for a param with no '='")
}

func TestParseFlagsBuildsSet(t *testing.T) {
	f := parseFlags([]string{"economize", "cutting-plane"})
	require.True(t, f["economize"])
	require.True(t, f["cutting-plane"])
	require.False(t, f["absent"])
}

func TestParseTimeoutsBareSetsAll(t *testing.T) {
	tm, err := parseTimeouts([]string{"30"})
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, tm.All, "expected 30s overall budget")
}

func TestParseTimeoutsPerPhase(t *testing.T) {
	tm, err := parseTimeouts([]string{"lhs=1.5", "ilp=2", "sol=0.25"})
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, tm.LHS)
	require.Equal(t, 2*time.Second, tm.ILP)
	require.Equal(t, 250*time.Millisecond, tm.Sol)
}

func TestParseTimeoutsRejectsUnknownPhase(t *testing.T) {
	_, err := parseTimeouts([]string{"bogus=1"})
	require.Error(t, err, "expected an error for an unknown phase key")
}

func TestParseComponentsSelectsEachSlot(t *testing.T) {
	c, err := parseComponents([]string{"lhs=astar", "ilp=uniform", "sol=greedy", "dist=cost"})
	require.NoError(t, err)
	require.Equal(t, Components{LHS: "astar", ILP: "uniform", Sol: "greedy", Dist: "cost"}, c)
}

func TestParseComponentsRejectsUnknownType(t *testing.T) {
	_, err := parseComponents([]string{"bogus=key"})
	require.Error(t, err, "expected an error for an unknown component type")
}
