package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	assets := []string{"AAA", "BBB"}

	lo, hi := ConstraintSet{}.Resolve(assets)
	assert.True(t, math.IsInf(lo[0], -1))
	assert.True(t, math.IsInf(hi[0], 1))

	lo, _ = ConstraintSet{LongOnly: true}.Resolve(assets)
	assert.Equal(t, []float64{0, 0}, lo)

	cs := ConstraintSet{
		LongOnly: true,
		Bounds:   map[string]Bound{"BBB": {Min: 0.1, Max: 0.4}},
	}
	lo, hi = cs.Resolve(assets)
	assert.Equal(t, 0.0, lo[0])
	assert.Equal(t, 0.1, lo[1])
	assert.True(t, math.IsInf(hi[0], 1))
	assert.Equal(t, 0.4, hi[1])
}

func TestResolveLongOnlyOverridesNegativeBound(t *testing.T) {
	cs := ConstraintSet{
		LongOnly: true,
		Bounds:   map[string]Bound{"AAA": {Min: -0.2, Max: 0.5}},
	}
	lo, _ := cs.Resolve([]string{"AAA"})
	assert.Equal(t, 0.0, lo[0])
}

func TestValidateInfeasible(t *testing.T) {
	assets := []string{"AAA", "BBB"}

	err := ConstraintSet{Bounds: map[string]Bound{"AAA": {Min: 0.5, Max: 0.2}}}.Validate(assets)
	var infeasible InfeasibleConstraintsError
	require.ErrorAs(t, err, &infeasible)
	assert.Contains(t, infeasible.Reason, "AAA")

	// Lower bounds already exceed the budget.
	err = ConstraintSet{
		FullyInvested: true,
		Bounds: map[string]Bound{
			"AAA": {Min: 0.7, Max: 1},
			"BBB": {Min: 0.5, Max: 1},
		},
	}.Validate(assets)
	require.ErrorAs(t, err, &infeasible)

	// Upper bounds cannot reach the budget.
	err = ConstraintSet{
		FullyInvested: true,
		LongOnly:      true,
		Bounds: map[string]Bound{
			"AAA": {Min: 0, Max: 0.4},
			"BBB": {Min: 0, Max: 0.4},
		},
	}.Validate(assets)
	require.ErrorAs(t, err, &infeasible)

	err = ConstraintSet{MaxPositions: -1}.Validate(assets)
	require.ErrorAs(t, err, &infeasible)

	assert.NoError(t, ConstraintSet{FullyInvested: true, LongOnly: true}.Validate(assets))
}

func TestTurnoverBetween(t *testing.T) {
	prev := Allocation{Weights: map[string]float64{"AAA": 0.6, "BBB": 0.4}}
	next := Allocation{Weights: map[string]float64{"AAA": 0.5, "CCC": 0.5}}

	// |0.5-0.6| + |0.5-0| + |0.4 dropped| = 1.0
	assert.InDelta(t, 1.0, TurnoverBetween(prev, next), 1e-12)
	assert.InDelta(t, 0.0, TurnoverBetween(prev, prev), 1e-12)
}

func TestAllocationAccessors(t *testing.T) {
	a := Allocation{Weights: map[string]float64{"AAA": 0.7, "BBB": 0.3, "CCC": 1e-12}}
	assert.Equal(t, 0.7, a.Weight("AAA"))
	assert.Equal(t, 0.0, a.Weight("ZZZ"))
	assert.InDelta(t, 1.0, a.Sum(), 1e-9)
	assert.Equal(t, 2, a.Positions(1e-9))
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	cfg := Config{WindowLength: 36, RebalanceEvery: 12}
	cfg.ApplyDefaults()
	assert.Equal(t, EstimatorShrinkage, cfg.Estimator)
	assert.Equal(t, OnFailureAbort, cfg.OnFailure)
	assert.Equal(t, 12, cfg.PeriodsPerYear)
	assert.Equal(t, DefaultCondThreshold, cfg.CondThreshold)
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.WindowLength = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.RebalanceEvery = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Estimator = "oas"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.OnFailure = "retry"
	assert.Error(t, bad.Validate())
}
