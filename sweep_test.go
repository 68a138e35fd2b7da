package minvar

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlabs/minvar/models"
)

func TestRunSweep(t *testing.T) {
	ds := syntheticDataset(t, 3, 60)

	short := testConfig()
	short.WindowLength = 24
	variants := []SweepVariant{
		{Name: "window36", Config: testConfig()},
		{Name: "window24", Config: short},
	}

	results, err := RunSweep(context.Background(), ds, variants, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results["window36"].NumRebalances())
	assert.Equal(t, 3, results["window24"].NumRebalances())

	_, err = RunSweep(context.Background(), ds, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestRunSweepPropagatesVariantError(t *testing.T) {
	ds := syntheticDataset(t, 3, 60)

	bad := testConfig()
	bad.WindowLength = 60
	variants := []SweepVariant{
		{Name: "good", Config: testConfig()},
		{Name: "starved", Config: bad},
	}

	_, err := RunSweep(context.Background(), ds, variants, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starved")
}

func TestCompareEstimators(t *testing.T) {
	ds := syntheticDataset(t, 3, 60)
	base := testConfig()

	results, err := CompareEstimators(context.Background(), ds, base, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, results, 2)

	sample, ok := results[models.EstimatorSample]
	require.True(t, ok)
	shrunk, ok := results[models.EstimatorShrinkage]
	require.True(t, ok)

	assert.Equal(t, models.EstimatorSample, sample.Method)
	assert.Equal(t, models.EstimatorShrinkage, shrunk.Method)
	assert.Equal(t, sample.NumRebalances(), shrunk.NumRebalances())

	// The sweep must not mutate the caller's config.
	assert.Equal(t, testConfig(), base)
}

func TestTuneMaxWeightStaysFeasible(t *testing.T) {
	if testing.Short() {
		t.Skip("evolutionary search is slow")
	}
	ds := syntheticDataset(t, 3, 60)

	cap, res, err := TuneMaxWeight(context.Background(), ds, testConfig(), zerolog.Nop())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, cap, 1.0/3)
	assert.LessOrEqual(t, cap, 1.0)
	for _, step := range res.Trajectory {
		assert.InDelta(t, 1.0, step.Allocation.Sum(), 1e-6)
		for id, w := range step.Allocation.Weights {
			assert.LessOrEqual(t, w, cap+1e-6, "asset %s", id)
		}
	}
}
