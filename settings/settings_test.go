package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlabs/minvar/models"
)

const sampleYAML = `window_length: 36
rebalance_every: 12
estimator: shrinkage
risk_free_rate: 0.042
constraints:
  fully_invested: true
  long_only: true
  bounds:
    AAA:
      min: 0.0
      max: 0.5
  max_positions: 2
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 36, cfg.WindowLength)
	assert.Equal(t, 12, cfg.RebalanceEvery)
	assert.Equal(t, models.EstimatorShrinkage, cfg.Estimator)
	assert.Equal(t, 0.042, cfg.RiskFreeRate)
	assert.True(t, cfg.Constraints.FullyInvested)
	assert.True(t, cfg.Constraints.LongOnly)
	assert.Equal(t, models.Bound{Min: 0, Max: 0.5}, cfg.Constraints.Bounds["AAA"])
	assert.Equal(t, 2, cfg.Constraints.MaxPositions)

	// Unset optional keys pick up defaults.
	assert.Equal(t, models.OnFailureAbort, cfg.OnFailure)
	assert.Equal(t, 12, cfg.PeriodsPerYear)
	assert.Equal(t, models.DefaultCondThreshold, cfg.CondThreshold)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_length: 36\nrebalance_every: 12\nestimator: oas\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := models.Config{
		WindowLength:   24,
		RebalanceEvery: 6,
		Estimator:      models.EstimatorSample,
		Constraints: models.ConstraintSet{
			FullyInvested: true,
			LongOnly:      true,
			Bounds:        map[string]models.Bound{"BBB": {Min: 0.1, Max: 0.9}},
		},
		RiskFreeRate:   0.03,
		PeriodsPerYear: 12,
		OnFailure:      models.OnFailureHoldPrevious,
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	loaded.CondThreshold = 0 // Load fills the default; compare the rest.
	assert.Equal(t, cfg, loaded)
}
