package models

import "fmt"

// Failure policies for backtest steps where estimation or optimization fails.
const (
	OnFailureAbort        = "abort"
	OnFailureHoldPrevious = "hold_previous"
)

// DefaultCondThreshold is the covariance condition number above which the
// optimizer refuses its input. Sample estimates from short windows routinely
// exceed it; shrinkage keeps well below.
const DefaultCondThreshold = 1e12

// Config is the full configuration surface of a backtest run.
type Config struct {
	// WindowLength is the number of trailing observations per estimation.
	WindowLength int `yaml:"window_length" json:"window_length"`
	// RebalanceEvery is the number of periods between rebalances.
	RebalanceEvery int `yaml:"rebalance_every" json:"rebalance_every"`
	// Estimator selects the covariance estimator: "sample" or "shrinkage".
	Estimator   string        `yaml:"estimator" json:"estimator"`
	Constraints ConstraintSet `yaml:"constraints" json:"constraints"`
	// RiskFreeRate is annualized, e.g. 0.042 for 4.2%.
	RiskFreeRate   float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
	PeriodsPerYear int     `yaml:"periods_per_year" json:"periods_per_year"`
	// OnFailure is "abort" (default) or "hold_previous".
	OnFailure string `yaml:"on_failure" json:"on_failure"`
	// CondThreshold overrides DefaultCondThreshold when positive.
	CondThreshold float64 `yaml:"condition_threshold,omitempty" json:"condition_threshold,omitempty"`
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Estimator == "" {
		c.Estimator = EstimatorShrinkage
	}
	if c.OnFailure == "" {
		c.OnFailure = OnFailureAbort
	}
	if c.PeriodsPerYear == 0 {
		c.PeriodsPerYear = 12
	}
	if c.CondThreshold == 0 {
		c.CondThreshold = DefaultCondThreshold
	}
}

// Validate checks the configuration surface.
func (c Config) Validate() error {
	if c.WindowLength <= 0 {
		return fmt.Errorf("config: window_length must be positive, got %d", c.WindowLength)
	}
	if c.RebalanceEvery <= 0 {
		return fmt.Errorf("config: rebalance_every must be positive, got %d", c.RebalanceEvery)
	}
	if c.Estimator != EstimatorSample && c.Estimator != EstimatorShrinkage {
		return fmt.Errorf("config: unknown estimator %q", c.Estimator)
	}
	if c.OnFailure != OnFailureAbort && c.OnFailure != OnFailureHoldPrevious {
		return fmt.Errorf("config: unknown failure policy %q", c.OnFailure)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("config: periods_per_year must be positive, got %d", c.PeriodsPerYear)
	}
	if c.CondThreshold < 0 {
		return fmt.Errorf("config: condition_threshold must not be negative, got %g", c.CondThreshold)
	}
	return nil
}
