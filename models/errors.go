package models

import (
	"fmt"
	"time"
)

// InsufficientDataError reports an estimation window too small to produce a
// covariance estimate.
type InsufficientDataError struct {
	Observations int
	Assets       int
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d observations over %d assets (need at least 2 observations and 1 asset)",
		e.Observations, e.Assets)
}

// IllConditionedInputError reports a covariance matrix whose condition
// number exceeds the optimizer's threshold. The usual fix is shrinkage.
type IllConditionedInputError struct {
	Condition float64
	Threshold float64
}

func (e IllConditionedInputError) Error() string {
	return fmt.Sprintf("covariance matrix ill-conditioned: condition number %.3g exceeds threshold %.3g (apply shrinkage)",
		e.Condition, e.Threshold)
}

// InfeasibleConstraintsError reports a constraint set with no feasible
// weight vector.
type InfeasibleConstraintsError struct {
	Reason string
}

func (e InfeasibleConstraintsError) Error() string {
	return "infeasible constraints: " + e.Reason
}

// SolverNumericalError reports a solver that failed to converge or was
// handed a non-convex problem. Status carries the solver's own diagnosis;
// the last iterate is never returned in its place.
type SolverNumericalError struct {
	Status     string
	Iterations int
}

func (e SolverNumericalError) Error() string {
	if e.Iterations > 0 {
		return fmt.Sprintf("solver failed: %s after %d iterations", e.Status, e.Iterations)
	}
	return "solver failed: " + e.Status
}

// EmptySeriesError reports a metric applied to a zero-length return series.
type EmptySeriesError struct {
	Metric string
}

func (e EmptySeriesError) Error() string {
	return fmt.Sprintf("%s: empty return series", e.Metric)
}

// ZeroVolatilityError reports a Sharpe or Sortino ratio over a series with
// exactly zero volatility, instead of dividing into infinity.
type ZeroVolatilityError struct {
	Metric string
}

func (e ZeroVolatilityError) Error() string {
	return fmt.Sprintf("%s: volatility is exactly zero", e.Metric)
}

// StepError tags a failure with the rebalance date it occurred at.
type StepError struct {
	Date time.Time
	Err  error
}

func (e StepError) Error() string {
	return fmt.Sprintf("rebalance at %s: %v", e.Date.Format("2006-01-02"), e.Err)
}

func (e StepError) Unwrap() error { return e.Err }
