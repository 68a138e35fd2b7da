package models

import "time"

// Rebalance is one step of a backtest trajectory: the allocation computed at
// a rebalance date, the realized portfolio returns while it was held, and
// the turnover charged against the previous allocation.
type Rebalance struct {
	Date          time.Time  `json:"date"`
	Allocation    Allocation `json:"allocation"`
	PeriodReturns []float64  `json:"period_returns"`
	Turnover      float64    `json:"turnover"`
	// HeldPrevious marks a step where estimation or optimization failed and
	// the engine kept the prior allocation under the hold_previous policy.
	HeldPrevious bool   `json:"held_previous,omitempty"`
	FailureNote  string `json:"failure_note,omitempty"`
}

// Metrics summarizes a realized return trajectory.
type Metrics struct {
	TotalReturn          float64 `json:"total_return"`
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	SortinoRatio         float64 `json:"sortino_ratio"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	WinRate              float64 `json:"win_rate"`
	BestPeriod           float64 `json:"best_period"`
	WorstPeriod          float64 `json:"worst_period"`
	ValueAtRisk95        float64 `json:"value_at_risk_95"`
	AverageTurnover      float64 `json:"average_turnover"`
}

// BacktestResult is the finalized output of one backtest run. Immutable once
// the run completes.
type BacktestResult struct {
	RunID      string      `json:"run_id"`
	Method     string      `json:"method"`
	Config     Config      `json:"config"`
	Trajectory []Rebalance `json:"trajectory"`
	// Returns is the full realized per-period return series across all holds.
	Returns []float64 `json:"returns"`
	Metrics Metrics   `json:"metrics"`
}

// NumRebalances returns the number of rebalance points in the trajectory.
func (r *BacktestResult) NumRebalances() int { return len(r.Trajectory) }
