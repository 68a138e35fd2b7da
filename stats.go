package minvar

import (
	"errors"
	"math"

	gaussian "github.com/chobie/go-gaussian"
	"gonum.org/v1/gonum/stat"

	"github.com/quantlabs/minvar/models"
)

// Performance metrics over a realized per-period return series. All of them
// are pure functions and fail on empty input instead of returning zeros.

// TotalReturn is the compounded return over the whole series.
func TotalReturn(returns []float64) (float64, error) {
	if len(returns) == 0 {
		return 0, models.EmptySeriesError{Metric: "total return"}
	}
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	return growth - 1, nil
}

// AnnualizedReturn compounds the series geometrically and scales it to a
// year of periodsPerYear periods.
func AnnualizedReturn(returns []float64, periodsPerYear int) (float64, error) {
	total, err := TotalReturn(returns)
	if err != nil {
		return 0, models.EmptySeriesError{Metric: "annualized return"}
	}
	growth := 1 + total
	if growth <= 0 {
		// A wiped-out portfolio annualizes to a full loss.
		return -1, nil
	}
	exponent := float64(periodsPerYear) / float64(len(returns))
	return math.Pow(growth, exponent) - 1, nil
}

// AnnualizedVolatility is the sample standard deviation scaled by the
// square root of periods per year.
func AnnualizedVolatility(returns []float64, periodsPerYear int) (float64, error) {
	if len(returns) == 0 {
		return 0, models.EmptySeriesError{Metric: "annualized volatility"}
	}
	if len(returns) == 1 {
		return 0, nil
	}
	_, std := stat.MeanStdDev(returns, nil)
	return std * math.Sqrt(float64(periodsPerYear)), nil
}

// SharpeRatio is the annualized excess return over annualized volatility.
// Exactly zero volatility is an error, not an infinity.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) (float64, error) {
	if len(returns) == 0 {
		return 0, models.EmptySeriesError{Metric: "sharpe ratio"}
	}
	annRet, err := AnnualizedReturn(returns, periodsPerYear)
	if err != nil {
		return 0, err
	}
	annVol, err := AnnualizedVolatility(returns, periodsPerYear)
	if err != nil {
		return 0, err
	}
	if annVol == 0 {
		return 0, models.ZeroVolatilityError{Metric: "sharpe ratio"}
	}
	return (annRet - riskFreeRate) / annVol, nil
}

// SortinoRatio penalizes downside deviation only: the denominator is the
// root mean square of the negative period returns, annualized.
func SortinoRatio(returns []float64, riskFreeRate float64, periodsPerYear int) (float64, error) {
	if len(returns) == 0 {
		return 0, models.EmptySeriesError{Metric: "sortino ratio"}
	}
	annRet, err := AnnualizedReturn(returns, periodsPerYear)
	if err != nil {
		return 0, err
	}
	var downside float64
	for _, r := range returns {
		if r < 0 {
			downside += r * r
		}
	}
	downsideDev := math.Sqrt(downside/float64(len(returns))) * math.Sqrt(float64(periodsPerYear))
	if downsideDev == 0 {
		return 0, models.ZeroVolatilityError{Metric: "sortino ratio"}
	}
	return (annRet - riskFreeRate) / downsideDev, nil
}

// MaxDrawdown is the largest peak-to-trough decline of the compounded
// cumulative-return curve, reported as a nonpositive fraction.
func MaxDrawdown(returns []float64) (float64, error) {
	if len(returns) == 0 {
		return 0, models.EmptySeriesError{Metric: "max drawdown"}
	}
	equity := 1.0
	peak := 1.0
	drawdown := 0.0
	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := equity/peak - 1; dd < drawdown {
			drawdown = dd
		}
	}
	return drawdown, nil
}

// WinRate is the share of strictly positive periods.
func WinRate(returns []float64) (float64, error) {
	if len(returns) == 0 {
		return 0, models.EmptySeriesError{Metric: "win rate"}
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns)), nil
}

// ValueAtRisk is the parametric (normal) per-period return quantile at the
// given confidence level, e.g. 0.95. Reported as a signed return: a VaR of
// -0.08 means the modeled 5% worst case loses 8% in one period.
func ValueAtRisk(returns []float64, confidence float64) (float64, error) {
	if len(returns) == 0 {
		return 0, models.EmptySeriesError{Metric: "value at risk"}
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if len(returns) == 1 || std == 0 {
		return mean, nil
	}
	norm := gaussian.NewGaussian(0, 1)
	z := norm.Ppf(1 - confidence)
	return mean + z*std, nil
}

// Summarize computes the full metrics record for a realized return series.
// AverageTurnover is left for the engine, which owns the trajectory.
func Summarize(returns []float64, cfg models.Config) (models.Metrics, error) {
	var m models.Metrics
	var err error

	if m.TotalReturn, err = TotalReturn(returns); err != nil {
		return models.Metrics{}, err
	}
	if m.AnnualizedReturn, err = AnnualizedReturn(returns, cfg.PeriodsPerYear); err != nil {
		return models.Metrics{}, err
	}
	if m.AnnualizedVolatility, err = AnnualizedVolatility(returns, cfg.PeriodsPerYear); err != nil {
		return models.Metrics{}, err
	}
	if m.SharpeRatio, err = SharpeRatio(returns, cfg.RiskFreeRate, cfg.PeriodsPerYear); err != nil {
		return models.Metrics{}, err
	}
	// A run with no losing periods has no downside deviation; report a zero
	// Sortino rather than failing the whole summary.
	if m.SortinoRatio, err = SortinoRatio(returns, cfg.RiskFreeRate, cfg.PeriodsPerYear); err != nil {
		var zv models.ZeroVolatilityError
		if !errors.As(err, &zv) {
			return models.Metrics{}, err
		}
		m.SortinoRatio = 0
	}
	if m.MaxDrawdown, err = MaxDrawdown(returns); err != nil {
		return models.Metrics{}, err
	}
	if m.WinRate, err = WinRate(returns); err != nil {
		return models.Metrics{}, err
	}
	m.BestPeriod, m.WorstPeriod = bestWorst(returns)
	if m.ValueAtRisk95, err = ValueAtRisk(returns, 0.95); err != nil {
		return models.Metrics{}, err
	}
	return m, nil
}

func bestWorst(returns []float64) (best, worst float64) {
	best, worst = returns[0], returns[0]
	for _, r := range returns[1:] {
		if r > best {
			best = r
		}
		if r < worst {
			worst = r
		}
	}
	return best, worst
}
