package minvar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/structs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantlabs/minvar/models"
	"github.com/quantlabs/minvar/utils"
)

// Engine simulates periodic rebalancing over a historical span. At each
// scheduled rebalance it estimates covariance from the trailing window
// ending strictly before the rebalance date, optimizes, then holds the
// allocation and accrues realized returns until the next rebalance. The
// per-run state lives inside Run, so one Engine may serve concurrent
// independent runs over the same read-only dataset.
type Engine struct {
	dataset   *models.Dataset
	config    models.Config
	estimator CovarianceEstimator
	optimizer *Optimizer
	log       zerolog.Logger
}

// NewEngine validates the configuration and builds an engine over the
// dataset. The dataset must not be mutated for the engine's lifetime.
func NewEngine(dataset *models.Dataset, cfg models.Config, logger zerolog.Logger) (*Engine, error) {
	if dataset == nil || dataset.Len() == 0 {
		return nil, models.InsufficientDataError{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	estimator, err := NewEstimator(cfg.Estimator)
	if err != nil {
		return nil, err
	}
	optimizer := NewOptimizer()
	optimizer.CondThreshold = cfg.CondThreshold
	return &Engine{
		dataset:   dataset,
		config:    cfg,
		estimator: estimator,
		optimizer: optimizer,
		log:       logger.With().Str("component", "backtest").Str("estimator", cfg.Estimator).Logger(),
	}, nil
}

// Run executes the backtest. The first rebalance falls on the first
// observation with a full trailing window; estimation at index t sees
// observations [t-window, t) only.
func (e *Engine) Run(ctx context.Context) (*models.BacktestResult, error) {
	cfg := e.config
	if e.dataset.Len() <= cfg.WindowLength {
		return nil, models.InsufficientDataError{
			Observations: e.dataset.Len(),
			Assets:       e.dataset.NumAssets(),
		}
	}

	start := time.Now()
	var (
		trajectory []models.Rebalance
		series     []float64
		prev       *models.Allocation
	)

	for t := cfg.WindowLength; t < e.dataset.Len(); t += cfg.RebalanceEvery {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := e.dataset.Date(t)

		alloc, stepErr := e.allocate(t, date)
		heldPrevious := false
		failureNote := ""
		if stepErr != nil {
			wrapped := models.StepError{Date: date, Err: stepErr}
			if cfg.OnFailure != models.OnFailureHoldPrevious || prev == nil {
				return nil, wrapped
			}
			e.log.Warn().Time("date", date).Err(stepErr).Msg("step failed, holding previous allocation")
			held := *prev
			held.AsOf = date
			alloc = held
			heldPrevious = true
			failureNote = stepErr.Error()
		}

		turnover := 0.0
		if prev != nil {
			turnover = models.TurnoverBetween(*prev, alloc)
		}

		end := t + cfg.RebalanceEvery
		if end > e.dataset.Len() {
			end = e.dataset.Len()
		}
		held := make([]float64, 0, end-t)
		for i := t; i < end; i++ {
			held = append(held, e.periodReturn(alloc, i))
		}
		series = append(series, held...)

		trajectory = append(trajectory, models.Rebalance{
			Date:          date,
			Allocation:    alloc,
			PeriodReturns: held,
			Turnover:      turnover,
			HeldPrevious:  heldPrevious,
			FailureNote:   failureNote,
		})

		e.log.Debug().
			Time("date", date).
			Int("window_start", t-cfg.WindowLength).
			Int("window_end", t).
			Float64("turnover", turnover).
			Msg("rebalanced")

		prev = &alloc
	}

	metrics, err := Summarize(series, cfg)
	if err != nil {
		return nil, fmt.Errorf("summarizing backtest returns: %w", err)
	}
	metrics.AverageTurnover = averageTurnover(trajectory)

	result := &models.BacktestResult{
		RunID:      uuid.New().String(),
		Method:     cfg.Estimator,
		Config:     cfg,
		Trajectory: trajectory,
		Returns:    series,
		Metrics:    metrics,
	}

	e.log.Info().
		Str("run_id", result.RunID).
		Int("rebalances", len(trajectory)).
		Int("periods", len(series)).
		Dur("elapsed", time.Since(start)).
		Str("metrics", utils.CreateKeyValuePairs(structs.Map(metrics), true)).
		Msg("backtest complete")

	return result, nil
}

// allocate estimates and optimizes for the rebalance at index t using the
// trailing window [t-window, t). Data at t or later is never visible here;
// leaking it would be a correctness bug, not a tunable.
func (e *Engine) allocate(t int, date time.Time) (models.Allocation, error) {
	window, err := e.dataset.Window(t-e.config.WindowLength, t)
	if err != nil {
		return models.Allocation{}, err
	}
	cov, err := e.estimator.Estimate(window)
	if err != nil {
		return models.Allocation{}, err
	}
	alloc, err := e.optimizer.Optimize(cov, e.config.Constraints)
	if err != nil {
		return models.Allocation{}, err
	}
	alloc.AsOf = date
	return alloc, nil
}

// periodReturn is the realized portfolio return for observation i under the
// held weights. Weights are not drift-corrected within a hold.
func (e *Engine) periodReturn(alloc models.Allocation, i int) float64 {
	var r float64
	for id, w := range alloc.Weights {
		if j, ok := e.dataset.AssetIndex(id); ok {
			r += w * e.dataset.At(i, j)
		}
	}
	return r
}

func averageTurnover(trajectory []models.Rebalance) float64 {
	if len(trajectory) == 0 {
		return 0
	}
	var sum float64
	for _, step := range trajectory {
		sum += step.Turnover
	}
	return sum / float64(len(trajectory))
}

// IsStepFailure reports whether err is a per-rebalance failure and returns
// the offending date, letting callers distinguish a data problem at a
// single step from a configuration error.
func IsStepFailure(err error) (time.Time, bool) {
	var step models.StepError
	if errors.As(err, &step) {
		return step.Date, true
	}
	return time.Time{}, false
}
