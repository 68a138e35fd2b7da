package minvar

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	eaopt "github.com/MaxHalford/eaopt"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/quantlabs/minvar/models"
)

// SweepVariant names one independent backtest configuration.
type SweepVariant struct {
	Name   string
	Config models.Config
}

// RunSweep executes independent backtest runs in parallel, one goroutine
// per variant. Each run owns its own engine and per-run state over the
// shared read-only dataset, so there is no cross-run interference.
func RunSweep(ctx context.Context, dataset *models.Dataset, variants []SweepVariant, logger zerolog.Logger) (map[string]*models.BacktestResult, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("sweep: no variants")
	}
	eg, ctx := errgroup.WithContext(ctx)
	results := make([]*models.BacktestResult, len(variants))
	for i := range variants {
		i := i
		eg.Go(func() error {
			engine, err := NewEngine(dataset, variants[i].Config, logger.With().Str("variant", variants[i].Name).Logger())
			if err != nil {
				return fmt.Errorf("variant %s: %w", variants[i].Name, err)
			}
			res, err := engine.Run(ctx)
			if err != nil {
				return fmt.Errorf("variant %s: %w", variants[i].Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]*models.BacktestResult, len(variants))
	for i, v := range variants {
		out[v.Name] = results[i]
	}
	return out, nil
}

// CompareEstimators runs the same configuration under both covariance
// estimators, the sample-vs-shrinkage comparison this library exists for.
func CompareEstimators(ctx context.Context, dataset *models.Dataset, base models.Config, logger zerolog.Logger) (map[string]*models.BacktestResult, error) {
	variants := make([]SweepVariant, 0, 2)
	for _, method := range []string{models.EstimatorSample, models.EstimatorShrinkage} {
		var cfg models.Config
		if err := copier.CopyWithOption(&cfg, &base, copier.Option{DeepCopy: true}); err != nil {
			return nil, fmt.Errorf("copying base config: %w", err)
		}
		cfg.Estimator = method
		variants = append(variants, SweepVariant{Name: method, Config: cfg})
	}
	return RunSweep(ctx, dataset, variants, logger)
}

// TuneMaxWeight searches for the uniform per-asset weight cap that
// maximizes the backtest Sharpe ratio, using an OES evolutionary search
// with a fixed-seed RNG so repeated tuning runs are reproducible. Returns
// the best cap and the backtest run at that cap.
func TuneMaxWeight(ctx context.Context, dataset *models.Dataset, base models.Config, logger zerolog.Logger) (float64, *models.BacktestResult, error) {
	n := dataset.NumAssets()
	if n == 0 {
		return 0, nil, models.InsufficientDataError{}
	}
	floor := 1 / float64(n)

	evaluate := func(x []float64) float64 {
		cap := clampCap(x[0], floor)
		res, err := runWithCap(ctx, dataset, base, cap, logger)
		if err != nil {
			// Infeasible or failed runs score poorly instead of aborting
			// the search; the search space includes bad caps by design.
			return 1e6
		}
		return -res.Metrics.SharpeRatio
	}

	oes, err := eaopt.NewOES(200, 30, 0.1, 0.05, false, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building OES search: %w", err)
	}
	oes.GA.RNG = rand.New(rand.NewSource(42))

	best, _, err := oes.Minimize(evaluate, []float64{(floor + 1) / 2})
	if err != nil {
		return 0, nil, fmt.Errorf("tuning max weight: %w", err)
	}

	cap := clampCap(best[0], floor)
	res, err := runWithCap(ctx, dataset, base, cap, logger)
	if err != nil {
		return 0, nil, fmt.Errorf("rerunning backtest at tuned cap %.4f: %w", cap, err)
	}
	logger.Info().Float64("max_weight", cap).Float64("sharpe", res.Metrics.SharpeRatio).Msg("tuned weight cap")
	return cap, res, nil
}

func clampCap(v, floor float64) float64 {
	// The cap must admit a fully invested portfolio: n*cap >= 1.
	return math.Min(1, math.Max(floor, v))
}

func runWithCap(ctx context.Context, dataset *models.Dataset, base models.Config, cap float64, logger zerolog.Logger) (*models.BacktestResult, error) {
	var cfg models.Config
	if err := copier.CopyWithOption(&cfg, &base, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	if cfg.Constraints.Bounds == nil {
		cfg.Constraints.Bounds = make(map[string]models.Bound)
	}
	lower := 0.0
	if !cfg.Constraints.LongOnly {
		lower = -cap
	}
	for _, id := range dataset.Assets() {
		cfg.Constraints.Bounds[id] = models.Bound{Min: lower, Max: cap}
	}
	engine, err := NewEngine(dataset, cfg, logger)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx)
}
