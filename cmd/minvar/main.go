package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	minvar "github.com/quantlabs/minvar"
	"github.com/quantlabs/minvar/settings"
)

var (
	dataPath   string
	configPath string
	outPath    string
	verbose    bool
)

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	root := &cobra.Command{
		Use:          "minvar",
		Short:        "Minimum-variance portfolio backtesting",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dataPath, "data", "", "return table CSV (date,asset,return)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "backtest config YAML")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	backtest := &cobra.Command{
		Use:   "backtest",
		Short: "Run a single rolling-window backtest",
		RunE:  runBacktest,
	}
	backtest.Flags().StringVar(&outPath, "out", "", "write the weight trajectory to this CSV")

	compare := &cobra.Command{
		Use:   "compare",
		Short: "Run the same backtest under the sample and shrinkage estimators",
		RunE:  runCompare,
	}

	tune := &cobra.Command{
		Use:   "tune",
		Short: "Search for the per-asset weight cap with the best Sharpe ratio",
		RunE:  runTune,
	}

	root.AddCommand(backtest, compare, tune)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadInputs() (*minvar.Engine, error) {
	logger := newLogger()
	dataset, err := minvar.LoadReturnsCSV(dataPath)
	if err != nil {
		return nil, err
	}
	cfg, err := settings.Load(configPath)
	if err != nil {
		return nil, err
	}
	return minvar.NewEngine(dataset, cfg, logger)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	engine, err := loadInputs()
	if err != nil {
		return err
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		if date, ok := minvar.IsStepFailure(err); ok {
			return fmt.Errorf("backtest aborted at %s: %w", date.Format("2006-01-02"), err)
		}
		return err
	}
	if outPath != "" {
		if err := minvar.WriteTrajectoryCSV(outPath, result); err != nil {
			return err
		}
	}
	fmt.Printf("run %s: %d rebalances, sharpe %.4f, max drawdown %.4f\n",
		result.RunID, result.NumRebalances(), result.Metrics.SharpeRatio, result.Metrics.MaxDrawdown)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	dataset, err := minvar.LoadReturnsCSV(dataPath)
	if err != nil {
		return err
	}
	cfg, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	results, err := minvar.CompareEstimators(context.Background(), dataset, cfg, logger)
	if err != nil {
		return err
	}
	for method, res := range results {
		fmt.Printf("%-10s sharpe %.4f  vol %.4f  turnover %.4f\n",
			method, res.Metrics.SharpeRatio, res.Metrics.AnnualizedVolatility, res.Metrics.AverageTurnover)
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	dataset, err := minvar.LoadReturnsCSV(dataPath)
	if err != nil {
		return err
	}
	cfg, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	cap, res, err := minvar.TuneMaxWeight(context.Background(), dataset, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Printf("best max weight %.4f with sharpe %.4f\n", cap, res.Metrics.SharpeRatio)
	return nil
}
