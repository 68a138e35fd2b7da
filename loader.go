package minvar

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/quantlabs/minvar/models"
)

// returnRecord is one row of a record-oriented return table:
// date,asset,return.
type returnRecord struct {
	Date   string  `csv:"date"`
	Asset  string  `csv:"asset"`
	Return float64 `csv:"return"`
}

// trajectoryRecord is one exported weight row of a backtest trajectory.
type trajectoryRecord struct {
	Date         string  `csv:"date"`
	Asset        string  `csv:"asset"`
	Weight       float64 `csv:"weight"`
	Turnover     float64 `csv:"turnover"`
	HeldPrevious bool    `csv:"held_previous"`
}

// LoadReturnsCSV reads an already-aligned return table in record-oriented
// form (date,asset,return; dates formatted 2006-01-02) into a Dataset. The
// table must be complete: every date carries a return for every asset.
// Missing cells are rejected, never filled.
func LoadReturnsCSV(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening return table: %w", err)
	}
	defer f.Close()

	var records []*returnRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing return table %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("return table %s is empty", path)
	}

	assetSet := make(map[string]bool)
	byDate := make(map[string]map[string]float64)
	for _, rec := range records {
		if rec.Asset == "" {
			return nil, fmt.Errorf("return table %s: row with empty asset id", path)
		}
		assetSet[rec.Asset] = true
		row, ok := byDate[rec.Date]
		if !ok {
			row = make(map[string]float64)
			byDate[rec.Date] = row
		}
		if _, dup := row[rec.Asset]; dup {
			return nil, fmt.Errorf("return table %s: duplicate cell for %s at %s", path, rec.Asset, rec.Date)
		}
		row[rec.Asset] = rec.Return
	}

	assets := make([]string, 0, len(assetSet))
	for id := range assetSet {
		assets = append(assets, id)
	}
	sort.Strings(assets)

	dateKeys := make([]string, 0, len(byDate))
	for d := range byDate {
		dateKeys = append(dateKeys, d)
	}
	sort.Strings(dateKeys)

	dates := make([]time.Time, len(dateKeys))
	rows := make([][]float64, len(dateKeys))
	for i, d := range dateKeys {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("return table %s: bad date %q: %w", path, d, err)
		}
		dates[i] = parsed
		row := make([]float64, len(assets))
		for j, id := range assets {
			v, ok := byDate[d][id]
			if !ok {
				return nil, fmt.Errorf("return table %s: missing return for %s at %s", path, id, d)
			}
			row[j] = v
		}
		rows[i] = row
	}

	return models.NewDataset(assets, dates, rows)
}

// WriteTrajectoryCSV exports a backtest trajectory as long-format weight
// rows, one per (rebalance, asset).
func WriteTrajectoryCSV(path string, result *models.BacktestResult) error {
	records := make([]*trajectoryRecord, 0, len(result.Trajectory))
	for _, step := range result.Trajectory {
		assets := make([]string, 0, len(step.Allocation.Weights))
		for id := range step.Allocation.Weights {
			assets = append(assets, id)
		}
		sort.Strings(assets)
		for _, id := range assets {
			records = append(records, &trajectoryRecord{
				Date:         step.Date.Format("2006-01-02"),
				Asset:        id,
				Weight:       step.Allocation.Weights[id],
				Turnover:     step.Turnover,
				HeldPrevious: step.HeldPrevious,
			})
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, os.ModePerm)
	if err != nil {
		return fmt.Errorf("creating trajectory file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&records, f); err != nil {
		return fmt.Errorf("writing trajectory file: %w", err)
	}
	return nil
}
