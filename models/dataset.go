package models

import (
	"fmt"
	"math"
	"time"
)

// Dataset is an aligned table of periodic asset returns. Rows are ordered by
// a strictly increasing time index and every row carries a return for every
// asset. A Dataset is immutable after construction; window slices share the
// backing storage and must be treated as read-only views.
type Dataset struct {
	assets []string
	index  map[string]int
	dates  []time.Time
	rows   [][]float64
}

// NewDataset validates and builds a Dataset. rows[i][j] is the period return
// of assets[j] over the period ending at dates[i]. Gaps must be resolved by
// the caller beforehand: NaN or Inf cells are rejected, never filled.
func NewDataset(assets []string, dates []time.Time, rows [][]float64) (*Dataset, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("dataset: no assets")
	}
	if len(dates) != len(rows) {
		return nil, fmt.Errorf("dataset: %d dates but %d rows", len(dates), len(rows))
	}
	index := make(map[string]int, len(assets))
	for j, id := range assets {
		if id == "" {
			return nil, fmt.Errorf("dataset: empty asset id at column %d", j)
		}
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("dataset: duplicate asset id %q", id)
		}
		index[id] = j
	}
	for i, row := range rows {
		if len(row) != len(assets) {
			return nil, fmt.Errorf("dataset: row %d has %d values, want %d", i, len(row), len(assets))
		}
		if i > 0 && !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("dataset: time index not strictly increasing at row %d (%s -> %s)",
				i, dates[i-1].Format("2006-01-02"), dates[i].Format("2006-01-02"))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("dataset: invalid return %v for %s at %s", v, assets[j], dates[i].Format("2006-01-02"))
			}
		}
	}

	ds := &Dataset{
		assets: append([]string(nil), assets...),
		index:  index,
		dates:  append([]time.Time(nil), dates...),
		rows:   make([][]float64, len(rows)),
	}
	for i, row := range rows {
		ds.rows[i] = append([]float64(nil), row...)
	}
	return ds, nil
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.rows) }

// NumAssets returns the number of assets.
func (d *Dataset) NumAssets() int { return len(d.assets) }

// Assets returns a copy of the asset ids in column order.
func (d *Dataset) Assets() []string { return append([]string(nil), d.assets...) }

// AssetIndex returns the column of the given asset id.
func (d *Dataset) AssetIndex(id string) (int, bool) {
	j, ok := d.index[id]
	return j, ok
}

// Date returns the time index of observation i.
func (d *Dataset) Date(i int) time.Time { return d.dates[i] }

// At returns the return of column j at observation i.
func (d *Dataset) At(i, j int) float64 { return d.rows[i][j] }

// Column returns a copy of the full return series for column j.
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.rows))
	for i := range d.rows {
		col[i] = d.rows[i][j]
	}
	return col
}

// Window returns the observations [start, end) as a read-only view sharing
// the receiver's backing storage.
func (d *Dataset) Window(start, end int) (*Dataset, error) {
	if start < 0 || end > len(d.rows) || start > end {
		return nil, fmt.Errorf("dataset: window [%d, %d) out of range [0, %d)", start, end, len(d.rows))
	}
	return &Dataset{
		assets: d.assets,
		index:  d.index,
		dates:  d.dates[start:end],
		rows:   d.rows[start:end],
	}, nil
}
