package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(n int) []time.Time {
	dates := make([]time.Time, n)
	base := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = base.AddDate(0, i, 0)
	}
	return dates
}

func TestNewDatasetValidation(t *testing.T) {
	dates := monthly(2)
	rows := [][]float64{{0.01, 0.02}, {-0.01, 0.03}}

	_, err := NewDataset(nil, dates, rows)
	assert.Error(t, err)

	_, err = NewDataset([]string{"AAA", "AAA"}, dates, rows)
	assert.ErrorContains(t, err, "duplicate asset")

	_, err = NewDataset([]string{"AAA", ""}, dates, rows)
	assert.ErrorContains(t, err, "empty asset id")

	_, err = NewDataset([]string{"AAA", "BBB"}, dates, [][]float64{{0.01, 0.02}, {-0.01}})
	assert.ErrorContains(t, err, "row 1")

	_, err = NewDataset([]string{"AAA", "BBB"}, []time.Time{dates[1], dates[0]}, rows)
	assert.ErrorContains(t, err, "strictly increasing")

	_, err = NewDataset([]string{"AAA", "BBB"}, dates, [][]float64{{0.01, 0.02}, {-0.01, math.NaN()}})
	assert.ErrorContains(t, err, "invalid return")

	ds, err := NewDataset([]string{"AAA", "BBB"}, dates, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 2, ds.NumAssets())
	assert.Equal(t, []string{"AAA", "BBB"}, ds.Assets())
	j, ok := ds.AssetIndex("BBB")
	require.True(t, ok)
	assert.Equal(t, 1, j)
	assert.Equal(t, 0.03, ds.At(1, 1))
	assert.Equal(t, []float64{0.02, 0.03}, ds.Column(1))
}

func TestDatasetIsDetachedFromInput(t *testing.T) {
	rows := [][]float64{{0.01}, {0.02}}
	ds, err := NewDataset([]string{"AAA"}, monthly(2), rows)
	require.NoError(t, err)

	rows[0][0] = 99
	assert.Equal(t, 0.01, ds.At(0, 0))
}

func TestDatasetWindow(t *testing.T) {
	n := 10
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = []float64{float64(i) / 100}
	}
	ds, err := NewDataset([]string{"AAA"}, monthly(n), rows)
	require.NoError(t, err)

	w, err := ds.Window(3, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, w.Len())
	assert.Equal(t, ds.Date(3), w.Date(0))
	assert.Equal(t, ds.At(3, 0), w.At(0, 0))
	assert.Equal(t, ds.At(6, 0), w.At(3, 0))

	_, err = ds.Window(-1, 5)
	assert.Error(t, err)
	_, err = ds.Window(5, 11)
	assert.Error(t, err)
	_, err = ds.Window(7, 3)
	assert.Error(t, err)

	empty, err := ds.Window(4, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}
