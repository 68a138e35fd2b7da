package models

import (
	"math"
	"time"
)

// Allocation is a weight vector keyed by asset id, tagged with the
// estimation method and the as-of date it was computed for. Immutable once
// produced by the optimizer.
type Allocation struct {
	Weights map[string]float64 `json:"weights"`
	AsOf    time.Time          `json:"as_of_date"`
	Method  string             `json:"method"`
}

// Weight returns the weight held in the given asset, 0 when absent.
func (a Allocation) Weight(asset string) float64 { return a.Weights[asset] }

// Sum returns the total invested weight.
func (a Allocation) Sum() float64 {
	var s float64
	for _, w := range a.Weights {
		s += w
	}
	return s
}

// Positions returns the number of nonzero weights beyond tolerance.
func (a Allocation) Positions(tol float64) int {
	n := 0
	for _, w := range a.Weights {
		if math.Abs(w) > tol {
			n++
		}
	}
	return n
}

// TurnoverBetween is the sum of absolute weight changes from prev to next,
// the proxy for trading cost charged at a rebalance.
func TurnoverBetween(prev, next Allocation) float64 {
	var t float64
	for id, w := range next.Weights {
		t += math.Abs(w - prev.Weights[id])
	}
	for id, w := range prev.Weights {
		if _, ok := next.Weights[id]; !ok {
			t += math.Abs(w)
		}
	}
	return t
}
