package models

import (
	"fmt"
	"math"
)

// Bound is a per-asset weight interval.
type Bound struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// ConstraintSet describes the feasible region for a weight vector. It is
// passed by value into every optimization call and never mutated.
type ConstraintSet struct {
	// FullyInvested requires the weights to sum to 1.
	FullyInvested bool `yaml:"fully_invested" json:"fully_invested"`
	// LongOnly forbids negative weights.
	LongOnly bool `yaml:"long_only" json:"long_only"`
	// Bounds are optional per-asset weight intervals keyed by asset id.
	Bounds map[string]Bound `yaml:"bounds,omitempty" json:"bounds,omitempty"`
	// MaxPositions caps the number of nonzero weights. 0 means unlimited.
	MaxPositions int `yaml:"max_positions,omitempty" json:"max_positions,omitempty"`
}

// Resolve expands the constraint set into lower and upper bound vectors in
// asset order. Assets without explicit bounds get (-Inf, +Inf), or (0, +Inf)
// under LongOnly.
func (cs ConstraintSet) Resolve(assets []string) (lo, hi []float64) {
	lo = make([]float64, len(assets))
	hi = make([]float64, len(assets))
	for j, id := range assets {
		lo[j] = math.Inf(-1)
		hi[j] = math.Inf(1)
		if cs.LongOnly {
			lo[j] = 0
		}
		if b, ok := cs.Bounds[id]; ok {
			lo[j] = math.Max(lo[j], b.Min)
			hi[j] = math.Min(hi[j], b.Max)
		}
	}
	return lo, hi
}

// Validate reports an InfeasibleConstraintsError when the constraint set
// admits no feasible weight vector for the given assets.
func (cs ConstraintSet) Validate(assets []string) error {
	lo, hi := cs.Resolve(assets)
	var loSum, hiSum float64
	for j := range assets {
		if lo[j] > hi[j] {
			return InfeasibleConstraintsError{
				Reason: fmt.Sprintf("asset %s: lower bound %.4f above upper bound %.4f", assets[j], lo[j], hi[j]),
			}
		}
		loSum += lo[j]
		hiSum += hi[j]
	}
	if cs.MaxPositions < 0 {
		return InfeasibleConstraintsError{Reason: fmt.Sprintf("negative max positions %d", cs.MaxPositions)}
	}
	if cs.FullyInvested {
		if !math.IsInf(loSum, 0) && loSum > 1+1e-12 {
			return InfeasibleConstraintsError{
				Reason: fmt.Sprintf("lower bounds sum to %.4f, above full investment budget 1", loSum),
			}
		}
		if !math.IsInf(hiSum, 0) && hiSum < 1-1e-12 {
			return InfeasibleConstraintsError{
				Reason: fmt.Sprintf("upper bounds sum to %.4f, below full investment budget 1", hiSum),
			}
		}
	}
	return nil
}
