package minvar

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/quantlabs/minvar/models"
)

const (
	defaultMaxIter  = 20000
	defaultSolveTol = 1e-11
	// psdTol is the relative tolerance below zero an eigenvalue may sit
	// before the matrix is rejected as non-PSD.
	psdTol = 1e-10
	// budgetTol is the tolerance on the full-investment budget.
	budgetTol = 1e-9
)

// Optimizer solves the minimum-variance program: minimize w'Σw subject to a
// ConstraintSet. The unconstrained-but-budget case is solved in closed form
// through a Cholesky factorization; bounded and long-only problems run a
// projected gradient descent with projection onto the budget-and-box region.
// Both paths are deterministic, so identical inputs yield identical weights.
type Optimizer struct {
	// CondThreshold rejects inputs whose condition number exceeds it.
	CondThreshold float64
	MaxIter       int
	Tol           float64
}

// NewOptimizer returns an optimizer with default tolerances.
func NewOptimizer() *Optimizer {
	return &Optimizer{
		CondThreshold: models.DefaultCondThreshold,
		MaxIter:       defaultMaxIter,
		Tol:           defaultSolveTol,
	}
}

// Optimize computes the minimum-variance allocation for the given covariance
// estimate and constraints. The returned allocation carries the estimation
// method tag; the caller stamps the as-of date.
func (o *Optimizer) Optimize(cov *models.CovarianceMatrix, cs models.ConstraintSet) (models.Allocation, error) {
	n := cov.Dim()
	if n < 1 {
		return models.Allocation{}, models.InsufficientDataError{Observations: cov.SampleSize, Assets: n}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(cov.Sigma, false); !ok {
		return models.Allocation{}, models.SolverNumericalError{Status: "eigendecomposition of covariance matrix failed"}
	}
	vals := eig.Values(nil)
	minEig, maxEig := vals[0], vals[n-1]
	if minEig < -psdTol*math.Max(1, math.Abs(maxEig)) {
		return models.Allocation{}, models.SolverNumericalError{
			Status: fmt.Sprintf("covariance matrix is not positive semidefinite (min eigenvalue %.3g), problem is non-convex", minEig),
		}
	}

	threshold := o.CondThreshold
	if threshold <= 0 {
		threshold = models.DefaultCondThreshold
	}
	cond := math.Inf(1)
	if minEig > 0 {
		cond = maxEig / minEig
	}
	if cond > threshold {
		return models.Allocation{}, models.IllConditionedInputError{Condition: cond, Threshold: threshold}
	}

	if err := cs.Validate(cov.Assets); err != nil {
		return models.Allocation{}, err
	}
	lo, hi := cs.Resolve(cov.Assets)

	w, err := o.solve(cov.Sigma, lo, hi, cs.FullyInvested, maxEig)
	if err != nil {
		return models.Allocation{}, err
	}

	if cs.MaxPositions > 0 && cs.MaxPositions < n {
		w, err = o.restrictPositions(cov, cs, w, lo, hi, maxEig)
		if err != nil {
			return models.Allocation{}, err
		}
	}

	weights := make(map[string]float64, n)
	for j, id := range cov.Assets {
		weights[id] = w[j]
	}
	return models.Allocation{Weights: weights, Method: cov.Method}, nil
}

// restrictPositions enforces the cardinality cap deterministically: keep the
// k largest relaxed weights by magnitude (ties broken by asset order), force
// the rest to zero, and re-solve on the restricted support.
func (o *Optimizer) restrictPositions(cov *models.CovarianceMatrix, cs models.ConstraintSet, relaxed []float64, lo, hi []float64, maxEig float64) ([]float64, error) {
	n := len(relaxed)
	k := cs.MaxPositions
	order := make([]int, n)
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		wa, wb := math.Abs(relaxed[order[a]]), math.Abs(relaxed[order[b]])
		if wa != wb {
			return wa > wb
		}
		return order[a] < order[b]
	})

	keep := make(map[int]bool, k)
	for _, j := range order[:k] {
		keep[j] = true
	}

	rlo := append([]float64(nil), lo...)
	rhi := append([]float64(nil), hi...)
	var loSum, hiSum float64
	for j := 0; j < n; j++ {
		if !keep[j] {
			if rlo[j] > 0 {
				return nil, models.InfeasibleConstraintsError{
					Reason: fmt.Sprintf("max position cap %d conflicts with positive lower bound on %s", k, cov.Assets[j]),
				}
			}
			rlo[j], rhi[j] = 0, 0
		}
		loSum += rlo[j]
		hiSum += rhi[j]
	}
	if cs.FullyInvested {
		if !math.IsInf(loSum, 0) && loSum > 1+budgetTol {
			return nil, models.InfeasibleConstraintsError{
				Reason: fmt.Sprintf("restricted lower bounds sum to %.4f under max position cap %d", loSum, k),
			}
		}
		if !math.IsInf(hiSum, 0) && hiSum < 1-budgetTol {
			return nil, models.InfeasibleConstraintsError{
				Reason: fmt.Sprintf("restricted upper bounds sum to %.4f under max position cap %d", hiSum, k),
			}
		}
	}

	return o.solve(cov.Sigma, rlo, rhi, cs.FullyInvested, maxEig)
}

// solve minimizes w'Σw over the box [lo, hi], intersected with the budget
// hyperplane when budget is set.
func (o *Optimizer) solve(sigma *mat.SymDense, lo, hi []float64, budget bool, maxEig float64) ([]float64, error) {
	n := len(lo)
	boxless := true
	for j := 0; j < n; j++ {
		if !math.IsInf(lo[j], -1) || !math.IsInf(hi[j], 1) {
			boxless = false
			break
		}
	}

	if budget && boxless {
		return solveBudgetClosedForm(sigma)
	}
	if !budget && boxless {
		// Unconstrained minimum of a PSD quadratic.
		return make([]float64, n), nil
	}

	w := make([]float64, n)
	for j := range w {
		w[j] = 1 / float64(n)
	}
	var err error
	w, err = projectFeasible(w, lo, hi, budget)
	if err != nil {
		return nil, err
	}
	if maxEig <= 0 {
		// Zero objective: every feasible point is optimal.
		return w, nil
	}

	maxIter := o.MaxIter
	if maxIter <= 0 {
		maxIter = defaultMaxIter
	}
	tol := o.Tol
	if tol <= 0 {
		tol = defaultSolveTol
	}

	step := 1 / maxEig
	g := make([]float64, n)
	y := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		for i := 0; i < n; i++ {
			var s float64
			for j := 0; j < n; j++ {
				s += sigma.At(i, j) * w[j]
			}
			g[i] = s
		}
		for j := 0; j < n; j++ {
			y[j] = w[j] - step*g[j]
		}
		next, err := projectFeasible(y, lo, hi, budget)
		if err != nil {
			return nil, err
		}
		var moved float64
		for j := 0; j < n; j++ {
			if d := math.Abs(next[j] - w[j]); d > moved {
				moved = d
			}
		}
		copy(w, next)
		if moved < tol {
			return w, nil
		}
	}
	return nil, models.SolverNumericalError{
		Status:     "projected gradient did not converge",
		Iterations: maxIter,
	}
}

// solveBudgetClosedForm returns w = Σ⁻¹1 / (1'Σ⁻¹1).
func solveBudgetClosedForm(sigma *mat.SymDense) ([]float64, error) {
	n := sigma.SymmetricDim()
	var chol mat.Cholesky
	if ok := chol.Factorize(sigma); !ok {
		return nil, models.SolverNumericalError{Status: "cholesky factorization failed, covariance matrix is not positive definite"}
	}
	ones := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		ones.SetVec(i, 1)
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, ones); err != nil {
		return nil, models.SolverNumericalError{Status: "cholesky solve failed: " + err.Error()}
	}
	var denom float64
	for i := 0; i < n; i++ {
		denom += x.AtVec(i)
	}
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return nil, models.SolverNumericalError{Status: fmt.Sprintf("degenerate budget normalizer %v", denom)}
	}
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = x.AtVec(i) / denom
	}
	return w, nil
}

// projectFeasible projects y onto the box [lo, hi], and onto its
// intersection with {sum w = 1} when budget is set. The budget projection
// bisects on the uniform shift, which is monotone in the resulting sum.
func projectFeasible(y, lo, hi []float64, budget bool) ([]float64, error) {
	n := len(y)
	clip := func(shift float64) ([]float64, float64) {
		w := make([]float64, n)
		var sum float64
		for j := 0; j < n; j++ {
			v := y[j] + shift
			if v < lo[j] {
				v = lo[j]
			}
			if v > hi[j] {
				v = hi[j]
			}
			w[j] = v
			sum += v
		}
		return w, sum
	}

	if !budget {
		w, _ := clip(0)
		return w, nil
	}

	// Degenerate boxes where the budget is only met at a corner.
	var loSum, hiSum float64
	for j := 0; j < n; j++ {
		loSum += lo[j]
		hiSum += hi[j]
	}
	if !math.IsInf(loSum, 0) && math.Abs(loSum-1) <= budgetTol {
		w := append([]float64(nil), lo...)
		return w, nil
	}
	if !math.IsInf(hiSum, 0) && math.Abs(hiSum-1) <= budgetTol {
		w := append([]float64(nil), hi...)
		return w, nil
	}

	a, b := -1.0, 1.0
	for i := 0; ; i++ {
		if _, sum := clip(a); sum <= 1 {
			break
		}
		a *= 2
		if i > 200 {
			return nil, models.SolverNumericalError{Status: "budget projection failed to bracket from below"}
		}
	}
	for i := 0; ; i++ {
		if _, sum := clip(b); sum >= 1 {
			break
		}
		b *= 2
		if i > 200 {
			return nil, models.SolverNumericalError{Status: "budget projection failed to bracket from above"}
		}
	}
	for i := 0; i < 200; i++ {
		mid := (a + b) / 2
		_, sum := clip(mid)
		if math.Abs(sum-1) <= budgetTol/10 {
			a, b = mid, mid
			break
		}
		if sum > 1 {
			b = mid
		} else {
			a = mid
		}
	}
	w, _ := clip((a + b) / 2)
	return w, nil
}
