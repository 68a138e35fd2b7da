package minvar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/quantlabs/minvar/models"
)

// CovarianceEstimator maps a return window to a covariance estimate. Every
// implementation is a pure function of its input window.
type CovarianceEstimator interface {
	Estimate(window *models.Dataset) (*models.CovarianceMatrix, error)
	Method() string
}

// NewEstimator builds the estimator named by a config tag.
func NewEstimator(method string) (CovarianceEstimator, error) {
	switch method {
	case models.EstimatorSample:
		return SampleEstimator{}, nil
	case models.EstimatorShrinkage:
		return LedoitWolfEstimator{}, nil
	default:
		return nil, fmt.Errorf("unknown estimator %q", method)
	}
}

// SampleEstimator computes the unbiased sample covariance of the window.
// With fewer observations than assets the result is PSD but singular;
// callers that need definiteness must shrink or ridge before optimizing.
type SampleEstimator struct{}

func (SampleEstimator) Method() string { return models.EstimatorSample }

func (SampleEstimator) Estimate(window *models.Dataset) (*models.CovarianceMatrix, error) {
	cols, err := windowColumns(window)
	if err != nil {
		return nil, err
	}
	n := window.NumAssets()
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sigma.SetSym(i, j, stat.Covariance(cols[i], cols[j], nil))
		}
	}
	return &models.CovarianceMatrix{
		Assets:     window.Assets(),
		Method:     models.EstimatorSample,
		SampleSize: window.Len(),
		Sigma:      sigma,
	}, nil
}

// LedoitWolfEstimator shrinks the sample covariance toward the scaled
// identity target with the analytic intensity of Ledoit & Wolf (2004),
// "A well-conditioned estimator for large-dimensional covariance matrices".
// The blend is positive definite whenever the intensity is nonzero, which
// is what makes it the default corrective for short, wide windows.
type LedoitWolfEstimator struct{}

func (LedoitWolfEstimator) Method() string { return models.EstimatorShrinkage }

func (LedoitWolfEstimator) Estimate(window *models.Dataset) (*models.CovarianceMatrix, error) {
	cols, err := windowColumns(window)
	if err != nil {
		return nil, err
	}
	n := window.NumAssets()
	t := window.Len()

	// Demean each series once; both the sample estimate and the intensity
	// are computed from the centered observations.
	means := make([]float64, n)
	for j := range cols {
		means[j] = stat.Mean(cols[j], nil)
		for i := range cols[j] {
			cols[j][i] -= means[j]
		}
	}

	sample := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var s float64
			for k := 0; k < t; k++ {
				s += cols[i][k] * cols[j][k]
			}
			sample.SetSym(i, j, s/float64(t-1))
		}
	}

	// Target mu*I with mu the average variance.
	var mu float64
	for i := 0; i < n; i++ {
		mu += sample.At(i, i)
	}
	mu /= float64(n)

	// d2 = ||S - mu*I||^2, b2 = average squared distance between the
	// per-observation outer products and S, capped at d2. Intensity b2/d2.
	var d2 float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			diff := sample.At(i, j)
			if i == j {
				diff -= mu
			}
			d2 += diff * diff
		}
	}
	d2 /= float64(n)

	var bbar2 float64
	for k := 0; k < t; k++ {
		var dist2 float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				d := cols[i][k]*cols[j][k] - sample.At(i, j)
				dist2 += d * d
			}
		}
		bbar2 += dist2 / float64(n)
	}
	bbar2 /= float64(t * t)

	delta := 0.0
	if d2 > 0 {
		b2 := bbar2
		if b2 > d2 {
			b2 = d2
		}
		delta = b2 / d2
	}
	if delta < 0 {
		delta = 0
	} else if delta > 1 {
		delta = 1
	}

	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (1 - delta) * sample.At(i, j)
			if i == j {
				v += delta * mu
			}
			sigma.SetSym(i, j, v)
		}
	}

	return &models.CovarianceMatrix{
		Assets:     window.Assets(),
		Method:     models.EstimatorShrinkage,
		SampleSize: t,
		Shrinkage:  delta,
		Sigma:      sigma,
	}, nil
}

// windowColumns validates the window size and extracts per-asset columns.
func windowColumns(window *models.Dataset) ([][]float64, error) {
	if window == nil || window.Len() < 2 || window.NumAssets() < 1 {
		obs, assets := 0, 0
		if window != nil {
			obs, assets = window.Len(), window.NumAssets()
		}
		return nil, models.InsufficientDataError{Observations: obs, Assets: assets}
	}
	cols := make([][]float64, window.NumAssets())
	for j := range cols {
		cols[j] = window.Column(j)
	}
	return cols, nil
}
