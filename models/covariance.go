package models

import (
	"gonum.org/v1/gonum/mat"
)

// Covariance estimation method tags.
const (
	EstimatorSample    = "sample"
	EstimatorShrinkage = "shrinkage"
)

// CovarianceMatrix is a symmetric positive-semidefinite estimate of asset
// return covariance, tagged with the estimation method and the sample size
// of the window it was computed from. Asset order matches the source window.
type CovarianceMatrix struct {
	Assets     []string
	Method     string
	SampleSize int
	// Shrinkage is the intensity applied toward the structured target,
	// 0 for the plain sample estimate.
	Shrinkage float64
	Sigma     *mat.SymDense
}

// Dim returns the matrix dimension.
func (c *CovarianceMatrix) Dim() int { return len(c.Assets) }

// At returns the covariance between assets i and j.
func (c *CovarianceMatrix) At(i, j int) float64 { return c.Sigma.At(i, j) }
