package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumArr(t *testing.T) {
	assert.InDelta(t, 0.6, SumArr([]float64{0.1, 0.2, 0.3}), 1e-12)
	assert.Equal(t, 0.0, SumArr(nil))
}

func TestMulArr(t *testing.T) {
	assert.Equal(t, []float64{0.2, 0.4}, MulArr([]float64{0.1, 0.2}, 2))
}

func TestToFixed(t *testing.T) {
	assert.Equal(t, 0.1235, ToFixed(0.123456, 4))
	assert.Equal(t, 1.0, ToFixed(0.99999, 2))
}

func TestCalculateDifference(t *testing.T) {
	assert.InDelta(t, 0.1, CalculateDifference(1.1, 1.0), 1e-12)
	assert.InDelta(t, -0.5, CalculateDifference(0.5, 0), 1e-12)
}

func TestCreateKeyValuePairs(t *testing.T) {
	m := map[string]interface{}{"sharpe": 1.23456, "rebalances": 4}
	assert.Equal(t, "rebalances: 4, sharpe: 1.2346", CreateKeyValuePairs(m, true))
}
