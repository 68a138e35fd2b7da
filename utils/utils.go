package utils

import (
	"bytes"
	"fmt"
	"math"
	"sort"
)

// SumArr sums a float slice.
func SumArr(arr []float64) float64 {
	var sum float64
	for _, v := range arr {
		sum += v
	}
	return sum
}

// MulArr scales a float slice by a constant into a new slice.
func MulArr(arr []float64, multiple float64) []float64 {
	out := make([]float64, len(arr))
	for i := range arr {
		out[i] = arr[i] * multiple
	}
	return out
}

// ToFixed rounds num to the given number of decimal places.
func ToFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return math.Round(num*output) / output
}

// CalculateDifference gets the percentage difference between two numbers.
func CalculateDifference(x float64, y float64) float64 {
	if y == 0 {
		y = 1
	}
	return (x - y) / y
}

// CreateKeyValuePairs renders a map as "key: value" pairs on one line,
// optionally in sorted key order for stable log output.
func CreateKeyValuePairs(m map[string]interface{}, sorted bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if sorted {
		sort.Strings(keys)
	}
	b := new(bytes.Buffer)
	for i, k := range keys {
		if i > 0 {
			fmt.Fprint(b, ", ")
		}
		switch v := m[k].(type) {
		case float64:
			fmt.Fprintf(b, "%s: %0.4f", k, v)
		default:
			fmt.Fprintf(b, "%s: %v", k, v)
		}
	}
	return b.String()
}
