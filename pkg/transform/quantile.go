package transform

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile of values by linear interpolation between
// closest ranks: h = (n-1)p, q = x[floor(h)] + (h-floor(h))(x[ceil(h)]-x[floor(h)]).
// This is the default method of numpy and pandas. values is not modified.
// Returns NaN for an empty slice.
func Quantile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p)
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	x0 := sorted[int(lo)]
	x1 := sorted[int(hi)]
	return x0 + (h-lo)*(x1-x0)
}

// IQRFence computes quartiles and the 1.5·IQR fences for values. With no
// values the fence is marked Empty and contains nothing.
func IQRFence(column string, values []float64) Fence {
	f := Fence{Column: column}
	if len(values) == 0 {
		f.Empty = true
		return f
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	f.Q1 = quantileSorted(sorted, 0.25)
	f.Q3 = quantileSorted(sorted, 0.75)
	f.IQR = f.Q3 - f.Q1
	f.Lower = f.Q1 - 1.5*f.IQR
	f.Upper = f.Q3 + 1.5*f.IQR
	return f
}
