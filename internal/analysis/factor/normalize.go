package factor

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// present returns the non-NaN values of x.
func present(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// mapPresent applies fn to every non-NaN element.
func mapPresent(x []float64, fn func(float64) float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = fn(v)
	}
	return out
}

// ZScore standardises x to zero mean and unit sample standard deviation.
// A constant vector maps to zeros.
func ZScore(x []float64) []float64 {
	vals := present(x)
	if len(vals) == 0 {
		return mapPresent(x, func(float64) float64 { return 0 })
	}
	mean, std := stat.MeanStdDev(vals, nil)
	if len(vals) < 2 || std == 0 || math.IsNaN(std) {
		return mapPresent(x, func(float64) float64 { return 0 })
	}
	return mapPresent(x, func(v float64) float64 { return (v - mean) / std })
}

// MinMax rescales x linearly onto [0, 1]. A constant vector maps to zeros.
func MinMax(x []float64) []float64 {
	vals := present(x)
	if len(vals) == 0 {
		return mapPresent(x, func(float64) float64 { return 0 })
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		return mapPresent(x, func(float64) float64 { return 0 })
	}
	return mapPresent(x, func(v float64) float64 { return (v - lo) / span })
}

// Rank replaces values by their rank scaled to [0, 1]. Ties share the
// average of their ranks. A single observation ranks 0.5.
func Rank(x []float64) []float64 {
	ranks := averageRanks(x)
	n := len(present(x))
	return mapPresent(ranks, func(r float64) float64 {
		if n == 1 {
			return 0.5
		}
		return (r - 1) / float64(n-1)
	})
}

// averageRanks returns 1-based average ranks; NaN stays NaN.
func averageRanks(x []float64) []float64 {
	idx := make([]int, 0, len(x))
	for i, v := range x {
		if !math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, len(x))
	for i := range ranks {
		ranks[i] = math.NaN()
	}
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// Winsorize clips x to its p and 1-p empirical quantiles. p must lie in [0, 0.5).
func Winsorize(x []float64, p float64) ([]float64, error) {
	if p < 0 || p >= 0.5 || math.IsNaN(p) {
		return nil, fmt.Errorf("%w: winsorize fraction %v outside [0, 0.5)", domain.ErrInvalidInput, p)
	}
	vals := present(x)
	if len(vals) == 0 || p == 0 {
		return mapPresent(x, func(v float64) float64 { return v }), nil
	}
	sort.Float64s(vals)
	lo := stat.Quantile(p, stat.Empirical, vals, nil)
	hi := stat.Quantile(1-p, stat.Empirical, vals, nil)
	return mapPresent(x, func(v float64) float64 {
		return math.Max(lo, math.Min(hi, v))
	}), nil
}

// NormalizeWeights scales non-negative weights to sum to 1.
func NormalizeWeights(w []float64) ([]float64, error) {
	var sum float64
	for i, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: weight %d is %v", domain.ErrInvalidInput, i, v)
		}
		sum += v
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", domain.ErrInvalidInput)
	}
	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = v / sum
	}
	return out, nil
}
