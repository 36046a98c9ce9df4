package factor

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// Bucket summarises one quantile of a factor sort.
type Bucket struct {
	Quantile   int     `json:"quantile"`
	Count      int     `json:"count"`
	MinFactor  float64 `json:"min_factor"`
	MaxFactor  float64 `json:"max_factor"`
	MeanReturn float64 `json:"mean_return"`
}

// QuantileReport is the outcome of QuantileValidate.
type QuantileReport struct {
	Buckets []Bucket `json:"buckets"`

	// Spread is the top bucket's mean return minus the bottom bucket's.
	Spread float64 `json:"spread"`

	// Monotonic is true when bucket mean returns never decrease or never increase.
	Monotonic bool `json:"monotonic"`

	// IC is the Spearman rank correlation between factor and forward return.
	// NaN when either side is constant.
	IC float64 `json:"ic"`

	// Observations counts the pairs used.
	Observations int `json:"observations"`
}

// QuantileValidate sorts observations by factor value into q equal-count
// buckets (1 = lowest) and reports the mean forward return of each.
// Pairs with a NaN on either side are ignored.
func QuantileValidate(factor, fwdReturns []float64, q int) (*QuantileReport, error) {
	if q < 2 {
		return nil, fmt.Errorf("%w: need at least 2 quantiles, got %d", domain.ErrInvalidInput, q)
	}
	if len(factor) != len(fwdReturns) {
		return nil, fmt.Errorf("%w: factor has %d values, returns %d",
			domain.ErrInvalidInput, len(factor), len(fwdReturns))
	}

	type pair struct{ f, r float64 }
	pairs := make([]pair, 0, len(factor))
	for i := range factor {
		if math.IsNaN(factor[i]) || math.IsNaN(fwdReturns[i]) {
			continue
		}
		pairs = append(pairs, pair{factor[i], fwdReturns[i]})
	}
	n := len(pairs)
	if n < q {
		return nil, fmt.Errorf("%w: %d observations for %d quantiles", domain.ErrInsufficientData, n, q)
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].f < pairs[j].f })

	report := &QuantileReport{Buckets: make([]Bucket, q), Observations: n}
	sums := make([]float64, q)
	for i := range report.Buckets {
		report.Buckets[i] = Bucket{Quantile: i + 1, MinFactor: math.Inf(1), MaxFactor: math.Inf(-1)}
	}
	for i, p := range pairs {
		b := i * q / n
		bucket := &report.Buckets[b]
		bucket.Count++
		bucket.MinFactor = math.Min(bucket.MinFactor, p.f)
		bucket.MaxFactor = math.Max(bucket.MaxFactor, p.f)
		sums[b] += p.r
	}
	for i := range report.Buckets {
		report.Buckets[i].MeanReturn = sums[i] / float64(report.Buckets[i].Count)
	}

	report.Spread = report.Buckets[q-1].MeanReturn - report.Buckets[0].MeanReturn
	report.Monotonic = monotonic(report.Buckets)

	fs := make([]float64, n)
	rs := make([]float64, n)
	for i, p := range pairs {
		fs[i], rs[i] = p.f, p.r
	}
	report.IC = Spearman(fs, rs)

	return report, nil
}

// MarshalJSON encodes an undefined IC as null.
func (r QuantileReport) MarshalJSON() ([]byte, error) {
	type plain QuantileReport
	out := struct {
		plain
		IC *float64 `json:"ic"`
	}{plain: plain(r)}
	if !math.IsNaN(r.IC) {
		out.IC = &r.IC
	}
	return json.Marshal(out)
}

func monotonic(buckets []Bucket) bool {
	up, down := true, true
	for i := 1; i < len(buckets); i++ {
		if buckets[i].MeanReturn < buckets[i-1].MeanReturn {
			up = false
		}
		if buckets[i].MeanReturn > buckets[i-1].MeanReturn {
			down = false
		}
	}
	return up || down
}

// Spearman returns the rank correlation of x and y, or NaN when either side
// is constant. Inputs must not contain NaN.
func Spearman(x, y []float64) float64 {
	rx, ry := averageRanks(x), averageRanks(y)
	_, sx := stat.MeanStdDev(rx, nil)
	_, sy := stat.MeanStdDev(ry, nil)
	if sx == 0 || sy == 0 {
		return math.NaN()
	}
	return stat.Correlation(rx, ry, nil)
}
