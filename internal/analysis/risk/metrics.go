package risk

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// Common values for periods per year.
const (
	DailyPeriods   = 252
	WeeklyPeriods  = 52
	MonthlyPeriods = 12
)

func checkSeries(r []float64) error {
	if len(r) == 0 {
		return fmt.Errorf("%w: empty return series", domain.ErrInsufficientData)
	}
	return nil
}

func checkPeriods(periods int) error {
	if periods <= 0 {
		return fmt.Errorf("%w: periods per year must be positive, got %d", domain.ErrInvalidInput, periods)
	}
	return nil
}

func checkConfidence(conf float64) error {
	if !(conf > 0 && conf < 1) {
		return fmt.Errorf("%w: confidence %v outside (0, 1)", domain.ErrInvalidInput, conf)
	}
	return nil
}

// Mean is the arithmetic mean per period.
func Mean(r []float64) (float64, error) {
	if err := checkSeries(r); err != nil {
		return 0, err
	}
	return stat.Mean(r, nil), nil
}

// Volatility is the annualised sample standard deviation. A single
// observation has zero volatility.
func Volatility(r []float64, periods int) (float64, error) {
	if err := checkSeries(r); err != nil {
		return 0, err
	}
	if err := checkPeriods(periods); err != nil {
		return 0, err
	}
	if len(r) < 2 {
		return 0, nil
	}
	return stat.StdDev(r, nil) * math.Sqrt(float64(periods)), nil
}

// Sharpe is the annualised excess return over annualised volatility. rf is
// the annual risk-free rate. Zero volatility gives 0.
func Sharpe(r []float64, rf float64, periods int) (float64, error) {
	vol, err := Volatility(r, periods)
	if err != nil {
		return 0, err
	}
	if vol == 0 {
		return 0, nil
	}
	excess := stat.Mean(r, nil)*float64(periods) - rf
	return excess / vol, nil
}

// Sortino is like Sharpe but divides by the annualised downside deviation:
// the root mean square of per-period shortfalls below rf/periods. With no
// downside it returns 0.
func Sortino(r []float64, rf float64, periods int) (float64, error) {
	if err := checkSeries(r); err != nil {
		return 0, err
	}
	if err := checkPeriods(periods); err != nil {
		return 0, err
	}
	target := rf / float64(periods)
	var sq float64
	for _, v := range r {
		if d := v - target; d < 0 {
			sq += d * d
		}
	}
	downside := math.Sqrt(sq/float64(len(r))) * math.Sqrt(float64(periods))
	if downside == 0 {
		return 0, nil
	}
	excess := stat.Mean(r, nil)*float64(periods) - rf
	return excess / downside, nil
}

// HistoricalVaR is the loss not exceeded with probability conf, read off the
// empirical distribution. Losses are positive numbers.
func HistoricalVaR(r []float64, conf float64) (float64, error) {
	if err := checkSeries(r); err != nil {
		return 0, err
	}
	if err := checkConfidence(conf); err != nil {
		return 0, err
	}
	sorted := append([]float64(nil), r...)
	sort.Float64s(sorted)
	return -stat.Quantile(1-conf, stat.Empirical, sorted, nil), nil
}

// ParametricVaR assumes normally distributed returns.
func ParametricVaR(r []float64, conf float64) (float64, error) {
	if err := checkSeries(r); err != nil {
		return 0, err
	}
	if err := checkConfidence(conf); err != nil {
		return 0, err
	}
	mean := stat.Mean(r, nil)
	var std float64
	if len(r) > 1 {
		std = stat.StdDev(r, nil)
	}
	z := distuv.UnitNormal.Quantile(1 - conf)
	return -(mean + z*std), nil
}

// CVaR is the expected loss in the tail beyond HistoricalVaR.
func CVaR(r []float64, conf float64) (float64, error) {
	v, err := HistoricalVaR(r, conf)
	if err != nil {
		return 0, err
	}
	var sum float64
	var n int
	for _, x := range r {
		if -x >= v {
			sum += x
			n++
		}
	}
	return -sum / float64(n), nil
}

// Drawdowns returns, for each period, the decline of cumulative wealth from
// its running peak as a positive fraction. Wealth starts at 1.
func Drawdowns(r []float64) []float64 {
	out := make([]float64, len(r))
	wealth, peak := 1.0, 1.0
	for i, v := range r {
		wealth *= 1 + v
		peak = math.Max(peak, wealth)
		out[i] = 1 - wealth/peak
	}
	return out
}

// MaxDrawdown is the largest value of Drawdowns.
func MaxDrawdown(r []float64) (float64, error) {
	if err := checkSeries(r); err != nil {
		return 0, err
	}
	return floats.Max(Drawdowns(r)), nil
}

// CAGR is the compound annual growth rate implied by the series.
func CAGR(r []float64, periods int) (float64, error) {
	if err := checkSeries(r); err != nil {
		return 0, err
	}
	if err := checkPeriods(periods); err != nil {
		return 0, err
	}
	wealth := 1.0
	for _, v := range r {
		wealth *= 1 + v
	}
	if wealth <= 0 {
		return -1, nil
	}
	years := float64(len(r)) / float64(periods)
	return math.Pow(wealth, 1/years) - 1, nil
}

// Beta is cov(asset, bench) / var(bench).
func Beta(asset, bench []float64) (float64, error) {
	if len(asset) != len(bench) {
		return 0, fmt.Errorf("%w: asset has %d returns, benchmark %d",
			domain.ErrInvalidInput, len(asset), len(bench))
	}
	if len(asset) < 2 {
		return 0, fmt.Errorf("%w: beta needs at least 2 observations", domain.ErrInsufficientData)
	}
	v := stat.Variance(bench, nil)
	if v == 0 {
		return 0, fmt.Errorf("%w: benchmark has zero variance", domain.ErrInvalidInput)
	}
	return stat.Covariance(asset, bench, nil) / v, nil
}
