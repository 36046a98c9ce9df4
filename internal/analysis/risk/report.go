package risk

import (
	"fmt"
	"math"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// Options configures Compute.
type Options struct {
	// RiskFree is the annual risk-free rate.
	RiskFree float64

	// Periods is the number of return periods per year.
	Periods int

	// Confidence is the VaR confidence level, e.g. 0.95.
	Confidence float64

	// Benchmark returns, aligned with the series. Beta is omitted when empty.
	Benchmark []float64
}

// DefaultOptions returns daily-data defaults with 95% VaR.
func DefaultOptions() Options {
	return Options{Periods: DailyPeriods, Confidence: 0.95}
}

// Report bundles the statistics of one return series.
type Report struct {
	Observations  int      `json:"observations"`
	Periods       int      `json:"periods"`
	Mean          float64  `json:"mean"`
	Volatility    float64  `json:"volatility"`
	Sharpe        float64  `json:"sharpe"`
	Sortino       float64  `json:"sortino"`
	Confidence    float64  `json:"confidence"`
	VaR           float64  `json:"var"`
	ParametricVaR float64  `json:"parametric_var"`
	CVaR          float64  `json:"cvar"`
	MaxDrawdown   float64  `json:"max_drawdown"`
	CAGR          float64  `json:"cagr"`
	Beta          *float64 `json:"beta,omitempty"`
}

// Compute builds a Report for r.
func Compute(r []float64, opts Options) (*Report, error) {
	if err := checkSeries(r); err != nil {
		return nil, err
	}
	if err := checkPeriods(opts.Periods); err != nil {
		return nil, err
	}
	if err := checkConfidence(opts.Confidence); err != nil {
		return nil, err
	}
	for i, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: return %d is %v", domain.ErrInvalidInput, i, v)
		}
	}

	rep := &Report{
		Observations: len(r),
		Periods:      opts.Periods,
		Confidence:   opts.Confidence,
	}
	// Inputs are validated above, so the individual metrics cannot fail.
	rep.Mean, _ = Mean(r)
	rep.Volatility, _ = Volatility(r, opts.Periods)
	rep.Sharpe, _ = Sharpe(r, opts.RiskFree, opts.Periods)
	rep.Sortino, _ = Sortino(r, opts.RiskFree, opts.Periods)
	rep.VaR, _ = HistoricalVaR(r, opts.Confidence)
	rep.ParametricVaR, _ = ParametricVaR(r, opts.Confidence)
	rep.CVaR, _ = CVaR(r, opts.Confidence)
	rep.MaxDrawdown, _ = MaxDrawdown(r)
	rep.CAGR, _ = CAGR(r, opts.Periods)

	if len(opts.Benchmark) > 0 {
		b, err := Beta(r, opts.Benchmark)
		if err != nil {
			return nil, fmt.Errorf("beta: %w", err)
		}
		rep.Beta = &b
	}
	return rep, nil
}
