package cli

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/finkit/internal/analysis/risk"
	"github.com/custodia-labs/finkit/internal/strategy"
)

var riskCmd = &cobra.Command{
	Use:   "risk [symbol...]",
	Short: "Risk statistics for price series or a returns CSV",
	Long: `Compute volatility, Sharpe, Sortino, VaR, CVaR, drawdown, CAGR and beta.

With symbols, daily returns are fetched from the market cache. With --csv,
each non-asset column of the file is treated as a return series.

Examples:
  finkit risk SPY QQQ --start 2020-01-01 --benchmark SPY
  finkit risk --csv returns.csv --periods 12`,
	RunE: runRisk,
}

var (
	riskCSV        string
	riskBenchmark  string
	riskRiskFree   float64
	riskPeriods    int
	riskConfidence float64
)

func init() {
	addDateFlags(riskCmd)
	riskCmd.Flags().StringVar(&riskCSV, "csv", "", "Read return series from a CSV file")
	riskCmd.Flags().StringVarP(&riskBenchmark, "benchmark", "b", "", "Benchmark symbol or column for beta")
	riskCmd.Flags().Float64Var(&riskRiskFree, "rf", 0, "Annual risk-free rate, e.g. 0.04")
	riskCmd.Flags().IntVar(&riskPeriods, "periods", risk.DailyPeriods, "Return periods per year")
	riskCmd.Flags().Float64Var(&riskConfidence, "confidence", 0.95, "VaR confidence level")
	rootCmd.AddCommand(riskCmd)
}

// namedSeries is a return series with its label.
type namedSeries struct {
	name    string
	returns []float64
}

func runRisk(cmd *cobra.Command, args []string) error {
	var series []namedSeries
	var err error
	switch {
	case riskCSV != "":
		series, err = seriesFromCSV(riskCSV)
	case len(args) > 0:
		series, err = seriesFromMarket(cmd, args)
	default:
		return errors.New("give at least one symbol or --csv")
	}
	if err != nil {
		return err
	}

	var bench []float64
	if riskBenchmark != "" {
		bench, err = benchmarkSeries(cmd, series)
		if err != nil {
			return err
		}
	}

	reports := make([]strategy.NamedReport, 0, len(series))
	for _, s := range series {
		opts := risk.Options{RiskFree: riskRiskFree, Periods: riskPeriods, Confidence: riskConfidence}
		r := s.returns
		if bench != nil {
			r, opts.Benchmark = alignTail(r, bench)
		}
		rep, err := risk.Compute(r, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		reports = append(reports, strategy.NamedReport{Name: s.name, Report: rep})
	}

	if jsonOutput {
		out := make(map[string]*risk.Report, len(reports))
		for _, r := range reports {
			out[r.Name] = r.Report
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
	strategy.RiskTable(cmd.OutOrStdout(), reports)
	return nil
}

func seriesFromCSV(path string) ([]namedSeries, error) {
	frame, err := readFrame(path)
	if err != nil {
		return nil, err
	}
	out := make([]namedSeries, 0, len(frame.Factors))
	for _, f := range frame.Factors {
		out = append(out, namedSeries{name: f.Name, returns: dropNaN(f.Values)})
	}
	return out, nil
}

func seriesFromMarket(cmd *cobra.Command, symbols []string) ([]namedSeries, error) {
	if marketService == nil {
		return nil, errMarketUnavailable
	}
	r, err := dateRangeFlags(cmd)
	if err != nil {
		return nil, err
	}
	out := make([]namedSeries, 0, len(symbols))
	for _, sym := range symbols {
		rets, err := marketService.Returns(cmd.Context(), sym, r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		out = append(out, namedSeries{name: strings.ToUpper(sym), returns: rets})
	}
	return out, nil
}

// benchmarkSeries finds the benchmark among the loaded series, or fetches it.
func benchmarkSeries(cmd *cobra.Command, loaded []namedSeries) ([]float64, error) {
	for _, s := range loaded {
		if strings.EqualFold(s.name, riskBenchmark) {
			return s.returns, nil
		}
	}
	if riskCSV != "" {
		return nil, fmt.Errorf("benchmark column %q not found in %s", riskBenchmark, riskCSV)
	}
	got, err := seriesFromMarket(cmd, []string{riskBenchmark})
	if err != nil {
		return nil, err
	}
	return got[0].returns, nil
}

// alignTail trims both series to their common most recent length.
func alignTail(a, b []float64) ([]float64, []float64) {
	n := min(len(a), len(b))
	return a[len(a)-n:], b[len(b)-n:]
}

func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
