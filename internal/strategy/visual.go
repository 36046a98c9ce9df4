package strategy

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/custodia-labs/finkit/internal/analysis/risk"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

var (
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	cashStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	labelStyle = lipgloss.NewStyle().Bold(true)
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// TerminalWidth returns the width of f if it is a terminal, else DefaultWidth.
func TerminalWidth(f *os.File) int {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// WeightBars draws one horizontal bar per weight, largest first. The bar
// area scales so that a weight of 1 fills width minus the label columns.
func WeightBars(w io.Writer, weights map[string]float64, width int) error {
	if len(weights) == 0 {
		_, err := fmt.Fprintln(w, "(no holdings)")
		return err
	}
	if width <= 0 {
		width = DefaultWidth
	}

	labels := make([]string, 0, len(weights))
	labelWidth := 0
	for k := range weights {
		labels = append(labels, k)
		labelWidth = max(labelWidth, len(k))
	}
	sort.Slice(labels, func(i, j int) bool {
		if weights[labels[i]] != weights[labels[j]] {
			return weights[labels[i]] > weights[labels[j]]
		}
		return labels[i] < labels[j]
	})

	// label, space, bar, space, "100.0%"
	barWidth := max(width-labelWidth-8, 10)
	for _, label := range labels {
		v := weights[label]
		n := int(math.Round(math.Max(0, math.Min(v, 1)) * float64(barWidth)))
		style := barStyle
		if label == CashKey {
			style = cashStyle
		}
		bar := style.Render(strings.Repeat("█", n)) + strings.Repeat(" ", barWidth-n)
		name := labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, label))
		if _, err := fmt.Fprintf(w, "%s %s %5.1f%%\n", name, bar, v*100); err != nil {
			return err
		}
	}
	return nil
}

// Sparkline renders values as a row of block characters. Series longer than
// width are averaged down to width points; width <= 0 keeps every point.
// NaN renders as a space and a constant series sits on the lowest tick.
func Sparkline(values []float64, width int) string {
	if width > 0 && len(values) > width {
		values = Downsample(values, width)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var sb strings.Builder
	top := float64(len(sparkTicks) - 1)
	for _, v := range values {
		switch {
		case math.IsNaN(v):
			sb.WriteRune(' ')
		case hi == lo:
			sb.WriteRune(sparkTicks[0])
		default:
			sb.WriteRune(sparkTicks[int(math.Round((v-lo)/(hi-lo)*top))])
		}
	}
	return sb.String()
}

// Downsample averages values into n consecutive buckets, ignoring NaN.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return append([]float64(nil), values...)
	}
	out := make([]float64, n)
	for b := 0; b < n; b++ {
		start := b * len(values) / n
		end := (b + 1) * len(values) / n
		var sum float64
		var cnt int
		for _, v := range values[start:end] {
			if !math.IsNaN(v) {
				sum += v
				cnt++
			}
		}
		if cnt == 0 {
			out[b] = math.NaN()
			continue
		}
		out[b] = sum / float64(cnt)
	}
	return out
}

// Cumulative converts periodic returns into a wealth index starting at 1.
func Cumulative(returns []float64) []float64 {
	out := make([]float64, len(returns))
	wealth := 1.0
	for i, r := range returns {
		wealth *= 1 + r
		out[i] = wealth
	}
	return out
}

// NamedReport pairs a risk report with the series it describes.
type NamedReport struct {
	Name   string
	Report *risk.Report
}

// RiskTable renders reports side by side, one column per series.
func RiskTable(w io.Writer, reports []NamedReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"Metric"}
	for _, r := range reports {
		header = append(header, r.Name)
	}
	t.AppendHeader(header)

	rows := []struct {
		label string
		value func(*risk.Report) string
	}{
		{"Observations", func(r *risk.Report) string { return fmt.Sprint(r.Observations) }},
		{"Mean / period", func(r *risk.Report) string { return pct(r.Mean) }},
		{"Volatility (ann.)", func(r *risk.Report) string { return pct(r.Volatility) }},
		{"Sharpe", func(r *risk.Report) string { return ratio(r.Sharpe) }},
		{"Sortino", func(r *risk.Report) string { return ratio(r.Sortino) }},
		{"VaR", func(r *risk.Report) string { return pct(r.VaR) }},
		{"VaR (normal)", func(r *risk.Report) string { return pct(r.ParametricVaR) }},
		{"CVaR", func(r *risk.Report) string { return pct(r.CVaR) }},
		{"Max drawdown", func(r *risk.Report) string { return pct(r.MaxDrawdown) }},
		{"CAGR", func(r *risk.Report) string { return pct(r.CAGR) }},
		{"Beta", func(r *risk.Report) string {
			if r.Beta == nil {
				return "-"
			}
			return ratio(*r.Beta)
		}},
	}
	for _, row := range rows {
		out := table.Row{row.label}
		for _, r := range reports {
			out = append(out, row.value(r.Report))
		}
		t.AppendRow(out)
	}
	t.Render()
}

// HoldingsTable renders positions with quantity, price, value and weight,
// followed by cash and the total.
func HoldingsTable(w io.Writer, p *Portfolio, prices Prices) error {
	total, err := p.Value(prices)
	if err != nil {
		return err
	}
	weights, err := p.Weights(prices)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Symbol", "Quantity", "Price", "Value", "Weight", "Target"})
	for _, pos := range p.Positions {
		price := prices[pos.Symbol]
		t.AppendRow(table.Row{
			pos.Symbol,
			pos.Quantity.String(),
			p.Format(price),
			p.Format(pos.Quantity.Mul(price)),
			pct(weights[pos.Symbol]),
			target(p, pos.Symbol),
		})
	}
	t.AppendRow(table.Row{CashKey, "", "", p.Format(p.Cash), pct(weights[CashKey]), target(p, CashKey)})
	t.AppendFooter(table.Row{"Total", "", "", p.Format(total), "", ""})
	t.Render()
	return nil
}

// TradesTable renders a rebalance plan.
func TradesTable(w io.Writer, p *Portfolio, trades []Trade) {
	if len(trades) == 0 {
		_, _ = fmt.Fprintln(w, "Portfolio is already at target weights.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Side", "Symbol", "Quantity", "Value"})
	for _, tr := range trades {
		t.AppendRow(table.Row{tr.Side(), tr.Symbol, tr.Quantity.Abs().String(), p.Format(tr.Value.Abs())})
	}
	t.Render()
}

func target(p *Portfolio, symbol string) string {
	if len(p.Targets) == 0 {
		return "-"
	}
	return pct(p.Targets[symbol])
}

func pct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func ratio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}
