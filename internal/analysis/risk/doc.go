// Package risk computes return-series risk statistics: volatility, Sharpe
// and Sortino ratios, value at risk, drawdowns, CAGR and beta.
//
// Inputs are periodic simple returns (0.01 = 1%). Annualisation uses the
// number of periods per year, 252 for daily data.
package risk
