// Package analysis holds finkit's numerical toolkits.
//
// Subpackages:
//   - factor: normalisation, orthogonalisation, PCA and quantile validation
//   - risk: return-series risk metrics (Sharpe, Sortino, VaR, drawdown)
//
// Both operate on plain float64 slices and use gonum for the linear algebra
// and statistics. NaN marks a missing observation throughout.
package analysis
