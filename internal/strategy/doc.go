// Package strategy holds portfolio objects and terminal visualisation.
//
// Quantities, cash and prices are decimals so rebalancing arithmetic is
// exact; weights are float64 fractions of total value. Amounts are formatted
// with go-money in the portfolio's currency.
package strategy
