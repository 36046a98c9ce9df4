// Package factor implements a cross-sectional factor-analysis toolkit.
//
// A Frame holds factor exposures for a fixed list of assets. Vector
// transforms (ZScore, MinMax, Rank, Winsorize) preserve NaN entries and
// ignore them in their statistics. Orthogonalize strips the part of a factor
// explained by others; PCA extracts principal components of standardised
// exposures; QuantileValidate checks whether a factor sorts forward returns.
package factor
