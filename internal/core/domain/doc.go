// Package domain holds finkit's core types and sentinel errors.
//
//   - Company, FilingRef, Filing, Section: SEC EDGAR filings
//   - Observation, Series, PriceBar, CacheEntry: market and FRED data
//   - Feed, FeedItem, FeedDiff: RSS/Atom subscriptions
//   - Settings: typed configuration with defaults and limits in struct tags
//
// It imports only the standard library; every other package may import it.
package domain
