// Package connectors groups the outbound clients finkit uses to reach
// remote data sources. Each subpackage implements one driven port:
//
//   - edgar: SEC EDGAR company index, submissions and filing documents
//   - fred: FRED economic series
//   - yahoo: Yahoo Finance daily price bars
//   - rss: RSS/Atom feed fetching and parsing
//
// All of them share the throttled, retrying HTTP client in httpapi.
package connectors
