// Package driven lists what the services need from infrastructure.
//
// CacheStore, FeedStore, FeedFetcher and ConfigStore are always wired.
// The remote clients may be nil: EDGARClient without a User-Agent,
// SeriesClient (FRED) without an API key, PriceClient in tests. Services
// then answer domain.ErrNotConfigured.
//
// FeedWatcher is optional and discovered by type assertion on the FeedStore.
package driven
