package domain

import "time"

// Settings holds all user-configurable options.
// Defaults are declared in `default` tags and constraints in `validate` tags.
type Settings struct {
	EDGAR  EDGARSettings
	Market MarketSettings
	Feeds  FeedSettings
	Cache  CacheSettings
}

// EDGARSettings configures access to SEC EDGAR.
type EDGARSettings struct {
	// UserAgent identifies the caller; SEC rejects requests without one.
	UserAgent string `default:"" validate:"omitempty,min=3"`

	// RateLimit is the maximum requests per second.
	RateLimit float64 `default:"10" validate:"gt=0,lte=10"`

	// Workers bounds batch fetch concurrency.
	Workers int `default:"4" validate:"gte=1,lte=32"`

	// FilingTTL is how long fetched filing documents stay cached.
	FilingTTL time.Duration `default:"720h" validate:"gt=0"`
}

// MarketSettings configures FRED and Yahoo access.
type MarketSettings struct {
	FREDAPIKey string  `default:""`
	RateLimit  float64 `default:"5" validate:"gt=0"`
}

// FeedSettings configures the RSS manager.
type FeedSettings struct {
	MaxItemsPerFeed int           `default:"200" validate:"gte=1"`
	Workers         int           `default:"8" validate:"gte=1,lte=64"`
	Timeout         time.Duration `default:"20s" validate:"gt=0"`
	Retries         int           `default:"3" validate:"gte=1,lte=10"`
}

// CacheSettings configures the market data cache.
type CacheSettings struct {
	TTL time.Duration `default:"24h" validate:"gt=0"`
}

// Config keys used in the TOML file.
const (
	KeyEDGARUserAgent  = "edgar.user_agent"
	KeyEDGARRateLimit  = "edgar.rate_limit"
	KeyEDGARWorkers    = "edgar.workers"
	KeyEDGARFilingTTL  = "edgar.filing_ttl"
	KeyFREDAPIKey      = "market.fred_api_key"
	KeyMarketRateLimit = "market.rate_limit"
	KeyFeedsMaxItems   = "feeds.max_items_per_feed"
	KeyFeedsWorkers    = "feeds.workers"
	KeyFeedsTimeout    = "feeds.timeout"
	KeyFeedsRetries    = "feeds.retries"
	KeyCacheTTL        = "cache.ttl"
)

// SettingKeys lists every recognised configuration key.
func SettingKeys() []string {
	return []string{
		KeyEDGARUserAgent,
		KeyEDGARRateLimit,
		KeyEDGARWorkers,
		KeyEDGARFilingTTL,
		KeyFREDAPIKey,
		KeyMarketRateLimit,
		KeyFeedsMaxItems,
		KeyFeedsWorkers,
		KeyFeedsTimeout,
		KeyFeedsRetries,
		KeyCacheTTL,
	}
}
