package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
)

// Ensure MarketService implements the interface.
var _ driving.MarketService = (*MarketService)(nil)

const (
	cacheNSSeries = "fred_series"
	cacheNSPrices = "yahoo_prices"
)

// MarketService serves FRED series and Yahoo prices through a TTL cache.
type MarketService struct {
	series driven.SeriesClient
	prices driven.PriceClient
	store  driven.CacheStore
	cache  jsonCache
	ttl    time.Duration
}

// NewMarketService creates a market service. series may be nil when no
// FRED API key is configured; cache may be nil to disable caching.
func NewMarketService(series driven.SeriesClient, prices driven.PriceClient, cache driven.CacheStore, ttl time.Duration) *MarketService {
	return &MarketService{
		series: series,
		prices: prices,
		store:  cache,
		cache:  jsonCache{store: cache},
		ttl:    ttl,
	}
}

// Series returns a FRED series, cached by id and range.
func (s *MarketService) Series(ctx context.Context, seriesID string, r domain.DateRange) (*domain.Series, error) {
	if s.series == nil {
		return nil, fmt.Errorf("%w: FRED API key not set (finkit settings set %s <key>)",
			domain.ErrInvalidInput, domain.KeyFREDAPIKey)
	}
	seriesID = strings.ToUpper(strings.TrimSpace(seriesID))
	if seriesID == "" {
		return nil, fmt.Errorf("%w: series id is required", domain.ErrInvalidInput)
	}
	if err := checkRange(r); err != nil {
		return nil, err
	}

	key := domain.CacheKey(domain.SourceFRED, seriesID, r)
	var cached domain.Series
	if s.cache.get(ctx, cacheNSSeries, key, &cached) {
		return &cached, nil
	}

	series, err := s.series.Observations(ctx, seriesID, r)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, series, s.ttl)
	return series, nil
}

// Prices returns daily bars for symbol, cached by symbol and range.
func (s *MarketService) Prices(ctx context.Context, symbol string, r domain.DateRange) ([]domain.PriceBar, error) {
	if s.prices == nil {
		return nil, domain.ErrNotConfigured
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if err := checkRange(r); err != nil {
		return nil, err
	}

	key := domain.CacheKey(domain.SourceYahoo, symbol, r)
	var cached []domain.PriceBar
	if s.cache.get(ctx, cacheNSPrices, key, &cached) {
		return cached, nil
	}

	bars, err := s.prices.DailyBars(ctx, symbol, r)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, bars, s.ttl)
	return bars, nil
}

// Returns converts prices into simple returns of the adjusted close.
func (s *MarketService) Returns(ctx context.Context, symbol string, r domain.DateRange) ([]float64, error) {
	bars, err := s.Prices(ctx, symbol, r)
	if err != nil {
		return nil, err
	}
	returns := domain.SimpleReturns(bars)
	if len(returns) == 0 {
		return nil, fmt.Errorf("%s: %d bars: %w", symbol, len(bars), domain.ErrInsufficientData)
	}
	return returns, nil
}

// CacheStats summarises the cache.
func (s *MarketService) CacheStats(ctx context.Context) (domain.CacheStats, error) {
	if s.store == nil {
		return domain.CacheStats{}, nil
	}
	return s.store.Stats(ctx)
}

// PurgeExpired removes expired cache entries.
func (s *MarketService) PurgeExpired(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	return s.store.PurgeExpired(ctx)
}

// ClearCache removes entries for one source ("fred", "yahoo", "edgar") or all.
func (s *MarketService) ClearCache(ctx context.Context, source string) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	source = strings.ToLower(strings.TrimSpace(source))
	switch source {
	case "":
		return s.store.Clear(ctx, "")
	case domain.SourceFRED, domain.SourceYahoo, domain.SourceEDGAR:
		return s.store.Clear(ctx, source+":")
	default:
		return 0, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidInput, source)
	}
}

func checkRange(r domain.DateRange) error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s before start %s", domain.ErrInvalidInput,
			r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}
