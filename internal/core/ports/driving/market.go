package driving

import (
	"context"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// MarketService serves cached market and economic data.
type MarketService interface {
	// Series returns a FRED series.
	Series(ctx context.Context, seriesID string, r domain.DateRange) (*domain.Series, error)

	// Prices returns daily bars for a symbol.
	Prices(ctx context.Context, symbol string, r domain.DateRange) ([]domain.PriceBar, error)

	// Returns returns simple daily returns for a symbol.
	Returns(ctx context.Context, symbol string, r domain.DateRange) ([]float64, error)

	// CacheStats summarises the cache.
	CacheStats(ctx context.Context) (domain.CacheStats, error)

	// PurgeExpired removes expired cache entries.
	PurgeExpired(ctx context.Context) (int, error)

	// ClearCache removes cached entries for a source, or all when source is empty.
	ClearCache(ctx context.Context, source string) (int, error)
}
