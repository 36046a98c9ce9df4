package driven

import (
	"context"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// SeriesClient fetches economic time series (FRED).
type SeriesClient interface {
	// Observations returns the series observations within the range.
	Observations(ctx context.Context, seriesID string, r domain.DateRange) (*domain.Series, error)
}

// PriceClient fetches daily price bars.
type PriceClient interface {
	// DailyBars returns bars in ascending date order.
	DailyBars(ctx context.Context, symbol string, r domain.DateRange) ([]domain.PriceBar, error)
}
