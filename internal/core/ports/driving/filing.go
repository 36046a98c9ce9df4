package driving

import (
	"context"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// FilingService fetches and splits SEC filings.
type FilingService interface {
	// ResolveCompany looks up a company by ticker.
	ResolveCompany(ctx context.Context, ticker string) (*domain.Company, error)

	// ListFilings returns filings of the given form, newest first.
	// An empty form matches all forms; limit <= 0 returns everything.
	ListFilings(ctx context.Context, ticker, form string, limit int) ([]domain.FilingRef, error)

	// GetFiling fetches the index-th most recent filing of form (0 = latest).
	GetFiling(ctx context.Context, ticker, form string, index int) (*domain.Filing, error)

	// GetSection fetches one section of the latest filing of form.
	GetSection(ctx context.Context, ticker, form, key string) (*domain.Section, error)

	// BatchFetch fetches the latest filing of form for each ticker.
	// Failures are reported per ticker; the batch never aborts.
	BatchFetch(ctx context.Context, tickers []string, form string) []domain.BatchResult
}
