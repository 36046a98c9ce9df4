package driven

import (
	"context"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// EDGARClient talks to SEC EDGAR.
type EDGARClient interface {
	// CompanyTickers returns the SEC ticker to CIK map, keyed by upper-case ticker.
	CompanyTickers(ctx context.Context) (map[string]domain.Company, error)

	// Submissions returns the recent filings for a CIK, newest first.
	Submissions(ctx context.Context, cik int64) ([]domain.FilingRef, error)

	// Document downloads a filing's primary document and returns it as plain text.
	Document(ctx context.Context, ref domain.FilingRef) (string, error)
}
