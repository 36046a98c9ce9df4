package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
	"github.com/custodia-labs/finkit/internal/logger"
)

// Ensure FilingService implements the interface.
var _ driving.FilingService = (*FilingService)(nil)

const (
	cacheNSTickers     = "edgar_tickers"
	cacheNSSubmissions = "edgar_submissions"
	cacheNSDocuments   = "edgar_documents"

	keyTickers = domain.SourceEDGAR + ":tickers"
)

// FilingConfig tunes the filing service.
type FilingConfig struct {
	// Workers bounds BatchFetch concurrency.
	Workers int

	// MetaTTL applies to the ticker map and submission lists.
	MetaTTL time.Duration

	// DocumentTTL applies to filing documents, which never change once filed.
	DocumentTTL time.Duration
}

// FilingService fetches SEC filings through a cache and splits them into sections.
type FilingService struct {
	client driven.EDGARClient
	cache  jsonCache
	cfg    FilingConfig
	now    func() time.Time

	mu      sync.Mutex
	tickers map[string]domain.Company
}

// NewFilingService creates a filing service. cache may be nil.
func NewFilingService(client driven.EDGARClient, cache driven.CacheStore, cfg FilingConfig) *FilingService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &FilingService{
		client: client,
		cache:  jsonCache{store: cache},
		cfg:    cfg,
		now:    time.Now,
	}
}

// ResolveCompany looks up a company by ticker.
func (s *FilingService) ResolveCompany(ctx context.Context, ticker string) (*domain.Company, error) {
	if s.client == nil {
		return nil, domain.ErrNotConfigured
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", domain.ErrInvalidInput)
	}

	tickers, err := s.loadTickers(ctx)
	if err != nil {
		return nil, err
	}

	company, ok := tickers[ticker]
	if !ok {
		// Class shares appear as BRK-B in the SEC map.
		company, ok = tickers[strings.ReplaceAll(ticker, ".", "-")]
	}
	if !ok {
		return nil, fmt.Errorf("ticker %s: %w", ticker, domain.ErrNotFound)
	}
	return &company, nil
}

func (s *FilingService) loadTickers(ctx context.Context) (map[string]domain.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tickers != nil {
		return s.tickers, nil
	}

	var tickers map[string]domain.Company
	if s.cache.get(ctx, cacheNSTickers, keyTickers, &tickers) {
		s.tickers = tickers
		return tickers, nil
	}

	tickers, err := s.client.CompanyTickers(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, keyTickers, tickers, s.cfg.MetaTTL)
	s.tickers = tickers
	return tickers, nil
}

// ListFilings returns filings of form for ticker, newest first.
func (s *FilingService) ListFilings(ctx context.Context, ticker, form string, limit int) ([]domain.FilingRef, error) {
	company, err := s.ResolveCompany(ctx, ticker)
	if err != nil {
		return nil, err
	}

	refs, err := s.submissions(ctx, company.CIK)
	if err != nil {
		return nil, err
	}

	form = strings.TrimSpace(form)
	out := make([]domain.FilingRef, 0, len(refs))
	for _, ref := range refs {
		if form != "" && !strings.EqualFold(ref.Form, form) {
			continue
		}
		out = append(out, ref)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *FilingService) submissions(ctx context.Context, cik int64) ([]domain.FilingRef, error) {
	key := domain.SourceEDGAR + ":submissions:" + strconv.FormatInt(cik, 10)

	var refs []domain.FilingRef
	if s.cache.get(ctx, cacheNSSubmissions, key, &refs) {
		return refs, nil
	}

	refs, err := s.client.Submissions(ctx, cik)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, refs, s.cfg.MetaTTL)
	return refs, nil
}

// GetFiling fetches the index-th most recent filing of form and splits it.
func (s *FilingService) GetFiling(ctx context.Context, ticker, form string, index int) (*domain.Filing, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: index must be >= 0", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(form) == "" {
		form = domain.FormAnnual
	}

	company, err := s.ResolveCompany(ctx, ticker)
	if err != nil {
		return nil, err
	}
	refs, err := s.ListFilings(ctx, ticker, form, index+1)
	if err != nil {
		return nil, err
	}
	if index >= len(refs) {
		return nil, fmt.Errorf("%s filing #%d for %s: %w", form, index, company.Ticker, domain.ErrNotFound)
	}
	ref := refs[index]

	text, err := s.document(ctx, ref)
	if err != nil {
		return nil, err
	}

	logger.Debug("edgar: %s %s %s (%d bytes)", company.Ticker, ref.Form, ref.AccessionNumber, len(text))
	return &domain.Filing{
		Ref:       ref,
		Company:   *company,
		Text:      text,
		FetchedAt: s.now(),
		Sections:  SplitSections(text, ref.Form),
	}, nil
}

func (s *FilingService) document(ctx context.Context, ref domain.FilingRef) (string, error) {
	key := domain.SourceEDGAR + ":doc:" + ref.AccessionNumber

	var text string
	if s.cache.get(ctx, cacheNSDocuments, key, &text) {
		return text, nil
	}

	text, err := s.client.Document(ctx, ref)
	if err != nil {
		return "", err
	}
	s.cache.set(ctx, key, text, s.cfg.DocumentTTL)
	return text, nil
}

// GetSection returns one section of the latest filing of form.
func (s *FilingService) GetSection(ctx context.Context, ticker, form, key string) (*domain.Section, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: section key is required", domain.ErrInvalidInput)
	}

	filing, err := s.GetFiling(ctx, ticker, form, 0)
	if err != nil {
		return nil, err
	}

	section, ok := filing.Section(key)
	if !ok {
		return nil, fmt.Errorf("section %q in %s %s (have %s): %w",
			key, filing.Company.Ticker, filing.Ref.Form,
			strings.Join(filing.SectionKeys(), ", "), domain.ErrNotFound)
	}
	return section, nil
}

// BatchFetch fetches the latest filing of form for every ticker using a
// bounded worker pool. Results keep the input order.
func (s *FilingService) BatchFetch(ctx context.Context, tickers []string, form string) []domain.BatchResult {
	results := make([]domain.BatchResult, len(tickers))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			filing, err := s.GetFiling(ctx, ticker, form, 0)
			if err != nil {
				logger.Warn("edgar: %s: %v", ticker, err)
			}
			results[i] = domain.BatchResult{Ticker: strings.ToUpper(strings.TrimSpace(ticker)), Filing: filing, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
