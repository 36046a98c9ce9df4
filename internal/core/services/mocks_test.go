package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// mockEDGARClient serves canned EDGAR data and counts calls.
type mockEDGARClient struct {
	tickers     map[string]domain.Company
	submissions map[int64][]domain.FilingRef
	documents   map[string]string
	docErr      map[string]error

	tickerCalls atomic.Int32
	subCalls    atomic.Int32
	docCalls    atomic.Int32
}

func (m *mockEDGARClient) CompanyTickers(_ context.Context) (map[string]domain.Company, error) {
	m.tickerCalls.Add(1)
	if m.tickers == nil {
		return nil, domain.ErrUpstream
	}
	return m.tickers, nil
}

func (m *mockEDGARClient) Submissions(_ context.Context, cik int64) ([]domain.FilingRef, error) {
	m.subCalls.Add(1)
	refs, ok := m.submissions[cik]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return refs, nil
}

func (m *mockEDGARClient) Document(_ context.Context, ref domain.FilingRef) (string, error) {
	m.docCalls.Add(1)
	if err := m.docErr[ref.AccessionNumber]; err != nil {
		return "", err
	}
	doc, ok := m.documents[ref.AccessionNumber]
	if !ok {
		return "", domain.ErrNotFound
	}
	return doc, nil
}

// mockSeriesClient returns a fixed series.
type mockSeriesClient struct {
	series *domain.Series
	err    error
	calls  atomic.Int32
}

func (m *mockSeriesClient) Observations(_ context.Context, seriesID string, _ domain.DateRange) (*domain.Series, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	s := *m.series
	s.ID = seriesID
	return &s, nil
}

// mockPriceClient returns fixed bars.
type mockPriceClient struct {
	bars  []domain.PriceBar
	err   error
	calls atomic.Int32
}

func (m *mockPriceClient) DailyBars(_ context.Context, _ string, _ domain.DateRange) ([]domain.PriceBar, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.bars, nil
}

// mockFeedFetcher serves feeds by URL and can fail per URL.
type mockFeedFetcher struct {
	mu    sync.Mutex
	feeds map[string]*domain.FetchedFeed
	errs  map[string]error
	calls map[string]int
}

func newMockFeedFetcher() *mockFeedFetcher {
	return &mockFeedFetcher{
		feeds: make(map[string]*domain.FetchedFeed),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (m *mockFeedFetcher) set(url string, feed *domain.FetchedFeed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feeds[url] = feed
}

func (m *mockFeedFetcher) fail(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[url] = err
}

func (m *mockFeedFetcher) callCount(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

func (m *mockFeedFetcher) Fetch(_ context.Context, url string) (*domain.FetchedFeed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[url]++
	if err := m.errs[url]; err != nil {
		return nil, err
	}
	feed, ok := m.feeds[url]
	if !ok {
		return nil, errors.New("no such feed")
	}
	// Hand out a copy so the service cannot mutate fixtures.
	cp := *feed
	cp.Items = append([]domain.FeedItem(nil), feed.Items...)
	return &cp, nil
}
