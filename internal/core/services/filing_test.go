package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/finkit/internal/core/domain"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newEDGARFixture() *mockEDGARClient {
	return &mockEDGARClient{
		tickers: map[string]domain.Company{
			"AAPL":  {CIK: 320193, Ticker: "AAPL", Name: "Apple Inc."},
			"MSFT":  {CIK: 789019, Ticker: "MSFT", Name: "MICROSOFT CORP"},
			"BRK-B": {CIK: 1067983, Ticker: "BRK-B", Name: "BERKSHIRE HATHAWAY INC"},
		},
		submissions: map[int64][]domain.FilingRef{
			320193: {
				{CIK: 320193, AccessionNumber: "a-3", Form: "8-K", FilingDate: date("2024-11-05"), PrimaryDocument: "a3.htm"},
				{CIK: 320193, AccessionNumber: "a-2", Form: "10-K", FilingDate: date("2024-11-01"), PrimaryDocument: "a2.htm"},
				{CIK: 320193, AccessionNumber: "a-1", Form: "10-Q", FilingDate: date("2024-08-02"), PrimaryDocument: "a1.htm"},
				{CIK: 320193, AccessionNumber: "a-0", Form: "10-K", FilingDate: date("2023-11-03"), PrimaryDocument: "a0.htm"},
			},
			789019: {
				{CIK: 789019, AccessionNumber: "m-1", Form: "10-K", FilingDate: date("2024-07-30"), PrimaryDocument: "m1.htm"},
			},
		},
		documents: map[string]string{
			"a-2": annualReport,
			"a-0": "Item 1. Business\nOlder text.",
		},
		docErr: map[string]error{
			"m-1": domain.ErrUpstream,
		},
	}
}

func newTestFilingService(client *mockEDGARClient) (*FilingService, *memory.CacheStore) {
	cache := memory.NewCacheStore()
	return NewFilingService(client, cache, FilingConfig{
		Workers:     2,
		MetaTTL:     time.Hour,
		DocumentTTL: 24 * time.Hour,
	}), cache
}

func TestFilingService_ResolveCompany(t *testing.T) {
	client := newEDGARFixture()
	service, _ := newTestFilingService(client)
	ctx := context.Background()

	t.Run("case-insensitive", func(t *testing.T) {
		c, err := service.ResolveCompany(ctx, " aapl ")
		require.NoError(t, err)
		assert.Equal(t, int64(320193), c.CIK)
	})

	t.Run("dotted class shares", func(t *testing.T) {
		c, err := service.ResolveCompany(ctx, "brk.b")
		require.NoError(t, err)
		assert.Equal(t, int64(1067983), c.CIK)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := service.ResolveCompany(ctx, "ZZZZ")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := service.ResolveCompany(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	assert.Equal(t, int32(1), client.tickerCalls.Load(), "ticker map is fetched once")
}

func TestFilingService_ResolveCompany_UsesPersistentCache(t *testing.T) {
	client := newEDGARFixture()
	service, cache := newTestFilingService(client)
	_, err := service.ResolveCompany(context.Background(), "AAPL")
	require.NoError(t, err)

	// A new service sharing the cache does not refetch.
	second := NewFilingService(client, cache, FilingConfig{MetaTTL: time.Hour})
	_, err = second.ResolveCompany(context.Background(), "MSFT")

	require.NoError(t, err)
	assert.Equal(t, int32(1), client.tickerCalls.Load())
}

func TestFilingService_NotConfigured(t *testing.T) {
	service := NewFilingService(nil, nil, FilingConfig{})

	_, err := service.ResolveCompany(context.Background(), "AAPL")

	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestFilingService_ListFilings(t *testing.T) {
	service, _ := newTestFilingService(newEDGARFixture())
	ctx := context.Background()

	t.Run("filter by form", func(t *testing.T) {
		refs, err := service.ListFilings(ctx, "AAPL", "10-k", 0)
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, "a-2", refs[0].AccessionNumber)
		assert.Equal(t, "a-0", refs[1].AccessionNumber)
	})

	t.Run("all forms with limit", func(t *testing.T) {
		refs, err := service.ListFilings(ctx, "AAPL", "", 3)
		require.NoError(t, err)
		assert.Len(t, refs, 3)
		assert.Equal(t, "8-K", refs[0].Form)
	})

	t.Run("no matches", func(t *testing.T) {
		refs, err := service.ListFilings(ctx, "MSFT", "10-Q", 0)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})
}

func TestFilingService_GetFiling(t *testing.T) {
	client := newEDGARFixture()
	service, _ := newTestFilingService(client)
	ctx := context.Background()

	t.Run("latest", func(t *testing.T) {
		f, err := service.GetFiling(ctx, "AAPL", "10-K", 0)
		require.NoError(t, err)
		assert.Equal(t, "a-2", f.Ref.AccessionNumber)
		assert.Equal(t, "Apple Inc.", f.Company.Name)
		assert.Equal(t, []string{"item_1", "item_1a", "item_7"}, f.SectionKeys())
	})

	t.Run("older by index", func(t *testing.T) {
		f, err := service.GetFiling(ctx, "AAPL", "10-K", 1)
		require.NoError(t, err)
		assert.Equal(t, "a-0", f.Ref.AccessionNumber)
	})

	t.Run("empty form defaults to 10-K", func(t *testing.T) {
		f, err := service.GetFiling(ctx, "AAPL", "", 0)
		require.NoError(t, err)
		assert.Equal(t, "10-K", f.Ref.Form)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := service.GetFiling(ctx, "AAPL", "10-K", 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("negative index", func(t *testing.T) {
		_, err := service.GetFiling(ctx, "AAPL", "10-K", -1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	docCalls := client.docCalls.Load()
	_, err := service.GetFiling(ctx, "AAPL", "10-K", 0)
	require.NoError(t, err)
	assert.Equal(t, docCalls, client.docCalls.Load(), "documents are served from cache")
}

func TestFilingService_GetSection(t *testing.T) {
	service, _ := newTestFilingService(newEDGARFixture())
	ctx := context.Background()

	s, err := service.GetSection(ctx, "AAPL", "10-K", "1A")
	require.NoError(t, err)
	assert.Contains(t, s.Content, "numerous risks")

	_, err = service.GetSection(ctx, "AAPL", "10-K", "Item 9A")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = service.GetSection(ctx, "AAPL", "10-K", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFilingService_BatchFetch_ToleratesFailures(t *testing.T) {
	service, _ := newTestFilingService(newEDGARFixture())

	results := service.BatchFetch(context.Background(), []string{"aapl", "MSFT", "NOPE"}, "10-K")

	require.Len(t, results, 3)

	assert.Equal(t, "AAPL", results[0].Ticker)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "a-2", results[0].Filing.Ref.AccessionNumber)

	assert.Equal(t, "MSFT", results[1].Ticker)
	assert.ErrorIs(t, results[1].Err, domain.ErrUpstream)
	assert.Nil(t, results[1].Filing)

	assert.ErrorIs(t, results[2].Err, domain.ErrNotFound)
}
