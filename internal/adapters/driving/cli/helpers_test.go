package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/finkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/services"
)

// executeCommand runs the root command with args and returns its output.
// Flags are restored to their defaults afterwards.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "string", "int", "bool", "float64":
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
	factorOrder = nil
	portfolioPrices = nil
}

type testServices struct {
	feed       *services.FeedService
	feedStore  *memory.FeedStore
	settings   *services.SettingsService
	portfolios *jsonfile.PortfolioStore
	market     *fakeMarket
	filing     *fakeFiling
}

// setupTestServices wires in-memory services into the command package.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	portfolios, err := jsonfile.NewPortfolioStore(t.TempDir())
	require.NoError(t, err)

	ts := &testServices{
		feedStore:  memory.NewFeedStore(),
		settings:   services.NewSettingsService(memory.NewConfigStore()),
		portfolios: portfolios,
		market:     newFakeMarket(),
		filing:     &fakeFiling{},
	}
	ts.feed = services.NewFeedService(ts.feedStore, &stubFetcher{}, services.FeedConfig{})

	SetServices(Services{
		Filing:     ts.filing,
		Market:     ts.market,
		Feed:       ts.feed,
		Settings:   ts.settings,
		Portfolios: ts.portfolios,
	})
	t.Cleanup(func() { SetServices(Services{}) })
	return ts
}

type stubFetcher struct {
	feed *domain.FetchedFeed
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*domain.FetchedFeed, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.feed != nil {
		return f.feed, nil
	}
	return &domain.FetchedFeed{
		Title: "Feed at " + url,
		Items: []domain.FeedItem{
			{GUID: "g1", Title: "Rates decision", Summary: "Central bank holds", Published: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
			{GUID: "g2", Title: "Jobs report", Summary: "Payrolls rise", Published: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
	}, nil
}

type fakeMarket struct {
	bars    map[string][]domain.PriceBar
	purged  int
	cleared string
}

func newFakeMarket() *fakeMarket {
	m := &fakeMarket{bars: make(map[string][]domain.PriceBar)}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, sym := range []string{"AAPL", "SPY"} {
		price := 100.0
		for i := 0; i < 30; i++ {
			step := 1.01
			if (i%3 == 0) != (sym == "SPY") {
				step = 0.995
			}
			price *= step
			m.bars[sym] = append(m.bars[sym], domain.PriceBar{
				Date: start.AddDate(0, 0, i), Open: price, High: price, Low: price,
				Close: price, AdjClose: price, Volume: 1000,
			})
		}
	}
	return m
}

func (m *fakeMarket) Series(_ context.Context, id string, _ domain.DateRange) (*domain.Series, error) {
	if id != "GDP" {
		return nil, fmt.Errorf("series %s: %w", id, domain.ErrNotFound)
	}
	return &domain.Series{
		ID: "GDP", Source: domain.SourceFRED, Title: "Gross Domestic Product",
		Observations: []domain.Observation{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 28000},
			{Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Value: 28300},
		},
	}, nil
}

func (m *fakeMarket) Prices(_ context.Context, symbol string, _ domain.DateRange) ([]domain.PriceBar, error) {
	bars, ok := m.bars[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("symbol %s: %w", symbol, domain.ErrNotFound)
	}
	return bars, nil
}

func (m *fakeMarket) Returns(ctx context.Context, symbol string, r domain.DateRange) ([]float64, error) {
	bars, err := m.Prices(ctx, symbol, r)
	if err != nil {
		return nil, err
	}
	return domain.SimpleReturns(bars), nil
}

func (m *fakeMarket) CacheStats(_ context.Context) (domain.CacheStats, error) {
	return domain.CacheStats{Entries: 7, Expired: 2, Bytes: 4096}, nil
}

func (m *fakeMarket) PurgeExpired(_ context.Context) (int, error) {
	m.purged++
	return 2, nil
}

func (m *fakeMarket) ClearCache(_ context.Context, source string) (int, error) {
	m.cleared = source
	return 5, nil
}

type fakeFiling struct {
	lastForm string
}

var testCompany = domain.Company{CIK: 320193, Ticker: "AAPL", Name: "Apple Inc."}

func testFiling(form string) *domain.Filing {
	return &domain.Filing{
		Ref: domain.FilingRef{
			CIK: 320193, AccessionNumber: "0000320193-23-000106", Form: form,
			FilingDate:      time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC),
			ReportDate:      time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC),
			PrimaryDocument: "aapl-20230930.htm",
		},
		Company: testCompany,
		Sections: []domain.Section{
			{Key: "item_1", Title: "Item 1. Business", Content: "We design smartphones."},
			{Key: "item_1a", Title: "Item 1A. Risk Factors", Content: "Competition is intense."},
		},
	}
}

func (f *fakeFiling) ResolveCompany(_ context.Context, ticker string) (*domain.Company, error) {
	if !strings.EqualFold(ticker, "AAPL") {
		return nil, fmt.Errorf("ticker %s: %w", ticker, domain.ErrNotFound)
	}
	c := testCompany
	return &c, nil
}

func (f *fakeFiling) ListFilings(ctx context.Context, ticker, form string, _ int) ([]domain.FilingRef, error) {
	f.lastForm = form
	if _, err := f.ResolveCompany(ctx, ticker); err != nil {
		return nil, err
	}
	if form == domain.FormCurrent {
		return []domain.FilingRef{}, nil
	}
	return []domain.FilingRef{testFiling(form).Ref}, nil
}

func (f *fakeFiling) GetFiling(ctx context.Context, ticker, form string, _ int) (*domain.Filing, error) {
	f.lastForm = form
	if _, err := f.ResolveCompany(ctx, ticker); err != nil {
		return nil, err
	}
	return testFiling(form), nil
}

func (f *fakeFiling) GetSection(ctx context.Context, ticker, form, key string) (*domain.Section, error) {
	filing, err := f.GetFiling(ctx, ticker, form, 0)
	if err != nil {
		return nil, err
	}
	s, ok := filing.Section(key)
	if !ok {
		return nil, fmt.Errorf("section %s: %w", key, domain.ErrNotFound)
	}
	return s, nil
}

func (f *fakeFiling) BatchFetch(ctx context.Context, tickers []string, form string) []domain.BatchResult {
	out := make([]domain.BatchResult, len(tickers))
	for i, t := range tickers {
		out[i].Ticker = strings.ToUpper(t)
		out[i].Filing, out[i].Err = f.GetFiling(ctx, t, form, 0)
	}
	return out
}
