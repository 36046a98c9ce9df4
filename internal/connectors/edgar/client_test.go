package edgar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/connectors/httpapi"
	"github.com/custodia-labs/finkit/internal/core/domain"
)

const testUA = "Finkit Tests tests@example.com"

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(testUA, MaxRate,
		WithBaseURLs(srv.URL, srv.URL),
		WithHTTPOptions(httpapi.WithRetries(1)))
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresUserAgent(t *testing.T) {
	_, err := NewClient("  ", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClient_CompanyTickers(t *testing.T) {
	var gotUA string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "/files/company_tickers.json", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
			"1": {"cik_str": 789019, "ticker": "msft", "title": "MICROSOFT CORP"},
			"2": {"cik_str": 1, "ticker": "", "title": "blank"}
		}`))
	}))

	tickers, err := c.CompanyTickers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testUA, gotUA)
	assert.Len(t, tickers, 2)
	assert.Equal(t, domain.Company{CIK: 320193, Ticker: "AAPL", Name: "Apple Inc."}, tickers["AAPL"])
	assert.Equal(t, int64(789019), tickers["MSFT"].CIK)
}

func TestClient_CompanyTickers_BadJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[not json`))
	}))

	_, err := c.CompanyTickers(context.Background())
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestClient_Submissions(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/submissions/CIK0000320193.json", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"cik": "320193",
			"name": "Apple Inc.",
			"filings": {"recent": {
				"accessionNumber": ["0000320193-24-000010", "0000320193-24-000123", "0000320193-23-000106"],
				"filingDate":      ["2024-02-02", "2024-11-01", "2023-11-03"],
				"reportDate":      ["2023-12-30", "2024-09-28", "2023-09-30"],
				"form":            ["10-Q", "10-K", "10-K"],
				"primaryDocument": ["aapl-20231230.htm", "aapl-20240928.htm", "aapl-20230930.htm"]
			}}
		}`))
	}))

	refs, err := c.Submissions(context.Background(), 320193)

	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "0000320193-24-000123", refs[0].AccessionNumber, "newest first")
	assert.Equal(t, "10-K", refs[0].Form)
	assert.Equal(t, "2024-09-28", refs[0].ReportDate.Format("2006-01-02"))
	assert.Equal(t, "0000320193-23-000106", refs[2].AccessionNumber)
}

func TestRecentFilings_RaggedColumns(t *testing.T) {
	r := recentFilings{
		AccessionNumber: []string{"a", "b"},
		Form:            []string{"10-K"},
		PrimaryDocument: []string{"a.htm", "b.htm"},
		FilingDate:      []string{"not-a-date"},
	}

	refs := r.refs(1)

	require.Len(t, refs, 1, "row without form is dropped")
	assert.True(t, refs[0].FilingDate.IsZero())
}

func TestClient_Submissions_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.Submissions(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_Document(t *testing.T) {
	ref := domain.FilingRef{
		CIK:             320193,
		AccessionNumber: "0000320193-24-000123",
		Form:            "10-K",
		PrimaryDocument: "aapl-20240928.htm",
	}

	t.Run("html converted to text", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm", r.URL.Path)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><p><b>Item 1A.</b> Risk Factors</p><p>Things may go wrong.</p></body></html>`))
		}))

		text, err := c.Document(context.Background(), ref)

		require.NoError(t, err)
		assert.NotContains(t, text, "<p>")
		assert.Contains(t, text, "Item 1A.")
		assert.Contains(t, text, "Things may go wrong.")
	})

	t.Run("plain text passed through", func(t *testing.T) {
		txtRef := ref
		txtRef.PrimaryDocument = "filing.txt"
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ITEM 1. BUSINESS\n<not html>"))
		}))

		text, err := c.Document(context.Background(), txtRef)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(text, "ITEM 1. BUSINESS"))
		assert.Contains(t, text, "<not html>")
	})
}

func TestIsHTML(t *testing.T) {
	assert.True(t, isHTML("a.htm", ""))
	assert.True(t, isHTML("a.HTML", ""))
	assert.False(t, isHTML("a.txt", "text/html"))
	assert.True(t, isHTML("a", "text/html; charset=utf-8"))
	assert.False(t, isHTML("a", "text/plain"))
}
