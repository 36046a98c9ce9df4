// Package yahoo implements driven.PriceClient using the Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/finkit/internal/connectors/httpapi"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.PriceClient = (*Client)(nil)

// DefaultBaseURL is the chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// defaultUserAgent avoids the 429s Yahoo returns to Go's default agent.
const defaultUserAgent = "Mozilla/5.0 (compatible; finkit)"

// Client fetches daily bars.
type Client struct {
	http    *httpapi.Client
	baseURL string
	now     func() time.Time
}

// NewClient creates a Yahoo chart client.
func NewClient(rps float64, baseURL string, opts ...httpapi.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base := []httpapi.Option{httpapi.WithRate(rps), httpapi.WithUserAgent(defaultUserAgent)}
	return &Client{
		http:    httpapi.New(domain.SourceYahoo, append(base, opts...)...),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// DailyBars returns bars between r.Start and r.End, ascending. Rows with a
// null close are skipped.
func (c *Client) DailyBars(ctx context.Context, symbol string, r domain.DateRange) ([]domain.PriceBar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}

	end := r.End
	if end.IsZero() {
		end = c.now()
	}
	start := r.Start
	if start.IsZero() {
		start = end.AddDate(-1, 0, 0)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s is not before end %s",
			domain.ErrInvalidInput, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive; include the end day.
	q.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())
	body, _, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetching prices for %s: %w", symbol, err)
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: chart for %s: %v", domain.ErrParse, symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrUpstream, symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: no chart data for %s", domain.ErrNotFound, symbol)
	}

	return resp.Chart.Result[0].bars(), nil
}

func (res chartResult) bars() []domain.PriceBar {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]
	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]domain.PriceBar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		closePx, ok := value(q.Close, i)
		if !ok {
			continue
		}
		bar := domain.PriceBar{
			Date:     time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close:    closePx,
			AdjClose: closePx,
		}
		bar.Open, _ = value(q.Open, i)
		bar.High, _ = value(q.High, i)
		bar.Low, _ = value(q.Low, i)
		if v, ok := value(adj, i); ok {
			bar.AdjClose = v
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars
}

func value(s []*float64, i int) (float64, bool) {
	if i >= len(s) || s[i] == nil {
		return 0, false
	}
	return *s[i], true
}
