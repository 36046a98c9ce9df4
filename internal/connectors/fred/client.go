// Package fred implements driven.SeriesClient for the St. Louis Fed's FRED API.
package fred

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
var _ driven.SeriesClient = (*Client)(nil)

// DefaultBaseURL is the FRED API root.
const DefaultBaseURL = "https://api.stlouisfed.org"

// missingValue marks an observation with no data.
const missingValue = "."

const dateLayout = "2006-01-02"

// Client fetches series observations from FRED.
type Client struct {
	http    *httpapi.Client
	baseURL string
	apiKey  string
}

// NewClient creates a FRED client. An API key is required.
func NewClient(apiKey string, rps float64, baseURL string, opts ...httpapi.Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: FRED requires an API key (set %s)",
			domain.ErrInvalidInput, domain.KeyFREDAPIKey)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		http:    httpapi.New(domain.SourceFRED, append([]httpapi.Option{httpapi.WithRate(rps)}, opts...)...),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}, nil
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

type seriesResponse struct {
	Seriess []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"seriess"`
}

// Observations returns the series between r.Start and r.End. Missing
// values (".") are skipped.
func (c *Client) Observations(ctx context.Context, seriesID string, r domain.DateRange) (*domain.Series, error) {
	seriesID = strings.ToUpper(strings.TrimSpace(seriesID))
	if seriesID == "" {
		return nil, fmt.Errorf("%w: series id is required", domain.ErrInvalidInput)
	}

	q := c.query(seriesID)
	if !r.Start.IsZero() {
		q.Set("observation_start", r.Start.Format(dateLayout))
	}
	if !r.End.IsZero() {
		q.Set("observation_end", r.End.Format(dateLayout))
	}

	body, _, err := c.http.Get(ctx, c.baseURL+"/fred/series/observations?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetching FRED series %s: %w", seriesID, err)
	}

	var resp observationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: FRED series %s: %v", domain.ErrParse, seriesID, err)
	}

	series := &domain.Series{
		ID:           seriesID,
		Source:       domain.SourceFRED,
		Title:        c.title(ctx, seriesID),
		Observations: make([]domain.Observation, 0, len(resp.Observations)),
	}
	for _, o := range resp.Observations {
		if o.Value == missingValue {
			continue
		}
		date, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		series.Observations = append(series.Observations, domain.Observation{Date: date, Value: v})
	}

	return series, nil
}

// title looks up the series title. Failures are not fatal.
func (c *Client) title(ctx context.Context, seriesID string) string {
	body, _, err := c.http.Get(ctx, c.baseURL+"/fred/series?"+c.query(seriesID).Encode())
	if err != nil {
		return ""
	}
	var resp seriesResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Seriess) == 0 {
		return ""
	}
	return resp.Seriess[0].Title
}

func (c *Client) query(seriesID string) url.Values {
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	return q
}
