package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/custodia-labs/finkit/internal/connectors/httpapi"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.EDGARClient = (*Client)(nil)

const (
	// DefaultWWWBase serves the ticker map and filing archives.
	DefaultWWWBase = "https://www.sec.gov"

	// DefaultDataBase serves the submissions API.
	DefaultDataBase = "https://data.sec.gov"

	// MaxRate is the SEC's published fair-access limit.
	MaxRate = 10.0

	dateLayout = "2006-01-02"
)

// Client fetches company, submission and document data from EDGAR.
type Client struct {
	http     *httpapi.Client
	wwwBase  string
	dataBase string
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	wwwBase  string
	dataBase string
	httpOpts []httpapi.Option
}

// WithBaseURLs overrides the www.sec.gov and data.sec.gov hosts.
func WithBaseURLs(www, data string) Option {
	return func(c *clientConfig) {
		c.wwwBase = strings.TrimRight(www, "/")
		c.dataBase = strings.TrimRight(data, "/")
	}
}

// WithHTTPOptions passes options through to the underlying HTTP client.
func WithHTTPOptions(opts ...httpapi.Option) Option {
	return func(c *clientConfig) {
		c.httpOpts = append(c.httpOpts, opts...)
	}
}

// NewClient creates an EDGAR client. userAgent is mandatory; rps is capped at MaxRate.
func NewClient(userAgent string, rps float64, opts ...Option) (*Client, error) {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, fmt.Errorf("%w: SEC EDGAR requires a user agent (set %s)",
			domain.ErrInvalidInput, domain.KeyEDGARUserAgent)
	}
	if rps <= 0 || rps > MaxRate {
		rps = MaxRate
	}

	cfg := &clientConfig{wwwBase: DefaultWWWBase, dataBase: DefaultDataBase}
	for _, opt := range opts {
		opt(cfg)
	}

	httpOpts := append([]httpapi.Option{
		httpapi.WithUserAgent(userAgent),
		httpapi.WithRate(rps),
	}, cfg.httpOpts...)

	return &Client{
		http:     httpapi.New(domain.SourceEDGAR, httpOpts...),
		wwwBase:  cfg.wwwBase,
		dataBase: cfg.dataBase,
	}, nil
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// CompanyTickers downloads the SEC ticker map.
func (c *Client) CompanyTickers(ctx context.Context) (map[string]domain.Company, error) {
	body, _, err := c.http.Get(ctx, c.wwwBase+"/files/company_tickers.json")
	if err != nil {
		return nil, fmt.Errorf("fetching company tickers: %w", err)
	}

	// The file is an object keyed by row number: {"0": {...}, "1": {...}}.
	var raw map[string]tickerEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: company tickers: %v", domain.ErrParse, err)
	}

	out := make(map[string]domain.Company, len(raw))
	for _, e := range raw {
		ticker := strings.ToUpper(strings.TrimSpace(e.Ticker))
		if ticker == "" {
			continue
		}
		out[ticker] = domain.Company{CIK: e.CIK, Ticker: ticker, Name: e.Title}
	}
	return out, nil
}

type submissionsResponse struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

// recentFilings holds the column-oriented arrays of the submissions API.
type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// Submissions returns the recent filings of a registrant, newest first.
func (c *Client) Submissions(ctx context.Context, cik int64) ([]domain.FilingRef, error) {
	company := domain.Company{CIK: cik}
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBase, company.PaddedCIK())

	body, _, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching submissions for CIK %d: %w", cik, err)
	}

	var resp submissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: submissions for CIK %d: %v", domain.ErrParse, cik, err)
	}

	return resp.Filings.Recent.refs(cik), nil
}

// refs zips the column arrays into rows. Rows missing an accession number,
// form or document are dropped.
func (r recentFilings) refs(cik int64) []domain.FilingRef {
	n := len(r.AccessionNumber)
	refs := make([]domain.FilingRef, 0, n)
	for i := 0; i < n; i++ {
		ref := domain.FilingRef{
			CIK:             cik,
			AccessionNumber: r.AccessionNumber[i],
			Form:            at(r.Form, i),
			FilingDate:      parseDate(at(r.FilingDate, i)),
			ReportDate:      parseDate(at(r.ReportDate, i)),
			PrimaryDocument: at(r.PrimaryDocument, i),
		}
		if ref.AccessionNumber == "" || ref.Form == "" || ref.PrimaryDocument == "" {
			continue
		}
		refs = append(refs, ref)
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].FilingDate.After(refs[j].FilingDate)
	})
	return refs
}

// Document downloads the primary document and converts HTML to plain markdown text.
func (c *Client) Document(ctx context.Context, ref domain.FilingRef) (string, error) {
	body, contentType, err := c.http.Get(ctx, c.wwwBase+ref.ArchivePath())
	if err != nil {
		return "", fmt.Errorf("fetching %s %s: %w", ref.Form, ref.AccessionNumber, err)
	}

	if !isHTML(ref.PrimaryDocument, contentType) {
		return string(body), nil
	}

	text, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("%w: converting %s: %v", domain.ErrParse, ref.PrimaryDocument, err)
	}
	return text, nil
}

func isHTML(name, contentType string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".htm", ".html", ".xhtml":
		return true
	case ".txt":
		return false
	}
	return strings.Contains(strings.ToLower(contentType), "html")
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
