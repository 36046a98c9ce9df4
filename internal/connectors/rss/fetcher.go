// Package rss implements driven.FeedFetcher: it downloads RSS, Atom or
// JSON feeds and maps them onto domain items.
package rss

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/custodia-labs/finkit/internal/connectors/httpapi"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.FeedFetcher = (*Fetcher)(nil)

// Source labels feed requests in logs and metrics.
const Source = "rss"

const userAgent = "finkit-feeds/1.0 (+https://github.com/custodia-labs/finkit)"

// Fetcher downloads and parses feeds.
type Fetcher struct {
	http *httpapi.Client
	now  func() time.Time
}

// NewFetcher creates a fetcher. retries is the total number of attempts
// for transient failures.
func NewFetcher(timeout time.Duration, retries int, opts ...httpapi.Option) *Fetcher {
	base := []httpapi.Option{
		httpapi.WithUserAgent(userAgent),
		httpapi.WithTimeout(timeout),
		httpapi.WithRetries(retries),
		httpapi.WithHeader("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8"),
	}
	return &Fetcher{
		http: httpapi.New(Source, append(base, opts...)...),
		now:  time.Now,
	}
}

// Fetch downloads url and parses it. Items carry no ID or feed ID yet.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.FetchedFeed, error) {
	body, _, err := f.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", url, err)
	}
	return Parse(body, f.now())
}

// Parse converts a raw feed document into a FetchedFeed.
func Parse(body []byte, fetchedAt time.Time) (*domain.FetchedFeed, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: feed: %v", domain.ErrParse, err)
	}

	out := &domain.FetchedFeed{
		Title:       strings.TrimSpace(parsed.Title),
		Description: strings.TrimSpace(parsed.Description),
		Link:        parsed.Link,
		Items:       make([]domain.FeedItem, 0, len(parsed.Items)),
	}
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		item := convertItem(it, fetchedAt)
		if item.GUID == "" && item.Link == "" && item.Title == "" {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func convertItem(it *gofeed.Item, fetchedAt time.Time) domain.FeedItem {
	item := domain.FeedItem{
		GUID:       strings.TrimSpace(it.GUID),
		Title:      strings.TrimSpace(it.Title),
		Link:       strings.TrimSpace(it.Link),
		Summary:    strings.TrimSpace(it.Description),
		Content:    strings.TrimSpace(it.Content),
		Categories: it.Categories,
		FetchedAt:  fetchedAt,
	}
	if item.Link == "" && len(it.Links) > 0 {
		item.Link = it.Links[0]
	}

	switch {
	case it.PublishedParsed != nil:
		item.Published = it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil:
		item.Published = it.UpdatedParsed.UTC()
	}

	if it.Author != nil {
		item.Author = it.Author.Name
	} else if len(it.Authors) > 0 && it.Authors[0] != nil {
		item.Author = it.Authors[0].Name
	}
	return item
}
