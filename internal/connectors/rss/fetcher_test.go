package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/connectors/httpapi"
	"github.com/custodia-labs/finkit/internal/core/domain"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title> Fed Press Releases </title>
  <link>https://www.federalreserve.gov/</link>
  <description>Monetary policy releases</description>
  <item>
    <title>FOMC statement</title>
    <link>https://www.federalreserve.gov/newsevents/pressreleases/monetary20240131a.htm</link>
    <guid>monetary20240131a</guid>
    <description>The Committee decided to maintain the target range.</description>
    <pubDate>Wed, 31 Jan 2024 19:00:00 GMT</pubDate>
    <category>Monetary Policy</category>
  </item>
  <item>
    <title>Link only item</title>
    <link>https://example.com/only-link</link>
  </item>
  <item>
    <description>no title, no link, no guid</description>
  </item>
</channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>SEC Litigation</title>
  <entry>
    <title>Litigation release</title>
    <id>urn:sec:lr-25000</id>
    <link href="https://www.sec.gov/litigation/lr-25000"/>
    <updated>2024-02-01T10:00:00Z</updated>
    <author><name>SEC</name></author>
    <summary>Summary text</summary>
    <content>Full text</content>
  </entry>
</feed>`

func TestParse_RSS(t *testing.T) {
	fetchedAt := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	feed, err := Parse([]byte(rssDoc), fetchedAt)

	require.NoError(t, err)
	assert.Equal(t, "Fed Press Releases", feed.Title)
	assert.Equal(t, "Monetary policy releases", feed.Description)
	require.Len(t, feed.Items, 2, "item without identity is dropped")

	first := feed.Items[0]
	assert.Equal(t, "monetary20240131a", first.GUID)
	assert.Equal(t, "FOMC statement", first.Title)
	assert.Equal(t, "The Committee decided to maintain the target range.", first.Summary)
	assert.Equal(t, []string{"Monetary Policy"}, first.Categories)
	assert.Equal(t, time.Date(2024, 1, 31, 19, 0, 0, 0, time.UTC), first.Published)
	assert.Equal(t, fetchedAt, first.FetchedAt)
	assert.Empty(t, first.ID)

	assert.Equal(t, "link:https://example.com/only-link", feed.Items[1].Key())
}

func TestParse_Atom(t *testing.T) {
	feed, err := Parse([]byte(atomDoc), time.Now())

	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	item := feed.Items[0]
	assert.Equal(t, "urn:sec:lr-25000", item.GUID)
	assert.Equal(t, "https://www.sec.gov/litigation/lr-25000", item.Link)
	assert.Equal(t, "SEC", item.Author)
	assert.Equal(t, "Full text", item.Content)
	assert.Equal(t, 2024, item.Published.Year(), "falls back to updated")
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("this is not a feed"), time.Now())
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestFetcher_Fetch_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssDoc))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 3, httpapi.WithRetryDelay(time.Millisecond))
	feed, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Len(t, feed.Items, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetcher_Fetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(5*time.Second, 3, httpapi.WithRetryDelay(time.Millisecond))
	_, err := f.Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
