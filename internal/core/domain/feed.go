package domain

import (
	"net/url"
	"strings"
	"time"
)

// Feed is a subscribed RSS or Atom feed.
type Feed struct {
	ID          string    `json:"id"`
	URL         string    `json:"url" validate:"required,url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty" validate:"max=64"`
	Enabled     bool      `json:"enabled"`
	AddedAt     time.Time `json:"added_at"`
	LastFetched time.Time `json:"last_fetched,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	ItemCount   int       `json:"item_count"`
}

// DisplayTitle returns the title, falling back to the URL.
func (f *Feed) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	return f.URL
}

// FeedItem is one entry of a feed.
type FeedItem struct {
	ID         string    `json:"id"`
	FeedID     string    `json:"feed_id"`
	GUID       string    `json:"guid,omitempty"`
	Title      string    `json:"title"`
	Link       string    `json:"link,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Content    string    `json:"content,omitempty"`
	Author     string    `json:"author,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Published  time.Time `json:"published,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
	Read       bool      `json:"read"`
}

// Key identifies the item for de-duplication: GUID, then link, then title.
func (i *FeedItem) Key() string {
	switch {
	case i.GUID != "":
		return "guid:" + i.GUID
	case i.Link != "":
		return "link:" + i.Link
	default:
		return "title:" + strings.ToLower(strings.TrimSpace(i.Title))
	}
}

// SameContent reports whether two versions of an item carry the same text.
func (i *FeedItem) SameContent(other *FeedItem) bool {
	return i.Title == other.Title && i.Summary == other.Summary && i.Content == other.Content
}

// FeedDiff records the outcome of merging a fetch into stored items.
type FeedDiff struct {
	FeedID    string
	Added     []FeedItem
	Updated   []FeedItem
	Unchanged int
}

// Changed reports whether the merge modified stored items.
func (d *FeedDiff) Changed() bool {
	return len(d.Added) > 0 || len(d.Updated) > 0
}

// FetchedFeed is the parsed result of fetching a feed URL.
type FetchedFeed struct {
	Title       string
	Description string
	Link        string
	Items       []FeedItem
}

// RefreshResult is the outcome of refreshing one feed.
type RefreshResult struct {
	FeedID string
	Diff   *FeedDiff
	Err    error
}

// NormalizeFeedURL canonicalises a feed URL for duplicate detection:
// lower-case scheme and host, no fragment, no trailing slash.
func NormalizeFeedURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidInput
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrInvalidInput
	}
	if u.Host == "" {
		return "", ErrInvalidInput
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}
