package driven

import (
	"context"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// FeedStore persists feeds and their items.
// Update methods run fn under an exclusive lock: fn receives the current
// contents and returns the new contents, which are written atomically.
// If fn returns an error nothing is written.
type FeedStore interface {
	// ListFeeds returns all feeds.
	ListFeeds(ctx context.Context) ([]domain.Feed, error)

	// UpdateFeeds performs a locked read-modify-write of the feed list.
	UpdateFeeds(ctx context.Context, fn func([]domain.Feed) ([]domain.Feed, error)) error

	// Items returns stored items for a feed. A feed with no items file returns an empty slice.
	Items(ctx context.Context, feedID string) ([]domain.FeedItem, error)

	// UpdateItems performs a locked read-modify-write of a feed's items.
	UpdateItems(ctx context.Context, feedID string, fn func([]domain.FeedItem) ([]domain.FeedItem, error)) error

	// DeleteItems removes all items for a feed.
	DeleteItems(ctx context.Context, feedID string) error
}

// FeedWatcher is implemented by stores that can report external changes.
type FeedWatcher interface {
	// Watch calls fn whenever the persisted feed data changes, until ctx is done.
	Watch(ctx context.Context, fn func()) error
}

// FeedFetcher downloads and parses a feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*domain.FetchedFeed, error)
}
