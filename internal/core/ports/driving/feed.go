package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// FeedService manages RSS/Atom subscriptions.
type FeedService interface {
	// Add subscribes to a feed URL. Duplicate URLs return domain.ErrAlreadyExists.
	Add(ctx context.Context, url, category string) (*domain.Feed, error)

	// Get retrieves a feed by ID.
	Get(ctx context.Context, id string) (*domain.Feed, error)

	// List returns feeds, optionally filtered by category.
	List(ctx context.Context, category string) ([]domain.Feed, error)

	// Remove unsubscribes a feed and deletes its items.
	Remove(ctx context.Context, id string) error

	// SetEnabled enables or disables refreshing of a feed.
	SetEnabled(ctx context.Context, id string, enabled bool) error

	// Refresh fetches one feed and merges new items.
	Refresh(ctx context.Context, id string) (*domain.FeedDiff, error)

	// RefreshAll refreshes every enabled feed with bounded concurrency.
	RefreshAll(ctx context.Context) []domain.RefreshResult

	// Items lists a feed's items, newest first.
	Items(ctx context.Context, feedID string, limit int, unreadOnly bool) ([]domain.FeedItem, error)

	// Search finds items across all feeds whose title or summary contains query.
	Search(ctx context.Context, query string, limit int) ([]domain.FeedItem, error)

	// MarkRead sets the read flag on an item.
	MarkRead(ctx context.Context, feedID, itemID string, read bool) error

	// ImportOPML subscribes to every feed in an OPML document and returns the number added.
	ImportOPML(ctx context.Context, r io.Reader) (int, error)

	// ExportOPML writes all feeds as OPML.
	ExportOPML(ctx context.Context, w io.Writer) error

	// Watch calls fn whenever stored feeds or items change on disk, until ctx is done.
	Watch(ctx context.Context, fn func()) error
}
