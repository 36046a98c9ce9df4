package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
)

// Ensure FeedStore implements the interface.
var _ driven.FeedStore = (*FeedStore)(nil)

// FeedStore is an in-memory implementation of driven.FeedStore.
type FeedStore struct {
	mu    sync.Mutex
	feeds []domain.Feed
	items map[string][]domain.FeedItem
}

// NewFeedStore creates a new in-memory feed store.
func NewFeedStore() *FeedStore {
	return &FeedStore{
		items: make(map[string][]domain.FeedItem),
	}
}

// ListFeeds returns a copy of all feeds.
func (s *FeedStore) ListFeeds(_ context.Context) ([]domain.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Feed{}, s.feeds...), nil
}

// UpdateFeeds applies fn to the feed list under the store lock.
func (s *FeedStore) UpdateFeeds(_ context.Context, fn func([]domain.Feed) ([]domain.Feed, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := fn(append([]domain.Feed{}, s.feeds...))
	if err != nil {
		return err
	}
	s.feeds = updated
	return nil
}

// Items returns a copy of a feed's items.
func (s *FeedStore) Items(_ context.Context, feedID string) ([]domain.FeedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.FeedItem{}, s.items[feedID]...), nil
}

// UpdateItems applies fn to a feed's items under the store lock.
func (s *FeedStore) UpdateItems(
	_ context.Context,
	feedID string,
	fn func([]domain.FeedItem) ([]domain.FeedItem, error),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := fn(append([]domain.FeedItem{}, s.items[feedID]...))
	if err != nil {
		return err
	}
	s.items[feedID] = updated
	return nil
}

// DeleteItems removes a feed's items.
func (s *FeedStore) DeleteItems(_ context.Context, feedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, feedID)
	return nil
}
