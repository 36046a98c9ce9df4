package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
	"github.com/custodia-labs/finkit/internal/logger"
	"github.com/custodia-labs/finkit/internal/metrics"
)

// Ensure FeedService implements the interface.
var _ driving.FeedService = (*FeedService)(nil)

// itemNamespace seeds deterministic item IDs so re-fetching an item maps
// onto the same ID.
var itemNamespace = uuid.MustParse("6f1d9a3e-5c1b-4d3e-9a51-6b0e2f7c8d41")

// FeedConfig tunes the feed service.
type FeedConfig struct {
	// MaxItems caps stored items per feed; the oldest are dropped.
	MaxItems int

	// Workers bounds RefreshAll concurrency.
	Workers int

	// FetchOnAdd fetches a feed once when it is added to fill its title.
	FetchOnAdd bool
}

// FeedService manages subscriptions and their items.
type FeedService struct {
	store   driven.FeedStore
	fetcher driven.FeedFetcher
	cfg     FeedConfig
	now     func() time.Time
}

// NewFeedService creates a feed service. fetcher may be nil for read-only use.
func NewFeedService(store driven.FeedStore, fetcher driven.FeedFetcher, cfg FeedConfig) *FeedService {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 200
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &FeedService{
		store:   store,
		fetcher: fetcher,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Add subscribes to url under category.
func (s *FeedService) Add(ctx context.Context, url, category string) (*domain.Feed, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}

	feed, err := s.newFeed(url, category, "")
	if err != nil {
		return nil, err
	}

	err = s.store.UpdateFeeds(ctx, func(feeds []domain.Feed) ([]domain.Feed, error) {
		if findByURL(feeds, feed.URL) >= 0 {
			return nil, fmt.Errorf("feed %s: %w", feed.URL, domain.ErrAlreadyExists)
		}
		return append(feeds, *feed), nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Added feed %s (%s)", feed.URL, feed.ID)

	if s.cfg.FetchOnAdd && s.fetcher != nil {
		if _, err := s.Refresh(ctx, feed.ID); err != nil {
			logger.Warn("initial fetch of %s failed: %v", feed.URL, err)
		}
		return s.Get(ctx, feed.ID)
	}
	return feed, nil
}

func (s *FeedService) newFeed(url, category, title string) (*domain.Feed, error) {
	normalized, err := domain.NormalizeFeedURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an http(s) feed URL", domain.ErrInvalidInput, url)
	}

	feed := &domain.Feed{
		ID:       uuid.NewString(),
		URL:      normalized,
		Title:    strings.TrimSpace(title),
		Category: strings.TrimSpace(category),
		Enabled:  true,
		AddedAt:  s.now().UTC(),
	}
	if err := validateStruct(feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// Get retrieves a feed by ID.
func (s *FeedService) Get(ctx context.Context, id string) (*domain.Feed, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	feeds, err := s.store.ListFeeds(ctx)
	if err != nil {
		return nil, err
	}
	i := findByID(feeds, id)
	if i < 0 {
		return nil, fmt.Errorf("feed %s: %w", id, domain.ErrNotFound)
	}
	return &feeds[i], nil
}

// List returns feeds, filtered by category when one is given.
func (s *FeedService) List(ctx context.Context, category string) ([]domain.Feed, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	feeds, err := s.store.ListFeeds(ctx)
	if err != nil {
		return nil, err
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return feeds, nil
	}
	out := make([]domain.Feed, 0, len(feeds))
	for i := range feeds {
		if strings.EqualFold(feeds[i].Category, category) {
			out = append(out, feeds[i])
		}
	}
	return out, nil
}

// Remove unsubscribes a feed and deletes its items.
func (s *FeedService) Remove(ctx context.Context, id string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	err := s.store.UpdateFeeds(ctx, func(feeds []domain.Feed) ([]domain.Feed, error) {
		i := findByID(feeds, id)
		if i < 0 {
			return nil, fmt.Errorf("feed %s: %w", id, domain.ErrNotFound)
		}
		return append(feeds[:i], feeds[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	return s.store.DeleteItems(ctx, id)
}

// SetEnabled toggles refreshing of a feed.
func (s *FeedService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	return s.updateFeed(ctx, id, func(f *domain.Feed) {
		f.Enabled = enabled
	})
}

func (s *FeedService) updateFeed(ctx context.Context, id string, fn func(*domain.Feed)) error {
	return s.store.UpdateFeeds(ctx, func(feeds []domain.Feed) ([]domain.Feed, error) {
		i := findByID(feeds, id)
		if i < 0 {
			return nil, fmt.Errorf("feed %s: %w", id, domain.ErrNotFound)
		}
		fn(&feeds[i])
		return feeds, nil
	})
}

// Refresh fetches a feed and merges the result into its stored items.
// Fetch failures are recorded on the feed and returned.
func (s *FeedService) Refresh(ctx context.Context, id string) (*domain.FeedDiff, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	if s.fetcher == nil {
		return nil, domain.ErrNotConfigured
	}

	feed, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fetched, fetchErr := s.fetcher.Fetch(ctx, feed.URL)
	now := s.now().UTC()
	if fetchErr != nil {
		if err := s.updateFeed(ctx, id, func(f *domain.Feed) {
			f.LastError = fetchErr.Error()
		}); err != nil {
			logger.Warn("recording error for feed %s: %v", id, err)
		}
		return nil, fmt.Errorf("refreshing %s: %w", feed.DisplayTitle(), fetchErr)
	}

	var diff domain.FeedDiff
	var count int
	err = s.store.UpdateItems(ctx, id, func(stored []domain.FeedItem) ([]domain.FeedItem, error) {
		merged, d := MergeItems(id, stored, fetched.Items, now, s.cfg.MaxItems)
		diff, count = d, len(merged)
		return merged, nil
	})
	if err != nil {
		return nil, err
	}

	err = s.updateFeed(ctx, id, func(f *domain.Feed) {
		if fetched.Title != "" {
			f.Title = fetched.Title
		}
		if fetched.Description != "" {
			f.Description = fetched.Description
		}
		f.LastFetched = now
		f.LastError = ""
		f.ItemCount = count
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Removed while fetching; drop the items file just written.
			if derr := s.store.DeleteItems(ctx, id); derr != nil {
				logger.Warn("removing items of deleted feed %s: %v", id, derr)
			}
		}
		return nil, err
	}

	metrics.AddFeedItems(len(diff.Added))
	logger.Debug("feed %s: %d added, %d updated, %d unchanged",
		feed.DisplayTitle(), len(diff.Added), len(diff.Updated), diff.Unchanged)
	return &diff, nil
}

// RefreshAll refreshes every enabled feed through a bounded worker pool.
// Each feed reports its own diff or error.
func (s *FeedService) RefreshAll(ctx context.Context) []domain.RefreshResult {
	feeds, err := s.List(ctx, "")
	if err != nil {
		return []domain.RefreshResult{{Err: err}}
	}

	enabled := make([]domain.Feed, 0, len(feeds))
	for i := range feeds {
		if feeds[i].Enabled {
			enabled = append(enabled, feeds[i])
		}
	}

	results := make([]domain.RefreshResult, len(enabled))
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i := range enabled {
		id := enabled[i].ID
		g.Go(func() error {
			diff, err := s.Refresh(ctx, id)
			results[i] = domain.RefreshResult{FeedID: id, Diff: diff, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Items lists items newest first. An empty feedID lists items of all feeds.
// limit <= 0 returns everything.
func (s *FeedService) Items(ctx context.Context, feedID string, limit int, unreadOnly bool) ([]domain.FeedItem, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}

	var items []domain.FeedItem
	if feedID == "" {
		all, err := s.allItems(ctx)
		if err != nil {
			return nil, err
		}
		items = all
	} else {
		if _, err := s.Get(ctx, feedID); err != nil {
			return nil, err
		}
		stored, err := s.store.Items(ctx, feedID)
		if err != nil {
			return nil, err
		}
		items = stored
	}

	sortNewestFirst(items)
	out := make([]domain.FeedItem, 0, len(items))
	for i := range items {
		if unreadOnly && items[i].Read {
			continue
		}
		out = append(out, items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Search returns items whose title or summary contains query, newest first.
func (s *FeedService) Search(ctx context.Context, query string, limit int) ([]domain.FeedItem, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	items, err := s.allItems(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(items)

	var out []domain.FeedItem
	for i := range items {
		if !strings.Contains(strings.ToLower(items[i].Title), query) &&
			!strings.Contains(strings.ToLower(items[i].Summary), query) {
			continue
		}
		out = append(out, items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *FeedService) allItems(ctx context.Context) ([]domain.FeedItem, error) {
	feeds, err := s.store.ListFeeds(ctx)
	if err != nil {
		return nil, err
	}
	var all []domain.FeedItem
	for i := range feeds {
		items, err := s.store.Items(ctx, feeds[i].ID)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}

// MarkRead sets the read flag on one item.
func (s *FeedService) MarkRead(ctx context.Context, feedID, itemID string, read bool) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	if feedID == "" || itemID == "" {
		return fmt.Errorf("%w: feed and item IDs are required", domain.ErrInvalidInput)
	}
	return s.store.UpdateItems(ctx, feedID, func(items []domain.FeedItem) ([]domain.FeedItem, error) {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Read = read
				return items, nil
			}
		}
		return nil, fmt.Errorf("item %s in feed %s: %w", itemID, feedID, domain.ErrNotFound)
	})
}

// Watch forwards change notifications from stores that support them.
func (s *FeedService) Watch(ctx context.Context, fn func()) error {
	w, ok := s.store.(driven.FeedWatcher)
	if !ok {
		return domain.ErrNotImplemented
	}
	return w.Watch(ctx, fn)
}

// MergeItems merges freshly fetched items into stored ones.
//
// Items are matched by GUID, then link, then title. New items are added;
// matched items with changed text replace the stored version but keep its ID
// and read flag. Stored items absent from the fetch are retained. The result
// is sorted newest first and capped at maxItems.
func MergeItems(feedID string, stored, fetched []domain.FeedItem, now time.Time, maxItems int) ([]domain.FeedItem, domain.FeedDiff) {
	diff := domain.FeedDiff{FeedID: feedID}

	merged := make([]domain.FeedItem, len(stored))
	copy(merged, stored)
	index := make(map[string]int, len(merged))
	for i := range merged {
		index[merged[i].Key()] = i
	}

	seen := make(map[string]bool, len(fetched))
	for _, item := range fetched {
		key := item.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		item.FeedID = feedID
		if item.FetchedAt.IsZero() {
			item.FetchedAt = now
		}

		i, exists := index[key]
		if !exists {
			item.ID = ItemID(feedID, key)
			if item.Published.IsZero() {
				item.Published = now
			}
			item.Read = false
			index[key] = len(merged)
			merged = append(merged, item)
			diff.Added = append(diff.Added, item)
			continue
		}

		old := merged[i]
		if old.SameContent(&item) {
			diff.Unchanged++
			continue
		}
		item.ID = old.ID
		item.Read = old.Read
		if item.Published.IsZero() {
			item.Published = old.Published
		}
		merged[i] = item
		diff.Updated = append(diff.Updated, item)
	}

	sortNewestFirst(merged)
	if maxItems > 0 && len(merged) > maxItems {
		merged = merged[:maxItems]
		kept := make(map[string]bool, len(merged))
		for i := range merged {
			kept[merged[i].ID] = true
		}
		diff.Added = survivors(diff.Added, kept)
		diff.Updated = survivors(diff.Updated, kept)
	}
	return merged, diff
}

func survivors(items []domain.FeedItem, kept map[string]bool) []domain.FeedItem {
	out := items[:0]
	for _, it := range items {
		if kept[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// ItemID derives a stable item ID from the feed and the item's identity key.
func ItemID(feedID, key string) string {
	return uuid.NewSHA1(itemNamespace, []byte(feedID+"\n"+key)).String()
}

func sortNewestFirst(items []domain.FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Published.Equal(items[j].Published) {
			return items[i].Published.After(items[j].Published)
		}
		return items[i].FetchedAt.After(items[j].FetchedAt)
	})
}

func findByID(feeds []domain.Feed, id string) int {
	for i := range feeds {
		if feeds[i].ID == id {
			return i
		}
	}
	return -1
}

func findByURL(feeds []domain.Feed, normalized string) int {
	for i := range feeds {
		u, err := domain.NormalizeFeedURL(feeds[i].URL)
		if err == nil && u == normalized {
			return i
		}
	}
	return -1
}
