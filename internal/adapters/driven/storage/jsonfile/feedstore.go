package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
)

const (
	feedsFile  = "feeds.json"
	itemsDir   = "items"
	lockSuffix = ".lock"

	// lockRetry is how often a blocked lock attempt is retried.
	lockRetry = 25 * time.Millisecond

	formatVersion = 1
)

var (
	_ driven.FeedStore   = (*FeedStore)(nil)
	_ driven.FeedWatcher = (*FeedStore)(nil)
)

type feedsDocument struct {
	Version int           `json:"version"`
	Feeds   []domain.Feed `json:"feeds"`
}

type itemsDocument struct {
	Version int               `json:"version"`
	FeedID  string            `json:"feed_id"`
	Items   []domain.FeedItem `json:"items"`
}

// FeedStore is a file-backed driven.FeedStore.
type FeedStore struct {
	dir string
}

// NewFeedStore creates the store directory if needed.
func NewFeedStore(dir string) (*FeedStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("feed store directory: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Join(dir, itemsDir), 0700); err != nil {
		return nil, fmt.Errorf("creating feed store directory: %w", err)
	}
	return &FeedStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FeedStore) Dir() string {
	return s.dir
}

func (s *FeedStore) feedsPath() string {
	return filepath.Join(s.dir, feedsFile)
}

func (s *FeedStore) itemsPath(feedID string) (string, error) {
	if feedID == "" || strings.ContainsAny(feedID, `/\`) || strings.Contains(feedID, "..") {
		return "", fmt.Errorf("feed id %q: %w", feedID, domain.ErrInvalidInput)
	}
	return filepath.Join(s.dir, itemsDir, feedID+".json"), nil
}

// ListFeeds reads feeds.json under a shared lock.
func (s *FeedStore) ListFeeds(ctx context.Context) ([]domain.Feed, error) {
	var doc feedsDocument
	err := withLock(ctx, s.feedsPath(), false, func() error {
		return readJSON(s.feedsPath(), &doc)
	})
	if err != nil {
		return nil, err
	}
	if doc.Feeds == nil {
		doc.Feeds = []domain.Feed{}
	}
	return doc.Feeds, nil
}

// UpdateFeeds performs a locked read-modify-write of feeds.json.
func (s *FeedStore) UpdateFeeds(ctx context.Context, fn func([]domain.Feed) ([]domain.Feed, error)) error {
	path := s.feedsPath()
	return withLock(ctx, path, true, func() error {
		var doc feedsDocument
		if err := readJSON(path, &doc); err != nil {
			return err
		}
		feeds, err := fn(doc.Feeds)
		if err != nil {
			return err
		}
		return writeJSON(path, feedsDocument{Version: formatVersion, Feeds: feeds})
	})
}

// Items reads a feed's items under a shared lock.
func (s *FeedStore) Items(ctx context.Context, feedID string) ([]domain.FeedItem, error) {
	path, err := s.itemsPath(feedID)
	if err != nil {
		return nil, err
	}
	var doc itemsDocument
	err = withLock(ctx, path, false, func() error {
		return readJSON(path, &doc)
	})
	if err != nil {
		return nil, err
	}
	if doc.Items == nil {
		doc.Items = []domain.FeedItem{}
	}
	return doc.Items, nil
}

// UpdateItems performs a locked read-modify-write of a feed's items file.
func (s *FeedStore) UpdateItems(
	ctx context.Context,
	feedID string,
	fn func([]domain.FeedItem) ([]domain.FeedItem, error),
) error {
	path, err := s.itemsPath(feedID)
	if err != nil {
		return err
	}
	return withLock(ctx, path, true, func() error {
		var doc itemsDocument
		if err := readJSON(path, &doc); err != nil {
			return err
		}
		items, err := fn(doc.Items)
		if err != nil {
			return err
		}
		return writeJSON(path, itemsDocument{Version: formatVersion, FeedID: feedID, Items: items})
	})
}

// DeleteItems removes a feed's items file.
func (s *FeedStore) DeleteItems(ctx context.Context, feedID string) error {
	path, err := s.itemsPath(feedID)
	if err != nil {
		return err
	}
	err = withLock(ctx, path, true, func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing items file: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	// A racing writer recreates the lock file; a missing one is harmless.
	_ = os.Remove(path + lockSuffix)
	return nil
}

// withLock runs fn while holding the lock for path.
// exclusive selects a write lock; otherwise a shared read lock is taken.
func withLock(ctx context.Context, path string, exclusive bool, fn func() error) error {
	fl := flock.New(path + lockSuffix)

	var locked bool
	var err error
	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetry)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetry)
	}
	if err != nil {
		return fmt.Errorf("locking %s: %w", filepath.Base(path), err)
	}
	if !locked {
		return fmt.Errorf("locking %s: lock not acquired", filepath.Base(path))
	}
	defer fl.Unlock() //nolint:errcheck // unlock failure leaves nothing to recover

	return fn()
}

// readJSON decodes path into v. A missing file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w: %w", filepath.Base(path), domain.ErrParse, err)
	}
	return nil
}

// writeJSON writes v to a temp file in the same directory and renames it over path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
