// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/finkit/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewFeeds lists subscriptions.
	ViewFeeds ViewType = iota
	// ViewItems lists the items of one feed.
	ViewItems
	// ViewArticle shows a single item.
	ViewArticle
	// ViewSearch searches items across feeds.
	ViewSearch
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewFeeds:
		return "feeds"
	case ViewItems:
		return "items"
	case ViewArticle:
		return "article"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// FeedsLoaded carries the subscription list.
type FeedsLoaded struct {
	Feeds []domain.Feed
	Err   error
}

// FeedSelected opens a feed's items.
type FeedSelected struct {
	Feed domain.Feed
}

// FeedAdded signals a subscription was added.
type FeedAdded struct {
	Feed *domain.Feed
	Err  error
}

// FeedRemoved signals a subscription was removed.
type FeedRemoved struct {
	ID  string
	Err error
}

// FeedToggled signals a feed was enabled or disabled.
type FeedToggled struct {
	ID      string
	Enabled bool
	Err     error
}

// RefreshStarted is sent before a refresh runs.
type RefreshStarted struct {
	FeedID string
}

// FeedsRefreshed carries refresh outcomes.
type FeedsRefreshed struct {
	Results []domain.RefreshResult
}

// ItemsLoaded carries a feed's items.
type ItemsLoaded struct {
	FeedID string
	Items  []domain.FeedItem
	Err    error
}

// ItemSelected opens an item.
type ItemSelected struct {
	Item domain.FeedItem
	From ViewType
}

// ItemMarked signals an item's read flag changed.
type ItemMarked struct {
	FeedID string
	ItemID string
	Read   bool
	Err    error
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query string
	Items []domain.FeedItem
	Err   error
}

// StoreChanged is sent when feed files change on disk.
type StoreChanged struct{}
