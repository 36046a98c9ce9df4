// Package items provides the item list view of a single feed.
package items

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
)

// itemLimit caps items loaded into the view.
const itemLimit = 500

// View lists the items of one feed.
type View struct {
	ctx         context.Context
	styles      *styles.Styles
	feedService driving.FeedService
	list        *list.ItemList

	feed       *domain.Feed
	unreadOnly bool
	width      int
	height     int
	err        error
	loading    bool
}

// NewView creates a new items view.
func NewView(ctx context.Context, s *styles.Styles, feedService driving.FeedService) *View {
	if ctx == nil {
		ctx = context.Background()
	}
	return &View{
		ctx:         ctx,
		styles:      s,
		feedService: feedService,
		list:        list.NewItemList(s),
	}
}

// SetFeed switches the view to feed and loads its items.
func (v *View) SetFeed(feed domain.Feed) tea.Cmd {
	v.feed = &feed
	v.err = nil
	v.list.SetItems(nil)
	v.loading = true
	return v.Load()
}

// Load returns a command that loads the current feed's items.
func (v *View) Load() tea.Cmd {
	if v.feed == nil {
		return nil
	}
	feedID, unreadOnly := v.feed.ID, v.unreadOnly
	return func() tea.Msg {
		items, err := v.feedService.Items(v.ctx, feedID, itemLimit, unreadOnly)
		return messages.ItemsLoaded{FeedID: feedID, Items: items, Err: err}
	}
}

// Update handles messages for the items view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ItemsLoaded:
		if v.feed == nil || msg.FeedID != v.feed.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		selected := v.list.Selected()
		v.list.SetItems(msg.Items)
		for i := 0; i < selected && i < len(msg.Items)-1; i++ {
			v.list.MoveDown()
		}
		return v, nil

	case messages.ItemMarked:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		for _, it := range v.list.Items() {
			if it.ID == msg.ItemID && it.FeedID == msg.FeedID {
				it.Read = msg.Read
				v.list.UpdateItem(it)
				break
			}
		}
		return v, nil

	case messages.FeedsRefreshed:
		return v, v.Load()
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if item := v.list.SelectedItem(); item != nil {
			it := *item
			return v, func() tea.Msg { return messages.ItemSelected{Item: it, From: messages.ViewItems} }
		}
		return v, nil
	case "m", " ":
		if item := v.list.SelectedItem(); item != nil {
			return v, MarkRead(v.ctx, v.feedService, item.FeedID, item.ID, !item.Read)
		}
		return v, nil
	case "u":
		v.unreadOnly = !v.unreadOnly
		v.loading = true
		return v, v.Load()
	case "r":
		if v.feed == nil {
			return v, nil
		}
		id := v.feed.ID
		return v, tea.Sequence(
			func() tea.Msg { return messages.RefreshStarted{FeedID: id} },
			func() tea.Msg {
				diff, err := v.feedService.Refresh(v.ctx, id)
				return messages.FeedsRefreshed{Results: []domain.RefreshResult{{FeedID: id, Diff: diff, Err: err}}}
			},
		)
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewFeeds} }
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// MarkRead returns a command that sets an item's read flag.
func MarkRead(ctx context.Context, svc driving.FeedService, feedID, itemID string, read bool) tea.Cmd {
	return func() tea.Msg {
		err := svc.MarkRead(ctx, feedID, itemID, read)
		return messages.ItemMarked{FeedID: feedID, ItemID: itemID, Read: read, Err: err}
	}
}

// View renders the item list.
func (v *View) View() string {
	var b strings.Builder

	title := "Items"
	if v.feed != nil {
		title = v.feed.DisplayTitle()
	}
	b.WriteString(v.styles.Title.Render(title))
	if v.unreadOnly {
		b.WriteString(v.styles.Muted.Render("  (unread only)"))
	}
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading items..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	default:
		b.WriteString(v.list.View())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] read  [m] toggle read  [u] unread only  [r] refresh  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	// Title, blank lines and help footer.
	v.list.SetDimensions(width, max(height-6, 2))
}

// Feed returns the current feed.
func (v *View) Feed() *domain.Feed {
	return v.feed
}

// Items returns the loaded items.
func (v *View) Items() []domain.FeedItem {
	return v.list.Items()
}

// Unread returns the number of unread items shown.
func (v *View) Unread() int {
	return v.list.Unread()
}

// UnreadOnly reports whether the unread filter is on.
func (v *View) UnreadOnly() bool {
	return v.unreadOnly
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
