// Package feeds provides the subscription list view for the TUI.
package feeds

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
)

// View lists feeds and handles subscription management.
type View struct {
	ctx         context.Context
	styles      *styles.Styles
	feedService driving.FeedService

	feeds    []domain.Feed
	selected int
	width    int
	height   int
	err      error
	loading  bool

	// adding is non-nil while the add-feed prompt is open.
	adding *input.Field
}

// NewView creates a new feeds view.
func NewView(ctx context.Context, s *styles.Styles, feedService driving.FeedService) *View {
	if ctx == nil {
		ctx = context.Background()
	}
	return &View{
		ctx:         ctx,
		styles:      s,
		feedService: feedService,
		feeds:       []domain.Feed{},
	}
}

// Init loads the feed list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.Load()
}

// Load returns a command that lists feeds.
func (v *View) Load() tea.Cmd {
	return func() tea.Msg {
		if v.feedService == nil {
			return messages.FeedsLoaded{Err: fmt.Errorf("feed service not available")}
		}
		feeds, err := v.feedService.List(v.ctx, "")
		return messages.FeedsLoaded{Feeds: feeds, Err: err}
	}
}

// Update handles messages for the feeds view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.adding != nil {
			return v.handleAddKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.FeedsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.feeds = msg.Feeds
		v.err = nil
		if v.selected >= len(v.feeds) {
			v.selected = max(len(v.feeds)-1, 0)
		}
		return v, nil

	case messages.FeedAdded, messages.FeedRemoved, messages.FeedToggled, messages.FeedsRefreshed:
		return v, v.Load()
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.feeds)-1 {
			v.selected++
		}
	case "enter":
		if feed := v.SelectedFeed(); feed != nil {
			f := *feed
			return v, func() tea.Msg { return messages.FeedSelected{Feed: f} }
		}
	case "a":
		v.adding = input.NewField(v.styles, "Feed URL", "https://example.com/rss")
		v.adding.SetWidth(v.width)
		return v, v.adding.Init()
	case "d", "delete":
		if feed := v.SelectedFeed(); feed != nil {
			return v, v.remove(feed.ID)
		}
	case "m", " ":
		if feed := v.SelectedFeed(); feed != nil {
			return v, v.toggle(feed.ID, !feed.Enabled)
		}
	case "r":
		if feed := v.SelectedFeed(); feed != nil {
			return v, v.refresh(feed.ID)
		}
	case "R":
		return v, v.refresh("")
	case "/":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} }
	case "?":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	case "q":
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

func (v *View) handleAddKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type { //nolint:exhaustive // only submit and cancel are special
	case tea.KeyEsc:
		v.adding = nil
		return v, nil
	case tea.KeyEnter:
		url := strings.TrimSpace(v.adding.Value())
		v.adding = nil
		if url == "" {
			return v, nil
		}
		return v, v.add(url)
	}
	var cmd tea.Cmd
	v.adding, cmd = v.adding.Update(msg)
	return v, cmd
}

func (v *View) add(url string) tea.Cmd {
	return func() tea.Msg {
		feed, err := v.feedService.Add(v.ctx, url, "")
		return messages.FeedAdded{Feed: feed, Err: err}
	}
}

func (v *View) remove(id string) tea.Cmd {
	return func() tea.Msg {
		return messages.FeedRemoved{ID: id, Err: v.feedService.Remove(v.ctx, id)}
	}
}

func (v *View) toggle(id string, enabled bool) tea.Cmd {
	return func() tea.Msg {
		return messages.FeedToggled{ID: id, Enabled: enabled, Err: v.feedService.SetEnabled(v.ctx, id, enabled)}
	}
}

// refresh fetches one feed, or all enabled feeds when id is empty.
func (v *View) refresh(id string) tea.Cmd {
	started := func() tea.Msg { return messages.RefreshStarted{FeedID: id} }
	run := func() tea.Msg {
		if id == "" {
			return messages.FeedsRefreshed{Results: v.feedService.RefreshAll(v.ctx)}
		}
		diff, err := v.feedService.Refresh(v.ctx, id)
		return messages.FeedsRefreshed{Results: []domain.RefreshResult{{FeedID: id, Diff: diff, Err: err}}}
	}
	return tea.Sequence(started, run)
}

// View renders the feed list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Feeds"))
	b.WriteString("\n\n")

	if v.adding != nil {
		b.WriteString(v.adding.View())
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[enter] subscribe  [esc] cancel"))
		return b.String()
	}

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading feeds..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.feeds) == 0:
		b.WriteString(v.styles.Muted.Render("No feeds yet. Press [a] to subscribe."))
	default:
		for i := range v.feeds {
			b.WriteString(v.renderFeed(i, &v.feeds[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderFeed(index int, feed *domain.Feed) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	title := feed.DisplayTitle()
	maxTitle := v.width - 30
	if maxTitle < 10 {
		maxTitle = 10
	}
	if len(title) > maxTitle {
		title = title[:maxTitle-3] + "..."
	}
	count := fmt.Sprintf("%4d", feed.ItemCount)

	state := ""
	switch {
	case feed.LastError != "":
		state = "!"
	case !feed.Enabled:
		state = "off"
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s %s %s", indicator, maxTitle, title, count, state))
	}
	line := v.styles.Normal.Render(fmt.Sprintf("%s%-*s ", indicator, maxTitle, title)) +
		v.styles.Muted.Render(count)
	switch state {
	case "!":
		line += " " + v.styles.Error.Render(state)
	case "off":
		line += " " + v.styles.Muted.Render(state)
	}
	return line
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render(
		"[enter] items  [a] add  [d] remove  [m] enable/disable  [r] refresh  [R] refresh all  [/] search  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Feeds returns the loaded feeds.
func (v *View) Feeds() []domain.Feed {
	return v.feeds
}

// SelectedFeed returns the feed under the cursor, or nil.
func (v *View) SelectedFeed() *domain.Feed {
	if v.selected < 0 || v.selected >= len(v.feeds) {
		return nil
	}
	return &v.feeds[v.selected]
}

// Adding reports whether the add-feed prompt is open.
func (v *View) Adding() bool {
	return v.adding != nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
