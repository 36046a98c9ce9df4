package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/views/article"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/views/feeds"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/views/items"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/logger"
)

// App is the feed reader following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	status *status.Bar

	feedsView   *feeds.View
	itemsView   *items.View
	articleView *article.View
	searchView  *search.View

	currentView messages.ViewType

	// changes receives store change notifications from the watcher goroutine.
	changes chan struct{}

	// watchDone is closed when the watcher stops.
	watchDone chan struct{}

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the TUI application. Services are called with ctx, which
// also stops the store watcher.
func NewApp(ctx context.Context, ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	bar.SetBindings(km.FeedsHelp())

	return &App{
		ports:       ports,
		ctx:         ctx,
		styles:      s,
		keymap:      km,
		status:      bar,
		feedsView:   feeds.NewView(ctx, s, ports.Feed),
		itemsView:   items.NewView(ctx, s, ports.Feed),
		articleView: article.NewView(s),
		searchView:  search.NewView(ctx, s, ports.Feed),
		currentView: messages.ViewFeeds,
		changes:     make(chan struct{}, 1),
		watchDone:   make(chan struct{}),
	}, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	go a.watch()
	return tea.Batch(
		tea.SetWindowTitle("finkit - feeds"),
		a.feedsView.Init(),
		a.waitForChange(),
	)
}

// watch forwards store notifications into the changes channel until the
// context ends or the store cannot be watched.
func (a *App) watch() {
	defer close(a.watchDone)
	err := a.ports.Feed.Watch(a.ctx, func() {
		select {
		case a.changes <- struct{}{}:
		default:
		}
	})
	if err != nil && !errors.Is(err, domain.ErrNotImplemented) && a.ctx.Err() == nil {
		logger.Warn("feed watcher stopped: %v", err)
	}
}

func (a *App) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.changes:
			return messages.StoreChanged{}
		case <-a.watchDone:
			return nil
		case <-a.ctx.Done():
			return nil
		}
	}
}

// Update implements tea.Model.
//
//nolint:gocyclo,funlen // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.status.State() == status.StateError || a.status.State() == status.StateInfo {
			a.status.Clear()
		}
		return a, a.handleKey(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.FeedsLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
		}
		a.feedsView, cmd = a.feedsView.Update(msg)
		a.searchView.SetFeedTitles(feedTitles(a.feedsView.Feeds()))
		return a, cmd

	case messages.FeedSelected:
		a.currentView = messages.ViewItems
		a.status.SetBindings(a.keymap.ItemsHelp())
		return a, a.itemsView.SetFeed(msg.Feed)

	case messages.ItemsLoaded:
		a.itemsView, cmd = a.itemsView.Update(msg)
		a.status.SetUnread(a.itemsView.Unread())
		return a, cmd

	case messages.ItemSelected:
		a.articleView.SetItem(msg.Item, msg.From)
		a.currentView = messages.ViewArticle
		a.status.SetBindings([]key.Binding{a.keymap.Up, a.keymap.Down, a.keymap.Back})
		if !msg.Item.Read {
			return a, items.MarkRead(a.ctx, a.ports.Feed, msg.Item.FeedID, msg.Item.ID, true)
		}
		return a, nil

	case messages.ItemMarked:
		if msg.Err != nil {
			a.setError(msg.Err)
		}
		var searchCmd tea.Cmd
		a.itemsView, cmd = a.itemsView.Update(msg)
		a.searchView, searchCmd = a.searchView.Update(msg)
		a.status.SetUnread(a.itemsView.Unread())
		return a, tea.Batch(cmd, searchCmd)

	case messages.RefreshStarted:
		a.status.SetState(status.StateRefreshing)
		a.status.SetMessage(a.feedTitle(msg.FeedID))
		return a, nil

	case messages.FeedsRefreshed:
		a.reportRefresh(msg.Results)
		var itemsCmd tea.Cmd
		a.feedsView, cmd = a.feedsView.Update(msg)
		if a.currentView == messages.ViewItems {
			a.itemsView, itemsCmd = a.itemsView.Update(msg)
		}
		return a, tea.Batch(cmd, itemsCmd)

	case messages.FeedAdded:
		if msg.Err != nil {
			a.setError(msg.Err)
		} else {
			a.setInfo("Subscribed to " + msg.Feed.DisplayTitle())
		}
		a.feedsView, cmd = a.feedsView.Update(msg)
		return a, cmd

	case messages.FeedRemoved:
		if msg.Err != nil {
			a.setError(msg.Err)
		}
		a.feedsView, cmd = a.feedsView.Update(msg)
		return a, cmd

	case messages.FeedToggled:
		if msg.Err != nil {
			a.setError(msg.Err)
		}
		a.feedsView, cmd = a.feedsView.Update(msg)
		return a, cmd

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.StoreChanged:
		cmds := []tea.Cmd{a.feedsView.Load(), a.waitForChange()}
		if a.currentView == messages.ViewItems {
			cmds = append(cmds, a.itemsView.Load())
		}
		return a, tea.Batch(cmds...)

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewFeeds:
		a.feedsView, cmd = a.feedsView.Update(msg)
	case messages.ViewItems:
		a.itemsView, cmd = a.itemsView.Update(msg)
	case messages.ViewArticle:
		a.articleView, cmd = a.articleView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc || msg.String() == "q" || msg.String() == "?" {
			return a.switchView(messages.ViewFeeds)
		}
	}
	return cmd
}

func (a *App) switchView(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewFeeds:
		a.status.SetBindings(a.keymap.FeedsHelp())
		return a.feedsView.Load()
	case messages.ViewItems:
		a.status.SetBindings(a.keymap.ItemsHelp())
		return a.itemsView.Load()
	case messages.ViewSearch:
		a.status.SetBindings(a.keymap.ItemsHelp())
		a.searchView.Reset()
		return a.searchView.Init()
	case messages.ViewArticle, messages.ViewHelp:
		a.status.SetBindings(a.keymap.ShortHelp())
	}
	return nil
}

func (a *App) reportRefresh(results []domain.RefreshResult) {
	added, failed := 0, 0
	var lastErr error
	for _, r := range results {
		if r.Err != nil {
			failed++
			lastErr = r.Err
			continue
		}
		if r.Diff != nil {
			added += len(r.Diff.Added)
		}
	}
	if failed > 0 {
		a.setError(fmt.Errorf("%d of %d feeds failed: %w", failed, len(results), lastErr))
		return
	}
	a.setInfo(fmt.Sprintf("%d new items", added))
}

func (a *App) setError(err error) {
	a.err = err
	a.status.SetState(status.StateError)
	a.status.SetMessage(err.Error())
}

func (a *App) setInfo(msg string) {
	a.status.SetState(status.StateInfo)
	a.status.SetMessage(msg)
}

func (a *App) feedTitle(id string) string {
	for _, f := range a.feedsView.Feeds() {
		if f.ID == id {
			return f.DisplayTitle()
		}
	}
	return ""
}

func feedTitles(list []domain.Feed) map[string]string {
	titles := make(map[string]string, len(list))
	for i := range list {
		titles[list[i].ID] = list[i].DisplayTitle()
	}
	return titles
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewItems:
		body = a.itemsView.View()
	case messages.ViewArticle:
		body = a.articleView.View()
	case messages.ViewSearch:
		body = a.searchView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.feedsView.View()
	}
	return body + "\n\n" + a.status.View()
}

func (a *App) viewHelp() string {
	return `Help

Feeds:
  j/k, ↑/↓    Move
  enter       Open items
  a           Subscribe to a feed
  d           Remove feed
  m           Enable / disable feed
  r / R       Refresh feed / all feeds
  /           Search items

Items:
  enter       Read item (marks it read)
  m           Toggle read
  u           Unread only
  esc         Back

Article:
  j/k, PgUp/PgDn, g/G   Scroll
  esc                   Back

ctrl+c quits from anywhere.

[esc] back to feeds`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its first window size.
func (a *App) Ready() bool {
	return a.ready
}

// StatusMessage returns the status bar message.
func (a *App) StatusMessage() string {
	return a.status.Message()
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	// Leave room for the status bar.
	body := max(height-2, 1)
	a.feedsView.SetDimensions(width, body)
	a.itemsView.SetDimensions(width, body)
	a.articleView.SetDimensions(width, body)
	a.searchView.SetDimensions(width, body)
	a.status.SetWidth(width)
}
