package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/services"
)

type stubFetcher struct {
	feed *domain.FetchedFeed
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) (*domain.FetchedFeed, error) {
	return f.feed, f.err
}

func seededService(t *testing.T, fetcher *stubFetcher) *services.FeedService {
	t.Helper()
	ctx := context.Background()
	store := memory.NewFeedStore()
	require.NoError(t, store.UpdateFeeds(ctx, func(feeds []domain.Feed) ([]domain.Feed, error) {
		return append(feeds, domain.Feed{
			ID: "f1", URL: "https://example.com/rss", Title: "Macro", Enabled: true, ItemCount: 2,
		}), nil
	}))
	require.NoError(t, store.UpdateItems(ctx, "f1", func(items []domain.FeedItem) ([]domain.FeedItem, error) {
		return append(items,
			domain.FeedItem{ID: "i1", FeedID: "f1", Title: "Fed holds rates", Summary: "<p>No change.</p>",
				Published: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
			domain.FeedItem{ID: "i2", FeedID: "f1", Title: "Payrolls beat", Read: true,
				Published: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		), nil
	}))
	if fetcher == nil {
		return services.NewFeedService(store, nil, services.FeedConfig{})
	}
	return services.NewFeedService(store, fetcher, services.FeedConfig{})
}

func newTestApp(t *testing.T, svc *services.FeedService) *App {
	t.Helper()
	app, err := NewApp(context.Background(), &Ports{Feed: svc})
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

// run feeds msg to the app and then every message its commands produce.
func run(app *App, msg tea.Msg) {
	queue := []tea.Msg{msg}
	for len(queue) > 0 && len(queue) < 50 {
		next := queue[0]
		queue = queue[1:]
		_, cmd := app.Update(next)
		queue = append(queue, expand(cmd)...)
	}
}

func expand(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch m := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range m {
			out = append(out, expand(c)...)
		}
		return out
	case nil:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

func TestNewApp_RequiresFeedService(t *testing.T) {
	app, err := NewApp(context.Background(), &Ports{})

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingFeedService)
}

func TestPorts_Validate(t *testing.T) {
	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrMissingFeedService)
	assert.NoError(t, (&Ports{Feed: seededService(t, nil)}).Validate())
}

func TestApp_NotReadyUntilSized(t *testing.T) {
	app, err := NewApp(context.Background(), &Ports{Feed: seededService(t, nil)})
	require.NoError(t, err)

	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())

	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.True(t, app.Ready())
	assert.Equal(t, messages.ViewFeeds, app.CurrentView())
}

func TestApp_BrowseFeedToArticleMarksRead(t *testing.T) {
	svc := seededService(t, nil)
	app := newTestApp(t, svc)

	run(app, app.feedsView.Load()())
	assert.Contains(t, app.View(), "Macro")

	run(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.ViewItems, app.CurrentView())
	assert.Contains(t, app.View(), "Fed holds rates")
	assert.Contains(t, app.View(), "1 unread")

	run(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.ViewArticle, app.CurrentView())
	require.NotNil(t, app.articleView.Item())
	assert.Equal(t, "i1", app.articleView.Item().ID)
	assert.Contains(t, app.View(), "Fed holds rates")

	items, err := svc.Items(context.Background(), "f1", 0, true)
	require.NoError(t, err)
	assert.Empty(t, items, "opening an item marks it read")

	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewItems, app.CurrentView())

	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewFeeds, app.CurrentView())
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t, seededService(t, nil))

	run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "Subscribe to a feed")

	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewFeeds, app.CurrentView())
}

func TestApp_SearchView(t *testing.T) {
	app := newTestApp(t, seededService(t, nil))

	run(app, messages.ViewChanged{View: messages.ViewSearch})
	for _, r := range "payrolls" {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	require.Len(t, app.searchView.Results(), 1)
	assert.Contains(t, app.View(), "Payrolls beat")
}

func TestApp_RefreshReportsNewItems(t *testing.T) {
	app := newTestApp(t, seededService(t, nil))
	run(app, app.feedsView.Load()())

	app.Update(messages.RefreshStarted{FeedID: "f1"})
	assert.Contains(t, app.StatusMessage(), "Macro")

	app.Update(messages.FeedsRefreshed{Results: []domain.RefreshResult{
		{FeedID: "f1", Diff: &domain.FeedDiff{Added: []domain.FeedItem{{ID: "a"}, {ID: "b"}}}},
	}})
	assert.Equal(t, "2 new items", app.StatusMessage())
	assert.NoError(t, app.Err())
}

func TestApp_RefreshFailureIsReported(t *testing.T) {
	app := newTestApp(t, seededService(t, nil))

	app.Update(messages.FeedsRefreshed{Results: []domain.RefreshResult{
		{FeedID: "f1", Err: domain.ErrUpstream},
		{FeedID: "f2", Diff: &domain.FeedDiff{}},
	}})

	require.Error(t, app.Err())
	assert.ErrorIs(t, app.Err(), domain.ErrUpstream)
	assert.Contains(t, app.StatusMessage(), "1 of 2 feeds failed")
}

func TestApp_RefreshWithFetcher(t *testing.T) {
	fetcher := &stubFetcher{feed: &domain.FetchedFeed{
		Title: "Macro",
		Items: []domain.FeedItem{{GUID: "new-1", Title: "CPI cools", Published: time.Now()}},
	}}
	svc := seededService(t, fetcher)
	app := newTestApp(t, svc)
	run(app, app.feedsView.Load()())

	diff, err := svc.Refresh(context.Background(), "f1")
	require.NoError(t, err)
	run(app, messages.FeedsRefreshed{Results: []domain.RefreshResult{{FeedID: "f1", Diff: diff}}})

	assert.Equal(t, "1 new items", app.StatusMessage())
	require.Len(t, app.feedsView.Feeds(), 1)
	assert.Equal(t, 3, app.feedsView.Feeds()[0].ItemCount)
}

func TestApp_ErrorsClearOnKeypress(t *testing.T) {
	app := newTestApp(t, seededService(t, nil))

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})
	assert.Contains(t, app.View(), "boom")

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.NotContains(t, app.View(), "boom")
}

func TestApp_StoreChangedReloads(t *testing.T) {
	app := newTestApp(t, seededService(t, nil))

	_, cmd := app.Update(messages.StoreChanged{})

	assert.NotNil(t, cmd)
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, seededService(t, nil))

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
