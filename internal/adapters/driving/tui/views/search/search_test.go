package search

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/services"
)

func newTestView(t *testing.T) *View {
	t.Helper()
	ctx := context.Background()
	store := memory.NewFeedStore()
	require.NoError(t, store.UpdateFeeds(ctx, func(feeds []domain.Feed) ([]domain.Feed, error) {
		return append(feeds, domain.Feed{ID: "f1", URL: "https://example.com/rss", Title: "Macro", Enabled: true}), nil
	}))
	require.NoError(t, store.UpdateItems(ctx, "f1", func(items []domain.FeedItem) ([]domain.FeedItem, error) {
		return append(items,
			domain.FeedItem{ID: "i1", FeedID: "f1", Title: "Oil rallies", Summary: "Brent crude up"},
			domain.FeedItem{ID: "i2", FeedID: "f1", Title: "Bond yields", Summary: "Treasuries sell off"},
		), nil
	}))
	v := NewView(ctx, styles.DefaultStyles(), services.NewFeedService(store, nil, services.FeedConfig{}))
	v.SetDimensions(100, 30)
	v.Init()
	return v
}

func typeQuery(v *View, q string) {
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(q)})
}

func submit(t *testing.T, v *View) {
	t.Helper()
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestView_Initial(t *testing.T) {
	v := newTestView(t)

	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Query())
	assert.Contains(t, v.View(), "Type a query")
}

func TestView_EmptyQueryIgnored(t *testing.T) {
	v := newTestView(t)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_SearchFindsSummary(t *testing.T) {
	v := newTestView(t)
	v.SetFeedTitles(map[string]string{"f1": "Macro"})

	typeQuery(v, "crude")
	submit(t, v)

	assert.Equal(t, "crude", v.Query())
	require.Len(t, v.Results(), 1)
	assert.Equal(t, "i1", v.Results()[0].ID)
	assert.False(t, v.InputFocused(), "focus moves to results")
	assert.Contains(t, v.View(), "1 results")
}

func TestView_NoMatches(t *testing.T) {
	v := newTestView(t)

	typeQuery(v, "gold")
	submit(t, v)

	assert.Empty(t, v.Results())
	assert.True(t, v.InputFocused())
	assert.Contains(t, v.View(), `No items match "gold"`)
}

func TestView_SelectAndMark(t *testing.T) {
	v := newTestView(t)
	typeQuery(v, "yields")
	submit(t, v)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	selected, ok := cmd().(messages.ItemSelected)
	require.True(t, ok)
	assert.Equal(t, "i2", selected.Item.ID)
	assert.Equal(t, messages.ViewSearch, selected.From)

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	require.NotNil(t, cmd)
	marked, ok := cmd().(messages.ItemMarked)
	require.True(t, ok)
	require.NoError(t, marked.Err)

	v.Update(marked)
	assert.True(t, v.Results()[0].Read)
}

func TestView_EscBehaviour(t *testing.T) {
	v := newTestView(t)
	typeQuery(v, "oil")
	submit(t, v)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	assert.True(t, v.InputFocused())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd, "esc with results returns to the list")
	assert.False(t, v.InputFocused())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewFeeds, msg.View)
}

func TestView_Reset(t *testing.T) {
	v := newTestView(t)
	typeQuery(v, "oil")
	submit(t, v)

	v.Reset()

	assert.Empty(t, v.Query())
	assert.Empty(t, v.Results())
	assert.NoError(t, v.Err())
}
