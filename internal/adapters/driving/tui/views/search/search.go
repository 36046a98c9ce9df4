// Package search provides item search across all feeds.
package search

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/views/items"
	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
)

// resultLimit caps search results.
const resultLimit = 100

// View is the search input plus results.
type View struct {
	ctx         context.Context
	styles      *styles.Styles
	feedService driving.FeedService
	input       *input.Field
	results     *list.ItemList

	query     string
	searching bool
	err       error
	width     int
	height    int
}

// NewView creates a new search view.
func NewView(ctx context.Context, s *styles.Styles, feedService driving.FeedService) *View {
	if ctx == nil {
		ctx = context.Background()
	}
	return &View{
		ctx:         ctx,
		styles:      s,
		feedService: feedService,
		input:       input.NewField(s, "Search", "title or summary text..."),
		results:     list.NewItemList(s),
	}
}

// Init focuses the input.
func (v *View) Init() tea.Cmd {
	return v.input.Focus()
}

// Reset clears the query and results.
func (v *View) Reset() {
	v.input.Reset()
	v.results.SetItems(nil)
	v.query = ""
	v.err = nil
	v.searching = false
}

// SetFeedTitles labels results with their feed's title.
func (v *View) SetFeedTitles(titles map[string]string) {
	v.results.SetFeedTitles(titles)
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.input.Focused() {
			return v.handleInputKey(msg)
		}
		return v.handleResultsKey(msg)

	case messages.SearchCompleted:
		v.searching = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.results.SetItems(msg.Items)
		if len(msg.Items) > 0 {
			v.input.Blur()
		}
		return v, nil

	case messages.ItemMarked:
		if msg.Err == nil {
			for _, it := range v.results.Items() {
				if it.ID == msg.ItemID && it.FeedID == msg.FeedID {
					it.Read = msg.Read
					v.results.UpdateItem(it)
					break
				}
			}
		}
		return v, nil
	}
	return v, nil
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type { //nolint:exhaustive // only submit and cancel are special
	case tea.KeyEnter:
		query := strings.TrimSpace(v.input.Value())
		if query == "" {
			return v, nil
		}
		v.query = query
		v.searching = true
		return v, v.search(query)
	case tea.KeyEsc:
		if v.results.Count() > 0 {
			v.input.Blur()
			return v, nil
		}
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewFeeds} }
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleResultsKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if item := v.results.SelectedItem(); item != nil {
			it := *item
			return v, func() tea.Msg { return messages.ItemSelected{Item: it, From: messages.ViewSearch} }
		}
		return v, nil
	case "m", " ":
		if item := v.results.SelectedItem(); item != nil {
			return v, items.MarkRead(v.ctx, v.feedService, item.FeedID, item.ID, !item.Read)
		}
		return v, nil
	case "/":
		return v, v.input.Focus()
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewFeeds} }
	}
	var cmd tea.Cmd
	v.results, cmd = v.results.Update(msg)
	return v, cmd
}

func (v *View) search(query string) tea.Cmd {
	return func() tea.Msg {
		found, err := v.feedService.Search(v.ctx, query, resultLimit)
		return messages.SearchCompleted{Query: query, Items: found, Err: err}
	}
}

// View renders the search view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.input.View())
	b.WriteString("\n\n")

	switch {
	case v.searching:
		b.WriteString(v.styles.Muted.Render("Searching..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.query == "":
		b.WriteString(v.styles.Muted.Render("Type a query and press enter."))
	case v.results.Count() == 0:
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("No items match %q.", v.query)))
	default:
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("%d results", v.results.Count())))
		b.WriteString("\n\n")
		b.WriteString(v.results.View())
	}

	b.WriteString("\n\n")
	if v.input.Focused() {
		b.WriteString(v.styles.Help.Render("[enter] search  [esc] back"))
	} else {
		b.WriteString(v.styles.Help.Render("[enter] read  [m] toggle read  [/] new search  [esc] back"))
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.results.SetDimensions(width, max(height-9, 2))
}

// Query returns the last submitted query.
func (v *View) Query() string {
	return v.query
}

// Results returns the current results.
func (v *View) Results() []domain.FeedItem {
	return v.results.Items()
}

// InputFocused reports whether keystrokes go to the query input.
func (v *View) InputFocused() bool {
	return v.input.Focused()
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
