// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/finkit/internal/core/domain"
)

// linesPerItem is the rendered height of one item.
const linesPerItem = 2

// ItemList displays feed items in a navigable list.
type ItemList struct {
	items      []domain.FeedItem
	feedTitles map[string]string
	selected   int
	styles     *styles.Styles
	width      int
	height     int
}

// NewItemList creates a new item list component.
func NewItemList(s *styles.Styles) *ItemList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ItemList{
		styles: s,
		width:  80,
		height: 20,
	}
}

// Init initialises the item list.
func (l *ItemList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *ItemList) Update(msg tea.Msg) (*ItemList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.items) > 0 {
				l.selected = len(l.items) - 1
			}
		}
	}
	return l, nil
}

// View renders the visible window of items around the selection.
func (l *ItemList) View() string {
	if len(l.items) == 0 {
		return l.styles.Muted.Render("No items")
	}

	visible := l.height / linesPerItem
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.items) {
		end = len(l.items)
	}

	lines := make([]string, 0, (end-start)*linesPerItem)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderItem(i, &l.items[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *ItemList) renderItem(index int, item *domain.FeedItem) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}
	marker := "● "
	if item.Read {
		marker = "  "
	}

	title := item.Title
	if title == "" {
		title = "(untitled)"
	}
	maxTitle := l.width - 20
	if maxTitle < 10 {
		maxTitle = 10
	}
	title = clip(title, maxTitle)

	date := "          "
	if !item.Published.IsZero() {
		date = item.Published.Local().Format("2006-01-02")
	}

	var titleLine string
	switch {
	case index == l.selected:
		titleLine = l.styles.Selected.Render(fmt.Sprintf("%s%s%-*s  %s", indicator, marker, maxTitle, title, date))
	case !item.Read:
		titleLine = l.styles.Unread.Render(indicator+marker+title) + "  " + l.styles.Muted.Render(date)
	default:
		titleLine = l.styles.Normal.Render(indicator+marker+title) + "  " + l.styles.Muted.Render(date)
	}

	detail := item.Link
	if name, ok := l.feedTitles[item.FeedID]; ok {
		detail = name
	}
	return titleLine + "\n" + l.styles.Muted.Render("      "+clip(detail, l.width-8))
}

// SetItems replaces the items and resets the selection.
func (l *ItemList) SetItems(items []domain.FeedItem) {
	l.items = items
	l.selected = 0
}

// SetFeedTitles makes each row show its feed's title instead of the link.
func (l *ItemList) SetFeedTitles(titles map[string]string) {
	l.feedTitles = titles
}

// UpdateItem replaces the item with the same ID, keeping the selection.
func (l *ItemList) UpdateItem(item domain.FeedItem) {
	for i := range l.items {
		if l.items[i].ID == item.ID && l.items[i].FeedID == item.FeedID {
			l.items[i] = item
			return
		}
	}
}

// Items returns the current items.
func (l *ItemList) Items() []domain.FeedItem {
	return l.items
}

// Selected returns the index of the selected item.
func (l *ItemList) Selected() int {
	return l.selected
}

// SelectedItem returns the selected item, or nil when the list is empty.
func (l *ItemList) SelectedItem() *domain.FeedItem {
	if l.selected < 0 || l.selected >= len(l.items) {
		return nil
	}
	return &l.items[l.selected]
}

// MoveUp moves selection up.
func (l *ItemList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ItemList) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *ItemList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of items.
func (l *ItemList) Count() int {
	return len(l.items)
}

// Unread returns the number of unread items.
func (l *ItemList) Unread() int {
	n := 0
	for i := range l.items {
		if !l.items[i].Read {
			n++
		}
	}
	return n
}

func clip(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
