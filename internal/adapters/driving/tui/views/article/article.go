// Package article renders a single feed item in the TUI.
package article

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/finkit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/finkit/internal/core/domain"
)

// View shows one item, converted from HTML to styled markdown.
type View struct {
	styles *styles.Styles

	item         *domain.FeedItem
	back         messages.ViewType
	lines        []string
	scrollOffset int
	width        int
	height       int
}

// NewView creates a new article view.
func NewView(s *styles.Styles) *View {
	return &View{
		styles: s,
		back:   messages.ViewItems,
		width:  80,
		height: 24,
	}
}

// SetItem shows item; esc returns to the back view.
func (v *View) SetItem(item domain.FeedItem, back messages.ViewType) {
	v.item = &item
	v.back = back
	v.scrollOffset = 0
	v.render()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the article view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}

	switch key.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d", " ":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		back := v.back
		return v, func() tea.Msg { return messages.ViewChanged{View: back} }
	}
	return v, nil
}

// render converts the item body and splits it into lines.
func (v *View) render() {
	v.lines = nil
	if v.item == nil {
		return
	}
	body := v.item.Content
	if body == "" {
		body = v.item.Summary
	}
	if strings.TrimSpace(body) == "" {
		return
	}
	v.lines = strings.Split(strings.TrimRight(Render(body, v.width-4), "\n"), "\n")
}

// Render turns an HTML fragment into terminal-styled text wrapped at width.
// Conversion failures fall back to the input.
func Render(html string, width int) string {
	if width < 20 {
		width = 20
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		md = html
	}
	// A fixed style avoids querying the terminal while bubbletea owns it.
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (v *View) visibleLines() int {
	// Title, metadata, separator and help footer.
	return max(v.height-7, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the article.
func (v *View) View() string {
	var b strings.Builder

	if v.item == nil {
		b.WriteString(v.styles.Muted.Render("(no item selected)"))
		return b.String()
	}

	title := v.item.Title
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")

	var meta []string
	if !v.item.Published.IsZero() {
		meta = append(meta, v.item.Published.Local().Format("2006-01-02 15:04"))
	}
	if v.item.Author != "" {
		meta = append(meta, v.item.Author)
	}
	if v.item.Link != "" {
		meta = append(meta, v.item.Link)
	}
	b.WriteString(v.styles.Muted.Render(strings.Join(meta, "  ·  ")))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 10)))
	b.WriteString("\n")

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(no content)"))
	} else {
		end := min(v.scrollOffset+v.visibleLines(), len(v.lines))
		b.WriteString(strings.Join(v.lines[v.scrollOffset:end], "\n"))
		if len(v.lines) > v.visibleLines() {
			pct := 0
			if v.maxScrollOffset() > 0 {
				pct = v.scrollOffset * 100 / v.maxScrollOffset()
			}
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] line %d-%d of %d",
				pct, v.scrollOffset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions and re-wraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.render()
}

// Item returns the displayed item.
func (v *View) Item() *domain.FeedItem {
	return v.item
}

// Back returns the view esc navigates to.
func (v *View) Back() messages.ViewType {
	return v.back
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// LineCount returns the rendered line count.
func (v *View) LineCount() int {
	return len(v.lines)
}
