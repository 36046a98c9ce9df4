package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

const defaultItemLimit = 20

// ListFeedsInput is the input schema for list_feeds.
type ListFeedsInput struct {
	Category string `json:"category,omitempty" jsonschema:"only return feeds in this category"`
}

// FeedsOutput lists feeds.
type FeedsOutput struct {
	Feeds []FeedOutput `json:"feeds"`
	Count int          `json:"count"`
}

// FeedOutput describes one subscription.
type FeedOutput struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Category    string `json:"category,omitempty"`
	Enabled     bool   `json:"enabled"`
	ItemCount   int    `json:"item_count"`
	LastFetched string `json:"last_fetched,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

// AddFeedInput is the input schema for add_feed.
type AddFeedInput struct {
	URL      string `json:"url" jsonschema:"RSS or Atom feed URL"`
	Category string `json:"category,omitempty" jsonschema:"optional category label"`
}

// FeedIDInput identifies a feed.
type FeedIDInput struct {
	FeedID string `json:"feed_id" jsonschema:"the feed ID"`
}

// RemoveFeedOutput confirms a removal.
type RemoveFeedOutput struct {
	Removed string `json:"removed"`
}

// RefreshInput is the input schema for refresh_feeds.
type RefreshInput struct {
	FeedID string `json:"feed_id,omitempty" jsonschema:"refresh only this feed; all enabled feeds when empty"`
}

// RefreshOutput summarises a refresh.
type RefreshOutput struct {
	Results []RefreshResultOutput `json:"results"`
	Added   int                   `json:"added"`
	Failed  int                   `json:"failed"`
}

// RefreshResultOutput is the outcome for one feed.
type RefreshResultOutput struct {
	FeedID    string       `json:"feed_id"`
	Added     []ItemOutput `json:"added,omitempty"`
	Updated   int          `json:"updated"`
	Unchanged int          `json:"unchanged"`
	Error     string       `json:"error,omitempty"`
}

// ListItemsInput is the input schema for list_items.
type ListItemsInput struct {
	FeedID     string `json:"feed_id,omitempty" jsonschema:"feed to list; all feeds when empty"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of items (default 20)"`
	UnreadOnly bool   `json:"unread_only,omitempty" jsonschema:"only return unread items"`
}

// SearchItemsInput is the input schema for search_items.
type SearchItemsInput struct {
	Query string `json:"query" jsonschema:"text to find in item titles and summaries"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of items (default 20)"`
}

// ItemsOutput lists feed items.
type ItemsOutput struct {
	Items []ItemOutput `json:"items"`
	Count int          `json:"count"`
}

// ItemOutput describes one feed item.
type ItemOutput struct {
	ID        string `json:"id"`
	FeedID    string `json:"feed_id"`
	Title     string `json:"title"`
	Link      string `json:"link,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Published string `json:"published,omitempty"`
	Read      bool   `json:"read"`
}

// MarkReadInput is the input schema for mark_read.
type MarkReadInput struct {
	FeedID string `json:"feed_id" jsonschema:"the feed ID"`
	ItemID string `json:"item_id" jsonschema:"the item ID"`
	Unread bool   `json:"unread,omitempty" jsonschema:"mark as unread instead of read"`
}

// MarkReadOutput confirms the new state.
type MarkReadOutput struct {
	ItemID string `json:"item_id"`
	Read   bool   `json:"read"`
}

// FilingSectionInput is the input schema for get_filing_section.
type FilingSectionInput struct {
	Ticker  string `json:"ticker" jsonschema:"company ticker, e.g. AAPL"`
	Form    string `json:"form,omitempty" jsonschema:"form type (default 10-K)"`
	Section string `json:"section" jsonschema:"section key, e.g. item_1a or 7"`
}

// FilingSectionOutput is one section of the latest filing.
type FilingSectionOutput struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_feeds",
		Description: "List subscribed RSS/Atom feeds",
	}, s.handleListFeeds)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_feed",
		Description: "Subscribe to an RSS or Atom feed",
	}, s.handleAddFeed)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_feed",
		Description: "Unsubscribe from a feed and delete its items",
	}, s.handleRemoveFeed)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "refresh_feeds",
		Description: "Fetch new items for one feed or all enabled feeds",
	}, s.handleRefresh)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_items",
		Description: "List feed items, newest first",
	}, s.handleListItems)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_items",
		Description: "Search item titles and summaries across all feeds",
	}, s.handleSearchItems)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mark_read",
		Description: "Mark a feed item as read or unread",
	}, s.handleMarkRead)

	if s.ports.Filing != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_filing_section",
			Description: "Fetch one section of a company's latest SEC filing",
		}, s.handleFilingSection)
	}
}

func (s *Server) handleListFeeds(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListFeedsInput,
) (*mcp.CallToolResult, FeedsOutput, error) {
	feeds, err := s.ports.Feed.List(ctx, input.Category)
	if err != nil {
		return nil, FeedsOutput{}, err
	}
	out := FeedsOutput{Feeds: make([]FeedOutput, len(feeds)), Count: len(feeds)}
	for i := range feeds {
		out.Feeds[i] = toFeedOutput(&feeds[i])
	}
	return nil, out, nil
}

func (s *Server) handleAddFeed(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddFeedInput,
) (*mcp.CallToolResult, FeedOutput, error) {
	feed, err := s.ports.Feed.Add(ctx, input.URL, input.Category)
	if err != nil {
		return nil, FeedOutput{}, err
	}
	return nil, toFeedOutput(feed), nil
}

func (s *Server) handleRemoveFeed(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FeedIDInput,
) (*mcp.CallToolResult, RemoveFeedOutput, error) {
	if err := s.ports.Feed.Remove(ctx, input.FeedID); err != nil {
		return nil, RemoveFeedOutput{}, err
	}
	return nil, RemoveFeedOutput{Removed: input.FeedID}, nil
}

func (s *Server) handleRefresh(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RefreshInput,
) (*mcp.CallToolResult, RefreshOutput, error) {
	var results []domain.RefreshResult
	if input.FeedID != "" {
		diff, err := s.ports.Feed.Refresh(ctx, input.FeedID)
		results = []domain.RefreshResult{{FeedID: input.FeedID, Diff: diff, Err: err}}
	} else {
		results = s.ports.Feed.RefreshAll(ctx)
	}

	out := RefreshOutput{Results: make([]RefreshResultOutput, 0, len(results))}
	for _, r := range results {
		ro := RefreshResultOutput{FeedID: r.FeedID}
		if r.Err != nil {
			ro.Error = r.Err.Error()
			out.Failed++
		} else if r.Diff != nil {
			ro.Added = toItemOutputs(r.Diff.Added)
			ro.Updated = len(r.Diff.Updated)
			ro.Unchanged = r.Diff.Unchanged
			out.Added += len(r.Diff.Added)
		}
		out.Results = append(out.Results, ro)
	}
	return nil, out, nil
}

func (s *Server) handleListItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListItemsInput,
) (*mcp.CallToolResult, ItemsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultItemLimit
	}
	items, err := s.ports.Feed.Items(ctx, input.FeedID, limit, input.UnreadOnly)
	if err != nil {
		return nil, ItemsOutput{}, err
	}
	return nil, ItemsOutput{Items: toItemOutputs(items), Count: len(items)}, nil
}

func (s *Server) handleSearchItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchItemsInput,
) (*mcp.CallToolResult, ItemsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultItemLimit
	}
	items, err := s.ports.Feed.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, ItemsOutput{}, err
	}
	return nil, ItemsOutput{Items: toItemOutputs(items), Count: len(items)}, nil
}

func (s *Server) handleMarkRead(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MarkReadInput,
) (*mcp.CallToolResult, MarkReadOutput, error) {
	read := !input.Unread
	if err := s.ports.Feed.MarkRead(ctx, input.FeedID, input.ItemID, read); err != nil {
		return nil, MarkReadOutput{}, err
	}
	return nil, MarkReadOutput{ItemID: input.ItemID, Read: read}, nil
}

func (s *Server) handleFilingSection(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FilingSectionInput,
) (*mcp.CallToolResult, FilingSectionOutput, error) {
	form := input.Form
	if form == "" {
		form = domain.FormAnnual
	}
	section, err := s.ports.Filing.GetSection(ctx, input.Ticker, form, input.Section)
	if err != nil {
		return nil, FilingSectionOutput{}, err
	}
	return nil, FilingSectionOutput{Key: section.Key, Title: section.Title, Content: section.Content}, nil
}

func toFeedOutput(f *domain.Feed) FeedOutput {
	out := FeedOutput{
		ID:        f.ID,
		URL:       f.URL,
		Title:     f.DisplayTitle(),
		Category:  f.Category,
		Enabled:   f.Enabled,
		ItemCount: f.ItemCount,
		LastError: f.LastError,
	}
	if !f.LastFetched.IsZero() {
		out.LastFetched = f.LastFetched.UTC().Format(time.RFC3339)
	}
	return out
}

func toItemOutputs(items []domain.FeedItem) []ItemOutput {
	out := make([]ItemOutput, len(items))
	for i := range items {
		it := &items[i]
		out[i] = ItemOutput{
			ID:      it.ID,
			FeedID:  it.FeedID,
			Title:   it.Title,
			Link:    it.Link,
			Summary: it.Summary,
			Read:    it.Read,
		}
		if !it.Published.IsZero() {
			out[i].Published = it.Published.UTC().Format(time.RFC3339)
		}
	}
	return out
}
