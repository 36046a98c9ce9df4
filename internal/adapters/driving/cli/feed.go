package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

var (
	feedCategory   string
	feedItemLimit  int
	feedUnreadOnly bool
	feedMarkUnread bool
	feedOutput     string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Manage RSS and Atom feeds",
	Long: `Subscribe to RSS/Atom feeds, refresh them and read their items.

Feeds live under $FINKIT_HOME/feeds and are shared with 'finkit mcp serve'.`,
}

var feedAddCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Subscribe to a feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedAdd,
}

var feedListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List subscribed feeds",
	RunE:    runFeedList,
}

var feedRemoveCmd = &cobra.Command{
	Use:     "remove [feed-id]",
	Aliases: []string{"rm"},
	Short:   "Unsubscribe from a feed and delete its items",
	Args:    cobra.ExactArgs(1),
	RunE:    runFeedRemove,
}

var feedEnableCmd = &cobra.Command{
	Use:   "enable [feed-id]",
	Short: "Include a feed in refreshes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFeedEnabled(cmd, args[0], true)
	},
}

var feedDisableCmd = &cobra.Command{
	Use:   "disable [feed-id]",
	Short: "Skip a feed during refreshes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFeedEnabled(cmd, args[0], false)
	},
}

var feedRefreshCmd = &cobra.Command{
	Use:   "refresh [feed-id]",
	Short: "Fetch new items",
	Long:  `Fetch one feed, or every enabled feed when no ID is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFeedRefresh,
}

var feedItemsCmd = &cobra.Command{
	Use:   "items [feed-id]",
	Short: "List items of a feed, or of all feeds",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFeedItems,
}

var feedSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search item titles and summaries",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedSearch,
}

var feedReadCmd = &cobra.Command{
	Use:   "read [feed-id] [item-id]",
	Short: "Mark an item as read",
	Args:  cobra.ExactArgs(2),
	RunE:  runFeedRead,
}

var feedWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a line whenever stored feeds change",
	RunE:  runFeedWatch,
}

var feedImportCmd = &cobra.Command{
	Use:   "import [file.opml]",
	Short: "Subscribe to every feed in an OPML file",
	Long:  `Import an OPML file. Use "-" to read from stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedImport,
}

var feedExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all feeds as OPML",
	RunE:  runFeedExport,
}

func init() {
	feedAddCmd.Flags().StringVarP(&feedCategory, "category", "c", "", "Category label")
	feedListCmd.Flags().StringVarP(&feedCategory, "category", "c", "", "Only list feeds in this category")

	feedItemsCmd.Flags().IntVarP(&feedItemLimit, "limit", "n", 20, "Maximum items to show (0 for all)")
	feedItemsCmd.Flags().BoolVarP(&feedUnreadOnly, "unread", "u", false, "Only show unread items")
	feedSearchCmd.Flags().IntVarP(&feedItemLimit, "limit", "n", 20, "Maximum items to show (0 for all)")

	feedReadCmd.Flags().BoolVar(&feedMarkUnread, "unread", false, "Mark as unread instead")
	feedExportCmd.Flags().StringVarP(&feedOutput, "output", "o", "", "Write to file instead of stdout")

	feedCmd.AddCommand(feedAddCmd)
	feedCmd.AddCommand(feedListCmd)
	feedCmd.AddCommand(feedRemoveCmd)
	feedCmd.AddCommand(feedEnableCmd)
	feedCmd.AddCommand(feedDisableCmd)
	feedCmd.AddCommand(feedRefreshCmd)
	feedCmd.AddCommand(feedItemsCmd)
	feedCmd.AddCommand(feedSearchCmd)
	feedCmd.AddCommand(feedReadCmd)
	feedCmd.AddCommand(feedWatchCmd)
	feedCmd.AddCommand(feedImportCmd)
	feedCmd.AddCommand(feedExportCmd)
	rootCmd.AddCommand(feedCmd)
}

func runFeedAdd(cmd *cobra.Command, args []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	feed, err := feedService.Add(cmd.Context(), args[0], feedCategory)
	if err != nil {
		return fmt.Errorf("failed to add feed: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), feed)
	}
	cmd.Printf("Added %s\n", feed.DisplayTitle())
	cmd.Printf("  ID: %s\n", feed.ID)
	if feed.ItemCount > 0 {
		cmd.Printf("  Items: %d\n", feed.ItemCount)
	}
	return nil
}

func runFeedList(cmd *cobra.Command, _ []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	feeds, err := feedService.List(cmd.Context(), feedCategory)
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), feeds)
	}
	if len(feeds) == 0 {
		cmd.Println("No feeds. Add one with 'finkit feed add URL'.")
		return nil
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader([]any{"ID", "Title", "Category", "Items", "Last fetched", "Status"})
	for i := range feeds {
		f := &feeds[i]
		status := "enabled"
		switch {
		case f.LastError != "":
			status = "error: " + truncate(f.LastError, 30)
		case !f.Enabled:
			status = "disabled"
		}
		last := "never"
		if !f.LastFetched.IsZero() {
			last = f.LastFetched.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow([]any{f.ID, truncate(f.DisplayTitle(), 40), f.Category, f.ItemCount, last, status})
	}
	t.Render()
	return nil
}

func runFeedRemove(cmd *cobra.Command, args []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	if err := feedService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove feed: %w", err)
	}
	cmd.Printf("Removed feed %s\n", args[0])
	return nil
}

func setFeedEnabled(cmd *cobra.Command, id string, enabled bool) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	if err := feedService.SetEnabled(cmd.Context(), id, enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	cmd.Printf("Feed %s %s\n", id, state)
	return nil
}

func runFeedRefresh(cmd *cobra.Command, args []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	ctx := cmd.Context()

	var results []domain.RefreshResult
	if len(args) == 1 {
		diff, err := feedService.Refresh(ctx, args[0])
		results = append(results, domain.RefreshResult{FeedID: args[0], Diff: diff, Err: err})
	} else {
		results = feedService.RefreshAll(ctx)
	}

	if jsonOutput {
		type jsonResult struct {
			FeedID    string `json:"feed_id"`
			Added     int    `json:"added"`
			Updated   int    `json:"updated"`
			Unchanged int    `json:"unchanged"`
			Error     string `json:"error,omitempty"`
		}
		out := make([]jsonResult, 0, len(results))
		for _, r := range results {
			jr := jsonResult{FeedID: r.FeedID}
			if r.Diff != nil {
				jr.Added, jr.Updated, jr.Unchanged = len(r.Diff.Added), len(r.Diff.Updated), r.Diff.Unchanged
			}
			if r.Err != nil {
				jr.Error = r.Err.Error()
			}
			out = append(out, jr)
		}
		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
		return refreshError(results)
	}

	if len(results) == 0 {
		cmd.Println("No enabled feeds to refresh.")
		return nil
	}
	for _, r := range results {
		if r.Err != nil {
			cmd.Printf("  ✗ %s: %v\n", r.FeedID, r.Err)
			continue
		}
		cmd.Printf("  ✓ %s: %d new, %d updated, %d unchanged\n",
			r.FeedID, len(r.Diff.Added), len(r.Diff.Updated), r.Diff.Unchanged)
		for _, item := range r.Diff.Added {
			cmd.Printf("      + %s\n", truncate(item.Title, 70))
		}
	}
	return refreshError(results)
}

func refreshError(results []domain.RefreshResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d feeds failed to refresh", failed, len(results))
	}
	return nil
}

func runFeedItems(cmd *cobra.Command, args []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	feedID := ""
	if len(args) == 1 {
		feedID = args[0]
	}
	items, err := feedService.Items(cmd.Context(), feedID, feedItemLimit, feedUnreadOnly)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	return printItems(cmd, items)
}

func runFeedSearch(cmd *cobra.Command, args []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	items, err := feedService.Search(cmd.Context(), args[0], feedItemLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printItems(cmd, items)
}

func printItems(cmd *cobra.Command, items []domain.FeedItem) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), items)
	}
	if len(items) == 0 {
		cmd.Println("No items.")
		return nil
	}
	for i := range items {
		item := &items[i]
		marker := "●"
		if item.Read {
			marker = " "
		}
		cmd.Printf("%s %s  %s\n", marker, formatDate(item.Published), item.Title)
		cmd.Printf("    %s/%s\n", item.FeedID, item.ID)
		if item.Link != "" {
			cmd.Printf("    %s\n", item.Link)
		}
	}
	return nil
}

func runFeedRead(cmd *cobra.Command, args []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	read := !feedMarkUnread
	if err := feedService.MarkRead(cmd.Context(), args[0], args[1], read); err != nil {
		return err
	}
	if read {
		cmd.Printf("Marked %s as read\n", args[1])
	} else {
		cmd.Printf("Marked %s as unread\n", args[1])
	}
	return nil
}

func runFeedWatch(cmd *cobra.Command, _ []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	cmd.Println("Watching feeds for changes. Press Ctrl+C to stop.")
	err := feedService.Watch(cmd.Context(), func() {
		cmd.Printf("%s feeds changed\n", time.Now().Format("15:04:05"))
	})
	if errors.Is(err, domain.ErrNotImplemented) {
		return errors.New("feed store does not support watching")
	}
	return err
}

func runFeedImport(cmd *cobra.Command, args []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	r, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	n, err := feedService.ImportOPML(cmd.Context(), r)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Printf("Imported %d feeds\n", n)
	return nil
}

func runFeedExport(cmd *cobra.Command, _ []string) error {
	if feedService == nil {
		return errFeedUnavailable
	}
	if feedOutput == "" {
		return feedService.ExportOPML(cmd.Context(), cmd.OutOrStdout())
	}

	f, err := os.Create(feedOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", feedOutput, err)
	}
	if err := feedService.ExportOPML(cmd.Context(), f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	cmd.Printf("Exported feeds to %s\n", feedOutput)
	return nil
}
