package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/finkit/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive feed reader.

Browse subscribed feeds, read items rendered as markdown and search across
all stored items. Changes made by other finkit processes show up live.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Open feed / item
  a        - Subscribe to a feed
  r / R    - Refresh feed / all feeds
  m        - Toggle read
  /        - Search
  Esc      - Back
  ?        - Toggle help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if feedService == nil {
		return errFeedUnavailable
	}

	app, err := tui.NewApp(cmd.Context(), &tui.Ports{Feed: feedService})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
