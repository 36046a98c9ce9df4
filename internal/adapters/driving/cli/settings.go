package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change finkit settings stored in config.toml.

Keys:
  edgar.user_agent          SEC contact, "Name email@example.com"
  edgar.rate_limit          EDGAR requests per second (max 10)
  edgar.workers             batch fetch concurrency
  edgar.filing_ttl          how long filing documents stay cached
  market.fred_api_key       FRED API key
  market.rate_limit         FRED / Yahoo requests per second
  feeds.max_items_per_feed  items kept per feed
  feeds.workers             refresh concurrency
  feeds.timeout             per-feed HTTP timeout
  feeds.retries             attempts per feed fetch
  cache.ttl                 market data cache lifetime`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Restore a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsUnset,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup of API credentials",
	Long:  `Prompt for the EDGAR User-Agent and the FRED API key.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsUnavailable
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if jsonOutput {
		masked := *s
		if masked.Market.FREDAPIKey != "" {
			masked.Market.FREDAPIKey = maskAPIKey(masked.Market.FREDAPIKey)
		}
		return printJSON(cmd.OutOrStdout(), masked)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("File: %s\n\n", settingsService.Path())

	cmd.Println("[EDGAR]")
	if s.EDGAR.UserAgent != "" {
		cmd.Printf("  User-Agent: %s\n", s.EDGAR.UserAgent)
	} else {
		cmd.Printf("  User-Agent: (not set)\n")
	}
	cmd.Printf("  Rate limit: %g req/s\n", s.EDGAR.RateLimit)
	cmd.Printf("  Workers: %d\n", s.EDGAR.Workers)
	cmd.Printf("  Filing TTL: %s\n", s.EDGAR.FilingTTL)
	cmd.Println()

	cmd.Println("[Market]")
	if s.Market.FREDAPIKey != "" {
		cmd.Printf("  FRED API key: %s\n", maskAPIKey(s.Market.FREDAPIKey))
	} else {
		cmd.Printf("  FRED API key: (not set)\n")
	}
	cmd.Printf("  Rate limit: %g req/s\n", s.Market.RateLimit)
	cmd.Println()

	cmd.Println("[Feeds]")
	cmd.Printf("  Max items per feed: %d\n", s.Feeds.MaxItemsPerFeed)
	cmd.Printf("  Workers: %d\n", s.Feeds.Workers)
	cmd.Printf("  Timeout: %s\n", s.Feeds.Timeout)
	cmd.Printf("  Retries: %d\n", s.Feeds.Retries)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  TTL: %s\n", s.Cache.TTL)
	cmd.Println()

	if s.EDGAR.UserAgent == "" {
		cmd.Println("Filing commands need edgar.user_agent. Run 'finkit settings wizard'.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsUnavailable
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	value := args[1]
	if strings.EqualFold(args[0], domain.KeyFREDAPIKey) {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", strings.ToLower(args[0]), value)
	return nil
}

func runSettingsUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsUnavailable
	}
	if err := settingsService.Unset(args[0]); err != nil {
		return err
	}
	cmd.Printf("%s restored to default\n", strings.ToLower(args[0]))
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsUnavailable
	}
	current, err := settingsService.Get()
	if err != nil {
		return err
	}

	cmd.Println("finkit Settings Wizard")
	cmd.Println("======================")
	cmd.Println()
	reader := bufio.NewReader(os.Stdin)

	cmd.Println("SEC EDGAR asks every client to identify itself with a name and email.")
	if current.EDGAR.UserAgent != "" {
		cmd.Printf("User-Agent [%s]: ", current.EDGAR.UserAgent)
	} else {
		cmd.Print("User-Agent (e.g. \"Jane Doe jane@example.com\"): ")
	}
	if ua := readLine(reader); ua != "" {
		if err := settingsService.Set(domain.KeyEDGARUserAgent, ua); err != nil {
			return fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	cmd.Println()

	cmd.Println("FRED data needs a free API key from https://fred.stlouisfed.org/docs/api/api_key.html")
	if current.Market.FREDAPIKey != "" {
		cmd.Printf("FRED API key [%s]: ", maskAPIKey(current.Market.FREDAPIKey))
	} else {
		cmd.Print("FRED API key (leave empty to skip): ")
	}
	if key := readPassword(); key != "" {
		if err := settingsService.Set(domain.KeyFREDAPIKey, key); err != nil {
			return fmt.Errorf("failed to set FRED API key: %w", err)
		}
	}
	cmd.Println()
	cmd.Printf("Saved to %s\n", settingsService.Path())
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
