// Package cli implements the finkit command line with cobra.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/finkit/internal/core/ports/driving"
	"github.com/custodia-labs/finkit/internal/logger"
	"github.com/custodia-labs/finkit/internal/strategy"
)

// version is set at build time via SetVersion.
var version = "dev"

// verbose enables debug logging for every command.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "finkit",
	Short: "Financial data toolkit",
	Long: `finkit fetches SEC filings, market and FRED data, manages RSS feeds,
and runs factor and risk analysis from the terminal.

Data is kept under $FINKIT_HOME (default ~/.finkit).`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// PortfolioStore persists portfolios for the portfolio commands.
type PortfolioStore interface {
	Load(ctx context.Context, name string) (*strategy.Portfolio, error)
	Save(ctx context.Context, p *strategy.Portfolio) error
	Update(ctx context.Context, name string, fn func(*strategy.Portfolio) error) error
	Delete(ctx context.Context, name string) error
	List() ([]string, error)
}

// Services bundles the core services commands run against.
// Nil fields leave the corresponding commands unconfigured.
type Services struct {
	Filing     driving.FilingService
	Market     driving.MarketService
	Feed       driving.FeedService
	Settings   driving.SettingsService
	Portfolios PortfolioStore
}

var (
	filingService   driving.FilingService
	marketService   driving.MarketService
	feedService     driving.FeedService
	settingsService driving.SettingsService
	portfolioStore  PortfolioStore
)

// SetServices injects the services used by all commands.
func SetServices(s Services) {
	filingService = s.Filing
	marketService = s.Market
	feedService = s.Feed
	settingsService = s.Settings
	portfolioStore = s.Portfolios
}

// SetVersion sets the version string reported by `finkit version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

var (
	errFilingUnavailable    = errors.New("filing service not configured")
	errMarketUnavailable    = errors.New("market service not configured")
	errFeedUnavailable      = errors.New("feed service not configured")
	errSettingsUnavailable  = errors.New("settings service not configured")
	errPortfolioUnavailable = errors.New("portfolio store not configured")
)
