// Command finkit is a financial data toolkit: SEC filings, market and FRED
// data, RSS feeds, factor and risk analysis.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/finkit/internal/adapters/driven/config/file"
	"github.com/custodia-labs/finkit/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/finkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/finkit/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/finkit/internal/adapters/driving/cli"
	"github.com/custodia-labs/finkit/internal/connectors/edgar"
	"github.com/custodia-labs/finkit/internal/connectors/fred"
	"github.com/custodia-labs/finkit/internal/connectors/rss"
	"github.com/custodia-labs/finkit/internal/connectors/yahoo"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
	"github.com/custodia-labs/finkit/internal/core/services"
	"github.com/custodia-labs/finkit/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	base, err := file.BaseDir()
	if err != nil {
		logger.Error(err, "resolving finkit directory")
		return err
	}

	configStore, err := file.NewConfigStore(base)
	if err != nil {
		logger.Error(err, "loading config")
		return err
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		// Keep going so 'finkit settings set' can repair the file.
		logger.Warn("invalid settings, using defaults: %v", err)
		defaults := settingsService.Defaults()
		settings = &defaults
	}

	var cache driven.CacheStore
	db, err := sqlite.NewStore(filepath.Join(base, "data"))
	if err != nil {
		logger.Warn("cache database unavailable, caching in memory: %v", err)
		cache = memory.NewCacheStore()
	} else {
		defer db.Close()
		cache = db.CacheStore()
	}

	var edgarClient driven.EDGARClient
	if c, err := edgar.NewClient(settings.EDGAR.UserAgent, settings.EDGAR.RateLimit); err != nil {
		logger.Debug("EDGAR disabled: %v", err)
	} else {
		edgarClient = c
	}

	var seriesClient driven.SeriesClient
	if c, err := fred.NewClient(settings.Market.FREDAPIKey, settings.Market.RateLimit, ""); err != nil {
		logger.Debug("FRED disabled: %v", err)
	} else {
		seriesClient = c
	}

	feedStore, err := jsonfile.NewFeedStore(filepath.Join(base, "feeds"))
	if err != nil {
		logger.Error(err, "opening feed store")
		return err
	}
	portfolios, err := jsonfile.NewPortfolioStore(filepath.Join(base, "portfolios"))
	if err != nil {
		logger.Error(err, "opening portfolio store")
		return err
	}

	cli.SetServices(cli.Services{
		Filing: services.NewFilingService(edgarClient, cache, services.FilingConfig{
			Workers:     settings.EDGAR.Workers,
			MetaTTL:     settings.Cache.TTL,
			DocumentTTL: settings.EDGAR.FilingTTL,
		}),
		Market: services.NewMarketService(
			seriesClient,
			yahoo.NewClient(settings.Market.RateLimit, ""),
			cache,
			settings.Cache.TTL,
		),
		Feed: services.NewFeedService(
			feedStore,
			rss.NewFetcher(settings.Feeds.Timeout, settings.Feeds.Retries),
			services.FeedConfig{
				MaxItems:   settings.Feeds.MaxItemsPerFeed,
				Workers:    settings.Feeds.Workers,
				FetchOnAdd: true,
			},
		),
		Settings:   settingsService,
		Portfolios: portfolios,
	})
	cli.SetVersion(version)

	return cli.Execute(ctx)
}
