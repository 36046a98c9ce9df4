package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/strategy"
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Fetch cached market and economic data",
	Long: `Fetch daily prices from Yahoo Finance and economic series from FRED.

Responses are cached in SQLite for cache.ttl (default 24h). FRED needs an API key:
  finkit settings set market.fred_api_key <key>`,
}

var marketSeriesCmd = &cobra.Command{
	Use:   "series [series-id]",
	Short: "Show a FRED series",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarketSeries,
}

var marketPricesCmd = &cobra.Command{
	Use:   "prices [symbol]",
	Short: "Show daily price bars",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarketPrices,
}

var marketReturnsCmd = &cobra.Command{
	Use:   "returns [symbol]",
	Short: "Show daily simple returns",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarketReturns,
}

// marketTail limits table output to the most recent rows.
var marketTail int

func init() {
	for _, c := range []*cobra.Command{marketSeriesCmd, marketPricesCmd, marketReturnsCmd} {
		addDateFlags(c)
	}
	marketSeriesCmd.Flags().IntVarP(&marketTail, "tail", "n", 20, "Rows to print (0 = all)")
	marketPricesCmd.Flags().IntVarP(&marketTail, "tail", "n", 20, "Rows to print (0 = all)")

	marketCmd.AddCommand(marketSeriesCmd)
	marketCmd.AddCommand(marketPricesCmd)
	marketCmd.AddCommand(marketReturnsCmd)
	rootCmd.AddCommand(marketCmd)
}

func tail[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func runMarketSeries(cmd *cobra.Command, args []string) error {
	if marketService == nil {
		return errMarketUnavailable
	}
	r, err := dateRangeFlags(cmd)
	if err != nil {
		return err
	}
	s, err := marketService.Series(cmd.Context(), args[0], r)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), s)
	}

	title := s.ID
	if s.Title != "" {
		title += "  " + s.Title
	}
	cmd.Println(title)
	cmd.Println(strategy.Sparkline(s.Values(), strategy.TerminalWidth(os.Stdout)-2))

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Date", "Value"})
	for _, o := range tail(s.Observations, marketTail) {
		t.AppendRow(table.Row{formatDate(o.Date), o.Value})
	}
	t.AppendFooter(table.Row{"Observations", len(s.Observations)})
	t.Render()
	return nil
}

func runMarketPrices(cmd *cobra.Command, args []string) error {
	if marketService == nil {
		return errMarketUnavailable
	}
	r, err := dateRangeFlags(cmd)
	if err != nil {
		return err
	}
	bars, err := marketService.Prices(cmd.Context(), args[0], r)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), bars)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.AdjClose
	}
	cmd.Println(strings.ToUpper(args[0]))
	cmd.Println(strategy.Sparkline(closes, strategy.TerminalWidth(os.Stdout)-2))

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"})
	for _, b := range tail(bars, marketTail) {
		t.AppendRow(table.Row{
			formatDate(b.Date),
			fmt.Sprintf("%.2f", b.Open),
			fmt.Sprintf("%.2f", b.High),
			fmt.Sprintf("%.2f", b.Low),
			fmt.Sprintf("%.2f", b.Close),
			fmt.Sprintf("%.2f", b.AdjClose),
			b.Volume,
		})
	}
	t.Render()
	return nil
}

func runMarketReturns(cmd *cobra.Command, args []string) error {
	if marketService == nil {
		return errMarketUnavailable
	}
	r, err := dateRangeFlags(cmd)
	if err != nil {
		return err
	}
	rets, err := marketService.Returns(cmd.Context(), args[0], r)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), rets)
	}
	cmd.Printf("%s: %d returns\n", strings.ToUpper(args[0]), len(rets))
	cmd.Println(strategy.Sparkline(strategy.Cumulative(rets), strategy.TerminalWidth(os.Stdout)-2))
	return nil
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clean the data cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired entries",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

var cacheClearCmd = &cobra.Command{
	Use:       "clear [source]",
	Short:     "Delete cached entries",
	Long:      `Delete all cached entries, or only those of one source (fred, yahoo, edgar).`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{domain.SourceFRED, domain.SourceYahoo, domain.SourceEDGAR},
	RunE:      runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if marketService == nil {
		return errMarketUnavailable
	}
	st, err := marketService.CacheStats(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), st)
	}
	cmd.Printf("Entries: %d\n", st.Entries)
	cmd.Printf("Expired: %d\n", st.Expired)
	cmd.Printf("Size:    %d bytes\n", st.Bytes)
	return nil
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	if marketService == nil {
		return errMarketUnavailable
	}
	n, err := marketService.PurgeExpired(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Purged %d expired entries\n", n)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if marketService == nil {
		return errMarketUnavailable
	}
	source := ""
	if len(args) == 1 {
		source = strings.ToLower(args[0])
	}
	n, err := marketService.ClearCache(cmd.Context(), source)
	if err != nil {
		return err
	}
	if source == "" {
		cmd.Printf("Cleared %d entries\n", n)
	} else {
		cmd.Printf("Cleared %d %s entries\n", n, source)
	}
	return nil
}
