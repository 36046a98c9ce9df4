package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/strategy"
)

var portfolioCmd = &cobra.Command{
	Use:     "portfolio",
	Aliases: []string{"pf"},
	Short:   "Manage portfolios and rebalance to target weights",
	Long: `Create portfolios, record holdings and cash, set target weights and
compute rebalancing trades.

Prices come from the market cache (latest adjusted close) unless given with
--price SYMBOL=PRICE.`,
}

var portfolioCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an empty portfolio",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortfolioCreate,
}

var portfolioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List portfolios",
	Args:  cobra.NoArgs,
	RunE:  runPortfolioList,
}

var portfolioShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show holdings, value and weights",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortfolioShow,
}

var portfolioAddCmd = &cobra.Command{
	Use:   "add [name] [symbol] [quantity]",
	Short: "Add to (or with a negative quantity, reduce) a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runPortfolioAdd,
}

var portfolioCashCmd = &cobra.Command{
	Use:   "cash [name] [amount]",
	Short: "Deposit (or with a negative amount, withdraw) cash",
	Args:  cobra.ExactArgs(2),
	RunE:  runPortfolioCash,
}

var portfolioTargetCmd = &cobra.Command{
	Use:   "target [name] [symbol=weight...]",
	Short: "Set target weights",
	Long: `Set target weights. Weights are normalised to sum to 1, so
"AAPL=3 MSFT=1" means 75% / 25%. Use CASH=w to hold part of the value in cash.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPortfolioTarget,
}

var portfolioRebalanceCmd = &cobra.Command{
	Use:   "rebalance [name]",
	Short: "Compute the trades that reach the target weights",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortfolioRebalance,
}

var portfolioDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a portfolio",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortfolioDelete,
}

var (
	portfolioCurrency string
	portfolioCash     string
	portfolioPrices   map[string]string
	portfolioApply    bool
)

func init() {
	portfolioCreateCmd.Flags().StringVar(&portfolioCurrency, "currency", "USD", "ISO 4217 currency code")
	portfolioCreateCmd.Flags().StringVar(&portfolioCash, "cash", "0", "Initial cash")
	for _, c := range []*cobra.Command{portfolioShowCmd, portfolioRebalanceCmd} {
		c.Flags().StringToStringVar(&portfolioPrices, "price", nil, "Override prices, e.g. --price AAPL=190.5")
	}
	portfolioRebalanceCmd.Flags().BoolVar(&portfolioApply, "apply", false, "Book the trades into the portfolio")

	portfolioCmd.AddCommand(portfolioCreateCmd)
	portfolioCmd.AddCommand(portfolioListCmd)
	portfolioCmd.AddCommand(portfolioShowCmd)
	portfolioCmd.AddCommand(portfolioAddCmd)
	portfolioCmd.AddCommand(portfolioCashCmd)
	portfolioCmd.AddCommand(portfolioTargetCmd)
	portfolioCmd.AddCommand(portfolioRebalanceCmd)
	portfolioCmd.AddCommand(portfolioDeleteCmd)
	rootCmd.AddCommand(portfolioCmd)
}

func parseDecimal(label, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", domain.ErrInvalidInput, label, s)
	}
	return d, nil
}

func runPortfolioCreate(cmd *cobra.Command, args []string) error {
	if portfolioStore == nil {
		return errPortfolioUnavailable
	}
	if _, err := portfolioStore.Load(cmd.Context(), args[0]); err == nil {
		return fmt.Errorf("portfolio %s: %w", args[0], domain.ErrAlreadyExists)
	}
	p, err := strategy.New(args[0], portfolioCurrency)
	if err != nil {
		return err
	}
	if p.Cash, err = parseDecimal("cash", portfolioCash); err != nil {
		return err
	}
	if err := portfolioStore.Save(cmd.Context(), p); err != nil {
		return err
	}
	cmd.Printf("Created portfolio %s (%s)\n", p.Name, p.Currency)
	return nil
}

func runPortfolioList(cmd *cobra.Command, _ []string) error {
	if portfolioStore == nil {
		return errPortfolioUnavailable
	}
	names, err := portfolioStore.List()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), names)
	}
	if len(names) == 0 {
		cmd.Println("No portfolios. Create one with: finkit portfolio create <name>")
		return nil
	}
	for _, n := range names {
		cmd.Println(n)
	}
	return nil
}

func runPortfolioShow(cmd *cobra.Command, args []string) error {
	if portfolioStore == nil {
		return errPortfolioUnavailable
	}
	p, err := portfolioStore.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	prices, err := resolvePrices(cmd.Context(), p)
	if err != nil {
		return err
	}
	if jsonOutput {
		total, err := p.Value(prices)
		if err != nil {
			return err
		}
		weights, err := p.Weights(prices)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"portfolio": p,
			"value":     total,
			"weights":   weights,
		})
	}

	if len(p.Positions) == 0 && p.Cash.IsZero() {
		cmd.Printf("Portfolio %s is empty\n", p.Name)
		return nil
	}
	cmd.Printf("Portfolio %s (%s)\n", p.Name, p.Currency)
	if err := strategy.HoldingsTable(cmd.OutOrStdout(), p, prices); err != nil {
		return err
	}
	weights, err := p.Weights(prices)
	if err != nil {
		return err
	}
	cmd.Println()
	return strategy.WeightBars(cmd.OutOrStdout(), weights, strategy.TerminalWidth(os.Stdout))
}

func runPortfolioAdd(cmd *cobra.Command, args []string) error {
	if portfolioStore == nil {
		return errPortfolioUnavailable
	}
	qty, err := parseDecimal("quantity", args[2])
	if err != nil {
		return err
	}
	err = portfolioStore.Update(cmd.Context(), args[0], func(p *strategy.Portfolio) error {
		return p.Adjust(args[1], qty)
	})
	if err != nil {
		return err
	}
	cmd.Printf("%s: %s %s\n", args[0], strings.ToUpper(args[1]), qty.String())
	return nil
}

func runPortfolioCash(cmd *cobra.Command, args []string) error {
	if portfolioStore == nil {
		return errPortfolioUnavailable
	}
	amount, err := parseDecimal("amount", args[1])
	if err != nil {
		return err
	}
	var balance string
	err = portfolioStore.Update(cmd.Context(), args[0], func(p *strategy.Portfolio) error {
		next := p.Cash.Add(amount)
		if next.IsNegative() {
			return fmt.Errorf("%w: cash would be %s", domain.ErrInvalidInput, p.Format(next))
		}
		p.Cash = next
		balance = p.Format(next)
		return nil
	})
	if err != nil {
		return err
	}
	cmd.Printf("%s cash: %s\n", args[0], balance)
	return nil
}

func parseTargets(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		sym, w, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: target %q: want SYMBOL=WEIGHT", domain.ErrInvalidInput, pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: target %q: bad weight", domain.ErrInvalidInput, pair)
		}
		out[sym] = v
	}
	return out, nil
}

func runPortfolioTarget(cmd *cobra.Command, args []string) error {
	if portfolioStore == nil {
		return errPortfolioUnavailable
	}
	targets, err := parseTargets(args[1:])
	if err != nil {
		return err
	}
	var set map[string]float64
	err = portfolioStore.Update(cmd.Context(), args[0], func(p *strategy.Portfolio) error {
		if err := p.SetTargets(targets); err != nil {
			return err
		}
		set = p.Targets
		return nil
	})
	if err != nil {
		return err
	}

	syms := make([]string, 0, len(set))
	for s := range set {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	for _, s := range syms {
		cmd.Printf("%-8s %6.2f%%\n", s, set[s]*100)
	}
	return nil
}

func runPortfolioRebalance(cmd *cobra.Command, args []string) error {
	if portfolioStore == nil {
		return errPortfolioUnavailable
	}
	p, err := portfolioStore.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	prices, err := resolvePrices(cmd.Context(), p)
	if err != nil {
		return err
	}
	trades, err := p.Rebalance(prices)
	if err != nil {
		return err
	}

	if portfolioApply && len(trades) > 0 {
		err = portfolioStore.Update(cmd.Context(), p.Name, func(stored *strategy.Portfolio) error {
			return stored.Apply(trades)
		})
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), trades)
	}
	strategy.TradesTable(cmd.OutOrStdout(), p, trades)
	if portfolioApply && len(trades) > 0 {
		cmd.Printf("Applied %d trades to %s\n", len(trades), p.Name)
	}
	return nil
}

func runPortfolioDelete(cmd *cobra.Command, args []string) error {
	if portfolioStore == nil {
		return errPortfolioUnavailable
	}
	if err := portfolioStore.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted portfolio %s\n", args[0])
	return nil
}

// resolvePrices collects a price for every held or targeted symbol:
// --price overrides first, then the latest cached adjusted close.
func resolvePrices(ctx context.Context, p *strategy.Portfolio) (strategy.Prices, error) {
	prices := make(strategy.Prices)
	for sym, v := range portfolioPrices {
		d, err := parseDecimal("price for "+sym, v)
		if err != nil {
			return nil, err
		}
		prices[strings.ToUpper(sym)] = d
	}

	need := make(map[string]bool)
	for _, pos := range p.Positions {
		need[pos.Symbol] = true
	}
	for sym := range p.Targets {
		if sym != strategy.CashKey {
			need[sym] = true
		}
	}

	for sym := range need {
		if _, ok := prices[sym]; ok {
			continue
		}
		if marketService == nil {
			return nil, fmt.Errorf("no price for %s: pass --price %s=<price>", sym, sym)
		}
		r := domain.DateRange{Start: time.Now().AddDate(0, 0, -10)}
		bars, err := marketService.Prices(ctx, sym, r)
		if err != nil {
			return nil, fmt.Errorf("price for %s: %w", sym, err)
		}
		if len(bars) == 0 {
			return nil, fmt.Errorf("price for %s: %w", sym, domain.ErrNotFound)
		}
		prices[sym] = decimal.NewFromFloat(bars[len(bars)-1].AdjClose)
	}
	return prices, nil
}
