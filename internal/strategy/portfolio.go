package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/custodia-labs/finkit/internal/analysis/factor"
	"github.com/custodia-labs/finkit/internal/core/domain"
)

// CashKey labels the cash line in Weights.
const CashKey = "CASH"

// QuantityPlaces is the precision trade quantities are truncated to.
const QuantityPlaces = 6

var validate = validator.New(validator.WithRequiredStructEnabled())

// Position is a holding of one symbol.
type Position struct {
	Symbol   string          `json:"symbol" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Portfolio is a named set of positions plus cash and optional target weights.
type Portfolio struct {
	Name      string             `json:"name" validate:"required"`
	Currency  string             `json:"currency" validate:"required,len=3"`
	Cash      decimal.Decimal    `json:"cash"`
	Positions []Position         `json:"positions" validate:"dive"`
	Targets   map[string]float64 `json:"targets,omitempty"`
}

// Prices maps symbols to unit prices in the portfolio currency.
type Prices map[string]decimal.Decimal

// Trade is an order produced by Rebalance. Positive Quantity buys.
type Trade struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

// Side returns "buy" or "sell".
func (t Trade) Side() string {
	if t.Quantity.IsNegative() {
		return "sell"
	}
	return "buy"
}

// New returns an empty portfolio. The currency must be an ISO 4217 code.
func New(name, currency string) (*Portfolio, error) {
	p := &Portfolio{Name: name, Currency: strings.ToUpper(currency)}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks required fields, the currency code and position symbols.
func (p *Portfolio) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: portfolio: %v", domain.ErrInvalidInput, err)
	}
	if money.GetCurrency(p.Currency) == nil {
		return fmt.Errorf("%w: unknown currency %q", domain.ErrInvalidInput, p.Currency)
	}
	seen := make(map[string]bool, len(p.Positions))
	for _, pos := range p.Positions {
		if seen[pos.Symbol] {
			return fmt.Errorf("%w: duplicate position %s", domain.ErrInvalidInput, pos.Symbol)
		}
		seen[pos.Symbol] = true
	}
	return nil
}

// Quantity returns the held quantity of symbol, zero if absent.
func (p *Portfolio) Quantity(symbol string) decimal.Decimal {
	symbol = normalizeSymbol(symbol)
	for _, pos := range p.Positions {
		if pos.Symbol == symbol {
			return pos.Quantity
		}
	}
	return decimal.Zero
}

// Adjust adds qty (negative to reduce) to the position in symbol. Positions
// that reach zero are removed; going short is rejected.
func (p *Portfolio) Adjust(symbol string, qty decimal.Decimal) error {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", domain.ErrInvalidInput)
	}
	for i := range p.Positions {
		if p.Positions[i].Symbol != symbol {
			continue
		}
		next := p.Positions[i].Quantity.Add(qty)
		if next.IsNegative() {
			return fmt.Errorf("%w: %s would go short (%s)", domain.ErrInvalidInput, symbol, next)
		}
		if next.IsZero() {
			p.Positions = append(p.Positions[:i], p.Positions[i+1:]...)
			return nil
		}
		p.Positions[i].Quantity = next
		return nil
	}
	if qty.IsNegative() {
		return fmt.Errorf("%w: %s is not held", domain.ErrInvalidInput, symbol)
	}
	if !qty.IsZero() {
		p.Positions = append(p.Positions, Position{Symbol: symbol, Quantity: qty})
		sort.Slice(p.Positions, func(i, j int) bool { return p.Positions[i].Symbol < p.Positions[j].Symbol })
	}
	return nil
}

// Value returns cash plus the marked value of every position.
func (p *Portfolio) Value(prices Prices) (decimal.Decimal, error) {
	total := p.Cash
	for _, pos := range p.Positions {
		price, err := prices.lookup(pos.Symbol)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(pos.Quantity.Mul(price))
	}
	return total, nil
}

// Weights returns each position's share of total value, with cash under
// CashKey when non-zero.
func (p *Portfolio) Weights(prices Prices) (map[string]float64, error) {
	total, err := p.Value(prices)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: portfolio value is %s", domain.ErrInsufficientData, total)
	}

	w := make(map[string]float64, len(p.Positions)+1)
	for _, pos := range p.Positions {
		price, _ := prices.lookup(pos.Symbol)
		w[pos.Symbol] = pos.Quantity.Mul(price).Div(total).InexactFloat64()
	}
	if !p.Cash.IsZero() {
		w[CashKey] = p.Cash.Div(total).InexactFloat64()
	}
	return w, nil
}

// SetTargets replaces the target weights, normalised to sum to 1.
// A CashKey entry reserves that share of value as cash.
func (p *Portfolio) SetTargets(targets map[string]float64) error {
	if len(targets) == 0 {
		return fmt.Errorf("%w: no target weights", domain.ErrInvalidInput)
	}
	symbols := make([]string, 0, len(targets))
	raw := make(map[string]float64, len(targets))
	for sym, w := range targets {
		sym = normalizeSymbol(sym)
		if sym == "" {
			return fmt.Errorf("%w: empty symbol in targets", domain.ErrInvalidInput)
		}
		if _, dup := raw[sym]; dup {
			return fmt.Errorf("%w: duplicate target %s", domain.ErrInvalidInput, sym)
		}
		raw[sym] = w
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	weights := make([]float64, len(symbols))
	for i, sym := range symbols {
		weights[i] = raw[sym]
	}
	norm, err := factor.NormalizeWeights(weights)
	if err != nil {
		return fmt.Errorf("target weights: %w", err)
	}

	p.Targets = make(map[string]float64, len(symbols))
	for i, sym := range symbols {
		p.Targets[sym] = norm[i]
	}
	return nil
}

// Rebalance returns the trades that move current holdings to the target
// weights at the given prices. Holdings without a target are sold. Quantities
// are truncated to QuantityPlaces, so buys never exceed available value.
// Sells come first, then buys, each ordered by symbol.
func (p *Portfolio) Rebalance(prices Prices) ([]Trade, error) {
	if len(p.Targets) == 0 {
		return nil, fmt.Errorf("%w: portfolio %s has no targets", domain.ErrInvalidInput, p.Name)
	}
	total, err := p.Value(prices)
	if err != nil {
		return nil, err
	}

	symbols := make(map[string]bool)
	for sym := range p.Targets {
		if sym != CashKey {
			symbols[sym] = true
		}
	}
	for _, pos := range p.Positions {
		symbols[pos.Symbol] = true
	}

	var trades []Trade
	for sym := range symbols {
		price, err := prices.lookup(sym)
		if err != nil {
			return nil, err
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("%w: price for %s is %s", domain.ErrInvalidInput, sym, price)
		}
		target := total.Mul(decimal.NewFromFloat(p.Targets[sym]))
		current := p.Quantity(sym).Mul(price)
		qty := target.Sub(current).Div(price).Truncate(QuantityPlaces)
		if qty.IsZero() {
			continue
		}
		trades = append(trades, Trade{Symbol: sym, Quantity: qty, Value: qty.Mul(price)})
	}

	sort.Slice(trades, func(i, j int) bool {
		si, sj := trades[i].Quantity.IsNegative(), trades[j].Quantity.IsNegative()
		if si != sj {
			return si
		}
		return trades[i].Symbol < trades[j].Symbol
	})
	return trades, nil
}

// Apply books trades against positions and cash.
func (p *Portfolio) Apply(trades []Trade) error {
	for _, t := range trades {
		if err := p.Adjust(t.Symbol, t.Quantity); err != nil {
			return err
		}
		p.Cash = p.Cash.Sub(t.Value)
	}
	return nil
}

// Format renders amount in the portfolio currency, e.g. "$1,234.50".
func (p *Portfolio) Format(amount decimal.Decimal) string {
	return FormatMoney(amount, p.Currency)
}

// FormatMoney renders amount with the currency's symbol and minor units.
// Unknown currencies fall back to "<amount> <code>".
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

func (pr Prices) lookup(symbol string) (decimal.Decimal, error) {
	price, ok := pr[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no price for %s", domain.ErrNotFound, symbol)
	}
	return price, nil
}

// PricesFromFloats converts float prices, upper-casing symbols.
func PricesFromFloats(m map[string]float64) Prices {
	out := make(Prices, len(m))
	for sym, v := range m {
		out[normalizeSymbol(sym)] = decimal.NewFromFloat(v)
	}
	return out
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
