package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

func TestPortfolioCmd_Unavailable(t *testing.T) {
	SetServices(Services{})

	_, err := executeCommand(t, "portfolio", "list")

	assert.ErrorIs(t, err, errPortfolioUnavailable)
}

func TestPortfolioCmd_CreateListDelete(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "portfolio", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No portfolios.")

	out, err = executeCommand(t, "portfolio", "create", "core", "--currency", "eur", "--cash", "500")
	require.NoError(t, err)
	assert.Contains(t, out, "Created portfolio core (EUR)")

	_, err = executeCommand(t, "portfolio", "create", "core")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	out, err = executeCommand(t, "portfolio", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "core")

	out, err = executeCommand(t, "portfolio", "delete", "core")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted portfolio core")
}

func TestPortfolioCmd_CreateBadCurrency(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "portfolio", "create", "x", "--currency", "ZZZ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPortfolioCmd_PositionsAndCash(t *testing.T) {
	ts := setupTestServices(t)
	_, err := executeCommand(t, "portfolio", "create", "core", "--cash", "1000")
	require.NoError(t, err)

	out, err := executeCommand(t, "portfolio", "add", "core", "aapl", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "core: AAPL 10")

	_, err = executeCommand(t, "portfolio", "add", "core", "AAPL", "--", "-20")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = executeCommand(t, "portfolio", "add", "core", "AAPL", "ten")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err = executeCommand(t, "portfolio", "cash", "core", "--", "-250")
	require.NoError(t, err)
	assert.Contains(t, out, "core cash:")
	assert.Contains(t, out, "750")

	_, err = executeCommand(t, "portfolio", "cash", "core", "--", "-5000")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := ts.portfolios.Load(context.Background(), "core")
	require.NoError(t, err)
	require.Len(t, p.Positions, 1)
	assert.Equal(t, "750", p.Cash.String())
}

func TestPortfolioCmd_ShowWithPriceOverride(t *testing.T) {
	setupTestServices(t)
	_, err := executeCommand(t, "portfolio", "create", "core", "--cash", "1000")
	require.NoError(t, err)
	_, err = executeCommand(t, "portfolio", "add", "core", "MSFT", "4")
	require.NoError(t, err)

	out, err := executeCommand(t, "portfolio", "show", "core", "--price", "MSFT=250")
	require.NoError(t, err)
	assert.Contains(t, out, "Portfolio core (USD)")
	assert.Contains(t, out, "MSFT")

	_, err = executeCommand(t, "portfolio", "show", "core")
	assert.ErrorIs(t, err, domain.ErrNotFound, "MSFT has no cached prices")
}

func TestPortfolioCmd_ShowUsesMarketPrices(t *testing.T) {
	setupTestServices(t)
	_, err := executeCommand(t, "portfolio", "create", "core")
	require.NoError(t, err)
	_, err = executeCommand(t, "portfolio", "add", "core", "AAPL", "3")
	require.NoError(t, err)

	out, err := executeCommand(t, "portfolio", "show", "core", "--json")
	require.NoError(t, err)

	var got struct {
		Weights map[string]float64 `json:"weights"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 1.0, got.Weights["AAPL"], 1e-9)
}

func TestPortfolioCmd_ShowEmpty(t *testing.T) {
	setupTestServices(t)
	_, err := executeCommand(t, "portfolio", "create", "empty")
	require.NoError(t, err)

	out, err := executeCommand(t, "portfolio", "show", "empty")

	require.NoError(t, err)
	assert.Contains(t, out, "Portfolio empty is empty")
}

func TestPortfolioCmd_TargetAndRebalance(t *testing.T) {
	ts := setupTestServices(t)
	_, err := executeCommand(t, "portfolio", "create", "core", "--cash", "10000")
	require.NoError(t, err)
	_, err = executeCommand(t, "portfolio", "add", "core", "AAPL", "10")
	require.NoError(t, err)

	out, err := executeCommand(t, "portfolio", "target", "core", "AAPL=1", "CASH=1")
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "50.00%")

	_, err = executeCommand(t, "portfolio", "target", "core", "AAPL")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err = executeCommand(t, "portfolio", "rebalance", "core", "--price", "AAPL=100")
	require.NoError(t, err)
	assert.Contains(t, out, "buy")
	assert.Contains(t, out, "45")

	p, err := ts.portfolios.Load(context.Background(), "core")
	require.NoError(t, err)
	assert.Equal(t, "10", p.Positions[0].Quantity.String(), "dry run leaves holdings alone")

	out, err = executeCommand(t, "portfolio", "rebalance", "core", "--price", "AAPL=100", "--apply")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 1 trades to core")

	p, err = ts.portfolios.Load(context.Background(), "core")
	require.NoError(t, err)
	assert.Equal(t, "55", p.Positions[0].Quantity.String())
	assert.Equal(t, "5500", p.Cash.String())
}

func TestPortfolioCmd_RebalanceWithoutTargets(t *testing.T) {
	setupTestServices(t)
	_, err := executeCommand(t, "portfolio", "create", "core", "--cash", "100")
	require.NoError(t, err)

	_, err = executeCommand(t, "portfolio", "rebalance", "core")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
