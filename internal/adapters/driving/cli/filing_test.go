package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

func TestFilingCmd_Unavailable(t *testing.T) {
	SetServices(Services{})

	_, err := executeCommand(t, "filing", "company", "AAPL")

	assert.ErrorIs(t, err, errFilingUnavailable)
}

func TestFilingCmd_Company(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "filing", "company", "aapl")

	require.NoError(t, err)
	assert.Contains(t, out, "AAPL  CIK 0000320193  Apple Inc.")
}

func TestFilingCmd_CompanyUnknown(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "filing", "company", "ZZZZ")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFilingCmd_ListDefaultsToAnnual(t *testing.T) {
	ts := setupTestServices(t)

	out, err := executeCommand(t, "filing", "list", "AAPL")

	require.NoError(t, err)
	assert.Equal(t, domain.FormAnnual, ts.filing.lastForm)
	assert.Contains(t, out, "0000320193-23-000106")
	assert.Contains(t, out, "2023-11-03")
}

func TestFilingCmd_ListEmpty(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "filing", "list", "aapl", "--form", domain.FormCurrent)

	require.NoError(t, err)
	assert.Contains(t, out, "No 8-K filings found for AAPL")
}

func TestFilingCmd_Get(t *testing.T) {
	ts := setupTestServices(t)

	out, err := executeCommand(t, "filing", "get", "AAPL", "-f", domain.FormQuarterly)

	require.NoError(t, err)
	assert.Equal(t, domain.FormQuarterly, ts.filing.lastForm)
	assert.Contains(t, out, "Apple Inc. 10-Q filed 2023-11-03")
	assert.Contains(t, out, "https://www.sec.gov/Archives/edgar/data/320193/000032019323000106/aapl-20230930.htm")
	assert.Contains(t, out, "item_1a")
}

func TestFilingCmd_SectionRaw(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "filing", "section", "AAPL", "1A", "--raw")

	require.NoError(t, err)
	assert.Contains(t, out, "## Item 1A. Risk Factors")
	assert.Contains(t, out, "Competition is intense.")
}

func TestFilingCmd_SectionJSON(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "filing", "section", "AAPL", "item 1", "--json")
	require.NoError(t, err)

	var s domain.Section
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "item_1", s.Key)
}

func TestFilingCmd_SectionMissing(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "filing", "section", "AAPL", "7")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFilingCmd_BatchReportsFailures(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "filing", "batch", "AAPL", "ZZZZ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 tickers failed")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "ZZZZ")
	assert.Contains(t, out, "ok")
}

func TestFilingCmd_BatchJSON(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "filing", "batch", "AAPL", "--json")
	require.NoError(t, err)

	var rows []struct {
		Ticker   string   `json:"ticker"`
		Sections []string `json:"sections"`
		Error    string   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "AAPL", rows[0].Ticker)
	assert.Equal(t, []string{"item_1", "item_1a"}, rows[0].Sections)
	assert.Empty(t, rows[0].Error)
}
