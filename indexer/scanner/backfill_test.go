package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawRow builds a canonical-width record from named columns.
func rawRow(vals map[string]string) []string {
	rec := make([]string, len(csvstore.FieldOrder))
	for i, name := range csvstore.FieldOrder {
		rec[i] = vals[name]
	}
	return rec
}

func TestPriceMissing(t *testing.T) {
	tests := []struct {
		value   string
		missing bool
	}{
		{"", true},
		{"  ", true},
		{"0", true},
		{" 0 ", true},
		{"0.0", true},
		{"0.00000000", true},
		{"n/a", true},
		{"12.5", false},
		{"0.00000001", false},
		{"2000.00000000", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.missing, priceMissing(tt.value), "value %q", tt.value)
	}
}

func TestVerifyStoredValues(t *testing.T) {
	s := &Scanner{cfg: testConfig()}
	idx := csvstore.HeaderIndex(csvstore.FieldOrder)

	records := [][]string{
		// Consistent on both sides.
		rawRow(map[string]string{
			csvstore.ColBlock:           "101",
			csvstore.ColCollateralOut:   "1.50000000",
			csvstore.ColCollateralPrice: "2000.00000000",
			csvstore.ColCollateralValue: "3000.00",
			csvstore.ColDebtToCover:     "500.00000000",
			csvstore.ColDebtPrice:       "1.00000000",
			csvstore.ColDebtValue:       "500.00",
		}),
		// Off by more than both tolerances.
		rawRow(map[string]string{
			csvstore.ColBlock:           "102",
			csvstore.ColCollateralOut:   "1.50000000",
			csvstore.ColCollateralPrice: "2000.00000000",
			csvstore.ColCollateralValue: "3100.00",
		}),
		// Within the absolute tolerance.
		rawRow(map[string]string{
			csvstore.ColBlock:           "103",
			csvstore.ColCollateralOut:   "1.50000000",
			csvstore.ColCollateralPrice: "2000.00000000",
			csvstore.ColCollateralValue: "3000.005",
		}),
		// Large absolute drift but tiny relative drift.
		rawRow(map[string]string{
			csvstore.ColBlock:           "104",
			csvstore.ColCollateralOut:   "500.00000000",
			csvstore.ColCollateralPrice: "2000.00000000",
			csvstore.ColCollateralValue: "1000050.00",
		}),
		// Computable but never stored.
		rawRow(map[string]string{
			csvstore.ColBlock:           "105",
			csvstore.ColDebtToCover:     "1000.00000000",
			csvstore.ColDebtPrice:       "1.00000000",
		}),
	}

	issues := s.verifyStoredValues(records, idx)
	require.Len(t, issues, 2)

	assert.Equal(t, "value_mismatch", issues[0].Type)
	assert.Equal(t, 1, issues[0].Index)
	assert.Contains(t, issues[0].Error, "collateral_value mismatch")
	assert.Contains(t, issues[0].Error, "stored=3100.00")
	assert.Contains(t, issues[0].Error, "expected=3000.00")

	assert.Equal(t, "value_mismatch", issues[1].Type)
	assert.Equal(t, 4, issues[1].Index)
	assert.Contains(t, issues[1].Error, "debt_value missing: expected=1000.00")
}

func TestBackfillMissingPrices(t *testing.T) {
	cfg := testConfig()
	sc := newStubChain(t, 105)
	sc.servePrices(cfg, 2_000, 1_850)
	srv := sc.serve()

	dataDir := t.TempDir()
	s := newTestScanner(t, cfg, dataDir, srv.URL)
	require.NoError(t, s.store.Ensure())

	rows := [][]string{
		rawRow(map[string]string{
			csvstore.ColBlock:            "101",
			csvstore.ColCollateralAsset:  wethAddr.Hex(),
			csvstore.ColDebtAsset:        usdcAddr.Hex(),
			csvstore.ColCollateralSymbol: "WETH",
			csvstore.ColDebtSymbol:       "USDC",
			csvstore.ColCollateralOut:    "1.50000000",
			csvstore.ColDebtToCover:      "500.00000000",
			csvstore.ColCollateralPrice:  "2000.00000000",
			csvstore.ColDebtPrice:        "1.00000000",
			csvstore.ColCollateralValue:  "3000.00",
			csvstore.ColDebtValue:        "500.00",
			csvstore.ColEthPrice:         "1850.00000000",
			csvstore.ColTx:               "0x00000000000000000000000000000000000000000000000000000000000000f1",
		}),
		rawRow(map[string]string{
			csvstore.ColBlock:            "103",
			csvstore.ColCollateralAsset:  wethAddr.Hex(),
			csvstore.ColDebtAsset:        usdcAddr.Hex(),
			csvstore.ColCollateralSymbol: "WETH",
			csvstore.ColDebtSymbol:       "USDC",
			csvstore.ColCollateralOut:    "2.00000000",
			csvstore.ColDebtToCover:      "1000.00000000",
			csvstore.ColDebtPrice:        "1.00000000",
			csvstore.ColDebtValue:        "1000.00",
			csvstore.ColEthPrice:         "0",
			csvstore.ColTx:               "0x00000000000000000000000000000000000000000000000000000000000000f2",
		}),
		rawRow(map[string]string{
			csvstore.ColCollateralSymbol: "WETH",
			csvstore.ColDebtSymbol:       "USDC",
			csvstore.ColTx:               "0x00000000000000000000000000000000000000000000000000000000000000f3",
		}),
	}
	require.NoError(t, s.store.OverwriteRecords(csvstore.FieldOrder, rows))

	require.NoError(t, s.BackfillMissingPrices(context.Background()))

	header, records, err := s.store.ReadRecords()
	require.NoError(t, err)
	require.Len(t, records, 3)
	idx := csvstore.HeaderIndex(header)

	// The complete row is untouched.
	assert.Equal(t, "2000.00000000", csvstore.Field(records[0], idx, csvstore.ColCollateralPrice))
	assert.Equal(t, "3000.00", csvstore.Field(records[0], idx, csvstore.ColCollateralValue))

	// The fixable row got its collateral and ETH prices re-resolved and
	// the collateral value recomputed; the intact debt side is untouched.
	assert.Equal(t, "2000.00000000", csvstore.Field(records[1], idx, csvstore.ColCollateralPrice))
	assert.Equal(t, "4000.00", csvstore.Field(records[1], idx, csvstore.ColCollateralValue))
	assert.Equal(t, "1850.00000000", csvstore.Field(records[1], idx, csvstore.ColEthPrice))
	assert.Equal(t, "1.00000000", csvstore.Field(records[1], idx, csvstore.ColDebtPrice))
	assert.Equal(t, "1000.00", csvstore.Field(records[1], idx, csvstore.ColDebtValue))

	var report validationReport
	readJSON(t, filepath.Join(dataDir, cfg.ValidationReportName), &report)
	assert.Equal(t, 1, report.FixedCount)
	assert.Equal(t, 1, report.StillMissing)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "missing_block", report.Issues[0].Type)
	assert.Equal(t, 2, report.Issues[0].Index)
	assert.Equal(t, "0x00000000000000000000000000000000000000000000000000000000000000f3", report.Issues[0].Row["tx"])
	assert.NotZero(t, report.Timestamp)
}

func TestBackfillNoMissingPricesWritesNoReport(t *testing.T) {
	cfg := testConfig()
	sc := newStubChain(t, 105)
	srv := sc.serve()

	dataDir := t.TempDir()
	s := newTestScanner(t, cfg, dataDir, srv.URL)
	require.NoError(t, s.store.Ensure())
	require.NoError(t, s.store.OverwriteRecords(csvstore.FieldOrder, [][]string{
		rawRow(map[string]string{
			csvstore.ColBlock:           "101",
			csvstore.ColCollateralPrice: "2000.00000000",
			csvstore.ColDebtPrice:       "1.00000000",
			csvstore.ColEthPrice:        "1850.00000000",
			csvstore.ColTx:              "0x00000000000000000000000000000000000000000000000000000000000000f4",
		}),
	}))

	require.NoError(t, s.BackfillMissingPrices(context.Background()))

	_, err := os.Stat(filepath.Join(dataDir, cfg.ValidationReportName))
	assert.True(t, os.IsNotExist(err))

	_, records, err := s.store.ReadRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
