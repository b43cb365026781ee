package scanner

import (
	"context"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// preseedRow is a fully enriched liquidation as an earlier pass would
// have written it.
func preseedRow(block uint64, tx common.Hash) *csvstore.Row {
	return &csvstore.Row{
		Block:              block,
		Timestamp:          1_700_000_000,
		DatetimeUTC:        "2023-11-14 22:13:20",
		CollateralAsset:    wethAddr.Hex(),
		DebtAsset:          usdcAddr.Hex(),
		User:               userAddr.Hex(),
		Liquidator:         liqAddr.Hex(),
		CollateralOut:      "1.50000000",
		DebtToCover:        "1000.00000000",
		CollateralSymbol:   "WETH",
		DebtSymbol:         "USDC",
		CollateralPriceUSD: "2000.00000000",
		DebtPriceUSD:       "2000.00000000",
		CollateralValueUSD: "3000.00",
		DebtValueUSD:       "2000000.00",
		Tx:                 tx.Hex(),
		BlockBuilder:       "0x3333333333333333333333333333333333333333",
		GasUsed:            "250000",
		GasPriceGwei:       "2.00",
		EthPriceUSD:        "1850.00000000",
	}
}

func TestCoverage(t *testing.T) {
	records := [][]string{
		rawRow(map[string]string{csvstore.ColBlock: "105", csvstore.ColTx: "0xAA"}),
		rawRow(map[string]string{csvstore.ColBlock: "", csvstore.ColTx: ""}),
		rawRow(map[string]string{csvstore.ColBlock: "bad", csvstore.ColTx: "0xbb"}),
		rawRow(map[string]string{csvstore.ColBlock: "101", csvstore.ColTx: "0xcc"}),
	}
	minBlock, maxBlock, existing, ok := coverage(csvstore.FieldOrder, records)
	require.True(t, ok)
	assert.Equal(t, uint64(101), minBlock)
	assert.Equal(t, uint64(105), maxBlock)
	assert.Len(t, existing, 3)
	assert.Contains(t, existing, "0xaa")
	assert.Contains(t, existing, "0xbb")
	assert.Contains(t, existing, "0xcc")

	_, _, _, ok = coverage(csvstore.FieldOrder, [][]string{
		rawRow(map[string]string{csvstore.ColBlock: "", csvstore.ColTx: "0xdd"}),
	})
	assert.False(t, ok)
}

func TestValidateMissingCSVStartsScan(t *testing.T) {
	cfg := testConfig()
	sc := newStubChain(t, 103)
	srv := sc.serve()

	dataDir := t.TempDir()
	s := newTestScanner(t, cfg, dataDir, srv.URL)
	require.NoError(t, s.ValidateAndFillGaps(context.Background()))

	header, records, err := s.store.ReadRecords()
	require.NoError(t, err)
	assert.Equal(t, csvstore.FieldOrder, header)
	assert.Empty(t, records)

	var cp checkpoint
	readJSON(t, filepath.Join(dataDir, cfg.CheckpointName), &cp)
	assert.Equal(t, uint64(103), cp.LastScannedBlock)
}

func TestValidateEmptyCSVStartsFresh(t *testing.T) {
	cfg := testConfig()
	tx := common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000a01")

	sc := newStubChain(t, 103)
	topic := crypto.Keccak256Hash([]byte(cfg.LiquidationEventSignature))
	sc.addLiquidation(topic, 103, tx, wethAddr, usdcAddr,
		big.NewInt(1_000_000_000), big.NewInt(1_000_000_000_000_000_000))
	sc.servePrices(cfg, 2_000, 1_850)
	srv := sc.serve()

	dataDir := t.TempDir()
	s := newTestScanner(t, cfg, dataDir, srv.URL)
	require.NoError(t, s.store.Ensure())
	require.NoError(t, s.ValidateAndFillGaps(context.Background()))

	header, records, err := s.store.ReadRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	idx := csvstore.HeaderIndex(header)
	assert.Equal(t, "103", csvstore.Field(records[0], idx, csvstore.ColBlock))
	assert.Equal(t, strings.ToLower(tx.Hex()), csvstore.Field(records[0], idx, csvstore.ColTx))
}

func TestValidateAppendsMissedEvents(t *testing.T) {
	cfg := testConfig()
	known := common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000a02")
	missed := common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000a03")

	sc := newStubChain(t, 105)
	topic := crypto.Keccak256Hash([]byte(cfg.LiquidationEventSignature))
	sc.addLiquidation(topic, 105, known, wethAddr, usdcAddr,
		big.NewInt(1_000_000_000), big.NewInt(1_500_000_000_000_000_000))
	// An event below the CSV's last block that a normal resume would
	// never revisit.
	sc.addLiquidation(topic, 103, missed, wethAddr, usdcAddr,
		big.NewInt(2_000_000_000), big.NewInt(1_000_000_000_000_000_000))
	sc.servePrices(cfg, 2_000, 1_850)
	srv := sc.serve()

	dataDir := t.TempDir()
	s := newTestScanner(t, cfg, dataDir, srv.URL)
	require.NoError(t, s.store.Ensure())
	ok, err := s.store.AppendIfNew(preseedRow(105, known))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.ValidateAndFillGaps(context.Background()))

	header, records, err := s.store.ReadRecords()
	require.NoError(t, err)
	require.Len(t, records, 2)
	idx := csvstore.HeaderIndex(header)
	assert.Equal(t, strings.ToLower(known.Hex()), csvstore.Field(records[0], idx, csvstore.ColTx))

	filled := records[1]
	assert.Equal(t, "103", csvstore.Field(filled, idx, csvstore.ColBlock))
	assert.Equal(t, strings.ToLower(missed.Hex()), csvstore.Field(filled, idx, csvstore.ColTx))
	assert.Equal(t, "WETH", csvstore.Field(filled, idx, csvstore.ColCollateralSymbol))
	assert.Equal(t, "2000.00000000", csvstore.Field(filled, idx, csvstore.ColCollateralPrice))
	assert.Equal(t, "1850.00000000", csvstore.Field(filled, idx, csvstore.ColEthPrice))
}

func TestValidateNoGapsStaysAtTip(t *testing.T) {
	cfg := testConfig()
	known := common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000a04")

	sc := newStubChain(t, 105)
	topic := crypto.Keccak256Hash([]byte(cfg.LiquidationEventSignature))
	sc.addLiquidation(topic, 105, known, wethAddr, usdcAddr,
		big.NewInt(1_000_000_000), big.NewInt(1_500_000_000_000_000_000))
	srv := sc.serve()

	dataDir := t.TempDir()
	s := newTestScanner(t, cfg, dataDir, srv.URL)
	require.NoError(t, s.store.Ensure())
	ok, err := s.store.AppendIfNew(preseedRow(105, known))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.ValidateAndFillGaps(context.Background()))

	// One deep-scan query over the whole known span and no catch-up scan.
	assert.Equal(t, []uint64{6}, sc.logSpans())

	_, records, err := s.store.ReadRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
