package csvstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRow(block uint64, tx string) *Row {
	return &Row{
		Block:            block,
		Timestamp:        1673481600,
		DatetimeUTC:      "2023-01-12 00:00:00",
		CollateralAsset:  "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		DebtAsset:        "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		User:             "0x1111111111111111111111111111111111111111",
		Liquidator:       "0x2222222222222222222222222222222222222222",
		CollateralOut:    "1.50000000",
		DebtToCover:      "2000.00000000",
		CollateralSymbol: "WETH",
		DebtSymbol:       "DAI",
		Tx:               tx,
	}
}

func TestStoreEnsureCreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aave", "liquidations.csv")
	s := NewStore(path)
	require.NoError(t, s.Ensure())

	header, records, err := s.ReadRecords()
	require.NoError(t, err)
	assert.Equal(t, FieldOrder, header)
	assert.Equal(t, 0, len(records))
}

func TestStoreEnsureKeepsExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidations.csv")
	s := NewStore(path)
	require.NoError(t, s.Ensure())

	ok, err := s.AppendIfNew(testRow(17000000, "0xaaa"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Ensure())
	_, records, err := s.ReadRecords()
	require.NoError(t, err)
	assert.Equal(t, 1, len(records))
}

func TestStoreAppendIfNewSkipsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidations.csv")
	s := NewStore(path)
	require.NoError(t, s.Ensure())

	ok, err := s.AppendIfNew(testRow(17000000, "0xABCDEF"))
	require.NoError(t, err)
	assert.True(t, ok)

	// Same hash with different casing counts as the same transaction.
	ok, err = s.AppendIfNew(testRow(17000001, "0xabcdef"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.AppendIfNew(testRow(17000002, "0x123456"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, records, err := s.ReadRecords()
	require.NoError(t, err)
	assert.Equal(t, 2, len(records))
}

func TestStoreAppendIfNewEmptyTxAlwaysAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidations.csv")
	s := NewStore(path)
	require.NoError(t, s.Ensure())

	for i := 0; i < 2; i++ {
		ok, err := s.AppendIfNew(testRow(17000000, ""))
		require.NoError(t, err)
		assert.True(t, ok)
	}
	_, records, err := s.ReadRecords()
	require.NoError(t, err)
	assert.Equal(t, 2, len(records))
}

func TestStoreAppendCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidations.csv")
	s := NewStore(path)

	ok, err := s.AppendIfNew(testRow(17000000, "0xaaa"))
	require.NoError(t, err)
	require.True(t, ok)

	header, records, err := s.ReadRecords()
	require.NoError(t, err)
	assert.Equal(t, FieldOrder, header)
	require.Equal(t, 1, len(records))
	idx := HeaderIndex(header)
	assert.Equal(t, "17000000", Field(records[0], idx, ColBlock))
	assert.Equal(t, "0xaaa", Field(records[0], idx, ColTx))
}

func TestStoreReadRecordsMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.csv"))
	header, records, err := s.ReadRecords()
	require.NoError(t, err)
	assert.Nil(t, header)
	assert.Nil(t, records)
}

func TestStoreReconcileHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidations.csv")
	// Legacy file: shuffled columns, one extra, several canonical ones
	// missing entirely.
	legacy := strings.Join([]string{
		"tx,block,user,bogus_extra",
		"0xaaa,17000000,0x1111111111111111111111111111111111111111,junk",
		"0xbbb,17000005,0x2222222222222222222222222222222222222222,junk",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0600))

	s := NewStore(path)
	rewrote, err := s.ReconcileHeader()
	require.NoError(t, err)
	assert.True(t, rewrote)

	header, records, err := s.ReadRecords()
	require.NoError(t, err)
	assert.Equal(t, FieldOrder, header)
	require.Equal(t, 2, len(records))
	idx := HeaderIndex(header)
	assert.Equal(t, "17000000", Field(records[0], idx, ColBlock))
	assert.Equal(t, "0xaaa", Field(records[0], idx, ColTx))
	assert.Equal(t, "", Field(records[0], idx, ColDebtAsset), "missing column backfilled empty")
	require.Equal(t, len(FieldOrder), len(records[0]))

	// Second pass is a no-op.
	rewrote, err = s.ReconcileHeader()
	require.NoError(t, err)
	assert.False(t, rewrote)
}

func TestStoreReconcileHeaderMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.csv"))
	rewrote, err := s.ReconcileHeader()
	require.NoError(t, err)
	assert.False(t, rewrote)
}

func TestStoreOverwriteRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidations.csv")
	s := NewStore(path)
	require.NoError(t, s.Ensure())

	ok, err := s.AppendIfNew(testRow(17000000, "0xaaa"))
	require.NoError(t, err)
	require.True(t, ok)

	header, records, err := s.ReadRecords()
	require.NoError(t, err)
	idx := HeaderIndex(header)
	records[0][idx[ColDebtPrice]] = "1.00000000"
	require.NoError(t, s.OverwriteRecords(header, records))

	_, after, err := s.ReadRecords()
	require.NoError(t, err)
	require.Equal(t, 1, len(after))
	assert.Equal(t, "1.00000000", Field(after[0], idx, ColDebtPrice))
}

func TestStoreSummarize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidations.csv")
	s := NewStore(path)
	require.NoError(t, s.Ensure())

	for _, r := range []*Row{
		testRow(17000100, "0xAAA"),
		testRow(17000200, "0xbbb"),
		testRow(60000000, "0xccc"), // corrupt future block, excluded from MaxBlock
	} {
		ok, err := s.AppendIfNew(r)
		require.NoError(t, err)
		require.True(t, ok)
	}

	sum, err := s.Summarize(50000000)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Rows)
	assert.True(t, sum.HasMin)
	assert.Equal(t, uint64(17000100), sum.MinBlock)
	assert.True(t, sum.HasMax)
	assert.Equal(t, uint64(17000200), sum.MaxBlock)
	require.Equal(t, 3, len(sum.Txs))
	_, ok := sum.Txs["0xaaa"]
	assert.True(t, ok, "tx hashes lowercased")
}

func TestStoreSummarizeEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "liquidations.csv"))
	require.NoError(t, s.Ensure())
	sum, err := s.Summarize(50000000)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Rows)
	assert.False(t, sum.HasMin)
	assert.False(t, sum.HasMax)
}
