package logging

import (
	"testing"

	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/stretchr/testify/assert"
)

func TestLiquidationFields(t *testing.T) {
	r := &csvstore.Row{
		Block:            19_000_000,
		Tx:               "0x57ff2bdf0a0bb4b6efc14deaa0a8a17d1d7a0a16cf8d0cbe0e103a54f4e703e5",
		CollateralSymbol: "wstETH",
		DebtSymbol:       "USDC",
		DebtValueUSD:     "10432.17",
	}
	f := LiquidationFields(r)
	assert.Equal(t, uint64(19_000_000), f["block"])
	assert.Equal(t, "0x57ff2bdf0a", f["tx"], "tx hashes are shortened for log lines")
	assert.Equal(t, "wstETH", f["collateral"])
	assert.Equal(t, "USDC", f["debt"])
	assert.Equal(t, "10432.17", f["valueUSD"])
}

func TestLiquidationFields_EmptyPricing(t *testing.T) {
	f := LiquidationFields(&csvstore.Row{Block: 17_000_001, Tx: "0xab"})
	assert.Equal(t, "0xab", f["tx"])
	assert.Equal(t, "", f["valueUSD"])
}
