package prices

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Minimal ABI fragments for the contracts the resolver reads. Only view
// functions are listed; the resolver never sends transactions.
const (
	aggregatorABIJSON = `[
		{"name":"decimals","inputs":[],"outputs":[{"type":"uint8"}],"stateMutability":"view","type":"function"},
		{"name":"latestRoundData","inputs":[],"outputs":[
			{"name":"roundId","type":"uint80"},
			{"name":"answer","type":"int256"},
			{"name":"startedAt","type":"uint256"},
			{"name":"updatedAt","type":"uint256"},
			{"name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"}
	]`

	aaveOracleABIJSON = `[
		{"name":"getAssetPrice","inputs":[{"name":"asset","type":"address"}],"outputs":[{"type":"uint256"}],"stateMutability":"view","type":"function"}
	]`

	capoAdapterABIJSON = `[
		{"name":"getSnapshotRatio","inputs":[],"outputs":[{"type":"uint256"}],"stateMutability":"view","type":"function"},
		{"name":"getSnapshotTimestamp","inputs":[],"outputs":[{"type":"uint256"}],"stateMutability":"view","type":"function"},
		{"name":"getMaxYearlyGrowthRatePercent","inputs":[],"outputs":[{"type":"uint256"}],"stateMutability":"view","type":"function"},
		{"name":"RATIO_DECIMALS","inputs":[],"outputs":[{"type":"uint8"}],"stateMutability":"view","type":"function"}
	]`
)

func parseABI(src string) (abi.ABI, error) {
	return abi.JSON(strings.NewReader(src))
}

// lsdRateCallData builds the calldata for an LSD exchange-rate read. The
// rate methods differ per derivative (stEthPerToken, getExchangeRate,
// rsETHPrice, ...) so the selector is derived from the method name instead
// of a per-contract ABI. ERC-4626 style contracts take a share amount.
func lsdRateCallData(method string, inputAmount uint64) []byte {
	if inputAmount == 0 {
		sig := method + "()"
		return crypto.Keccak256([]byte(sig))[:4]
	}
	sig := method + "(uint256)"
	data := make([]byte, 4, 36)
	copy(data, crypto.Keccak256([]byte(sig))[:4])
	arg := make([]byte, 32)
	new(big.Int).SetUint64(inputAmount).FillBytes(arg)
	return append(data, arg...)
}
