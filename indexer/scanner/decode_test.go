package scanner

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liquidationTopics(s *Scanner) []common.Hash {
	return []common.Hash{
		s.topic,
		common.BytesToHash(wethAddr.Bytes()),
		common.BytesToHash(usdcAddr.Bytes()),
		common.BytesToHash(userAddr.Bytes()),
	}
}

func TestDecodeLiquidation(t *testing.T) {
	s, err := New(testConfig(), nil, nil, nil, nil, "")
	require.NoError(t, err)

	debtToCover := big.NewInt(5_000_000)
	collateral := new(big.Int).Mul(big.NewInt(25), big.NewInt(100_000_000_000_000_000))
	data := common.Hex2Bytes(wordBig(debtToCover) + wordBig(collateral) + wordAddr(liqAddr) + word(1))

	ev, err := s.decodeLiquidation(types.Log{
		BlockNumber: 18_000_000,
		TxHash:      common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000ee"),
		Topics:      liquidationTopics(s),
		Data:        data,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(18_000_000), ev.Block)
	assert.Equal(t, wethAddr, ev.CollateralAsset)
	assert.Equal(t, usdcAddr, ev.DebtAsset)
	assert.Equal(t, userAddr, ev.User)
	assert.Equal(t, liqAddr, ev.Liquidator)
	assert.Equal(t, debtToCover.String(), ev.DebtToCover.String())
	assert.Equal(t, collateral.String(), ev.CollateralAmount.String())
	assert.True(t, ev.ReceiveAToken)
}

func TestDecodeRejectsMalformedLogs(t *testing.T) {
	s, err := New(testConfig(), nil, nil, nil, nil, "")
	require.NoError(t, err)

	goodData := common.Hex2Bytes(wordBig(big.NewInt(1)) + wordBig(big.NewInt(2)) + wordAddr(liqAddr) + word(0))

	tests := []struct {
		name string
		lg   types.Log
	}{
		{
			name: "too few topics",
			lg: types.Log{
				Topics: liquidationTopics(s)[:3],
				Data:   goodData,
			},
		},
		{
			name: "foreign event signature",
			lg: types.Log{
				Topics: append([]common.Hash{common.HexToHash("0xdeadbeef")}, liquidationTopics(s)[1:]...),
				Data:   goodData,
			},
		},
		{
			name: "truncated data",
			lg: types.Log{
				Topics: liquidationTopics(s),
				Data:   goodData[:63],
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.decodeLiquidation(tt.lg)
			assert.Error(t, err)
		})
	}
}
