package scanner

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// The Aave V3 pool emits LiquidationCall with three indexed address
// topics; everything else rides in the data payload.
const poolABIJSON = `[
	{"name":"LiquidationCall","type":"event","inputs":[
		{"name":"collateralAsset","type":"address","indexed":true},
		{"name":"debtAsset","type":"address","indexed":true},
		{"name":"user","type":"address","indexed":true},
		{"name":"debtToCover","type":"uint256","indexed":false},
		{"name":"liquidatedCollateralAmount","type":"uint256","indexed":false},
		{"name":"liquidator","type":"address","indexed":false},
		{"name":"receiveAToken","type":"bool","indexed":false}
	]}
]`

// liquidationEvent is one decoded LiquidationCall log.
type liquidationEvent struct {
	Block            uint64
	TxHash           common.Hash
	CollateralAsset  common.Address
	DebtAsset        common.Address
	User             common.Address
	Liquidator       common.Address
	DebtToCover      *big.Int
	CollateralAmount *big.Int
	ReceiveAToken    bool
}

// decodeLiquidation unpacks a raw log into its event fields. Logs whose
// first topic is not the liquidation signature are rejected.
func (s *Scanner) decodeLiquidation(lg types.Log) (*liquidationEvent, error) {
	if len(lg.Topics) != 4 || lg.Topics[0] != s.topic {
		return nil, errors.New("not a LiquidationCall log")
	}
	out, err := s.poolABI.Unpack("LiquidationCall", lg.Data)
	if err != nil {
		return nil, errors.Wrap(err, "could not decode event data")
	}
	if len(out) != 4 {
		return nil, errors.Errorf("unexpected event field count %d", len(out))
	}
	ev := &liquidationEvent{
		Block:           lg.BlockNumber,
		TxHash:          lg.TxHash,
		CollateralAsset: common.BytesToAddress(lg.Topics[1].Bytes()),
		DebtAsset:       common.BytesToAddress(lg.Topics[2].Bytes()),
		User:            common.BytesToAddress(lg.Topics[3].Bytes()),
	}
	ev.DebtToCover, _ = out[0].(*big.Int)
	ev.CollateralAmount, _ = out[1].(*big.Int)
	ev.Liquidator, _ = out[2].(common.Address)
	ev.ReceiveAToken, _ = out[3].(bool)
	if ev.DebtToCover == nil || ev.CollateralAmount == nil {
		return nil, errors.New("event data missing amounts")
	}
	return ev, nil
}
