package scanner

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/observerlabs/aavewatch/indexer/prices"
)

// buildRow enriches a decoded event into a full CSV row. Enrichment
// failures degrade individual columns (empty price cells, zero gas, empty
// datetime) rather than dropping the event; the validate pass can repair
// price holes later.
func (s *Scanner) buildRow(ctx context.Context, ev *liquidationEvent) *csvstore.Row {
	row := &csvstore.Row{
		Block:           ev.Block,
		CollateralAsset: ev.CollateralAsset.Hex(),
		DebtAsset:       ev.DebtAsset.Hex(),
		User:            ev.User.Hex(),
		Liquidator:      ev.Liquidator.Hex(),
		ReceiveAToken:   ev.ReceiveAToken,
		Tx:              ev.TxHash.Hex(),
		GasUsed:         "0",
		GasPriceGwei:    "0",
	}

	var baseFee *big.Int
	if header, err := s.headerFor(ctx, ev.Block); err != nil {
		log.WithError(err).WithField("block", ev.Block).Warn("Could not fetch block header")
	} else {
		row.Timestamp = header.Time
		row.DatetimeUTC = csvstore.FormatEventTime(header.Time)
		row.BlockBuilder = header.Coinbase.Hex()
		baseFee = header.BaseFee
	}

	if receipt, tx, err := s.txData(ctx, ev.TxHash); err != nil {
		log.WithError(err).WithField("tx", shortHash(row.Tx)).Debug("Could not fetch gas data")
	} else {
		row.GasUsed = strconv.FormatUint(receipt.GasUsed, 10)
		row.GasPriceGwei = csvstore.FormatGwei(effectiveGasPrice(tx, baseFee))
	}

	colSym := s.tokens.Symbol(ctx, ev.CollateralAsset)
	debtSym := s.tokens.Symbol(ctx, ev.DebtAsset)
	colDec := s.tokens.Decimals(ctx, ev.CollateralAsset)
	debtDec := s.tokens.Decimals(ctx, ev.DebtAsset)
	row.CollateralSymbol = colSym
	row.DebtSymbol = debtSym
	row.CollateralOut = csvstore.FormatAmount(ev.CollateralAmount, colDec)
	row.DebtToCover = csvstore.FormatAmount(ev.DebtToCover, debtDec)

	colPrice, colOK := s.prices.PriceUSD(ctx, colSym, ev.CollateralAsset, ev.Block)
	debtPrice, debtOK := s.prices.PriceUSD(ctx, debtSym, ev.DebtAsset, ev.Block)
	if colOK {
		row.CollateralPriceUSD = prices.FormatUSD(colPrice)
	}
	if debtOK {
		row.DebtPriceUSD = prices.FormatUSD(debtPrice)
	}
	// USD values only when both sides have an authoritative price.
	if colOK && debtOK {
		row.CollateralValueUSD = csvstore.FormatValue(prices.RatFromUnits(ev.CollateralAmount, colDec), colPrice)
		row.DebtValueUSD = csvstore.FormatValue(prices.RatFromUnits(ev.DebtToCover, debtDec), debtPrice)
	}

	if ethPrice, ok := s.prices.EthPriceUSD(ctx, ev.Block); ok {
		row.EthPriceUSD = prices.FormatUSD(ethPrice)
	}

	var missing []string
	if !colOK {
		missing = append(missing, fmt.Sprintf("collateral_price(%s)", colSym))
	}
	if !debtOK {
		missing = append(missing, fmt.Sprintf("debt_price(%s)", debtSym))
	}
	if row.GasUsed == "0" {
		missing = append(missing, "gas_used")
	}
	if len(missing) > 0 {
		log.Warnf("[MISSING] Block %d TX %s: %s", ev.Block, shortHash(row.Tx), strings.Join(missing, ", "))
	}
	return row
}

func (s *Scanner) headerFor(ctx context.Context, block uint64) (*types.Header, error) {
	client, err := s.pool.Sticky(ctx)
	if err != nil {
		return nil, err
	}
	return client.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
}

func (s *Scanner) txData(ctx context.Context, hash common.Hash) (*types.Receipt, *types.Transaction, error) {
	client, err := s.pool.Sticky(ctx)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := client.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	tx, _, err := client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	return receipt, tx, nil
}

// effectiveGasPrice reproduces what the transaction actually paid per gas:
// base fee plus the effective tip for post-London blocks, the declared gas
// price before that.
func effectiveGasPrice(tx *types.Transaction, baseFee *big.Int) *big.Int {
	if baseFee == nil {
		return tx.GasPrice()
	}
	return new(big.Int).Add(baseFee, tx.EffectiveGasTipValue(baseFee))
}

// shortHash trims a hash for log lines.
func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
