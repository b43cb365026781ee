// Package csvstore owns the master liquidation CSV: the canonical column
// schema, numeric-field hygiene, duplicate-suppressing appends under an
// advisory file lock, and atomic full rewrites for header reconciliation
// and price backfills. The CSV is the single source of truth for resume
// decisions; everything else (status, checkpoint) is derived from it.
package csvstore

import (
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Canonical column names of the master CSV.
const (
	ColBlock            = "block"
	ColTimestamp        = "timestamp"
	ColDatetimeUTC      = "datetime_utc"
	ColCollateralAsset  = "collateralAsset"
	ColDebtAsset        = "debtAsset"
	ColUser             = "user"
	ColLiquidator       = "liquidator"
	ColCollateralOut    = "collateralOut"
	ColDebtToCover      = "debtToCover"
	ColReceiveAToken    = "receiveAToken"
	ColCollateralSymbol = "collateralSymbol"
	ColDebtSymbol       = "debtSymbol"
	ColCollateralPrice  = "collateral_price_usd_at_block"
	ColDebtPrice        = "debt_price_usd_at_block"
	ColCollateralValue  = "collateral_value_usd"
	ColDebtValue        = "debt_value_usd"
	ColTx               = "tx"
	ColBlockBuilder     = "block_builder"
	ColGasUsed          = "gas_used"
	ColGasPriceGwei     = "gas_price_gwei"
	ColEthPrice         = "eth_price_usd_at_block"
)

// FieldOrder is the canonical column order. Downstream consumers depend on
// both names and positions; never reorder.
var FieldOrder = []string{
	ColBlock,
	ColTimestamp,
	ColDatetimeUTC,
	ColCollateralAsset,
	ColDebtAsset,
	ColUser,
	ColLiquidator,
	ColCollateralOut,
	ColDebtToCover,
	ColReceiveAToken,
	ColCollateralSymbol,
	ColDebtSymbol,
	ColCollateralPrice,
	ColDebtPrice,
	ColCollateralValue,
	ColDebtValue,
	ColTx,
	ColBlockBuilder,
	ColGasUsed,
	ColGasPriceGwei,
	ColEthPrice,
}

// numericFields are the columns that must hold a parseable number or be
// empty. Addresses, hashes and symbols are deliberately absent.
var numericFields = map[string]bool{
	ColCollateralOut:   true,
	ColDebtToCover:     true,
	ColCollateralPrice: true,
	ColDebtPrice:       true,
	ColCollateralValue: true,
	ColDebtValue:       true,
	ColGasUsed:         true,
	ColGasPriceGwei:    true,
	ColEthPrice:        true,
}

// Row is a liquidation event in write form. Numeric columns carry their
// final CSV strings so missing data stays an empty string rather than a
// zero; Record applies the canonical order and numeric hygiene.
type Row struct {
	Block              uint64
	Timestamp          uint64
	DatetimeUTC        string
	CollateralAsset    string
	DebtAsset          string
	User               string
	Liquidator         string
	CollateralOut      string
	DebtToCover        string
	ReceiveAToken      bool
	CollateralSymbol   string
	DebtSymbol         string
	CollateralPriceUSD string
	DebtPriceUSD       string
	CollateralValueUSD string
	DebtValueUSD       string
	Tx                 string
	BlockBuilder       string
	GasUsed            string
	GasPriceGwei       string
	EthPriceUSD        string
}

// Record renders the row in canonical column order with numeric fields
// normalized.
func (r *Row) Record() []string {
	rec := []string{
		strconv.FormatUint(r.Block, 10),
		strconv.FormatUint(r.Timestamp, 10),
		r.DatetimeUTC,
		r.CollateralAsset,
		r.DebtAsset,
		r.User,
		r.Liquidator,
		r.CollateralOut,
		r.DebtToCover,
		FormatBool(r.ReceiveAToken),
		r.CollateralSymbol,
		r.DebtSymbol,
		r.CollateralPriceUSD,
		r.DebtPriceUSD,
		r.CollateralValueUSD,
		r.DebtValueUSD,
		r.Tx,
		r.BlockBuilder,
		r.GasUsed,
		r.GasPriceGwei,
		r.EthPriceUSD,
	}
	for i, name := range FieldOrder {
		if numericFields[name] {
			rec[i] = NormalizeNumeric(rec[i])
		}
	}
	return rec
}

// NormalizeNumeric coerces a numeric column value to a parseable number or
// the empty string: whitespace trimmed, thousands separators removed, hex
// strings and anything with stray letters rejected.
func NormalizeNumeric(value string) string {
	v := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		return ""
	}
	for _, c := range v {
		if unicode.IsLetter(c) && c != 'e' && c != 'E' {
			return ""
		}
	}
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return ""
	}
	return v
}

// HeaderIndex maps column names to their positions in a header row.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	return idx
}

// Field reads a named column from a record, or "" when the column is
// absent or the record is short.
func Field(rec []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// FormatBool renders a boolean in the dataset's historical form.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// FormatEventTime renders a block timestamp as the datetime_utc value. A
// zero timestamp (header fetch failed) renders empty.
func FormatEventTime(ts uint64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04:05")
}

// FormatAmount scales a raw token amount by the token's decimals, rounded
// to 8 decimal places. A nil amount renders empty.
func FormatAmount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return ""
	}
	r := new(big.Rat).SetInt(raw)
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r.Quo(r, new(big.Rat).SetInt(div))
	return r.FloatString(8)
}

// FormatValue renders amount × price in dollars, rounded to 2 decimals.
// Either side missing renders empty: a USD value is only written when both
// the amount and the price at that block are known.
func FormatValue(amount, price *big.Rat) string {
	if amount == nil || price == nil {
		return ""
	}
	return new(big.Rat).Mul(amount, price).FloatString(2)
}

// FormatGwei renders a wei gas price in gwei rounded to 2 decimals; zero
// or unknown renders as "0" to match the dataset's historical form.
func FormatGwei(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}
	r := new(big.Rat).SetInt(wei)
	r.Quo(r, new(big.Rat).SetInt64(1_000_000_000))
	return r.FloatString(2)
}
