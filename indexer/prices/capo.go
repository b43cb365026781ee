package prices

import (
	"math/big"
)

// secondsPerYear is the CAPO growth window constant, matching the adapter
// contracts (365 days, no leap handling).
const secondsPerYear = 365 * 24 * 3600

// percentageFactor is the solidity basis-point divisor.
const percentageFactor = 10_000

// capoParams mirror the PriceCapAdapterBase accessors read at the event
// block. SnapshotRatio is kept in the adapter's raw fixed-point form.
type capoParams struct {
	SnapshotRatio     *big.Int
	SnapshotTimestamp uint64
	MaxYearlyRateBps  *big.Int
	RatioDecimals     uint8
}

// maxRatio computes the highest ratio the adapter allows at eventTS:
// snapshot + snapshot * bps * elapsed / (10000 * seconds_per_year), in
// exact rational arithmetic.
func (p capoParams) maxRatio(eventTS uint64) *big.Rat {
	snap := new(big.Rat).SetInt(p.SnapshotRatio)
	var elapsed uint64
	if eventTS > p.SnapshotTimestamp {
		elapsed = eventTS - p.SnapshotTimestamp
	}
	growth := new(big.Rat).SetInt(p.SnapshotRatio)
	growth.Mul(growth, new(big.Rat).SetInt(p.MaxYearlyRateBps))
	growth.Mul(growth, new(big.Rat).SetUint64(elapsed))
	growth.Quo(growth, new(big.Rat).SetUint64(percentageFactor*secondsPerYear))
	return snap.Add(snap, growth)
}

// capRatio bounds currentRatio by the adapter's growth allowance.
func (p capoParams) capRatio(currentRatio *big.Rat, eventTS uint64) *big.Rat {
	max := p.maxRatio(eventTS)
	if currentRatio.Cmp(max) <= 0 {
		return currentRatio
	}
	return max
}

// cappedPrice applies the CAPO bound to a derivative priced as
// underlying * ratio / 10^ratioDecimals, quantized to 8 decimals.
func (p capoParams) cappedPrice(underlying, currentRatio *big.Rat, eventTS uint64) *big.Rat {
	effective := p.capRatio(currentRatio, eventTS)
	price := new(big.Rat).Mul(underlying, effective)
	price.Quo(price, pow10Rat(int(p.RatioDecimals)))
	return quantize8(price)
}

// RatFromUnits converts a raw integer amount carrying the given number of
// decimals into an exact rational.
func RatFromUnits(raw *big.Int, decimals uint8) *big.Rat {
	r := new(big.Rat).SetInt(raw)
	return r.Quo(r, pow10Rat(int(decimals)))
}

func pow10Rat(n int) *big.Rat {
	p := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	return new(big.Rat).SetInt(p)
}

// quantize8 rounds a rational to 8 decimal places (ties away from zero),
// the precision persisted for all price columns.
func quantize8(x *big.Rat) *big.Rat {
	out, _ := new(big.Rat).SetString(x.FloatString(8))
	return out
}

// FormatUSD renders a price with 8 fractional digits, the canonical CSV
// form for price columns.
func FormatUSD(x *big.Rat) string {
	return x.FloatString(8)
}
