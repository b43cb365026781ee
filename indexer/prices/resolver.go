// Package prices resolves the USD price of any supported Aave asset at a
// historical block. Sources are tried in a strict ladder: the Aave V3
// oracle, direct Chainlink USD feeds, CAPO-capped liquid staking
// derivatives, raw LSD exchange rates, ETH-denominated composition feeds,
// and finally the curated stablecoin list at 1.0. The first positive
// answer wins; a full-ladder miss yields no price rather than zero.
package prices

import (
	"context"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/observerlabs/aavewatch/config/params"
	"github.com/observerlabs/aavewatch/indexer/providers"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "prices")

// source is one rung of the price ladder.
type source interface {
	name() string
	tryPrice(ctx context.Context, symbol string, asset common.Address, block uint64) (*big.Rat, error)
}

// Resolver walks the source ladder with shared provider, ABI, and cache
// state. It is safe for concurrent use.
type Resolver struct {
	cfg  *params.IndexerConfig
	pool *providers.Pool

	aggregatorABI abi.ABI
	oracleABI     abi.ABI
	capoABI       abi.ABI

	// feed address -> decimals; decimals are immutable per aggregator.
	feedDecimals *gocache.Cache

	sources []source
}

// NewResolver builds the ladder in its canonical order.
func NewResolver(cfg *params.IndexerConfig, pool *providers.Pool) (*Resolver, error) {
	aggABI, err := parseABI(aggregatorABIJSON)
	if err != nil {
		return nil, err
	}
	oracleABI, err := parseABI(aaveOracleABIJSON)
	if err != nil {
		return nil, err
	}
	capoABI, err := parseABI(capoAdapterABIJSON)
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		cfg:           cfg,
		pool:          pool,
		aggregatorABI: aggABI,
		oracleABI:     oracleABI,
		capoABI:       capoABI,
		feedDecimals:  gocache.New(gocache.NoExpiration, 0),
	}
	r.sources = []source{
		&aaveOracleSource{r},
		&chainlinkSource{r},
		&capoSource{r},
		&lsdSource{r},
		&ethBasedSource{r},
		&stableSource{r},
	}
	return r, nil
}

// PriceUSD returns the USD price of the asset at the block, walking the
// ladder until a source yields a positive price. The boolean reports
// whether any source did; callers persist an empty cell on a miss.
func (r *Resolver) PriceUSD(ctx context.Context, symbol string, asset common.Address, block uint64) (*big.Rat, bool) {
	for _, src := range r.sources {
		price, err := src.tryPrice(ctx, symbol, asset, block)
		if err != nil {
			if !isNoDataError(err) {
				log.WithError(err).WithFields(logrus.Fields{
					"source": src.name(),
					"symbol": symbol,
					"block":  block,
				}).Debug("Price source failed")
			}
			continue
		}
		if price != nil && price.Sign() > 0 {
			priceResolutionsTotal.WithLabelValues(src.name()).Inc()
			log.WithFields(logrus.Fields{
				"source": src.name(),
				"symbol": symbol,
				"block":  block,
				"usd":    price.FloatString(2),
			}).Debug("Resolved price")
			return price, true
		}
	}
	priceResolutionMisses.Inc()
	log.WithFields(logrus.Fields{
		"symbol": symbol,
		"block":  block,
	}).Debug("No price source answered")
	return nil, false
}

// EthPriceUSD reads the Chainlink ETH/USD feed directly at the block. The
// eth price column and the daily dataset always come from this feed,
// never from the wider ladder.
func (r *Resolver) EthPriceUSD(ctx context.Context, block uint64) (*big.Rat, bool) {
	price, err := r.chainlinkPriceBySymbol(ctx, "ETH", block)
	if err != nil {
		if !isNoDataError(err) {
			log.WithError(err).WithField("block", block).Debug("ETH feed read failed")
		}
		return nil, false
	}
	if price == nil || price.Sign() <= 0 {
		return nil, false
	}
	return price, true
}

// RoundData is one Chainlink aggregator observation.
type RoundData struct {
	RoundID   *big.Int
	Price     *big.Rat
	UpdatedAt uint64
}

// EthRound reads the full latestRoundData tuple from the ETH/USD feed as
// of the block, for callers that need the round id and update time rather
// than just the answer.
func (r *Resolver) EthRound(ctx context.Context, block uint64) (*RoundData, error) {
	feed, ok := r.cfg.ChainlinkFeeds["ETH"]
	if !ok {
		return nil, errors.Wrap(errNoData, "no ETH feed configured")
	}
	decimals, err := r.aggregatorDecimals(ctx, feed)
	if err != nil {
		return nil, err
	}
	var rd *RoundData
	err = r.callWithRetries(ctx, r.cfg.CallAttempts, func(client *providers.ManagedClient) error {
		data, err := r.aggregatorABI.Pack("latestRoundData")
		if err != nil {
			return err
		}
		ret, err := client.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: data}, new(big.Int).SetUint64(block))
		if err != nil {
			return err
		}
		if len(ret) == 0 {
			return errNoData
		}
		out, err := r.aggregatorABI.Unpack("latestRoundData", ret)
		if err != nil {
			return err
		}
		roundID, _ := out[0].(*big.Int)
		answer, _ := out[1].(*big.Int)
		updatedAt, _ := out[3].(*big.Int)
		if answer == nil || answer.Sign() <= 0 {
			return errNoData
		}
		rd = &RoundData{RoundID: roundID, Price: RatFromUnits(answer, decimals)}
		if updatedAt != nil {
			rd.UpdatedAt = updatedAt.Uint64()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rd, nil
}

// feedSymbol maps a raw token symbol to the curated feed symbol: alias
// table, per-address override, derived fallback, or the symbol itself.
func (r *Resolver) feedSymbol(symbol string, asset common.Address) string {
	upper := strings.ToUpper(symbol)
	if s, ok := r.cfg.TokenAliases[upper]; ok {
		return s
	}
	if s, ok := r.cfg.FeedSymbolOverrides[asset]; ok {
		return s
	}
	if s, ok := r.cfg.PriceFallbacks[upper]; ok {
		return s
	}
	return upper
}

// chainlinkAnswer reads latestRoundData on an aggregator at the block and
// scales the answer by the feed's decimals. errNoData when the feed has no
// positive answer there (or was not deployed yet).
func (r *Resolver) chainlinkAnswer(ctx context.Context, feed common.Address, block uint64) (*big.Rat, error) {
	decimals, err := r.aggregatorDecimals(ctx, feed)
	if err != nil {
		return nil, err
	}
	var price *big.Rat
	err = r.callWithRetries(ctx, len(r.cfg.PriceBackoffSchedule), func(client *providers.ManagedClient) error {
		data, err := r.aggregatorABI.Pack("latestRoundData")
		if err != nil {
			return err
		}
		ret, err := client.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: data}, new(big.Int).SetUint64(block))
		if err != nil {
			return err
		}
		if len(ret) == 0 {
			return errNoData
		}
		out, err := r.aggregatorABI.Unpack("latestRoundData", ret)
		if err != nil {
			return err
		}
		answer, _ := out[1].(*big.Int)
		if answer == nil || answer.Sign() <= 0 {
			return errNoData
		}
		price = RatFromUnits(answer, decimals)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return price, nil
}

// chainlinkPriceBySymbol resolves a configured feed symbol to its USD
// price at the block, or errNoData when no feed is configured.
func (r *Resolver) chainlinkPriceBySymbol(ctx context.Context, feedSym string, block uint64) (*big.Rat, error) {
	feed, ok := r.cfg.ChainlinkFeeds[strings.ToUpper(feedSym)]
	if !ok {
		return nil, errNoData
	}
	return r.chainlinkAnswer(ctx, feed, block)
}

// aggregatorDecimals reads and permanently caches a feed's decimals.
func (r *Resolver) aggregatorDecimals(ctx context.Context, feed common.Address) (uint8, error) {
	key := feed.Hex()
	if v, ok := r.feedDecimals.Get(key); ok {
		return v.(uint8), nil
	}
	var decimals uint8
	err := r.callWithRetries(ctx, r.cfg.CallAttempts, func(client *providers.ManagedClient) error {
		data, err := r.aggregatorABI.Pack("decimals")
		if err != nil {
			return err
		}
		ret, err := client.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: data}, nil)
		if err != nil {
			return err
		}
		if len(ret) == 0 {
			return errNoData
		}
		out, err := r.aggregatorABI.Unpack("decimals", ret)
		if err != nil {
			return err
		}
		decimals, _ = out[0].(uint8)
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.feedDecimals.Set(key, decimals, gocache.NoExpiration)
	return decimals, nil
}

// underlyingPrice resolves the USD price of an LSD's underlying asset.
// stETH has a dedicated feed; DAI and USDe degrade to 1.0 where a feed
// answer is unavailable, every other underlying goes through Chainlink.
func (r *Resolver) underlyingPrice(ctx context.Context, underlying string, block uint64) (*big.Rat, error) {
	switch strings.ToUpper(underlying) {
	case "STETH":
		return r.chainlinkAnswer(ctx, r.cfg.StethUsdFeed, block)
	case "DAI":
		price, err := r.chainlinkPriceBySymbol(ctx, "DAI", block)
		if err == nil && price.Sign() > 0 {
			return price, nil
		}
		return big.NewRat(1, 1), nil
	case "USDE":
		return big.NewRat(1, 1), nil
	default:
		return r.chainlinkPriceBySymbol(ctx, underlying, block)
	}
}

// blockTimestamp fetches the header timestamp used as the CAPO event time.
func (r *Resolver) blockTimestamp(ctx context.Context, block uint64) (uint64, error) {
	var ts uint64
	err := r.callWithRetries(ctx, r.cfg.CallAttempts, func(client *providers.ManagedClient) error {
		header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
		if err != nil {
			return err
		}
		ts = header.Time
		return nil
	})
	return ts, err
}

// lsdExchangeRate reads the derivative's rate function at the block,
// returning the rate as an exact rational.
func (r *Resolver) lsdExchangeRate(ctx context.Context, lsd params.LSDContract, block uint64) (*big.Rat, error) {
	var rate *big.Rat
	err := r.callWithRetries(ctx, r.cfg.CallAttempts, func(client *providers.ManagedClient) error {
		data := lsdRateCallData(lsd.Method, lsd.InputAmount)
		to := lsd.Contract
		ret, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, new(big.Int).SetUint64(block))
		if err != nil {
			return err
		}
		if len(ret) == 0 {
			return errNoData
		}
		raw := new(big.Int).SetBytes(ret)
		if raw.Sign() <= 0 {
			return errNoData
		}
		rate = RatFromUnits(raw, lsd.RateDecimals)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rate, nil
}

// capoParamsAt reads the adapter's cap parameters as they stood at the
// event block.
func (r *Resolver) capoParamsAt(ctx context.Context, adapter common.Address, block uint64) (capoParams, error) {
	var p capoParams
	blockNum := new(big.Int).SetUint64(block)
	err := r.callWithRetries(ctx, r.cfg.CallAttempts, func(client *providers.ManagedClient) error {
		call := func(method string) ([]interface{}, error) {
			data, err := r.capoABI.Pack(method)
			if err != nil {
				return nil, err
			}
			ret, err := client.CallContract(ctx, ethereum.CallMsg{To: &adapter, Data: data}, blockNum)
			if err != nil {
				return nil, err
			}
			if len(ret) == 0 {
				return nil, errNoData
			}
			return r.capoABI.Unpack(method, ret)
		}
		out, err := call("getSnapshotRatio")
		if err != nil {
			return err
		}
		p.SnapshotRatio, _ = out[0].(*big.Int)
		out, err = call("getSnapshotTimestamp")
		if err != nil {
			return err
		}
		snapTS, _ := out[0].(*big.Int)
		if snapTS != nil {
			p.SnapshotTimestamp = snapTS.Uint64()
		}
		out, err = call("getMaxYearlyGrowthRatePercent")
		if err != nil {
			return err
		}
		p.MaxYearlyRateBps, _ = out[0].(*big.Int)
		out, err = call("RATIO_DECIMALS")
		if err != nil {
			return err
		}
		p.RatioDecimals, _ = out[0].(uint8)
		return nil
	})
	if err != nil {
		return capoParams{}, err
	}
	if p.SnapshotRatio == nil || p.SnapshotRatio.Sign() <= 0 || p.MaxYearlyRateBps == nil {
		return capoParams{}, errNoData
	}
	return p, nil
}
