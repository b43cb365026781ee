package prices

import (
	"context"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/observerlabs/aavewatch/indexer/providers"
	"github.com/sirupsen/logrus"
)

// capEngagedThreshold is the minimum raw-minus-capped difference, in USD,
// that counts as the cap actually binding.
var capEngagedThreshold = big.NewRat(1, 100)

// aaveOracleSource asks the Aave V3 oracle for the asset's base-currency
// price at the block. The oracle quotes every listed reserve in 8-decimal
// USD, including assets Chainlink has no public feed for.
type aaveOracleSource struct {
	r *Resolver
}

func (s *aaveOracleSource) name() string { return "aave_oracle" }

func (s *aaveOracleSource) tryPrice(ctx context.Context, symbol string, asset common.Address, block uint64) (*big.Rat, error) {
	target := asset
	if target == (common.Address{}) {
		mapped, ok := s.r.cfg.AaveOracleTokens[strings.ToUpper(symbol)]
		if !ok {
			return nil, errNoData
		}
		target = mapped
	}
	var price *big.Rat
	oracle := s.r.cfg.OracleContract
	err := s.r.callWithRetries(ctx, s.r.cfg.CallAttempts, func(client *providers.ManagedClient) error {
		data, err := s.r.oracleABI.Pack("getAssetPrice", target)
		if err != nil {
			return err
		}
		ret, err := client.CallContract(ctx, ethereum.CallMsg{To: &oracle, Data: data}, new(big.Int).SetUint64(block))
		if err != nil {
			return err
		}
		if len(ret) == 0 {
			return errNoData
		}
		out, err := s.r.oracleABI.Unpack("getAssetPrice", ret)
		if err != nil {
			return err
		}
		raw, _ := out[0].(*big.Int)
		if raw == nil || raw.Sign() <= 0 {
			return errNoData
		}
		price = RatFromUnits(raw, s.r.cfg.OracleBaseDecimals)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return price, nil
}

// chainlinkSource reads the direct X/USD aggregator for the asset's feed
// symbol.
type chainlinkSource struct {
	r *Resolver
}

func (s *chainlinkSource) name() string { return "chainlink" }

func (s *chainlinkSource) tryPrice(ctx context.Context, symbol string, asset common.Address, block uint64) (*big.Rat, error) {
	feedSym := s.r.feedSymbol(symbol, asset)
	return s.r.chainlinkPriceBySymbol(ctx, feedSym, block)
}

// capoSource prices a liquid staking derivative through its Aave price cap
// adapter: the on-chain exchange rate is bounded by the adapter's snapshot
// growth allowance before multiplying with the underlying's USD price.
type capoSource struct {
	r *Resolver
}

func (s *capoSource) name() string { return "capo" }

func (s *capoSource) tryPrice(ctx context.Context, symbol string, asset common.Address, block uint64) (*big.Rat, error) {
	upper := strings.ToUpper(symbol)
	adapter, ok := s.r.cfg.CapoAdapters[upper]
	if !ok {
		return nil, errNoData
	}
	lsd, ok := s.r.cfg.LSDContracts[upper]
	if !ok {
		return nil, errNoData
	}
	capo, err := s.r.capoParamsAt(ctx, adapter, block)
	if err != nil {
		return nil, err
	}
	rate, err := s.r.lsdExchangeRate(ctx, lsd, block)
	if err != nil {
		return nil, err
	}
	underlying, err := s.r.underlyingPrice(ctx, lsd.Underlying, block)
	if err != nil {
		return nil, err
	}
	eventTS, err := s.r.blockTimestamp(ctx, block)
	if err != nil {
		return nil, err
	}
	currentRatio := new(big.Rat).Mul(rate, pow10Rat(int(capo.RatioDecimals)))
	capped := capo.cappedPrice(underlying, currentRatio, eventTS)
	raw := quantize8(new(big.Rat).Mul(underlying, rate))
	diff := new(big.Rat).Sub(raw, capped)
	if diff.Cmp(capEngagedThreshold) > 0 {
		capoCapsEngagedTotal.Inc()
		log.WithFields(logrus.Fields{
			"symbol": symbol,
			"block":  block,
			"raw":    FormatUSD(raw),
			"capped": FormatUSD(capped),
		}).Info("CAPO cap engaged")
	}
	return capped, nil
}

// lsdSource prices a derivative as on-chain exchange rate times underlying
// USD price, with no cap. It backs up the CAPO layer for blocks before the
// adapters were deployed.
type lsdSource struct {
	r *Resolver
}

func (s *lsdSource) name() string { return "exchange_rate" }

func (s *lsdSource) tryPrice(ctx context.Context, symbol string, asset common.Address, block uint64) (*big.Rat, error) {
	lsd, ok := s.r.cfg.LSDContracts[strings.ToUpper(symbol)]
	if !ok {
		return nil, errNoData
	}
	rate, err := s.r.lsdExchangeRate(ctx, lsd, block)
	if err != nil {
		return nil, err
	}
	underlying, err := s.r.underlyingPrice(ctx, lsd.Underlying, block)
	if err != nil {
		return nil, err
	}
	return quantize8(new(big.Rat).Mul(rate, underlying)), nil
}

// ethBasedSource composes an X/ETH aggregator with the ETH/USD feed at the
// same block for tokens that only have an ETH-denominated feed.
type ethBasedSource struct {
	r *Resolver
}

func (s *ethBasedSource) name() string { return "eth_composite" }

func (s *ethBasedSource) tryPrice(ctx context.Context, symbol string, asset common.Address, block uint64) (*big.Rat, error) {
	feed, ok := s.r.cfg.EthBasedFeeds[strings.ToUpper(symbol)]
	if !ok {
		return nil, errNoData
	}
	inEth, err := s.r.chainlinkAnswer(ctx, feed, block)
	if err != nil {
		return nil, err
	}
	ethUSD, err := s.r.chainlinkPriceBySymbol(ctx, "ETH", block)
	if err != nil {
		return nil, err
	}
	return quantize8(new(big.Rat).Mul(inEth, ethUSD)), nil
}

// stableSource is the terminal rung: curated stablecoins price at $1.00
// when every feed-backed layer came up empty.
type stableSource struct {
	r *Resolver
}

func (s *stableSource) name() string { return "stable" }

func (s *stableSource) tryPrice(ctx context.Context, symbol string, asset common.Address, block uint64) (*big.Rat, error) {
	if !s.r.cfg.StableTokens[strings.ToUpper(symbol)] {
		return nil, errNoData
	}
	return big.NewRat(1, 1), nil
}
