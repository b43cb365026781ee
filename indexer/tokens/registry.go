// Package tokens resolves ERC-20 symbol and decimals metadata for the
// assets appearing in liquidation events. The curated table in params is
// authoritative; unknown assets fall back to on-chain calls and, failing
// that, to a shortened address and 18 decimals so enrichment never blocks
// a row from being written.
package tokens

import (
	"context"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/observerlabs/aavewatch/config/params"
	"github.com/observerlabs/aavewatch/indexer/providers"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "tokens")

const erc20ABIJSON = `[
	{"name":"symbol","inputs":[],"outputs":[{"type":"string"}],"stateMutability":"view","type":"function"},
	{"name":"decimals","inputs":[],"outputs":[{"type":"uint8"}],"stateMutability":"view","type":"function"}
]`

// fallbackTTL bounds how long a lookup failure sticks. Successful on-chain
// reads are immutable and cached forever.
const fallbackTTL = 10 * time.Minute

// DefaultDecimals is assumed when an asset exposes no readable decimals.
const DefaultDecimals uint8 = 18

// Registry caches per-asset metadata on top of the curated params table.
type Registry struct {
	cfg      *params.IndexerConfig
	pool     *providers.Pool
	cache    *gocache.Cache
	erc20ABI abi.ABI
}

// NewRegistry builds a registry bound to the given provider pool.
func NewRegistry(cfg *params.IndexerConfig, pool *providers.Pool) (*Registry, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, err
	}
	return &Registry{
		cfg:      cfg,
		pool:     pool,
		cache:    gocache.New(gocache.NoExpiration, fallbackTTL),
		erc20ABI: parsed,
	}, nil
}

// Symbol resolves the display symbol for an asset: curated table, then
// on-chain symbol(), then the shortened address form.
func (r *Registry) Symbol(ctx context.Context, asset common.Address) string {
	if info, ok := r.cfg.Tokens[asset]; ok {
		return info.Symbol
	}
	key := "sym:" + asset.Hex()
	if v, ok := r.cache.Get(key); ok {
		return v.(string)
	}

	sym, err := r.callSymbol(ctx, asset)
	if err != nil || sym == "" {
		short := ShortAddress(asset)
		log.WithError(err).WithField("asset", short).Debug("Could not fetch token symbol")
		r.cache.Set(key, short, fallbackTTL)
		return short
	}
	r.cache.Set(key, sym, gocache.NoExpiration)
	return sym
}

// Decimals resolves the decimals for an asset: curated table, then
// on-chain decimals(), then 18.
func (r *Registry) Decimals(ctx context.Context, asset common.Address) uint8 {
	if info, ok := r.cfg.Tokens[asset]; ok {
		return info.Decimals
	}
	key := "dec:" + asset.Hex()
	if v, ok := r.cache.Get(key); ok {
		return v.(uint8)
	}

	dec, err := r.callDecimals(ctx, asset)
	if err != nil || dec == 0 {
		log.WithError(err).WithField("asset", ShortAddress(asset)).Warn("Could not fetch token decimals, assuming 18")
		r.cache.Set(key, DefaultDecimals, fallbackTTL)
		return DefaultDecimals
	}
	r.cache.Set(key, dec, gocache.NoExpiration)
	return dec
}

func (r *Registry) callSymbol(ctx context.Context, asset common.Address) (string, error) {
	ret, err := r.call(ctx, asset, "symbol")
	if err != nil {
		return "", err
	}
	out, err := r.erc20ABI.Unpack("symbol", ret)
	if err != nil {
		return "", err
	}
	sym, _ := out[0].(string)
	return sym, nil
}

func (r *Registry) callDecimals(ctx context.Context, asset common.Address) (uint8, error) {
	ret, err := r.call(ctx, asset, "decimals")
	if err != nil {
		return 0, err
	}
	out, err := r.erc20ABI.Unpack("decimals", ret)
	if err != nil {
		return 0, err
	}
	dec, _ := out[0].(uint8)
	return dec, nil
}

func (r *Registry) call(ctx context.Context, asset common.Address, method string) ([]byte, error) {
	client, err := r.pool.Sticky(ctx)
	if err != nil {
		return nil, err
	}
	data, err := r.erc20ABI.Pack(method)
	if err != nil {
		return nil, err
	}
	return client.CallContract(ctx, ethereum.CallMsg{To: &asset, Data: data}, nil)
}

// ShortAddress renders an address as its first and last hex characters,
// the display form used when no symbol can be resolved.
func ShortAddress(a common.Address) string {
	s := strings.ToLower(a.Hex())
	return s[:6] + "…" + s[len(s)-4:]
}
