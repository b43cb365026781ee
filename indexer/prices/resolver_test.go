package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/observerlabs/aavewatch/config/params"
	"github.com/observerlabs/aavewatch/indexer/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type callArgs struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// sel returns the 4-byte selector of a function signature as bare hex.
func sel(sig string) string {
	return common.Bytes2Hex(crypto.Keccak256([]byte(sig))[:4])
}

func word(v uint64) string {
	return fmt.Sprintf("%064x", v)
}

func wordBig(v *big.Int) string {
	return fmt.Sprintf("%064x", v)
}

// roundData encodes a latestRoundData return with the given answer.
func roundData(answer *big.Int, updatedAt uint64) string {
	return "0x" + word(1) + wordBig(answer) + word(0) + word(updatedAt) + word(1)
}

func headerJSON(number, ts uint64) string {
	return fmt.Sprintf(`{"parentHash":"0x%064x","sha3Uncles":"0x%064x","miner":"0x%040x",`+
		`"stateRoot":"0x%064x","transactionsRoot":"0x%064x","receiptsRoot":"0x%064x",`+
		`"logsBloom":"0x%0512x","difficulty":"0x0","number":"0x%x","gasLimit":"0x1c9c380",`+
		`"gasUsed":"0x0","timestamp":"0x%x","extraData":"0x","mixHash":"0x%064x",`+
		`"nonce":"0x0000000000000000","baseFeePerGas":"0x3b9aca00"}`,
		0, 0, 0, 0, 0, 0, 0, number, ts, 0)
}

// contractAnswers maps contract address -> selector hex -> encoded result.
// Any call outside the map reverts, which the ladder reads as no data.
type contractAnswers map[common.Address]map[string]string

func newPriceServer(t *testing.T, answers contractAnswers, blockTime uint64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Method {
		case "eth_chainId":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0x1"}`, req.ID)
		case "eth_getBlockByNumber":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, headerJSON(17_000_000, blockTime))
		case "eth_call":
			var args callArgs
			require.NoError(t, json.Unmarshal(req.Params[0], &args))
			if byContract, ok := answers[common.HexToAddress(args.To)]; ok && len(args.Data) >= 10 {
				if result, ok := byContract[strings.ToLower(args.Data[2:10])]; ok {
					fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"%s"}`, req.ID, result)
					return
				}
			}
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32000,"message":"execution reverted"}}`, req.ID)
		default:
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newResolver(t *testing.T, endpoint string) *Resolver {
	t.Helper()
	pool, err := providers.NewPool(&providers.Config{
		Endpoints:      []string{endpoint},
		ChainID:        1,
		BaseTimeout:    2 * time.Second,
		Attempts:       1,
		ResponseWindow: 5,
	})
	require.NoError(t, err)
	cfg := params.MainnetConfig().Copy()
	// Keep ladder fallthrough fast when a stub answers garbage.
	cfg.PriceBackoffSchedule = []time.Duration{time.Millisecond}
	r, err := NewResolver(cfg, pool)
	require.NoError(t, err)
	return r
}

func usd8(dollars uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(dollars), big.NewInt(100_000_000))
}

func TestPriceUSD_AaveOracleFirst(t *testing.T) {
	cfg := params.MainnetConfig()
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	srv := newPriceServer(t, contractAnswers{
		cfg.OracleContract: {
			sel("getAssetPrice(address)"): "0x" + wordBig(usd8(2_000)),
		},
	}, 1_700_000_000)
	r := newResolver(t, srv.URL)

	price, ok := r.PriceUSD(context.Background(), "WETH", weth, 17_000_000)
	require.True(t, ok)
	assert.Equal(t, "2000.00000000", FormatUSD(price))
}

func TestPriceUSD_ChainlinkFallback(t *testing.T) {
	cfg := params.MainnetConfig()
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	// Oracle silent; the WETH->ETH alias routes to the ETH/USD feed.
	srv := newPriceServer(t, contractAnswers{
		cfg.ChainlinkFeeds["ETH"]: {
			sel("decimals()"):        "0x" + word(8),
			sel("latestRoundData()"): roundData(usd8(1_850), 1_700_000_000),
		},
	}, 1_700_000_000)
	r := newResolver(t, srv.URL)

	price, ok := r.PriceUSD(context.Background(), "WETH", weth, 17_000_000)
	require.True(t, ok)
	assert.Equal(t, "1850.00000000", FormatUSD(price))
}

func TestPriceUSD_CapoBindsExchangeRate(t *testing.T) {
	cfg := params.MainnetConfig()
	wsteth := common.HexToAddress("0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0")
	eventTime := uint64(1_700_000_000)
	srv := newPriceServer(t, contractAnswers{
		cfg.CapoAdapters["WSTETH"]: {
			sel("getSnapshotRatio()"):              "0x" + wordBig(ratio18("1.10")),
			sel("getSnapshotTimestamp()"):          "0x" + word(eventTime),
			sel("getMaxYearlyGrowthRatePercent()"): "0x" + word(968),
			sel("RATIO_DECIMALS()"):                "0x" + word(18),
		},
		cfg.LSDContracts["WSTETH"].Contract: {
			// Live rate far above the zero-elapsed allowance of 1.10.
			sel("stEthPerToken()"): "0x" + wordBig(ratio18("1.20")),
		},
		cfg.StethUsdFeed: {
			sel("decimals()"):        "0x" + word(8),
			sel("latestRoundData()"): roundData(usd8(2_000), eventTime),
		},
	}, eventTime)
	r := newResolver(t, srv.URL)

	price, ok := r.PriceUSD(context.Background(), "WSTETH", wsteth, 17_000_000)
	require.True(t, ok)
	assert.Equal(t, "2200.00000000", FormatUSD(price))
}

func TestPriceUSD_RawExchangeRateWhenNoAdapter(t *testing.T) {
	cfg := params.MainnetConfig()
	reth := cfg.LSDContracts["RETH"].Contract
	// Adapter reverts (pre-deployment block); the uncapped rate layer runs.
	srv := newPriceServer(t, contractAnswers{
		reth: {
			sel("getExchangeRate()"): "0x" + wordBig(ratio18("1.05")),
		},
		cfg.ChainlinkFeeds["ETH"]: {
			sel("decimals()"):        "0x" + word(8),
			sel("latestRoundData()"): roundData(usd8(1_800), 1_700_000_000),
		},
	}, 1_700_000_000)
	r := newResolver(t, srv.URL)

	price, ok := r.PriceUSD(context.Background(), "RETH", reth, 17_000_000)
	require.True(t, ok)
	assert.Equal(t, "1890.00000000", FormatUSD(price))
}

func TestPriceUSD_EthComposite(t *testing.T) {
	cfg := params.MainnetConfig()
	ldo := common.HexToAddress("0x5A98FcBEA516Cf06857215779Fd812CA3beF1B32")
	srv := newPriceServer(t, contractAnswers{
		cfg.EthBasedFeeds["LDO"]: {
			sel("decimals()"):        "0x" + word(18),
			sel("latestRoundData()"): roundData(ratio18("0.0015"), 1_700_000_000),
		},
		cfg.ChainlinkFeeds["ETH"]: {
			sel("decimals()"):        "0x" + word(8),
			sel("latestRoundData()"): roundData(usd8(2_000), 1_700_000_000),
		},
	}, 1_700_000_000)
	r := newResolver(t, srv.URL)

	price, ok := r.PriceUSD(context.Background(), "LDO", ldo, 17_000_000)
	require.True(t, ok)
	assert.Equal(t, "3.00000000", FormatUSD(price))
}

func TestPriceUSD_StableDollarFallback(t *testing.T) {
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	// Nothing on chain answers; the curated stable list prices at $1.
	srv := newPriceServer(t, contractAnswers{}, 1_700_000_000)
	r := newResolver(t, srv.URL)

	price, ok := r.PriceUSD(context.Background(), "USDC", usdc, 16_100_000)
	require.True(t, ok)
	assert.Equal(t, "1.00000000", FormatUSD(price))
}

func TestPriceUSD_NoSourceAnswers(t *testing.T) {
	unknown := common.HexToAddress("0x2222222222222222222222222222222222222222")
	srv := newPriceServer(t, contractAnswers{}, 1_700_000_000)
	r := newResolver(t, srv.URL)

	price, ok := r.PriceUSD(context.Background(), "FOO", unknown, 17_000_000)
	assert.False(t, ok)
	assert.Nil(t, price)
}

func TestFeedSymbol(t *testing.T) {
	r := &Resolver{cfg: params.MainnetConfig()}
	zero := common.Address{}

	assert.Equal(t, "ETH", r.feedSymbol("WETH", zero))
	assert.Equal(t, "BTC", r.feedSymbol("wbtc", zero))
	assert.Equal(t, "EUR", r.feedSymbol("EURC", zero))
	assert.Equal(t, "FOO", r.feedSymbol("FOO", zero))
	// Address override for tokens the registry cannot name.
	usdb := common.HexToAddress("0x4300000000000000000000000000000000000003")
	assert.Equal(t, "USDB", r.feedSymbol("0x4300…0003", usdb))
}

func TestLsdRateCallData(t *testing.T) {
	data := lsdRateCallData("stEthPerToken", 0)
	assert.Len(t, data, 4)

	withArg := lsdRateCallData("convertToAssets", 1_000_000_000_000_000_000)
	require.Len(t, withArg, 36)
	wantArg := make([]byte, 32)
	new(big.Int).SetUint64(1_000_000_000_000_000_000).FillBytes(wantArg)
	assert.Equal(t, wantArg, withArg[4:])
	assert.NotEqual(t, data, withArg[:4])
}

func TestEthPriceUSD(t *testing.T) {
	cfg := params.MainnetConfig()
	ethFeed := cfg.ChainlinkFeeds["ETH"]
	srv := newPriceServer(t, contractAnswers{
		ethFeed: {
			sel("decimals()"):        "0x" + word(8),
			sel("latestRoundData()"): roundData(usd8(1_850), 1_673_481_500),
		},
	}, 1_673_481_600)
	r := newResolver(t, srv.URL)

	price, ok := r.EthPriceUSD(context.Background(), 17_000_000)
	require.True(t, ok)
	assert.Equal(t, "1850.00000000", FormatUSD(price))
}

func TestEthPriceUSD_FeedDark(t *testing.T) {
	srv := newPriceServer(t, contractAnswers{}, 1_673_481_600)
	r := newResolver(t, srv.URL)

	price, ok := r.EthPriceUSD(context.Background(), 17_000_000)
	assert.False(t, ok)
	assert.Nil(t, price)
}

func TestEthRound(t *testing.T) {
	cfg := params.MainnetConfig()
	ethFeed := cfg.ChainlinkFeeds["ETH"]
	srv := newPriceServer(t, contractAnswers{
		ethFeed: {
			sel("decimals()"):        "0x" + word(8),
			sel("latestRoundData()"): roundData(usd8(1_850), 1_673_481_500),
		},
	}, 1_673_481_600)
	r := newResolver(t, srv.URL)

	rd, err := r.EthRound(context.Background(), 17_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rd.RoundID.Int64())
	assert.Equal(t, uint64(1_673_481_500), rd.UpdatedAt)
	assert.Equal(t, "1850.00000000", FormatUSD(rd.Price))
}
