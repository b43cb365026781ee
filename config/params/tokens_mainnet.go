package params

import "github.com/ethereum/go-ethereum/common"

// mainnetTokens is the curated registry of tokens seen as collateral or debt
// in Aave V3 mainnet liquidations. The table is authoritative: on-chain
// symbol()/decimals() lookups only run for addresses missing here.
var mainnetTokens = map[common.Address]TokenInfo{
	common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"): {Symbol: "WETH", Decimals: 18},
	common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"): {Symbol: "USDC", Decimals: 6},
	common.HexToAddress("0xdac17f958d2ee523a2206206994597c13d831ec7"): {Symbol: "USDT", Decimals: 6},
	common.HexToAddress("0x6b175474e89094c44da98b954eedeac495271d0f"): {Symbol: "DAI", Decimals: 18},
	common.HexToAddress("0x2260fac5e5542a773aa44fbcfedf7c193bc2c599"): {Symbol: "WBTC", Decimals: 8},
	common.HexToAddress("0x7f39c581f595b53c5cb19bd0b3f8da6c935e2ca0"): {Symbol: "wstETH", Decimals: 18},
	common.HexToAddress("0x514910771af9ca656af840dff83e8264ecf986ca"): {Symbol: "LINK", Decimals: 18},
	common.HexToAddress("0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9"): {Symbol: "AAVE", Decimals: 18},
	common.HexToAddress("0x1f9840a85d5af5bf1d1762f925bdaddc4201f984"): {Symbol: "UNI", Decimals: 18},
	common.HexToAddress("0xae78736cd615f374d3085123a210448e74fc6393"): {Symbol: "rETH", Decimals: 18},
	common.HexToAddress("0xa1290d69c65a6fe4df752f95823fae25cb99e5a7"): {Symbol: "rsETH", Decimals: 18},
	common.HexToAddress("0x83f20f44975d03b1b09e64809b757c47f942beea"): {Symbol: "sDAI", Decimals: 18},
	common.HexToAddress("0x9f8f72aa9304c8b593d555f12ef6589cc3a579a2"): {Symbol: "MKR", Decimals: 18},
	common.HexToAddress("0x6810e776880c02933d47db1b9fc05908e5386b96"): {Symbol: "GNO", Decimals: 18},
	common.HexToAddress("0xd533a949740bb3306d119cc777fa900ba034cd52"): {Symbol: "CRV", Decimals: 18},
	common.HexToAddress("0x5a98fcbea516cf06857215779fd812ca3bef1b32"): {Symbol: "LDO", Decimals: 18},
	common.HexToAddress("0xc00e94cb662c3520282e6f5717214004a7f26888"): {Symbol: "COMP", Decimals: 18},
	common.HexToAddress("0xba100000625a3754423978a60c9317c58a424e3d"): {Symbol: "BAL", Decimals: 18},
	common.HexToAddress("0xc011a73ee8576fb46f5e1c5751ca3b9fe0af2a6f"): {Symbol: "SNX", Decimals: 18},
	common.HexToAddress("0x5f98805a4e8be255a32880fdec7f6728c6568ba0"): {Symbol: "LUSD", Decimals: 18},
	common.HexToAddress("0x853d955acef822db058eb8505911ed77f175b99e"): {Symbol: "FRAX", Decimals: 18},
	common.HexToAddress("0xbe9895146f7af43049ca1c1ae358b0541ea49704"): {Symbol: "cbETH", Decimals: 18},
	common.HexToAddress("0x40d16fc0246ad3160ccc09b8d0d3a2cd28ae6c2f"): {Symbol: "GHO", Decimals: 18},
	common.HexToAddress("0xc18360217d8f7ab5e7c516566761ea12ce7f9d72"): {Symbol: "ENS", Decimals: 18},
	common.HexToAddress("0xd33526068d116ce69f19a9ee46f0bd304f21a51f"): {Symbol: "RPL", Decimals: 18},
	common.HexToAddress("0xf939e0a03fb07f59a73314e73794be0e57ac1b4e"): {Symbol: "crvUSD", Decimals: 18},
	common.HexToAddress("0xcd5fe23c85820f7b72d0926fc9b05b43e359b7ee"): {Symbol: "weETH", Decimals: 18},
	common.HexToAddress("0x4c9edd5852cd905f086c759e8383e09bff1e68b3"): {Symbol: "USDe", Decimals: 18},
	common.HexToAddress("0x9d39a5de30e57443bff2a8307a4256c8797a3497"): {Symbol: "sUSDe", Decimals: 18},
	common.HexToAddress("0x6c3ea9036406852006290770bedfcaba0e23a0e8"): {Symbol: "PYUSD", Decimals: 6},
	common.HexToAddress("0xcbb7c0000ab88b473b1f5afd9ef808440eed33bf"): {Symbol: "cbBTC", Decimals: 8},
	common.HexToAddress("0xddc3d26baa9d2d979f5e2e42515478bf18f354d5"): {Symbol: "USDS", Decimals: 18},
	common.HexToAddress("0x1111111111166b7fe7bd91427724b487980afc69"): {Symbol: "1INCH", Decimals: 18},
	common.HexToAddress("0x18084fba666a33d37592fa2633fd49a74dd93a88"): {Symbol: "tBTC", Decimals: 18},
	common.HexToAddress("0xaf5191b0de278c7286d6c7cc6ab6bb8a73ba2cd6"): {Symbol: "STG", Decimals: 18},
}
