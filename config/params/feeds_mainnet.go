package params

import "github.com/ethereum/go-ethereum/common"

// mainnetChainlinkFeeds maps a feed symbol to its X/USD aggregator proxy.
// Feed symbols are upper case; token symbols route here through
// mainnetTokenAliases first.
var mainnetChainlinkFeeds = map[string]common.Address{
	"ETH":    common.HexToAddress("0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419"),
	"BTC":    common.HexToAddress("0xF4030086522a5bEEa4988F8cA5B36dbC97BeE88c"),
	"DAI":    common.HexToAddress("0xAed0c38402a5d19df6E4c03F4E2DceD6e29c1ee9"),
	"USDC":   common.HexToAddress("0x8fFfFfd4AfB6115b954Bd326cbe7B4BA576818f6"),
	"USDT":   common.HexToAddress("0x3E7d1eAB13ad0104d2750B8863b489D65364e32D"),
	"AAVE":   common.HexToAddress("0x547a514d5e3769680Ce22B2361c10Ea13619e8a9"),
	"LINK":   common.HexToAddress("0x2c1d072e956AFFC0D435Cb7AC38EF18d24d9127c"),
	"UNI":    common.HexToAddress("0x553303d460EE0afb37EdFf9bE42922D8FF63220e"),
	"CRV":    common.HexToAddress("0xCd627aA160A6fA45EB793D19Ef54f5062F20f33f"),
	"COMP":   common.HexToAddress("0xdbd020CAeF83eFd542f4De03e3cF0C28A4428bd5"),
	"WSTETH": common.HexToAddress("0x164b276057258d81941e97B0a900D4C7B358bCe0"),
	"GHO":    common.HexToAddress("0x3f12643D3f6f874d39C2a4c9f2Cd6f2DbAC877FC"),
	"LUSD":   common.HexToAddress("0x3D7aE7E594f2f2091Ad8798313450130d0Aba3a0"),
	"RPL":    common.HexToAddress("0x4E155eD98aFE9034b7A5962f6C84c86d869daA9d"),
	"ENS":    common.HexToAddress("0x5C00128d4d1c2F4f652C267d7bcdD7Ac99C16E16"),
	"FRAX":   common.HexToAddress("0xB9E1E3A9fEff48998E45Fa90847ed4D467E8BcfD"),
	"SNX":    common.HexToAddress("0xDC3EA94CD0AC27d9A86C180091e7f78C683d3699"),
	"BAL":    common.HexToAddress("0xdF2917806E30300537aEB49A7663062F4d1F2b5F"),
	"FXS":    common.HexToAddress("0x6Ebc52C8C1089be9eB3945C4350B68B8E4C2233f"),
	"1INCH":  common.HexToAddress("0xc929ad75B72593967DE83E7F7CdA0493458261D9"),
	"CBBTC":  common.HexToAddress("0x2665701293fCbEB223D11A08D826563EDcCE423A"),
	"PYUSD":  common.HexToAddress("0x8f1dF6D7F2db73eECE86a18b4381F4707b918FB1"),
	"CRVUSD": common.HexToAddress("0xEEf0C605546958c1f899b6fB336C20671f9cD49F"),
	"USDS":   common.HexToAddress("0xfF30586cD0F29eD462364C7e81375FC0C71219b1"),
	"USDE":   common.HexToAddress("0xa569d910839Ae8865Da8F8e70FfFb0cBA869F961"),
	"EUR":    common.HexToAddress("0xb49f677943BC038e9857d61E7d053CaA2C1734C1"),
}

// mainnetTokenAliases maps an upper-cased token symbol to the feed symbol it
// prices as. LSD tokens deliberately have no alias to their underlying so
// that the CAPO and exchange-rate layers stay responsible for them.
var mainnetTokenAliases = map[string]string{
	"WETH":   "ETH",
	"ETH":    "ETH",
	"WBTC":   "BTC",
	"TBTC":   "BTC",
	"BTC":    "BTC",
	"DAI":    "DAI",
	"USDC":   "USDC",
	"USDT":   "USDT",
	"AAVE":   "AAVE",
	"LINK":   "LINK",
	"MKR":    "MKR",
	"UNI":    "UNI",
	"CRV":    "CRV",
	"GNO":    "GNO",
	"STG":    "STG",
	"COMP":   "COMP",
	"WSTETH": "WSTETH",
	"STETH":  "WSTETH",
	"RETH":   "RETH",
	"LDO":    "LDO",
	"GHO":    "GHO",
	"LUSD":   "LUSD",
	"RPL":    "RPL",
	"ENS":    "ENS",
	"CBETH":  "CBETH",
	"FRAX":   "FRAX",
	"SNX":    "SNX",
	"BAL":    "BAL",
	"FXS":    "FXS",
	"1INCH":  "1INCH",
	"CBBTC":  "CBBTC",
	"PYUSD":  "PYUSD",
	"CRVUSD": "CRVUSD",
	"USDS":   "USDS",
	"USDE":   "USDE",
	"EURC":   "EUR",
	"USDB":   "USDB",
	"ETHX":   "ETH",
}

// mainnetPriceFallbacks approximates tokens without any feed of their own by
// a related feed symbol. Only used after every primary layer returned null;
// ETH derivatives with real exchange rates are deliberately absent.
var mainnetPriceFallbacks = map[string]string{
	"ETHX": "ETH",
}

// mainnetStableTokens may fall back to $1.00 when no feed covers the block.
// Most of these have Chainlink feeds today; the fallback matters for blocks
// before the feed launched.
var mainnetStableTokens = map[string]bool{
	"USDC":   true,
	"USDT":   true,
	"DAI":    true,
	"FRAX":   true,
	"LUSD":   true,
	"GHO":    true,
	"PYUSD":  true,
	"USDS":   true,
	"CRVUSD": true,
	"USDE":   true,
	"USDB":   true,
	"RLUSD":  true,
}

// mainnetAaveOracleTokens maps symbols without a usable Chainlink feed to the
// asset address the Aave V3 oracle prices. The oracle layer consults this
// table when the caller resolves by symbol alone.
var mainnetAaveOracleTokens = map[string]common.Address{
	"STG":                common.HexToAddress("0xAf5191B0De278C7286d6C7CC6ab6BB8A73bA2Cd6"),
	"GNO":                common.HexToAddress("0x6810e776880C02933D47DB1b9fc05908e5386b96"),
	"USDTB":              common.HexToAddress("0xC139190F447e929f090Edeb554D95AbB8b18aC1C"),
	"RSETH":              common.HexToAddress("0xA1290d69c65A6Fe4DF752f95823fae25cB99e5A7"),
	"LBTC":               common.HexToAddress("0x8236a87084f8B84306f72007F36F2618A5634494"),
	"OSETH":              common.HexToAddress("0xf1C9acDc66974dFB6dEcB12aA385b9cD01190E38"),
	"XAUT":               common.HexToAddress("0x68749665FF8D2d112Fa859AA293F07A622782F38"),
	"FBTC":               common.HexToAddress("0xC96dE26018A54D51c097160568752c4E3BD6C364"),
	"EBTC":               common.HexToAddress("0x657e8C867D8B37dCC18fA4Caead9C45EB088C642"),
	"KNC":                common.HexToAddress("0xdeFA4e8a7bcBA345F687a2f1456F5Edd9CE97202"),
	"PT-EUSDE-14AUG2025": common.HexToAddress("0x14Bdc3A3AE09f5518b923b69489CBcAfB238e617"),
	"PT-SUSDE-25SEP2025": common.HexToAddress("0x9F56094C450763769BA0EA9Fe2876070c0fD5F77"),
}

// mainnetEthBasedFeeds are X/ETH aggregators; USD prices compose with the
// ETH/USD feed at the same block.
var mainnetEthBasedFeeds = map[string]common.Address{
	"LDO": common.HexToAddress("0x4e844125952D32AcdF339BE976c98E22F6F318dB"),
	"MKR": common.HexToAddress("0x24551a8Fb2A7211A25a17B1481f043A8a8adC7f2"),
}

// mainnetFeedSymbolOverrides resolves addresses the curated token registry
// does not carry to a pricing symbol. USDB only exists on Blast today; the
// mapping keeps the symbol stable if that address ever shows up in a row.
var mainnetFeedSymbolOverrides = map[common.Address]string{
	common.HexToAddress("0x4300000000000000000000000000000000000003"): "USDB",
}
