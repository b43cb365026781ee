package params

import (
	"github.com/ethereum/go-ethereum/common"
)

// mainnetCapoAdapters are the Aave price cap adapters (PriceCapAdapterBase)
// deployed for correlated assets on mainnet. The adapter exposes the
// snapshot ratio, snapshot timestamp, max yearly growth and ratio decimals
// that bound the exchange-rate price.
var mainnetCapoAdapters = map[string]common.Address{
	"WSTETH": common.HexToAddress("0xe1D97bF61901B075E9626c8A2340a7De385861Ef"),
	"RETH":   common.HexToAddress("0x6929706c42d637DF5Ebf7F0BcfF2aF47F84Ea69D"),
	"CBETH":  common.HexToAddress("0x889399C34461b25d70d43931e6cE9E40280E617B"),
	"WEETH":  common.HexToAddress("0x87625393534d5C102cADB66D37201dF24cc26d4C"),
	"RSETH":  common.HexToAddress("0x7292C95A5f6A501a9c4B34f6393e221F2A0139c3"),
	"OSETH":  common.HexToAddress("0x2b86D519eF34f8Adfc9349CDeA17c09Aa9dB60E2"),
	"SUSDE":  common.HexToAddress("0x42bc86f2f08419280a99d8fbEa4672e7c30a86ec"),
}

// oneShare is the 1e18 share amount passed to convertToAssets reads.
const oneShare uint64 = 1_000_000_000_000_000_000

// mainnetLSDContracts describes where and how to read each liquid staking
// derivative's exchange rate. wstETH prices against the dedicated stETH/USD
// feed; sDAI against DAI and sUSDe against USDe; everything else against ETH.
var mainnetLSDContracts = map[string]LSDContract{
	"WSTETH": {
		Contract:     common.HexToAddress("0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0"),
		Method:       "stEthPerToken",
		Underlying:   "STETH",
		RateDecimals: 18,
	},
	"RETH": {
		Contract:     common.HexToAddress("0xae78736Cd615f374D3085123A210448E74Fc6393"),
		Method:       "getExchangeRate",
		Underlying:   "ETH",
		RateDecimals: 18,
	},
	"CBETH": {
		Contract:     common.HexToAddress("0xBe9895146f7AF43049ca1c1AE358B0541Ea49704"),
		Method:       "exchangeRate",
		Underlying:   "ETH",
		RateDecimals: 18,
	},
	"WEETH": {
		Contract:     common.HexToAddress("0xCd5fE23C85820F7B72D0926FC9b05b43E359b7ee"),
		Method:       "getRate",
		Underlying:   "ETH",
		RateDecimals: 18,
	},
	"RSETH": {
		Contract:     common.HexToAddress("0xA1290d69c65A6Fe4DF752f95823fae25cB99e5A7"),
		Method:       "rsETHPrice",
		Underlying:   "ETH",
		RateDecimals: 18,
	},
	"OSETH": {
		Contract:     common.HexToAddress("0xf1C9acDc66974dFB6dEcB12aA385b9cD01190E38"),
		Method:       "convertToAssets",
		Underlying:   "ETH",
		RateDecimals: 18,
		InputAmount:  oneShare,
	},
	"SDAI": {
		Contract:     common.HexToAddress("0x83F20F44975D03b1b09e64809B757c47f942BEeA"),
		Method:       "convertToAssets",
		Underlying:   "DAI",
		RateDecimals: 18,
		InputAmount:  oneShare,
	},
	"SUSDE": {
		Contract:     common.HexToAddress("0x9D39A5DE30e57443BfF2A8307A4256c8797A3497"),
		Method:       "convertToAssets",
		Underlying:   "USDE",
		RateDecimals: 18,
		InputAmount:  oneShare,
	},
}
