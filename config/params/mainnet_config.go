package params

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// mainnetIndexerConfig is the canonical configuration for indexing Aave V3
// liquidations on Ethereum mainnet.
var mainnetIndexerConfig = &IndexerConfig{
	ConfigName: "mainnet",

	ChainID: 1,

	PoolContract:              common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2"),
	OracleContract:            common.HexToAddress("0x54586bE62E3c3580375aE3723C145253060Ca0C2"),
	LiquidationEventSignature: "LiquidationCall(address,address,address,uint256,uint256,address,bool)",
	OracleBaseDecimals:        8,

	GenesisBlock:          16_000_000,
	MaxValidBlock:         50_000_000,
	FirstLiquidationBlock: 16_521_648,

	AlchemyURLTemplate: "https://eth-mainnet.g.alchemy.com/v2/%s",
	InfuraURLTemplate:  "https://mainnet.infura.io/v3/%s",
	PublicRPCEndpoints: []string{
		"https://ethereum.publicnode.com",
		"https://eth.llamarpc.com",
		"https://cloudflare-eth.com",
		"https://rpc.ankr.com/eth",
	},
	CallTimeout:        10 * time.Second,
	CallAttempts:       3,
	ResponseTimeWindow: 100,

	MinLogChunk: 100,

	InitialBatchSize:      1000,
	MinBatchSize:          500,
	MaxBatchSize:          10000,
	MaxConsecutiveRetries: 3,

	PriceBackoffSchedule: []time.Duration{
		1 * time.Second,
		2 * time.Second,
		3 * time.Second,
		5 * time.Second,
		8 * time.Second,
	},
	ValueToleranceAbs: 0.01,
	ValueTolerancePct: 0.005,

	ScanInterval:         60 * time.Second,
	DailyDatasetHourUTC:  0,
	DailyDatasetMinute:   5,
	DatasetRetryInterval: time.Hour,

	ValidateBatchSize: 2000,
	ValidateChunk:     500,

	DatasetLookbackDays:     7,
	DatasetSampleTime:       "23:59:59",
	DatasetStatusEveryDays:  5,
	DatasetSearchSlack:      8 * 24 * 60 * 4,
	DatasetFindBlockRetries: 3,

	DataDirName:          "data",
	MasterCSVName:        "liquidations_master.csv",
	ScanStatusName:       "scan_status.json",
	CheckpointName:       "scanner_checkpoint.json",
	EthDatasetName:       "eth_chainlink_daily.csv",
	EthDatasetStatusName: "eth_price_dataset_status.json",
	ValidationReportName: "validation_report.json",

	Tokens:              mainnetTokens,
	ChainlinkFeeds:      mainnetChainlinkFeeds,
	TokenAliases:        mainnetTokenAliases,
	PriceFallbacks:      mainnetPriceFallbacks,
	StableTokens:        mainnetStableTokens,
	AaveOracleTokens:    mainnetAaveOracleTokens,
	CapoAdapters:        mainnetCapoAdapters,
	LSDContracts:        mainnetLSDContracts,
	EthBasedFeeds:       mainnetEthBasedFeeds,
	StethUsdFeed:        common.HexToAddress("0xCfE54B5cD566aB89272946F602D76Ea879CAb4a8"),
	FeedSymbolOverrides: mainnetFeedSymbolOverrides,
}

// MainnetConfig returns the Ethereum mainnet indexer configuration.
func MainnetConfig() *IndexerConfig {
	return mainnetIndexerConfig
}
