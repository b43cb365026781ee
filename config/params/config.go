// Package params defines important constants that are essential to the
// aavewatch services, such as the Aave V3 mainnet deployment addresses,
// the curated token and price-feed tables, and the scanner tuning knobs.
package params

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenInfo holds the curated metadata for a known ERC-20 token.
type TokenInfo struct {
	Symbol   string
	Decimals uint8
}

// LSDContract describes how to read the exchange rate of a liquid staking
// derivative on-chain. InputAmount is non-zero for ERC-4626 style contracts
// whose rate method takes a share amount (convertToAssets).
type LSDContract struct {
	Contract     common.Address
	Method       string
	Underlying   string
	RateDecimals uint8
	InputAmount  uint64
}

// IndexerConfig contains constant configs for the liquidation indexer to
// operate against a single Ethereum network.
type IndexerConfig struct {
	ConfigName string

	// Chain identity. Every provider the pool vends must report this id.
	ChainID uint64

	// Aave V3 deployment.
	PoolContract              common.Address
	OracleContract            common.Address
	LiquidationEventSignature string
	OracleBaseDecimals        uint8

	// Scan window.
	GenesisBlock          uint64
	MaxValidBlock         uint64
	FirstLiquidationBlock uint64

	// Provider pool.
	AlchemyURLTemplate string
	InfuraURLTemplate  string
	PublicRPCEndpoints []string
	CallTimeout        time.Duration
	CallAttempts       int
	ResponseTimeWindow int

	// Log range chunking.
	MinLogChunk uint64

	// Adaptive batch sizing.
	InitialBatchSize      uint64
	MinBatchSize          uint64
	MaxBatchSize          uint64
	MaxConsecutiveRetries int

	// Price resolution.
	PriceBackoffSchedule []time.Duration
	ValueToleranceAbs    float64
	ValueTolerancePct    float64

	// Scheduling.
	ScanInterval         time.Duration
	DailyDatasetHourUTC  int
	DailyDatasetMinute   int
	DatasetRetryInterval time.Duration

	// Deep validation scan.
	ValidateBatchSize uint64
	ValidateChunk     uint64

	// Daily ETH dataset.
	DatasetLookbackDays     int
	DatasetSampleTime       string
	DatasetStatusEveryDays  int
	DatasetSearchSlack      uint64
	DatasetFindBlockRetries int

	// Data directory file names.
	DataDirName          string
	MasterCSVName        string
	ScanStatusName       string
	CheckpointName       string
	EthDatasetName       string
	EthDatasetStatusName string
	ValidationReportName string

	// Curated tables.
	Tokens              map[common.Address]TokenInfo
	ChainlinkFeeds      map[string]common.Address
	TokenAliases        map[string]string
	PriceFallbacks      map[string]string
	StableTokens        map[string]bool
	AaveOracleTokens    map[string]common.Address
	CapoAdapters        map[string]common.Address
	LSDContracts        map[string]LSDContract
	EthBasedFeeds       map[string]common.Address
	StethUsdFeed        common.Address
	FeedSymbolOverrides map[common.Address]string
}
