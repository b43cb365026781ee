package params

import (
	"github.com/mohae/deepcopy"
)

var indexerConfig = MainnetConfig()

// AaveConfig retrieves the active indexer config.
func AaveConfig() *IndexerConfig {
	return indexerConfig
}

// OverrideAaveConfig by replacing the active config. The preferred pattern
// is to call AaveConfig(), copy it, change the specific parameters, and then
// call OverrideAaveConfig(c).
func OverrideAaveConfig(c *IndexerConfig) {
	indexerConfig = c
}

// Copy returns a deep copy of the config object.
func (c *IndexerConfig) Copy() *IndexerConfig {
	config := deepcopy.Copy(*c).(IndexerConfig)
	return &config
}
