package flags

import (
	"github.com/observerlabs/aavewatch/config/params"
	"github.com/urfave/cli/v2"
)

// GlobalFlags specifies all the global flags for the aavewatch process.
type GlobalFlags struct {
	DataDir           string
	RPCEndpoints      []string
	AlchemyKey        string
	InfuraKey         string
	DisableMonitoring bool
	MonitoringHost    string
	MonitoringPort    int
}

var globalConfig *GlobalFlags

// Get retrieves the global config.
func Get() *GlobalFlags {
	if globalConfig == nil {
		return &GlobalFlags{}
	}
	return globalConfig
}

// Init sets the global config equal to the config that is passed in.
func Init(c *GlobalFlags) {
	globalConfig = c
}

// ConfigureGlobalFlags initializes the global config from the cli context
// and applies the scan window overrides to the active network
// configuration. Subcommands call it too, so flag handling stays in one
// place.
func ConfigureGlobalFlags(cliCtx *cli.Context) {
	Init(&GlobalFlags{
		DataDir:           cliCtx.String(DataDirFlag.Name),
		RPCEndpoints:      cliCtx.StringSlice(RPCEndpointsFlag.Name),
		AlchemyKey:        cliCtx.String(AlchemyKeyFlag.Name),
		InfuraKey:         cliCtx.String(InfuraKeyFlag.Name),
		DisableMonitoring: cliCtx.Bool(DisableMonitoringFlag.Name),
		MonitoringHost:    cliCtx.String(MonitoringHostFlag.Name),
		MonitoringPort:    cliCtx.Int(MonitoringPortFlag.Name),
	})

	chain := params.AaveConfig().Copy()
	if cliCtx.IsSet(FromBlockFlag.Name) {
		chain.GenesisBlock = cliCtx.Uint64(FromBlockFlag.Name)
	}
	if cliCtx.IsSet(ScanIntervalFlag.Name) {
		chain.ScanInterval = cliCtx.Duration(ScanIntervalFlag.Name)
	}
	params.OverrideAaveConfig(chain)
}
