// Package flags defines the command line flags for the aavewatch daemon.
package flags

import (
	"time"

	"github.com/observerlabs/aavewatch/config/params"
	"github.com/urfave/cli/v2"
)

var (
	// RPCEndpointsFlag replaces the built-in endpoint list entirely.
	RPCEndpointsFlag = &cli.StringSliceFlag{
		Name:  "rpc-endpoints",
		Usage: "Ethereum JSON-RPC endpoint to use instead of the built-in list. This flag may be used multiple times.",
	}
	// AlchemyKeyFlag puts a keyed Alchemy endpoint at the front of the pool.
	AlchemyKeyFlag = &cli.StringFlag{
		Name:    "alchemy-key",
		Usage:   "Alchemy API key. The keyed endpoint is dialed before the public fallbacks.",
		EnvVars: []string{"ALCHEMY_API_KEY"},
	}
	// InfuraKeyFlag puts a keyed Infura endpoint ahead of the public fallbacks.
	InfuraKeyFlag = &cli.StringFlag{
		Name:    "infura-key",
		Usage:   "Infura project id. The keyed endpoint is dialed before the public fallbacks.",
		EnvVars: []string{"INFURA_API_KEY"},
	}
	// DataDirFlag defines the directory for the CSV datasets and status files.
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the CSV datasets and status files.",
		Value: params.AaveConfig().DataDirName,
	}
	// FromBlockFlag overrides the first block of a fresh scan. Resumption
	// from an existing CSV ignores it.
	FromBlockFlag = &cli.Uint64Flag{
		Name:    "from-block",
		Usage:   "First block to scan when the master CSV is empty. Defaults to the start of Aave V3 mainnet history.",
		EnvVars: []string{"AAVE_FROM_BLOCK"},
	}
	// ScanIntervalFlag defines the pause between periodic scan passes.
	ScanIntervalFlag = &cli.DurationFlag{
		Name:  "scan-interval",
		Usage: "Time between periodic scan passes.",
		Value: 60 * time.Second,
	}
	// MonitoringHostFlag defines the host used for the prometheus service.
	MonitoringHostFlag = &cli.StringFlag{
		Name:  "monitoring-host",
		Usage: "Host used for listening and responding metrics for prometheus.",
		Value: "127.0.0.1",
	}
	// MonitoringPortFlag defines the port used for the prometheus service.
	MonitoringPortFlag = &cli.IntFlag{
		Name:  "monitoring-port",
		Usage: "Port used to listening and respond metrics for prometheus.",
		Value: 8080,
	}
	// DisableMonitoringFlag disables the prometheus service entirely.
	DisableMonitoringFlag = &cli.BoolFlag{
		Name:  "disable-monitoring",
		Usage: "Disable monitoring service.",
	}
	// VerbosityFlag defines the logrus configuration.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info=default, warn, error, fatal, panic)",
		Value: "info",
	}
	// LogFormat specifies the log output formatter.
	LogFormat = &cli.StringFlag{
		Name:  "log-format",
		Usage: "Specify log formatting. Supports: text, json, fluentd.",
		Value: "text",
	}
	// LogFileName specifies the log output file name.
	LogFileName = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Specify log file name, relative or absolute",
	}
)
