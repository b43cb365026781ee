package features

import "github.com/urfave/cli/v2"

// Deprecated flags list.
const deprecatedUsage = "DEPRECATED. DO NOT USE."

var (
	// deprecatedScanOnceFlag was replaced by the scan subcommand.
	deprecatedScanOnceFlag = &cli.BoolFlag{
		Name:   "scan-once",
		Usage:  deprecatedUsage,
		Hidden: true,
	}
	// deprecatedCsvPathFlag was replaced by --datadir; the master CSV name
	// is fixed within the data directory.
	deprecatedCsvPathFlag = &cli.StringFlag{
		Name:   "csv-path",
		Usage:  deprecatedUsage,
		Hidden: true,
	}
	// deprecatedProviderStatsFlag was replaced by the providers subcommand.
	deprecatedProviderStatsFlag = &cli.BoolFlag{
		Name:   "provider-stats",
		Usage:  deprecatedUsage,
		Hidden: true,
	}
)

// Deprecated flags stay registered so that setting one produces a loud
// complaint instead of a parse error.
var deprecatedFlags = []cli.Flag{
	deprecatedScanOnceFlag,
	deprecatedCsvPathFlag,
	deprecatedProviderStatsFlag,
}
