package features

import (
	"strings"

	"github.com/urfave/cli/v2"
)

var (
	// SkipInitialScanFlag waits for the first interval tick instead of
	// scanning immediately at startup.
	SkipInitialScanFlag = &cli.BoolFlag{
		Name:    "skip-initial-scan",
		Usage:   "Do not run a scan pass at startup; wait for the first interval tick instead.",
		EnvVars: []string{"SKIP_INITIAL_SCAN"},
	}
	// DisableBackgroundServicesFlag serves only the monitoring endpoints.
	DisableBackgroundServicesFlag = &cli.BoolFlag{
		Name:    "disable-background-services",
		Usage:   "Do not start the periodic scanner or the daily dataset builder; only serve monitoring endpoints.",
		EnvVars: []string{"DISABLE_BACKGROUND_SERVICES"},
	}
	// DisableEthDatasetFlag turns off the daily ETH/USD dataset builder.
	DisableEthDatasetFlag = &cli.BoolFlag{
		Name:  "disable-eth-dataset",
		Usage: "Do not build the daily ETH/USD Chainlink dataset.",
	}
)

// AavewatchFlags contains a list of all the feature flags that apply to the
// aavewatch daemon and its subcommands.
var AavewatchFlags = append(deprecatedFlags,
	SkipInitialScanFlag,
	DisableBackgroundServicesFlag,
	DisableEthDatasetFlag,
)

// ActiveFlags returns all of the flags that are not Deprecated.
func ActiveFlags(flags []cli.Flag) []cli.Flag {
	var active []cli.Flag
	for _, f := range flags {
		if !strings.Contains(f.String(), "DEPRECATED") {
			active = append(active, f)
		}
	}
	return active
}
