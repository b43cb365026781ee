/*
Package features defines which features are enabled for runtime
in order to selectively enable certain features to maintain a stable runtime.

The process for implementing new features using this package is as follows:
 1. Add a new CMD flag in flags.go, and place it in the proper list(s) var for its client.
 2. Add a condition for the flag in the proper Configure function(s) below.
 3. Place any "new" behavior in the `if flagEnabled` statement.
 4. Place any "previous" behavior in the `else` statement.
 5. Ensure any tests using the new feature fail if the flag isn't enabled.
 5a. Use the following to enable your flag for tests:
 cfg := &features.Flags{
 	SkipInitialScan: true,
 }
 reset := features.InitWithReset(cfg)
 defer reset()
*/
package features

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "flags")

// Flags is a struct to represent which features the client will perform on runtime.
type Flags struct {
	// SkipInitialScan waits for the first interval tick instead of running
	// a scan pass immediately at startup.
	SkipInitialScan bool
	// DisableBackgroundServices keeps the periodic scanner and the daily
	// dataset builder from being registered; only the monitoring surface
	// is served.
	DisableBackgroundServices bool
	// DisableEthDataset turns off the daily ETH/USD dataset builder while
	// leaving the liquidation scanner running.
	DisableEthDataset bool
}

var featureConfig *Flags

// Get retrieves feature config.
func Get() *Flags {
	if featureConfig == nil {
		return &Flags{}
	}
	return featureConfig
}

// Init sets the global config equal to the config that is passed in.
func Init(c *Flags) {
	featureConfig = c
}

// InitWithReset sets the global config and returns a function that is used to reset the configuration.
func InitWithReset(c *Flags) func() {
	resetFunc := func() {
		Init(&Flags{})
	}
	Init(c)
	return resetFunc
}

// ConfigureAavewatch sets the global config based on what flags are enabled
// for the aavewatch daemon and its subcommands.
func ConfigureAavewatch(ctx *cli.Context) {
	complainOnDeprecatedFlags(ctx)
	cfg := &Flags{}
	if ctx.Bool(SkipInitialScanFlag.Name) {
		log.Warn("Skipping the scan pass normally run at startup")
		cfg.SkipInitialScan = true
	}
	if ctx.Bool(DisableBackgroundServicesFlag.Name) {
		log.Warn("Background scanner and dataset services are disabled")
		cfg.DisableBackgroundServices = true
	}
	if ctx.Bool(DisableEthDatasetFlag.Name) {
		log.Warn("Daily ETH price dataset builder is disabled")
		cfg.DisableEthDataset = true
	}
	Init(cfg)
}

func complainOnDeprecatedFlags(ctx *cli.Context) {
	for _, f := range deprecatedFlags {
		name := f.Names()[0]
		if ctx.IsSet(name) {
			log.Errorf("%s is deprecated and has no effect. Do not use this flag, it will be deleted soon.", name)
		}
	}
}
