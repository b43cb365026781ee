// Package main defines the aavewatch entry point: a continuously running
// indexer that follows Aave V3 LiquidationCall events on Ethereum mainnet
// and maintains the master liquidation CSV dataset.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	joonix "github.com/joonix/log"
	"github.com/observerlabs/aavewatch/cmd/aavewatch/flags"
	"github.com/observerlabs/aavewatch/config/features"
	"github.com/observerlabs/aavewatch/indexer/node"
	"github.com/observerlabs/aavewatch/io/logs"
	"github.com/observerlabs/aavewatch/runtime/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var log = logrus.WithField("prefix", "main")

var appFlags = []cli.Flag{
	flags.RPCEndpointsFlag,
	flags.AlchemyKeyFlag,
	flags.InfuraKeyFlag,
	flags.DataDirFlag,
	flags.FromBlockFlag,
	flags.ScanIntervalFlag,
	flags.MonitoringHostFlag,
	flags.MonitoringPortFlag,
	flags.DisableMonitoringFlag,
	flags.VerbosityFlag,
	flags.LogFormat,
	flags.LogFileName,
}

func init() {
	appFlags = append(appFlags, features.AavewatchFlags...)
}

func startNode(cliCtx *cli.Context) error {
	watcher, err := node.New(cliCtx)
	if err != nil {
		return err
	}
	log.WithField("version", version.GetVersion()).Info("Starting aavewatch node")
	watcher.Start()
	return nil
}

func main() {
	// A local .env file supplements the process environment so API keys do
	// not have to live in shell profiles. Absence is not an error.
	_ = godotenv.Load()

	app := cli.App{}
	app.Name = "aavewatch"
	app.Usage = "continuously indexes Aave V3 liquidation events on Ethereum mainnet into a master CSV dataset"
	app.Version = version.GetVersion()
	app.Flags = appFlags
	app.Action = startNode
	app.Commands = []*cli.Command{
		scanCommand,
		validateCommand,
		providersCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		format := ctx.String(flags.LogFormat.Name)
		switch format {
		case "text":
			formatter := new(prefixed.TextFormatter)
			formatter.TimestampFormat = "2006-01-02 15:04:05"
			formatter.FullTimestamp = true
			// If persistent log files are written - we disable the log messages coloring because
			// the colors are ANSI codes and seen as Gibberish in the log files.
			formatter.DisableColors = ctx.String(flags.LogFileName.Name) != ""
			logrus.SetFormatter(formatter)
		case "fluentd":
			logrus.SetFormatter(joonix.NewFormatter())
		case "json":
			logrus.SetFormatter(&logrus.JSONFormatter{})
		default:
			return fmt.Errorf("unknown log format %s", format)
		}

		logFileName := ctx.String(flags.LogFileName.Name)
		if logFileName != "" {
			if err := logs.ConfigurePersistentLogging(logFileName); err != nil {
				log.WithError(err).Error("Failed to configuring logging to disk.")
			}
		}

		level, err := logrus.ParseLevel(ctx.String(flags.VerbosityFlag.Name))
		if err != nil {
			return err
		}
		logrus.SetLevel(level)

		runtime.GOMAXPROCS(runtime.NumCPU())
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
