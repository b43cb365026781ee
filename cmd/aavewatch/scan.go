package main

import (
	"strconv"

	"github.com/observerlabs/aavewatch/cmd/aavewatch/flags"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var scanCommand = &cli.Command{
	Name:      "scan",
	Usage:     "run a single scan pass from the CSV resume point and exit",
	ArgsUsage: "[toBlock | latest]",
	Description: `Runs one scan pass: resumes from the last block recorded in the master
CSV (or the start of Aave V3 history on a fresh file) and scans up to the
given block, or the chain tip when the bound is omitted or "latest".`,
	Flags: []cli.Flag{
		flags.RPCEndpointsFlag,
		flags.AlchemyKeyFlag,
		flags.InfuraKeyFlag,
		flags.DataDirFlag,
		flags.FromBlockFlag,
	},
	Action: func(cliCtx *cli.Context) error {
		configure(cliCtx)
		var toBlock uint64
		if cliCtx.Args().Len() > 0 {
			arg := cliCtx.Args().First()
			if arg != "latest" {
				v, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return errors.Errorf("invalid block bound %q", arg)
				}
				toBlock = v
			}
		}
		sc, err := buildScanner()
		if err != nil {
			return err
		}
		return sc.ScanOnce(cliCtx.Context, toBlock)
	},
}
