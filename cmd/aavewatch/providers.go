package main

import (
	"fmt"
	"os"

	"github.com/observerlabs/aavewatch/cmd/aavewatch/flags"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var providersCommand = &cli.Command{
	Name:  "providers",
	Usage: "probe every RPC endpoint and print the health table",
	Flags: []cli.Flag{
		flags.RPCEndpointsFlag,
		flags.AlchemyKeyFlag,
		flags.InfuraKeyFlag,
	},
	Action: func(cliCtx *cli.Context) error {
		configure(cliCtx)
		pool, err := buildPool()
		if err != nil {
			return err
		}
		healthy := pool.Probe(cliCtx.Context)

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Endpoint", "Success", "Errors", "Success rate", "Avg ms", "Total"})
		table.SetBorder(false)
		for _, s := range pool.Stats() {
			table.Append([]string{
				s.URL,
				fmt.Sprintf("%d", s.SuccessCount),
				fmt.Sprintf("%d", s.ErrorCount),
				fmt.Sprintf("%.1f%%", s.SuccessRate*100),
				fmt.Sprintf("%.0f", s.AvgResponseMs),
				fmt.Sprintf("%d", s.Total),
			})
		}
		table.Render()

		fmt.Printf("\n%d healthy endpoints\n", healthy)
		return nil
	},
}
