package main

import (
	"path/filepath"

	"github.com/observerlabs/aavewatch/cmd/aavewatch/flags"
	"github.com/observerlabs/aavewatch/config/features"
	"github.com/observerlabs/aavewatch/config/params"
	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/observerlabs/aavewatch/indexer/prices"
	"github.com/observerlabs/aavewatch/indexer/providers"
	"github.com/observerlabs/aavewatch/indexer/scanner"
	"github.com/observerlabs/aavewatch/indexer/tokens"
	"github.com/observerlabs/aavewatch/io/file"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// configure runs the shared flag handling for subcommands.
func configure(cliCtx *cli.Context) {
	features.ConfigureAavewatch(cliCtx)
	flags.ConfigureGlobalFlags(cliCtx)
}

// buildPool assembles the endpoint list from flags and environment and
// opens a provider pool over it.
func buildPool() (*providers.Pool, error) {
	cfg := params.AaveConfig()
	g := flags.Get()
	endpoints := providers.BuildEndpoints(cfg, g.RPCEndpoints, g.AlchemyKey, g.InfuraKey)
	return providers.NewPool(&providers.Config{
		Endpoints:      endpoints,
		ChainID:        cfg.ChainID,
		BaseTimeout:    cfg.CallTimeout,
		Attempts:       cfg.CallAttempts,
		ResponseWindow: cfg.ResponseTimeWindow,
	})
}

// buildScanner assembles the one-shot scan stack shared by the scan and
// validate subcommands: pool, token registry, price resolver, and the CSV
// store rooted in the data directory.
func buildScanner() (*scanner.Scanner, error) {
	cfg := params.AaveConfig()

	dataDir, err := file.ExpandPath(flags.Get().DataDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not expand data directory")
	}
	if err := file.MkdirAll(dataDir); err != nil {
		return nil, errors.Wrap(err, "could not create data directory")
	}

	pool, err := buildPool()
	if err != nil {
		return nil, errors.Wrap(err, "could not build provider pool")
	}
	registry, err := tokens.NewRegistry(cfg, pool)
	if err != nil {
		return nil, errors.Wrap(err, "could not build token registry")
	}
	resolver, err := prices.NewResolver(cfg, pool)
	if err != nil {
		return nil, errors.Wrap(err, "could not build price resolver")
	}
	store := csvstore.NewStore(filepath.Join(dataDir, cfg.MasterCSVName))
	return scanner.New(cfg, pool, registry, resolver, store, dataDir)
}
