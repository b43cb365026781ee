// Package node defines the aavewatch node process: it assembles the
// provider pool, token registry, price resolver, and CSV store, registers
// the long-running services, and manages the lifecycle of the entire
// system.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/observerlabs/aavewatch/cmd/aavewatch/flags"
	"github.com/observerlabs/aavewatch/config/features"
	"github.com/observerlabs/aavewatch/config/params"
	"github.com/observerlabs/aavewatch/indexer/csvstore"
	"github.com/observerlabs/aavewatch/indexer/ethdataset"
	"github.com/observerlabs/aavewatch/indexer/prices"
	"github.com/observerlabs/aavewatch/indexer/providers"
	"github.com/observerlabs/aavewatch/indexer/scanner"
	"github.com/observerlabs/aavewatch/indexer/tokens"
	"github.com/observerlabs/aavewatch/io/file"
	"github.com/observerlabs/aavewatch/monitoring/prometheus"
	"github.com/observerlabs/aavewatch/runtime"
	"github.com/observerlabs/aavewatch/runtime/prereqs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "node")

// IndexerNode defines a struct that handles the services running the Aave
// liquidation indexer. It handles the lifecycle of the entire system and
// registers services to a service registry.
type IndexerNode struct {
	cliCtx   *cli.Context
	ctx      context.Context
	cancel   context.CancelFunc
	lock     sync.RWMutex
	services *runtime.ServiceRegistry
	stop     chan struct{} // Channel to wait for termination notifications.

	pool     *providers.Pool
	registry *tokens.Registry
	resolver *prices.Resolver
	store    *csvstore.Store
	dataDir  string
}

// New creates a new node instance, sets up configuration options, and
// registers every required service to the node.
func New(cliCtx *cli.Context) (*IndexerNode, error) {
	features.ConfigureAavewatch(cliCtx)
	flags.ConfigureGlobalFlags(cliCtx)
	prereqs.WarnIfPlatformNotSupported(cliCtx.Context)
	log.WithField("config", params.AaveConfig().ConfigName).Info("Using chain configuration")

	registry := runtime.NewServiceRegistry()
	ctx, cancel := context.WithCancel(cliCtx.Context)
	node := &IndexerNode{
		cliCtx:   cliCtx,
		ctx:      ctx,
		cancel:   cancel,
		services: registry,
		stop:     make(chan struct{}),
	}

	if err := node.startDataDir(); err != nil {
		cancel()
		return nil, err
	}
	if err := node.startClients(); err != nil {
		cancel()
		return nil, err
	}

	if features.Get().DisableBackgroundServices {
		log.Warn("No scanner registered, only the monitoring surface will be served")
	} else {
		if err := node.registerScannerService(); err != nil {
			cancel()
			return nil, err
		}
		if !features.Get().DisableEthDataset {
			if err := node.registerDatasetService(); err != nil {
				cancel()
				return nil, err
			}
		}
	}
	if !flags.Get().DisableMonitoring {
		if err := node.registerPrometheusService(); err != nil {
			cancel()
			return nil, err
		}
	}
	return node, nil
}

// Start the indexer node and kick off every registered service.
func (n *IndexerNode) Start() {
	n.lock.Lock()
	n.services.StartAll()
	stop := n.stop
	n.lock.Unlock()

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		panic("Panic closing the aavewatch node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (n *IndexerNode) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	log.Info("Stopping aavewatch node")
	n.services.StopAll()
	n.cancel()
	close(n.stop)
}

// startDataDir expands and creates the data directory and makes sure the
// master CSV exists with its canonical header before anything scans.
func (n *IndexerNode) startDataDir() error {
	dataDir, err := file.ExpandPath(flags.Get().DataDir)
	if err != nil {
		return errors.Wrap(err, "could not expand data directory")
	}
	if err := file.MkdirAll(dataDir); err != nil {
		return errors.Wrap(err, "could not create data directory")
	}
	n.dataDir = dataDir
	n.store = csvstore.NewStore(filepath.Join(dataDir, params.AaveConfig().MasterCSVName))
	if err := n.store.Ensure(); err != nil {
		return errors.Wrap(err, "could not create master CSV")
	}
	log.WithField("path", n.store.Path()).Info("Master CSV ready")
	return nil
}

// startClients builds the shared RPC-facing components in dependency
// order: endpoint list, provider pool, token registry, price resolver.
func (n *IndexerNode) startClients() error {
	cfg := params.AaveConfig()
	g := flags.Get()
	endpoints := providers.BuildEndpoints(cfg, g.RPCEndpoints, g.AlchemyKey, g.InfuraKey)
	pool, err := providers.NewPool(&providers.Config{
		Endpoints:      endpoints,
		ChainID:        cfg.ChainID,
		BaseTimeout:    cfg.CallTimeout,
		Attempts:       cfg.CallAttempts,
		ResponseWindow: cfg.ResponseTimeWindow,
	})
	if err != nil {
		return errors.Wrap(err, "could not build provider pool")
	}
	n.pool = pool

	registry, err := tokens.NewRegistry(cfg, pool)
	if err != nil {
		return errors.Wrap(err, "could not build token registry")
	}
	n.registry = registry

	resolver, err := prices.NewResolver(cfg, pool)
	if err != nil {
		return errors.Wrap(err, "could not build price resolver")
	}
	n.resolver = resolver

	log.Infof("Provider pool ready with %d endpoints", len(endpoints))
	return nil
}

func (n *IndexerNode) registerScannerService() error {
	cfg := params.AaveConfig()
	sc, err := scanner.New(cfg, n.pool, n.registry, n.resolver, n.store, n.dataDir)
	if err != nil {
		return errors.Wrap(err, "could not build scanner")
	}
	svc := scanner.NewService(n.ctx, &scanner.Config{
		Scanner:         sc,
		Interval:        cfg.ScanInterval,
		SkipInitialScan: features.Get().SkipInitialScan,
	})
	return n.services.RegisterService(svc)
}

func (n *IndexerNode) registerDatasetService() error {
	b, err := ethdataset.New(params.AaveConfig(), n.pool, n.resolver, n.dataDir)
	if err != nil {
		return errors.Wrap(err, "could not build dataset builder")
	}
	return n.services.RegisterService(ethdataset.NewService(n.ctx, b))
}

func (n *IndexerNode) registerPrometheusService() error {
	logrus.AddHook(prometheus.NewLogrusCollector())
	service := prometheus.NewService(
		fmt.Sprintf("%s:%d", flags.Get().MonitoringHost, flags.Get().MonitoringPort),
		n.services,
	)
	return n.services.RegisterService(service)
}
