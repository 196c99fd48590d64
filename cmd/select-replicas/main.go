package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/config"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/registry"
	"github.com/audfs/creator-node/internal/selector"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	envPath     = flag.String("env", "config/", "Path to environment files")
	wallet      = flag.String("wallet", "", "User wallet for the sync check stage (requires selector.enable_sync_check)")
	blockNumber = flag.Int64("block", 0, "Latest on-chain block number for the wallet")
)

// result is the machine-readable selection printed to stdout
type result struct {
	Primary     string             `json:"primary,omitempty"`
	Secondaries []string           `json:"secondaries,omitempty"`
	Error       string             `json:"error,omitempty"`
	Decision    *selector.Decision `json:"decision"`
}

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSelectReplicasConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:       cfg.Debug,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.Environment,
		Tags: map[string]string{
			"service": "select-replicas",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	// Handle interrupt so a hung probe set doesn't wedge the run
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("Received interrupt, canceling selection")
		cancel()
	}()

	// Initialize adapters
	clock := adapter.NewClock()
	httpClient := adapter.NewHTTPClient(cfg.Selector.RequestTimeout)

	// Registry mirror lists the candidate fleet
	snapshotFetcher := registry.NewHTTPSnapshotFetcher(httpClient, cfg.Registry.URL)
	provider := registry.NewProvider(snapshotFetcher, clock, registry.Config{
		TTL:         cfg.Registry.CacheTTL,
		StaleWindow: cfg.Registry.StaleWindow,
	})

	prober := selector.NewProber(httpClient, clock, cfg.Selector.RequestTimeout)
	syncChecker := selector.NewSyncChecker(httpClient, cfg.Selector.RequestTimeout)
	sel := selector.New(provider, prober, syncChecker, clock, selector.Config{
		ReplicaSetSize: cfg.Selector.NumNodes,
		Concurrency:    cfg.Selector.Worker.PoolSize,
	})

	req := selector.Request{
		Allowlist: cfg.Selector.AllowList,
		Denylist:  cfg.Selector.DenyList,
	}
	if cfg.Selector.EnableSyncCheck {
		normalized, err := domain.ValidateWallet(*wallet)
		if err != nil {
			logger.Fatal("Sync check is enabled but no valid wallet was given", zap.Error(err))
		}
		req.SyncCheck = &selector.SyncCheck{
			Wallet:      normalized,
			BlockNumber: *blockNumber,
		}
	}

	selection, err := sel.Select(ctx, req)
	if err != nil {
		var noPrimary *selector.NoPrimaryError
		if errors.As(err, &noPrimary) {
			// The trace shows which stage emptied the candidate set
			printResult(result{
				Error:    domain.ErrNoPrimaryAvailable.Error(),
				Decision: noPrimary.Decision,
			})
			os.Exit(1)
		}
		logger.Fatal("Selection failed", zap.Error(err))
	}

	printResult(result{
		Primary:     selection.Primary,
		Secondaries: selection.Secondaries,
		Decision:    selection.Decision,
	})
}

func printResult(res result) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(res); err != nil {
		logger.Fatal("Failed to encode selection", zap.Error(err))
	}
}
