package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/api/middleware"
	"github.com/audfs/creator-node/internal/api/rest"
	"github.com/audfs/creator-node/internal/api/server"
	"github.com/audfs/creator-node/internal/blobstore"
	"github.com/audfs/creator-node/internal/config"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/media"
	"github.com/audfs/creator-node/internal/registry"
	"github.com/audfs/creator-node/internal/replication"
	"github.com/audfs/creator-node/internal/store"
	"github.com/audfs/creator-node/internal/synclock"
)

// version is stamped at build time via -ldflags "-X main.version=...".
// Peers compare it on /health_check during replica selection.
var version = "0.0.0-dev"

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadNodeConfig(*configFile, *envPath)
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
			"service": "creator-node",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting creator node",
		zap.String("version", version),
		zap.String("endpoint", cfg.Identity.SelfEndpoint),
	)

	// Connect to database. TranslateError is required so the store can
	// map duplicate-key violations onto clock conflicts.
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	fs := adapter.NewFileSystem()
	clock := adapter.NewClock()
	jcs := adapter.NewJCS()
	httpClient := adapter.NewHTTPClient(cfg.Sync.RequestTimeout)

	// Connect to redis for the per-wallet sync lock
	redisClient := adapter.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
	}
	lock := synclock.NewLock(redisClient, clock, cfg.Sync.LockTTL)
	logger.InfoCtx(ctx, "Connected to redis", zap.String("addr", cfg.Redis.Addr()))

	// Open the content store
	storage, err := blobstore.NewStorage(fs, cfg.Storage.Root)
	if err != nil {
		logger.Fatal("Failed to open storage root", zap.Error(err), zap.String("root", cfg.Storage.Root))
	}
	fetcher := blobstore.NewFetcher(storage, httpClient, cfg.Sync.FetchConcurrency)
	rehydrator := blobstore.NewRehydrator(storage, fetcher, gatewaySources(cfg.Registry.ContentGateways), cfg.Sync.Worker.PoolSize, cfg.Sync.Worker.QueueSize)

	// Registry mirror resolves peer nodes for token verification. Without
	// it the node still serves reads and writes but refuses peer lookups.
	var provider registry.Provider
	if cfg.Registry.URL != "" {
		snapshotFetcher := registry.NewHTTPSnapshotFetcher(httpClient, cfg.Registry.URL)
		provider = registry.NewProvider(snapshotFetcher, clock, registry.Config{
			TTL:         cfg.Registry.CacheTTL,
			StaleWindow: cfg.Registry.StaleWindow,
		})
		logger.InfoCtx(ctx, "Registry mirror configured", zap.String("url", cfg.Registry.URL))
	} else {
		logger.WarnCtx(ctx, "Registry mirror not configured, peer file lookups will be refused")
	}

	// Load denylist
	denylist, err := registry.LoadDenylist(cfg.DenylistPath)
	if err != nil {
		logger.Fatal("Failed to load denylist", zap.Error(err), zap.String("path", cfg.DenylistPath))
	}
	if cfg.DenylistPath != "" {
		logger.InfoCtx(ctx, "Loaded denylist", zap.String("path", cfg.DenylistPath))
	} else {
		logger.WarnCtx(ctx, "Denylist path not configured, all content will be served")
	}

	// The delegate key signs the tokens this node presents when pulling
	// blobs from peers.
	var signer *middleware.NodeTokenSigner
	if cfg.Identity.DelegateKeyPath != "" {
		pemBytes, err := os.ReadFile(cfg.Identity.DelegateKeyPath)
		if err != nil {
			logger.Fatal("Failed to read delegate key", zap.Error(err), zap.String("path", cfg.Identity.DelegateKeyPath))
		}
		signer, err = middleware.NewNodeTokenSigner(string(pemBytes), cfg.Identity.DelegateWallet, 0)
		if err != nil {
			logger.Fatal("Failed to parse delegate key", zap.Error(err), zap.String("path", cfg.Identity.DelegateKeyPath))
		}
	} else {
		logger.WarnCtx(ctx, "Delegate key not configured, peer fetches will be unauthenticated")
	}

	// Replication engine
	exporter := replication.NewExporter(dataStore, replication.ExporterConfig{
		Endpoint:            cfg.Identity.SelfEndpoint,
		DelegateOwnerWallet: cfg.Identity.DelegateWallet,
		MaxRange:            cfg.Sync.MaxExportRange,
	})
	replClient := replication.NewClient(httpClient)
	importer := replication.NewImporter(dataStore, lock, replClient, storage, fetcher, clock, replication.ImporterConfig{
		SelfEndpoint: cfg.Identity.SelfEndpoint,
		Gateways:     cfg.Registry.ContentGateways,
	})
	trigger := replication.NewTrigger(replClient, clock, replication.TriggerConfig{
		SelfEndpoint: cfg.Identity.SelfEndpoint,
		Debounce:     cfg.Sync.DebounceInterval,
		ReapInterval: reapInterval(cfg.Sync.DebounceInterval),
		Concurrency:  cfg.Sync.Worker.PoolSize,
	})

	resizer := media.NewResizer(media.Config{WorkerConcurrency: cfg.Sync.Worker.PoolSize})
	syncPool := pond.NewPool(cfg.Sync.Worker.PoolSize, pond.WithQueueSize(cfg.Sync.Worker.QueueSize))

	handler := rest.NewHandler(rest.Config{
		Service:            "creator-node",
		Version:            version,
		SelfEndpoint:       cfg.Identity.SelfEndpoint,
		Gateways:           cfg.Registry.ContentGateways,
		MaxUploadSize:      cfg.Storage.MaxUploadSize,
		RemoteFetchTimeout: cfg.Sync.RequestTimeout,
	}, rest.Dependencies{
		Store:      dataStore,
		Storage:    storage,
		Fetcher:    fetcher,
		Rehydrator: rehydrator,
		Resizer:    resizer,
		JCS:        jcs,
		Lock:       lock,
		Exporter:   exporter,
		Importer:   importer,
		Trigger:    trigger,
		Denylist:   denylist,
		Signer:     signer,
		SyncPool:   syncPool,
	})

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Create and start server
	srv := server.New(serverConfig, handler, provider, denylist)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()
	logger.InfoCtx(ctx, "Server listening",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	// Stop accepting requests first, then drain the background queues
	// while the store and storage are still alive.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	syncPool.StopAndWait()
	trigger.Stop()
	rehydrator.Stop()
	_ = resizer.Close()

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("Creator node stopped")
}

// reapInterval derives the trigger reaper tick from the debounce window so
// short windows still dispatch promptly.
func reapInterval(debounce time.Duration) time.Duration {
	tick := debounce / 2
	if tick < 250*time.Millisecond {
		tick = 250 * time.Millisecond
	}
	if tick > 2*time.Second {
		tick = 2 * time.Second
	}
	return tick
}

// gatewaySources adapts the configured content gateways into rehydration
// fetch sources.
func gatewaySources(gateways []string) func(ctx context.Context) []blobstore.Source {
	sources := make([]blobstore.Source, 0, len(gateways))
	for _, gw := range gateways {
		sources = append(sources, blobstore.Source{Endpoint: gw})
	}
	return func(context.Context) []blobstore.Source {
		return sources
	}
}
