package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
)

//go:generate mockgen -source=registry.go -destination=../mocks/registry.go -package=mocks -mock_names=Provider=MockRegistryProvider,SnapshotFetcher=MockSnapshotFetcher

const (
	// DefaultTTL is how long a registry snapshot is served without refetching
	DefaultTTL = time.Minute

	// DefaultStaleWindow is how long an expired snapshot may still be served
	// when the registry endpoint is unreachable
	DefaultStaleWindow = 10 * time.Minute
)

// Node describes a content node registered on the network
type Node struct {
	Endpoint            string `json:"endpoint"`
	DelegateOwnerWallet string `json:"delegateOwnerWallet"`
	DelegatePublicKey   string `json:"delegatePublicKey"`
}

// Snapshot is the registry view of the content-node fleet
type Snapshot struct {
	ExpectedVersion string `json:"expectedVersion"`
	Nodes           []Node `json:"nodes"`
}

// cachedSnapshot holds a snapshot with its fetch timestamp
type cachedSnapshot struct {
	snapshot  *Snapshot
	fetchedAt time.Time
}

// SnapshotFetcher defines the interface for fetching registry snapshots
type SnapshotFetcher interface {
	// FetchSnapshot returns the current fleet snapshot from the registry
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}

// Provider defines the interface for cached registry access
type Provider interface {
	// Snapshot returns the registry snapshot, potentially cached
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Nodes returns every content node in the registry snapshot
	Nodes(ctx context.Context) ([]Node, error)

	// ExpectedVersion returns the version the network expects nodes to run
	ExpectedVersion(ctx context.Context) (string, error)

	// NodeByWallet returns the node registered with the given delegate
	// wallet, or nil when no node matches
	NodeByWallet(ctx context.Context, delegateWallet string) (*Node, error)
}

// Config holds configuration for the registry provider
type Config struct {
	TTL         time.Duration
	StaleWindow time.Duration
}

// provider implements Provider with TTL-based caching
type provider struct {
	fetcher SnapshotFetcher
	clock   adapter.Clock
	config  Config

	mu     sync.RWMutex
	cached *cachedSnapshot
}

// NewProvider creates a registry provider backed by the given fetcher
func NewProvider(fetcher SnapshotFetcher, clock adapter.Clock, config Config) Provider {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.StaleWindow <= 0 {
		config.StaleWindow = DefaultStaleWindow
	}
	return &provider{
		fetcher: fetcher,
		clock:   clock,
		config:  config,
	}
}

// Snapshot returns the cached snapshot when fresh, refetching once the TTL
// has passed. A fetch failure falls back to the expired snapshot as long as
// it is within the stale window.
func (p *provider) Snapshot(ctx context.Context) (*Snapshot, error) {
	p.mu.RLock()
	cached := p.cached
	p.mu.RUnlock()

	if cached != nil && p.clock.Since(cached.fetchedAt) < p.config.TTL {
		return cached.snapshot, nil
	}

	snapshot, err := p.fetcher.FetchSnapshot(ctx)
	if err != nil {
		if cached != nil && p.clock.Since(cached.fetchedAt) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Failed to fetch registry snapshot, using stale cache",
				zap.Error(err),
				zap.Time("fetchedAt", cached.fetchedAt))
			return cached.snapshot, nil
		}
		return nil, fmt.Errorf("failed to fetch registry snapshot and no valid cache available: %w", err)
	}

	p.mu.Lock()
	p.cached = &cachedSnapshot{
		snapshot:  snapshot,
		fetchedAt: p.clock.Now(),
	}
	p.mu.Unlock()

	return snapshot, nil
}

// Nodes returns every content node in the registry snapshot
func (p *provider) Nodes(ctx context.Context) ([]Node, error) {
	snapshot, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Nodes, nil
}

// ExpectedVersion returns the version the network expects nodes to run
func (p *provider) ExpectedVersion(ctx context.Context) (string, error) {
	snapshot, err := p.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return snapshot.ExpectedVersion, nil
}

// NodeByWallet returns the node registered with the given delegate wallet.
// Wallet comparison is case-insensitive. Returns nil when no node matches.
func (p *provider) NodeByWallet(ctx context.Context, delegateWallet string) (*Node, error) {
	snapshot, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	wallet := domain.NormalizeWallet(delegateWallet)
	for i := range snapshot.Nodes {
		if domain.NormalizeWallet(snapshot.Nodes[i].DelegateOwnerWallet) == wallet {
			return &snapshot.Nodes[i], nil
		}
	}
	return nil, nil
}

// httpSnapshotFetcher fetches snapshots from a registry HTTP endpoint
type httpSnapshotFetcher struct {
	httpClient adapter.HTTPClient
	endpoint   string
}

// NewHTTPSnapshotFetcher creates a fetcher against the given registry endpoint
func NewHTTPSnapshotFetcher(httpClient adapter.HTTPClient, endpoint string) SnapshotFetcher {
	return &httpSnapshotFetcher{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
	}
}

// FetchSnapshot returns the current fleet snapshot from the registry
func (f *httpSnapshotFetcher) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	var snapshot Snapshot
	url := fmt.Sprintf("%s/content_nodes", f.endpoint)
	if err := f.httpClient.Get(ctx, url, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to fetch registry snapshot: %w", err)
	}
	return &snapshot, nil
}
