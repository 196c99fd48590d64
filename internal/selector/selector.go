package selector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/registry"
)

// Stage names in pipeline order. Every invocation records all six, so
// traces are comparable across runs.
const (
	StageGetAll       = "getAll"
	StageFilterAllow  = "filterAllow"
	StageFilterDeny   = "filterDeny"
	StageFilterSync   = "filterSync"
	StageFilterHealth = "filterHealth"
	StageSelect       = "select"
)

const (
	// DefaultReplicaSetSize is primary + two secondaries
	DefaultReplicaSetSize = 3
	// DefaultConcurrency bounds probe fan-out
	DefaultConcurrency = 10
)

// Config tunes a Selector
type Config struct {
	// ReplicaSetSize is the total picks: one primary plus N-1 secondaries
	ReplicaSetSize int
	// Concurrency bounds parallel sync and health probes
	Concurrency int
}

// Request scopes one selection run
type Request struct {
	// Allowlist, when non-empty, restricts candidates to these endpoints
	Allowlist []string
	// Denylist removes endpoints after the allow stage
	Denylist []string
	// SyncCheck, when set, drops candidates whose replication state for
	// the wallet is unusable
	SyncCheck *SyncCheck
}

// SyncCheck names the wallet a selection must be able to serve
type SyncCheck struct {
	Wallet string
	// BlockNumber is the wallet's latest on-chain block; candidates
	// reporting an older block are behind
	BlockNumber int64
}

// Stage is one pipeline step with the candidates that survived it
type Stage struct {
	Name      string   `json:"name"`
	Survivors []string `json:"survivors"`
}

// Decision is the ordered trace of one selection run
type Decision struct {
	ID     string  `json:"id"`
	Stages []Stage `json:"stages"`
}

func (d *Decision) record(name string, survivors []string) {
	copied := make([]string, len(survivors))
	copy(copied, survivors)
	d.Stages = append(d.Stages, Stage{Name: name, Survivors: copied})
}

// Selection is a chosen replica set plus the trace that produced it
type Selection struct {
	Primary     string
	Secondaries []string
	Decision    *Decision
}

// NoPrimaryError reports an exhausted candidate list. It carries the full
// decision trace so callers can see which stage emptied the set.
type NoPrimaryError struct {
	Decision *Decision
}

func (e *NoPrimaryError) Error() string {
	return fmt.Sprintf("%v (decision %s)", domain.ErrNoPrimaryAvailable, e.Decision.ID)
}

func (e *NoPrimaryError) Unwrap() error {
	return domain.ErrNoPrimaryAvailable
}

// Selector picks a primary and secondaries from the registered content nodes
type Selector struct {
	registry    registry.Provider
	prober      Prober
	syncChecker SyncChecker
	clock       adapter.Clock
	config      Config
}

// New creates a selector over the given registry view and probes
func New(registryProvider registry.Provider, prober Prober, syncChecker SyncChecker, clock adapter.Clock, config Config) *Selector {
	if config.ReplicaSetSize <= 0 {
		config.ReplicaSetSize = DefaultReplicaSetSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	return &Selector{
		registry:    registryProvider,
		prober:      prober,
		syncChecker: syncChecker,
		clock:       clock,
		config:      config,
	}
}

// Select runs the staged pipeline: registry list, allow, deny, optional
// sync check, parallel health check, then a deterministic sort picking the
// primary and secondaries. Returns *NoPrimaryError when no candidate
// survives the health stage.
func (s *Selector) Select(ctx context.Context, req Request) (*Selection, error) {
	decision := &Decision{ID: ulid.MustNewDefault(s.clock.Now()).String()}

	snapshot, err := s.registry.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry snapshot: %w", err)
	}

	candidates := make([]string, 0, len(snapshot.Nodes))
	for _, node := range snapshot.Nodes {
		endpoint := strings.TrimRight(strings.TrimSpace(node.Endpoint), "/")
		if endpoint != "" {
			candidates = append(candidates, endpoint)
		}
	}
	decision.record(StageGetAll, candidates)

	candidates = filterByList(candidates, req.Allowlist, true)
	decision.record(StageFilterAllow, candidates)

	candidates = filterByList(candidates, req.Denylist, false)
	decision.record(StageFilterDeny, candidates)

	if req.SyncCheck != nil {
		candidates = s.filterSync(ctx, candidates, req.SyncCheck)
	}
	decision.record(StageFilterSync, candidates)

	healthy := s.filterHealth(ctx, candidates, snapshot.ExpectedVersion)
	decision.record(StageFilterHealth, probeEndpoints(healthy))

	if len(healthy) == 0 {
		noPrimary := &NoPrimaryError{Decision: decision}
		logger.WarnCtx(ctx, "Selection exhausted all candidates",
			zap.String("decision", decision.ID),
			zap.Any("stages", decision.Stages))
		return nil, noPrimary
	}

	// Highest version first, then fastest; the endpoint tiebreak keeps
	// repeat runs reproducible.
	sort.Slice(healthy, func(i, j int) bool {
		if cmp := compareVersions(healthy[i].Version, healthy[j].Version); cmp != 0 {
			return cmp > 0
		}
		if healthy[i].Latency != healthy[j].Latency {
			return healthy[i].Latency < healthy[j].Latency
		}
		return healthy[i].Endpoint < healthy[j].Endpoint
	})

	picks := s.config.ReplicaSetSize
	if picks > len(healthy) {
		picks = len(healthy)
	}
	selected := probeEndpoints(healthy[:picks])
	decision.record(StageSelect, selected)

	selection := &Selection{
		Primary:     selected[0],
		Secondaries: selected[1:],
		Decision:    decision,
	}
	logger.InfoCtx(ctx, "Replica set selected",
		zap.String("decision", decision.ID),
		zap.String("primary", selection.Primary),
		zap.Strings("secondaries", selection.Secondaries))
	return selection, nil
}

// filterByList keeps (allow) or drops (deny) the listed endpoints. An empty
// list filters nothing.
func filterByList(candidates, list []string, keep bool) []string {
	if len(list) == 0 {
		return candidates
	}

	listed := make(map[string]bool, len(list))
	for _, endpoint := range list {
		listed[strings.TrimRight(strings.TrimSpace(endpoint), "/")] = true
	}

	survivors := make([]string, 0, len(candidates))
	for _, endpoint := range candidates {
		if listed[endpoint] == keep {
			survivors = append(survivors, endpoint)
		}
	}
	return survivors
}

// filterSync drops candidates that cannot serve the wallet: acceptable
// nodes are either current, or behind but fresh (never configured for the
// wallet, clock -1). Everything else, including probe failures, is out.
func (s *Selector) filterSync(ctx context.Context, candidates []string, check *SyncCheck) []string {
	passes := make([]bool, len(candidates))

	pool := pond.NewPool(s.config.Concurrency, pond.WithContext(ctx))
	for idx, endpoint := range candidates {
		pool.Submit(func() {
			status, err := s.syncChecker.SyncStatus(ctx, endpoint, check.Wallet)
			if err != nil {
				logger.DebugCtx(ctx, "Sync check dropped candidate",
					zap.String("endpoint", endpoint),
					zap.Error(err))
				return
			}
			behind := status.LatestBlockNumber < check.BlockNumber
			passes[idx] = !behind || status.ClockValue == -1
		})
	}
	pool.StopAndWait()

	survivors := make([]string, 0, len(candidates))
	for idx, endpoint := range candidates {
		if passes[idx] {
			survivors = append(survivors, endpoint)
		}
	}
	return survivors
}

// filterHealth probes all candidates in parallel and keeps the healthy ones
// in candidate order
func (s *Selector) filterHealth(ctx context.Context, candidates []string, expectedVersion string) []ProbeResult {
	results := make([]ProbeResult, len(candidates))

	pool := pond.NewPool(s.config.Concurrency, pond.WithContext(ctx))
	for idx, endpoint := range candidates {
		pool.Submit(func() {
			results[idx] = s.prober.Probe(ctx, endpoint, expectedVersion)
		})
	}
	pool.StopAndWait()

	healthy := make([]ProbeResult, 0, len(results))
	for _, result := range results {
		if result.Healthy {
			healthy = append(healthy, result)
		} else {
			logger.DebugCtx(ctx, "Health check dropped candidate",
				zap.String("endpoint", result.Endpoint),
				zap.String("reason", result.Reason),
				zap.Duration("latency", result.Latency))
		}
	}
	return healthy
}

func probeEndpoints(results []ProbeResult) []string {
	endpoints := make([]string, len(results))
	for i, result := range results {
		endpoints[i] = result.Endpoint
	}
	return endpoints
}
