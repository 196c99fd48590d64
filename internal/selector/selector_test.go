package selector_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/mocks"
	"github.com/audfs/creator-node/internal/registry"
	"github.com/audfs/creator-node/internal/selector"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	code := m.Run()
	os.Exit(code)
}

const (
	nodeOne   = "https://cn1.audfs.test"
	nodeTwo   = "https://cn2.audfs.test"
	nodeThree = "https://cn3.audfs.test"

	testWallet = "0x7d273271690538cf855e5b3002a0dd8c154bb060"
)

type selectorHarness struct {
	registry    *mocks.MockRegistryProvider
	prober      *mocks.MockProber
	syncChecker *mocks.MockSyncChecker
	selector    *selector.Selector
}

func newTestSelector(t *testing.T, config selector.Config) *selectorHarness {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	h := &selectorHarness{
		registry:    mocks.NewMockRegistryProvider(ctrl),
		prober:      mocks.NewMockProber(ctrl),
		syncChecker: mocks.NewMockSyncChecker(ctrl),
	}
	h.selector = selector.New(h.registry, h.prober, h.syncChecker, adapter.NewClock(), config)
	return h
}

func (h *selectorHarness) expectSnapshot(expectedVersion string, endpoints ...string) {
	nodes := make([]registry.Node, len(endpoints))
	for i, endpoint := range endpoints {
		nodes[i] = registry.Node{Endpoint: endpoint}
	}
	h.registry.EXPECT().
		Snapshot(gomock.Any()).
		Return(&registry.Snapshot{ExpectedVersion: expectedVersion, Nodes: nodes}, nil)
}

func (h *selectorHarness) expectProbe(endpoint string, result selector.ProbeResult) {
	result.Endpoint = endpoint
	h.prober.EXPECT().
		Probe(gomock.Any(), endpoint, gomock.Any()).
		Return(result)
}

func healthy(version string, latency time.Duration) selector.ProbeResult {
	return selector.ProbeResult{Healthy: true, Version: version, Latency: latency}
}

func unhealthy(reason string) selector.ProbeResult {
	return selector.ProbeResult{Reason: reason}
}

// stageSurvivors pulls one named stage's survivor list out of a decision
func stageSurvivors(t *testing.T, decision *selector.Decision, name string) []string {
	t.Helper()
	for _, stage := range decision.Stages {
		if stage.Name == name {
			return stage.Survivors
		}
	}
	t.Fatalf("decision %s has no stage %q", decision.ID, name)
	return nil
}

func TestSelectOrdersByVersionThenLatency(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	// Expected line is 1.2: the 1.1.9 node fails the health gate even
	// though it is the fastest, and the newer patch wins over latency.
	h.expectSnapshot("1.2.0", nodeOne, nodeTwo, nodeThree)
	h.expectProbe(nodeOne, healthy("1.2.0", 50*time.Millisecond))
	h.expectProbe(nodeTwo, healthy("1.2.1", 200*time.Millisecond))
	h.expectProbe(nodeThree, unhealthy("version 1.1.9 outside expected 1.2.0 line"))

	selection, err := h.selector.Select(context.Background(), selector.Request{})
	require.NoError(t, err)

	assert.Equal(t, nodeTwo, selection.Primary)
	assert.Equal(t, []string{nodeOne}, selection.Secondaries)
	assert.Equal(t, []string{nodeOne, nodeTwo}, stageSurvivors(t, selection.Decision, selector.StageFilterHealth))
}

func TestSelectLatencyBreaksVersionTies(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	h.expectSnapshot("1.2.0", nodeOne, nodeTwo, nodeThree)
	h.expectProbe(nodeOne, healthy("1.2.0", 80*time.Millisecond))
	h.expectProbe(nodeTwo, healthy("1.2.0", 15*time.Millisecond))
	h.expectProbe(nodeThree, healthy("1.2.0", 120*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{})
	require.NoError(t, err)

	assert.Equal(t, nodeTwo, selection.Primary)
	assert.Equal(t, []string{nodeOne, nodeThree}, selection.Secondaries)
}

func TestSelectEndpointBreaksFullTies(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	// Identical version and latency: the lexicographic endpoint order
	// keeps repeated runs reproducible.
	h.expectSnapshot("1.2.0", nodeThree, nodeOne, nodeTwo)
	h.expectProbe(nodeOne, healthy("1.2.0", 30*time.Millisecond))
	h.expectProbe(nodeTwo, healthy("1.2.0", 30*time.Millisecond))
	h.expectProbe(nodeThree, healthy("1.2.0", 30*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{})
	require.NoError(t, err)

	assert.Equal(t, nodeOne, selection.Primary)
	assert.Equal(t, []string{nodeTwo, nodeThree}, selection.Secondaries)
}

func TestSelectRecordsAllStages(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	h.expectSnapshot("1.2.0", nodeOne, nodeTwo, nodeThree)
	h.syncChecker.EXPECT().
		SyncStatus(gomock.Any(), nodeOne, testWallet).
		Return(&selector.SyncStatus{WalletPublicKey: testWallet, LatestBlockNumber: 100, ClockValue: 7}, nil)
	h.syncChecker.EXPECT().
		SyncStatus(gomock.Any(), nodeTwo, testWallet).
		Return(&selector.SyncStatus{WalletPublicKey: testWallet, LatestBlockNumber: 100, ClockValue: 3}, nil)
	h.expectProbe(nodeOne, healthy("1.2.0", 20*time.Millisecond))
	h.expectProbe(nodeTwo, healthy("1.2.0", 40*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{
		Allowlist: []string{nodeOne, nodeTwo, nodeThree},
		Denylist:  []string{nodeThree},
		SyncCheck: &selector.SyncCheck{Wallet: testWallet, BlockNumber: 90},
	})
	require.NoError(t, err)

	decision := selection.Decision
	require.Len(t, decision.ID, 26)

	names := make([]string, len(decision.Stages))
	for i, stage := range decision.Stages {
		names[i] = stage.Name
	}
	assert.Equal(t, []string{
		selector.StageGetAll,
		selector.StageFilterAllow,
		selector.StageFilterDeny,
		selector.StageFilterSync,
		selector.StageFilterHealth,
		selector.StageSelect,
	}, names)

	assert.Equal(t, []string{nodeOne, nodeTwo, nodeThree}, stageSurvivors(t, decision, selector.StageGetAll))
	assert.Equal(t, []string{nodeOne, nodeTwo, nodeThree}, stageSurvivors(t, decision, selector.StageFilterAllow))
	assert.Equal(t, []string{nodeOne, nodeTwo}, stageSurvivors(t, decision, selector.StageFilterDeny))
	assert.Equal(t, []string{nodeOne, nodeTwo}, stageSurvivors(t, decision, selector.StageFilterSync))
	assert.Equal(t, []string{nodeOne, nodeTwo}, stageSurvivors(t, decision, selector.StageFilterHealth))
	assert.Equal(t, []string{nodeOne, nodeTwo}, stageSurvivors(t, decision, selector.StageSelect))
}

func TestSelectAllowlistRestricts(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	// Only allowlisted endpoints reach the probe stage.
	h.expectSnapshot("1.2.0", nodeOne, nodeTwo, nodeThree)
	h.expectProbe(nodeOne, healthy("1.2.0", 10*time.Millisecond))
	h.expectProbe(nodeThree, healthy("1.2.0", 20*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{
		Allowlist: []string{nodeOne, nodeThree},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{nodeOne, nodeThree}, stageSurvivors(t, selection.Decision, selector.StageFilterAllow))
	assert.Equal(t, nodeOne, selection.Primary)
}

func TestSelectDenylistRemoves(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	h.expectSnapshot("1.2.0", nodeOne, nodeTwo)
	h.expectProbe(nodeOne, healthy("1.2.0", 10*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{
		Denylist: []string{nodeTwo + "/"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{nodeOne}, stageSurvivors(t, selection.Decision, selector.StageFilterDeny))
	assert.Equal(t, nodeOne, selection.Primary)
	assert.Empty(t, selection.Secondaries)
}

func TestSelectSyncCheckKeepsCurrentAndFreshNodes(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	h.expectSnapshot("1.2.0", nodeOne, nodeTwo, nodeThree)
	// nodeOne is current, nodeTwo is behind with stored state, nodeThree
	// is behind but has never stored the wallet.
	h.syncChecker.EXPECT().
		SyncStatus(gomock.Any(), nodeOne, testWallet).
		Return(&selector.SyncStatus{WalletPublicKey: testWallet, LatestBlockNumber: 120, ClockValue: 9}, nil)
	h.syncChecker.EXPECT().
		SyncStatus(gomock.Any(), nodeTwo, testWallet).
		Return(&selector.SyncStatus{WalletPublicKey: testWallet, LatestBlockNumber: 80, ClockValue: 9}, nil)
	h.syncChecker.EXPECT().
		SyncStatus(gomock.Any(), nodeThree, testWallet).
		Return(&selector.SyncStatus{WalletPublicKey: testWallet, LatestBlockNumber: 80, ClockValue: -1}, nil)
	h.expectProbe(nodeOne, healthy("1.2.0", 10*time.Millisecond))
	h.expectProbe(nodeThree, healthy("1.2.0", 20*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{
		SyncCheck: &selector.SyncCheck{Wallet: testWallet, BlockNumber: 100},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{nodeOne, nodeThree}, stageSurvivors(t, selection.Decision, selector.StageFilterSync))
}

func TestSelectSyncCheckDropsErroringNode(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	h.expectSnapshot("1.2.0", nodeOne, nodeTwo)
	h.syncChecker.EXPECT().
		SyncStatus(gomock.Any(), nodeOne, testWallet).
		Return(&selector.SyncStatus{WalletPublicKey: testWallet, LatestBlockNumber: 120, ClockValue: 4}, nil)
	h.syncChecker.EXPECT().
		SyncStatus(gomock.Any(), nodeTwo, testWallet).
		Return(nil, errors.New("sync status on "+nodeTwo+" returned HTTP 423"))
	h.expectProbe(nodeOne, healthy("1.2.0", 10*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{
		SyncCheck: &selector.SyncCheck{Wallet: testWallet, BlockNumber: 100},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{nodeOne}, stageSurvivors(t, selection.Decision, selector.StageFilterSync))
}

func TestSelectSkipsSyncProbesWithoutCheck(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	// No SyncStatus expectations: a probe here fails the test. The stage
	// is still recorded so traces stay comparable across runs.
	h.expectSnapshot("1.2.0", nodeOne)
	h.expectProbe(nodeOne, healthy("1.2.0", 10*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{})
	require.NoError(t, err)

	assert.Equal(t, []string{nodeOne}, stageSurvivors(t, selection.Decision, selector.StageFilterSync))
}

func TestSelectNoPrimary(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	h.expectSnapshot("1.2.0", nodeOne, nodeTwo)
	h.expectProbe(nodeOne, unhealthy("HTTP 503"))
	h.expectProbe(nodeTwo, unhealthy("version 0.9.0 outside expected 1.2.0 line"))

	_, err := h.selector.Select(context.Background(), selector.Request{})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrNoPrimaryAvailable)

	var noPrimary *selector.NoPrimaryError
	require.ErrorAs(t, err, &noPrimary)
	assert.Contains(t, err.Error(), noPrimary.Decision.ID)
	assert.Empty(t, stageSurvivors(t, noPrimary.Decision, selector.StageFilterHealth))
	// The pipeline never reached the select stage.
	assert.Len(t, noPrimary.Decision.Stages, 5)
}

func TestSelectClampsReplicaSetToSurvivors(t *testing.T) {
	h := newTestSelector(t, selector.Config{ReplicaSetSize: 3})

	h.expectSnapshot("1.2.0", nodeOne, nodeTwo)
	h.expectProbe(nodeOne, healthy("1.2.0", 10*time.Millisecond))
	h.expectProbe(nodeTwo, healthy("1.2.0", 20*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{})
	require.NoError(t, err)

	assert.Equal(t, nodeOne, selection.Primary)
	assert.Equal(t, []string{nodeTwo}, selection.Secondaries)
}

func TestSelectHonorsReplicaSetSize(t *testing.T) {
	h := newTestSelector(t, selector.Config{ReplicaSetSize: 2})

	h.expectSnapshot("1.2.0", nodeOne, nodeTwo, nodeThree)
	h.expectProbe(nodeOne, healthy("1.2.0", 10*time.Millisecond))
	h.expectProbe(nodeTwo, healthy("1.2.0", 20*time.Millisecond))
	h.expectProbe(nodeThree, healthy("1.2.0", 30*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{})
	require.NoError(t, err)

	assert.Equal(t, nodeOne, selection.Primary)
	assert.Equal(t, []string{nodeTwo}, selection.Secondaries)
	assert.Equal(t, []string{nodeOne, nodeTwo}, stageSurvivors(t, selection.Decision, selector.StageSelect))
}

func TestSelectRegistryError(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	h.registry.EXPECT().
		Snapshot(gomock.Any()).
		Return(nil, errors.New("registry unreachable"))

	_, err := h.selector.Select(context.Background(), selector.Request{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load registry snapshot")
}

func TestSelectNormalizesEndpoints(t *testing.T) {
	h := newTestSelector(t, selector.Config{})

	h.expectSnapshot("1.2.0", nodeOne+"/", "  "+nodeTwo, "")
	h.expectProbe(nodeOne, healthy("1.2.0", 10*time.Millisecond))
	h.expectProbe(nodeTwo, healthy("1.2.0", 20*time.Millisecond))

	selection, err := h.selector.Select(context.Background(), selector.Request{})
	require.NoError(t, err)

	assert.Equal(t, []string{nodeOne, nodeTwo}, stageSurvivors(t, selection.Decision, selector.StageGetAll))
}
