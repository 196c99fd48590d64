package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/audfs/creator-node/internal/adapter"
)

// HealthResponse is the body served by a content node's health route
type HealthResponse struct {
	Healthy           bool   `json:"healthy"`
	Service           string `json:"service"`
	Version           string `json:"version"`
	LatestBlockNumber int64  `json:"latestBlockNumber,omitempty"`
}

// ProbeResult is one candidate's health probe outcome. Latency is recorded
// for unhealthy candidates too so the decision trace can explain slow nodes.
type ProbeResult struct {
	Endpoint string
	Healthy  bool
	Version  string
	Latency  time.Duration
	Reason   string
}

// Prober checks whether a candidate node is selectable
//
//go:generate mockgen -source=health.go -destination=../mocks/selector_health.go -package=mocks -mock_names=Prober=MockProber
type Prober interface {
	// Probe health-checks one endpoint against the registry's expected
	// version and measures the round-trip latency
	Probe(ctx context.Context, endpoint, expectedVersion string) ProbeResult
}

type httpProber struct {
	httpClient adapter.HTTPClient
	clock      adapter.Clock
	timeout    time.Duration
}

// NewProber creates a prober with a per-request timeout. Probes are single
// round trips: no retry, so latency means what it says.
func NewProber(httpClient adapter.HTTPClient, clock adapter.Clock, timeout time.Duration) Prober {
	return &httpProber{
		httpClient: httpClient,
		clock:      clock,
		timeout:    timeout,
	}
}

func (p *httpProber) Probe(ctx context.Context, endpoint, expectedVersion string) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := ProbeResult{Endpoint: endpoint}
	healthURL := strings.TrimRight(endpoint, "/") + "/health_check"

	start := p.clock.Now()
	resp, err := p.httpClient.GetResponseNoRetry(ctx, healthURL, nil)
	result.Latency = p.clock.Since(start)
	if err != nil {
		result.Reason = err.Error()
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		result.Reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		result.Reason = fmt.Sprintf("malformed health response: %v", err)
		return result
	}
	result.Version = health.Version

	if !sameMajorMinor(health.Version, expectedVersion) {
		result.Reason = fmt.Sprintf("version %s outside expected %s line", health.Version, expectedVersion)
		return result
	}

	result.Healthy = true
	return result
}

// sameMajorMinor reports whether two versions share a major.minor line.
// Registry versions come without the "v" prefix semver expects.
func sameMajorMinor(version, expected string) bool {
	v, e := "v"+version, "v"+expected
	if !semver.IsValid(v) || !semver.IsValid(e) {
		return false
	}
	return semver.MajorMinor(v) == semver.MajorMinor(e)
}

// compareVersions orders two bare versions, newest first when used with
// sort; invalid versions rank below everything.
func compareVersions(a, b string) int {
	va, vb := "v"+a, "v"+b
	validA, validB := semver.IsValid(va), semver.IsValid(vb)
	switch {
	case validA && validB:
		return semver.Compare(va, vb)
	case validA:
		return 1
	case validB:
		return -1
	default:
		return 0
	}
}
