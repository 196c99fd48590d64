package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/audfs/creator-node/internal/adapter"
)

// SyncStatus is the body served by a content node's sync-status route.
// ClockValue is -1 when the node has never stored the wallet.
type SyncStatus struct {
	WalletPublicKey   string `json:"walletPublicKey"`
	LatestBlockNumber int64  `json:"latestBlockNumber"`
	ClockValue        int64  `json:"clockValue"`
}

// SyncChecker reads a candidate node's replication state for one wallet
//
//go:generate mockgen -source=syncstatus.go -destination=../mocks/selector_syncstatus.go -package=mocks -mock_names=SyncChecker=MockSyncChecker
type SyncChecker interface {
	// SyncStatus queries the endpoint's sync-status route. A locked
	// wallet (423) or any transport failure is an error.
	SyncStatus(ctx context.Context, endpoint, wallet string) (*SyncStatus, error)
}

type httpSyncChecker struct {
	httpClient adapter.HTTPClient
	timeout    time.Duration
}

// NewSyncChecker creates a sync-status checker with a per-request timeout
func NewSyncChecker(httpClient adapter.HTTPClient, timeout time.Duration) SyncChecker {
	return &httpSyncChecker{
		httpClient: httpClient,
		timeout:    timeout,
	}
}

func (c *httpSyncChecker) SyncStatus(ctx context.Context, endpoint, wallet string) (*SyncStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	statusURL := strings.TrimRight(endpoint, "/") + "/sync_status/" + wallet
	resp, err := c.httpClient.GetResponseNoRetry(ctx, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync status from %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sync status on %s returned HTTP %d", endpoint, resp.StatusCode)
	}

	var status SyncStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("malformed sync status from %s: %w", endpoint, err)
	}
	return &status, nil
}
