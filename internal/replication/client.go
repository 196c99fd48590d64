package replication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/audfs/creator-node/internal/adapter"
)

// Client speaks the replication protocol to other content nodes
type Client struct {
	httpClient adapter.HTTPClient
}

// NewClient creates a replication client
func NewClient(httpClient adapter.HTTPClient) *Client {
	return &Client{httpClient: httpClient}
}

// Export pulls an export window from a source node starting at the given
// clock value
func (c *Client) Export(ctx context.Context, endpoint string, wallets []string, clockRangeMin int64) (*ExportResponse, error) {
	params := url.Values{}
	for _, wallet := range wallets {
		params.Add("wallet_public_key", wallet)
	}
	params.Set("clock_range_min", strconv.FormatInt(clockRangeMin, 10))

	var response ExportResponse
	exportURL := fmt.Sprintf("%s/export?%s", strings.TrimRight(endpoint, "/"), params.Encode())
	if err := c.httpClient.Get(ctx, exportURL, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch export from %s: %w", endpoint, err)
	}
	return &response, nil
}

// RequestSync asks a node to pull the given wallets from the creator node
// endpoint named in the body
func (c *Client) RequestSync(ctx context.Context, endpoint string, body SyncBody) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode sync request: %w", err)
	}

	syncURL := strings.TrimRight(endpoint, "/") + "/sync"
	if _, err := c.httpClient.Post(ctx, syncURL, "application/json", bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("failed to request sync on %s: %w", endpoint, err)
	}
	return nil
}
