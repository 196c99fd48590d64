package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/api/rest/dto"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/replication"
)

// exportQueryParams holds query parameters for GET /export
type exportQueryParams struct {
	Wallets        []string `form:"wallet_public_key"`
	ClockRangeMin  int64    `form:"clock_range_min,default=0"`
	ClockRangeMax  *int64   `form:"clock_range_max"`
	SourceEndpoint string   `form:"source_endpoint"`
}

// parseExportQuery parses and validates query parameters for GET /export
func parseExportQuery(c *gin.Context) (*exportQueryParams, error) {
	var params exportQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if len(params.Wallets) == 0 {
		return nil, errors.New("at least one wallet_public_key is required")
	}
	if params.ClockRangeMin < 0 {
		return nil, errors.New("clock_range_min must not be negative")
	}
	return &params, nil
}

// Export serves a bounded window of per-user replication state
func (h *handler) Export(c *gin.Context) {
	params, err := parseExportQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if params.SourceEndpoint != "" {
		logger.DebugCtx(c.Request.Context(), "Export requested",
			zap.String("requester", params.SourceEndpoint),
			zap.Strings("wallets", params.Wallets))
	}

	response, err := h.deps.Exporter.Export(c.Request.Context(), replication.ExportRequest{
		Wallets:       params.Wallets,
		ClockRangeMin: params.ClockRangeMin,
		ClockRangeMax: params.ClockRangeMax,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// RequestSync asks this node to pull the given wallets from a source node.
// Immediate requests run inline and report the result; everything else is
// queued onto the sync pool and answered with 202.
func (h *handler) RequestSync(c *gin.Context) {
	var body replication.SyncBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	syncType := domain.SyncTypeRecurring
	if body.SyncType != "" {
		if !domain.IsValidSyncType(domain.SyncType(body.SyncType)) {
			respondBadRequest(c, fmt.Sprintf("Unknown sync_type %q", body.SyncType))
			return
		}
		syncType = domain.SyncType(body.SyncType)
	}

	req := replication.SyncRequest{
		Wallets:        body.Wallets,
		SourceEndpoint: body.CreatorNodeEndpoint,
		SyncType:       syncType,
	}

	if body.Immediate {
		if err := h.deps.Importer.Sync(c.Request.Context(), req); err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if len(body.Wallets) == 0 || body.CreatorNodeEndpoint == "" {
		respondBadRequest(c, "wallet and creator_node_endpoint are required")
		return
	}

	// Queued syncs outlive the request, so they run under a fresh context;
	// failures are logged, the source retries on its own schedule.
	h.deps.SyncPool.Submit(func() {
		if err := h.deps.Importer.Sync(context.Background(), req); err != nil {
			logger.Error(err,
				zap.String("source", req.SourceEndpoint),
				zap.Strings("wallets", req.Wallets))
		}
	})
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// SyncStatus reports a wallet's replication position on this node. A held
// sync lock answers 423 so selection skips wallets mid-transfer.
func (h *handler) SyncStatus(c *gin.Context) {
	wallet, err := domain.ValidateWallet(c.Param("wallet"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	ctx := c.Request.Context()
	held, err := h.deps.Lock.Held(ctx, wallet)
	if err != nil {
		respondInternalError(c, err, "Failed to probe wallet lock")
		return
	}
	if held {
		respondWithError(c, http.StatusLocked, errCodeWalletLocked,
			fmt.Sprintf("Wallet %s is syncing", wallet))
		return
	}

	user, err := h.deps.Store.GetUserByWallet(ctx, wallet)
	if err != nil {
		respondInternalError(c, err, "Failed to look up user")
		return
	}

	resp := dto.SyncStatusResponse{
		WalletPublicKey:   wallet,
		LatestBlockNumber: -1,
		ClockValue:        -1,
	}
	if user != nil {
		resp.LatestBlockNumber = user.LatestBlockNumber
		resp.ClockValue = user.Clock
	}
	c.JSON(http.StatusOK, resp)
}

// ClockStatus reports a wallet's current clock value
func (h *handler) ClockStatus(c *gin.Context) {
	wallet, err := domain.ValidateWallet(c.Param("wallet"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	user, err := h.deps.Store.GetUserByWallet(c.Request.Context(), wallet)
	if err != nil {
		respondInternalError(c, err, "Failed to look up user")
		return
	}
	if user == nil {
		respondNotFound(c, fmt.Sprintf("Wallet %s is unknown to this node", wallet))
		return
	}

	c.JSON(http.StatusOK, dto.ClockStatusResponse{
		WalletPublicKey: wallet,
		ClockValue:      user.Clock,
	})
}
