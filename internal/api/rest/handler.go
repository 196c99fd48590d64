package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/api/middleware"
	"github.com/audfs/creator-node/internal/api/rest/dto"
	"github.com/audfs/creator-node/internal/blobstore"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/media"
	"github.com/audfs/creator-node/internal/registry"
	"github.com/audfs/creator-node/internal/replication"
	"github.com/audfs/creator-node/internal/store"
	"github.com/audfs/creator-node/internal/synclock"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// HealthCheck reports node health, service name and build version
	// GET /health_check
	HealthCheck(c *gin.Context)

	// Export serves a bounded window of per-user replication state
	// GET /export?wallet_public_key=<wallet>&clock_range_min=<min>&clock_range_max=<max>&source_endpoint=<endpoint>
	Export(c *gin.Context)

	// RequestSync asks this node to pull the given wallets from a source
	// node; immediate requests run inline, the rest are queued
	// POST /sync
	RequestSync(c *gin.Context)

	// SyncStatus reports a wallet's replication position on this node
	// (423 while the wallet's sync lock is held)
	// GET /sync_status/:wallet
	SyncStatus(c *gin.Context)

	// ClockStatus reports a wallet's current clock value
	// GET /users/clock_status/:wallet
	ClockStatus(c *gin.Context)

	// ServeBlob streams a blob by CID with Range support
	// GET /ipfs/:cid
	ServeBlob(c *gin.Context)

	// ServeDirBlob streams an image directory entry by name
	// GET /ipfs/:cid/:filename
	ServeDirBlob(c *gin.Context)

	// FileLookup streams a blob to an authenticated peer node, serving
	// local disk only
	// GET /file_lookup?multihash=<cid>
	FileLookup(c *gin.Context)

	// CreateUserMetadata canonicalizes, hashes and stores a user metadata
	// document
	// POST /audius_users/metadata
	CreateUserMetadata(c *gin.Context)

	// CreateUser commits a previously uploaded metadata file as the
	// user's newest revision
	// POST /audius_users
	CreateUser(c *gin.Context)

	// CreateTrackMetadata canonicalizes, hashes and stores a track
	// metadata document
	// POST /tracks/metadata
	CreateTrackMetadata(c *gin.Context)

	// CreateTrack commits a previously uploaded metadata file as a track
	// revision
	// POST /tracks
	CreateTrack(c *gin.Context)

	// UploadImage stores the resized variants of an image upload as a
	// content-addressed directory
	// POST /image_upload
	UploadImage(c *gin.Context)

	// UploadTrackContent stores an uploaded audio file
	// POST /track_content
	UploadTrackContent(c *gin.Context)
}

// Config carries node identity and request limits for the REST handlers
type Config struct {
	// Service is the advertised service name
	Service string
	// Version is the build version reported by /health_check
	Version string
	// SelfEndpoint is this node's advertised endpoint
	SelfEndpoint string
	// Gateways are content gateways tried when a read misses local disk
	Gateways []string
	// MaxUploadSize bounds upload bodies in bytes
	MaxUploadSize int64
	// RemoteFetchTimeout bounds read-path fetches from peers and gateways
	RemoteFetchTimeout time.Duration
}

// Dependencies carries the collaborators the handlers drive
type Dependencies struct {
	Store      store.Store
	Storage    *blobstore.Storage
	Fetcher    *blobstore.Fetcher
	Rehydrator *blobstore.Rehydrator
	Resizer    media.Resizer
	JCS        adapter.JCS
	Lock       synclock.Lock
	Exporter   replication.Exporter
	Importer   replication.Importer
	Trigger    *replication.Trigger
	Denylist   *registry.Denylist
	Signer     *middleware.NodeTokenSigner
	// SyncPool runs queued /sync requests in the background
	SyncPool pond.Pool
}

// handler implements the Handler interface
type handler struct {
	config Config
	deps   Dependencies
}

// NewHandler creates a new REST API handler
func NewHandler(cfg Config, deps Dependencies) Handler {
	if cfg.Service == "" {
		cfg.Service = domain.ServiceContentNode
	}
	if cfg.RemoteFetchTimeout <= 0 {
		cfg.RemoteFetchTimeout = 30 * time.Second
	}
	return &handler{
		config: cfg,
		deps:   deps,
	}
}

// HealthCheck reports node health, service name and build version
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Healthy: true,
		Service: h.config.Service,
		Version: h.config.Version,
	})
}

// writeBackOff bounds write-path retries: short intervals, bounded total
// time, so a blocked client sees an answer quickly.
func writeBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 1 * time.Second
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithContext(b, ctx)
}

// acquireWalletLock takes the wallet's sync lock, retrying briefly so a
// write that races a short sync window queues instead of failing outright.
// domain.ErrLocked surfaces once the retries are exhausted.
func (h *handler) acquireWalletLock(ctx context.Context, wallet string) (string, error) {
	var token string
	operation := func() error {
		t, err := h.deps.Lock.Acquire(ctx, wallet)
		if err != nil {
			if errors.Is(err, domain.ErrLocked) {
				return err
			}
			return backoff.Permanent(err)
		}
		token = t
		return nil
	}
	if err := backoff.Retry(operation, writeBackOff(ctx)); err != nil {
		return "", err
	}
	return token, nil
}

// withWalletLock runs fn under the wallet's sync lock, retrying clock
// conflicts from concurrent commits. The lock is released on every exit
// path; domain.ErrClockConflict surfaces once the retries are exhausted.
func (h *handler) withWalletLock(ctx context.Context, wallet string, fn func() error) error {
	token, err := h.acquireWalletLock(ctx, wallet)
	if err != nil {
		return err
	}
	defer func() {
		// The release must survive a canceled request or the wallet stays
		// locked for a full TTL.
		releaseCtx := context.WithoutCancel(ctx)
		if err := h.deps.Lock.Release(releaseCtx, wallet, token); err != nil {
			logger.WarnCtx(releaseCtx, "Failed to release wallet lock",
				zap.String("wallet", wallet),
				zap.Error(err))
		}
	}()

	operation := func() error {
		err := fn()
		if errors.Is(err, domain.ErrClockConflict) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	return backoff.Retry(operation, writeBackOff(ctx))
}

// scheduleReplication queues a debounced sync to the user's secondaries
// after a primary write. Nodes that are not the user's primary stay quiet;
// replication flows one way.
func (h *handler) scheduleReplication(ctx context.Context, wallet string) {
	user, err := h.deps.Store.GetUserByWallet(ctx, wallet)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to load user for replication scheduling",
			zap.String("wallet", wallet),
			zap.Error(err))
		return
	}
	if user == nil {
		return
	}

	latest, err := h.deps.Store.GetLatestAudiusUser(ctx, user.CNodeUserUUID)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to load metadata for replication scheduling",
			zap.String("wallet", wallet),
			zap.Error(err))
		return
	}
	if latest == nil {
		return
	}

	replicaSet := domain.ReplicaSetFromMetadata(latest.MetadataJSON)
	self := strings.TrimRight(h.config.SelfEndpoint, "/")
	if replicaSet.Primary != self {
		return
	}

	secondaries := make([]string, 0, len(replicaSet.Secondaries))
	for _, endpoint := range replicaSet.Secondaries {
		if endpoint != self {
			secondaries = append(secondaries, endpoint)
		}
	}
	if len(secondaries) == 0 {
		return
	}

	h.deps.Trigger.Schedule(wallet, secondaries, domain.SyncTypeRecurring)
}
