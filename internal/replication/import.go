package replication

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/blobstore"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/store"
	"github.com/audfs/creator-node/internal/store/schema"
	"github.com/audfs/creator-node/internal/synclock"
)

//go:generate mockgen -source=import.go -destination=../mocks/replication_import.go -package=mocks -mock_names=Importer=MockImporter

// SyncRequest asks this node to pull the given wallets from a source node
type SyncRequest struct {
	Wallets        []string
	SourceEndpoint string
	SyncType       domain.SyncType
}

// Importer pulls export windows from a source node and applies them locally
type Importer interface {
	// Sync imports every wallet in the request from the source endpoint,
	// window by window, until this node has caught up
	Sync(ctx context.Context, req SyncRequest) error
}

// ImporterConfig carries the node identity and blob fetch fallbacks
type ImporterConfig struct {
	// SelfEndpoint is this node's advertised endpoint; it is excluded
	// from blob source candidates and rejected as a sync source
	SelfEndpoint string
	// Gateways are content gateways tried after the user's replica set
	Gateways []string
}

type importer struct {
	store   store.Store
	lock    synclock.Lock
	client  *Client
	storage *blobstore.Storage
	fetcher *blobstore.Fetcher
	clock   adapter.Clock
	config  ImporterConfig
}

// NewImporter creates an importer. The fetcher's parallelism bounds blob
// downloads per batch.
func NewImporter(st store.Store, lock synclock.Lock, client *Client, storage *blobstore.Storage, fetcher *blobstore.Fetcher, clock adapter.Clock, config ImporterConfig) Importer {
	return &importer{
		store:   st,
		lock:    lock,
		client:  client,
		storage: storage,
		fetcher: fetcher,
		clock:   clock,
		config:  config,
	}
}

// Sync imports every wallet in the request from the source endpoint. All
// wallet locks are taken up front; any failure aborts the run and the locks
// are released on every exit path.
func (i *importer) Sync(ctx context.Context, req SyncRequest) error {
	if req.SourceEndpoint == "" {
		return fmt.Errorf("%w: sync request names no source endpoint", domain.ErrBadRequest)
	}
	if len(req.Wallets) == 0 {
		return fmt.Errorf("%w: sync request names no wallets", domain.ErrBadRequest)
	}

	source := strings.TrimRight(strings.TrimSpace(req.SourceEndpoint), "/")
	if source == strings.TrimRight(i.config.SelfEndpoint, "/") {
		return fmt.Errorf("%w: refusing to sync from self", domain.ErrBadRequest)
	}

	wallets := make([]string, 0, len(req.Wallets))
	for _, wallet := range req.Wallets {
		normalized, err := domain.ValidateWallet(wallet)
		if err != nil {
			return err
		}
		wallets = append(wallets, normalized)
	}

	session := ulid.MustNewDefault(i.clock.Now()).String()
	logger.InfoCtx(ctx, "Sync started",
		zap.String("session", session),
		zap.String("source", source),
		zap.Strings("wallets", wallets),
		zap.String("syncType", string(req.SyncType)))

	tokens, err := i.lock.AcquireAll(ctx, wallets)
	if err != nil {
		return err
	}
	// Release must survive cancellation or the wallets stay locked for a
	// full TTL.
	defer i.lock.ReleaseAll(context.WithoutCancel(ctx), tokens)

	for _, wallet := range wallets {
		if err := i.syncWallet(ctx, session, wallet, source); err != nil {
			logger.ErrorCtx(ctx, err,
				zap.String("session", session),
				zap.String("wallet", wallet),
				zap.String("source", source))
			return fmt.Errorf("sync of wallet %s from %s failed: %w", wallet, source, err)
		}
	}

	logger.InfoCtx(ctx, "Sync completed",
		zap.String("session", session),
		zap.String("source", source),
		zap.Int("wallets", len(wallets)))
	return nil
}

// syncWallet pulls export windows for one wallet until the source reports
// no clock beyond what was applied. Each applied window strictly advances
// the local clock, so the loop terminates.
func (i *importer) syncWallet(ctx context.Context, session, wallet, source string) error {
	for {
		done, err := i.syncWindow(ctx, session, wallet, source)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// syncWindow imports a single export window: read local state, pull the
// export, validate it, fetch the blobs, commit. Returns done=true when the
// source has nothing beyond the applied window.
func (i *importer) syncWindow(ctx context.Context, session, wallet, source string) (bool, error) {
	localMax := int64(-1)
	user, err := i.store.GetUserByWallet(ctx, wallet)
	if err != nil {
		return false, err
	}
	if user != nil {
		localMax = user.Clock
	}

	export, err := i.client.Export(ctx, source, []string{wallet}, localMax+1)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	entry, err := findWalletEntry(export, wallet)
	if err != nil {
		return false, err
	}
	if entry == nil {
		logger.InfoCtx(ctx, "Source has no content for wallet",
			zap.String("session", session),
			zap.String("wallet", wallet))
		return true, nil
	}

	returnedClock := entry.CNodeUser.Clock
	localClockMax := entry.ClockInfo.LocalClockMax

	if returnedClock < localMax || localClockMax < localMax {
		return false, fmt.Errorf("%w: source reports clock %d (true %d), local clock is %d",
			domain.ErrRegression, returnedClock, localClockMax, localMax)
	}
	if returnedClock == localMax {
		logger.InfoCtx(ctx, "Wallet already up to date",
			zap.String("session", session),
			zap.String("wallet", wallet),
			zap.Int64("clock", localMax))
		return true, nil
	}

	if err := validateContiguity(entry.ClockRecords, localMax, returnedClock); err != nil {
		return false, err
	}

	sources := i.blobSources(ctx, entry, source, export.PeerInfo, user)
	if err := i.fetchWindowBlobs(ctx, entry.Files, sources); err != nil {
		return false, err
	}

	bundle := store.ImportBundle{
		WalletPublicKey:    wallet,
		SourceUserUUID:     entry.CNodeUser.CNodeUserUUID,
		LatestBlockNumber:  entry.CNodeUser.LatestBlockNumber,
		Clock:              returnedClock,
		ExpectedLocalClock: localMax,
		ClockRecords:       clockRecordsToSchema(entry.ClockRecords),
		AudiusUsers:        audiusUsersToSchema(entry.AudiusUsers),
		Tracks:             tracksToSchema(entry.Tracks),
		Files:              i.filesToSchema(entry.Files),
	}
	if err := i.store.ApplyImport(ctx, bundle); err != nil {
		return false, err
	}

	done := localClockMax <= returnedClock
	logger.InfoCtx(ctx, "Sync window applied",
		zap.String("session", session),
		zap.String("wallet", wallet),
		zap.Int64("fromClock", localMax+1),
		zap.Int64("toClock", returnedClock),
		zap.Int64("sourceClockMax", localClockMax))
	return done, nil
}

// findWalletEntry locates the requested wallet's window in the response and
// rejects responses carrying wallets that were never asked for. Returns nil
// when the source does not know the wallet.
func findWalletEntry(export *ExportResponse, wallet string) (*ExportUser, error) {
	var found *ExportUser
	for _, entry := range export.CNodeUsers {
		entryWallet := domain.NormalizeWallet(entry.CNodeUser.WalletPublicKey)
		if entryWallet != wallet {
			return nil, fmt.Errorf("%w: export response carries unrequested wallet %q",
				domain.ErrUpstream, entry.CNodeUser.WalletPublicKey)
		}
		if entry.CNodeUser.CNodeUserUUID == uuid.Nil {
			return nil, fmt.Errorf("%w: export response carries no user identity", domain.ErrUpstream)
		}
		found = entry
	}
	return found, nil
}

// validateContiguity refuses any window that does not extend local state in
// single steps. ClockRecord uniqueness makes a mis-applied gap unrepairable,
// so this is a hard gate.
func validateContiguity(records []ClockRecordWire, localMax, returnedClock int64) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: window advances clock to %d but carries no clock records",
			domain.ErrNonContiguous, returnedClock)
	}

	expectedFirst := localMax + 1
	if expectedFirst < 1 {
		expectedFirst = 1
	}
	if records[0].Clock != expectedFirst {
		return fmt.Errorf("%w: window starts at clock %d, expected %d",
			domain.ErrNonContiguous, records[0].Clock, expectedFirst)
	}

	for idx := 1; idx < len(records); idx++ {
		if records[idx].Clock != records[idx-1].Clock+1 {
			return fmt.Errorf("%w: clock gap between %d and %d",
				domain.ErrNonContiguous, records[idx-1].Clock, records[idx].Clock)
		}
	}

	if last := records[len(records)-1].Clock; last != returnedClock {
		return fmt.Errorf("%w: window ends at clock %d but the response clock is %d",
			domain.ErrNonContiguous, last, returnedClock)
	}

	return nil
}

// fetchWindowBlobs brings every referenced blob onto local disk before the
// commit. Track files and other files run as separate bounded batches;
// directory rows carry no blob of their own.
func (i *importer) fetchWindowBlobs(ctx context.Context, files []FileWire, sources []blobstore.Source) error {
	var trackTasks, otherTasks []blobstore.FetchTask
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		task := blobstore.FetchTask{CID: f.Multihash}
		if f.DirMultihash != nil && f.FileName != nil {
			task.DirCID = *f.DirMultihash
			task.FileName = *f.FileName
		}
		if f.IsTrackFile() {
			trackTasks = append(trackTasks, task)
		} else {
			otherTasks = append(otherTasks, task)
		}
	}

	if err := i.fetcher.FetchBatch(ctx, otherTasks, sources); err != nil {
		return err
	}
	return i.fetcher.FetchBatch(ctx, trackTasks, sources)
}

// blobSources orders gateway candidates for the window's blobs: the export
// source first (it has everything it exported), then its advisory peer
// hint, then the user's replica set, then configured gateways. Self is
// excluded, duplicates are dropped, order is preserved.
func (i *importer) blobSources(ctx context.Context, entry *ExportUser, source string, peer PeerInfo, user *schema.CNodeUser) []blobstore.Source {
	endpoints := []string{source, peer.Endpoint}
	endpoints = append(endpoints, i.replicaEndpoints(ctx, entry, user)...)
	endpoints = append(endpoints, i.config.Gateways...)

	self := strings.TrimRight(i.config.SelfEndpoint, "/")
	seen := make(map[string]bool, len(endpoints))
	sources := make([]blobstore.Source, 0, len(endpoints))
	for _, endpoint := range endpoints {
		endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
		if endpoint == "" || endpoint == self || seen[endpoint] {
			continue
		}
		seen[endpoint] = true
		sources = append(sources, blobstore.Source{Endpoint: endpoint})
	}
	return sources
}

// replicaEndpoints resolves the user's replica set, preferring the newest
// metadata revision inside the incoming window over local state
func (i *importer) replicaEndpoints(ctx context.Context, entry *ExportUser, user *schema.CNodeUser) []string {
	for idx := len(entry.AudiusUsers) - 1; idx >= 0; idx-- {
		if rs := domain.ReplicaSetFromMetadata(entry.AudiusUsers[idx].MetadataJSON); len(rs.Endpoints()) > 0 {
			return rs.Endpoints()
		}
	}

	if user == nil {
		return nil
	}
	latest, err := i.store.GetLatestAudiusUser(ctx, user.CNodeUserUUID)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to load local metadata for replica set",
			zap.String("wallet", user.WalletPublicKey),
			zap.Error(err))
		return nil
	}
	if latest == nil {
		return nil
	}
	return domain.ReplicaSetFromMetadata(latest.MetadataJSON).Endpoints()
}

// filesToSchema converts wire file rows, recomputing storage paths for this
// node's disk layout
func (i *importer) filesToSchema(rows []FileWire) []schema.File {
	out := make([]schema.File, len(rows))
	for idx, r := range rows {
		path := i.storage.PathFor(r.Multihash)
		if r.DirMultihash != nil {
			path = i.storage.PathForEntry(*r.DirMultihash, r.Multihash)
		}
		out[idx] = schema.File{
			FileUUID:          r.FileUUID,
			Clock:             r.Clock,
			Multihash:         r.Multihash,
			SourceFile:        r.SourceFile,
			FileName:          r.FileName,
			DirMultihash:      r.DirMultihash,
			StoragePath:       path,
			Type:              schema.FileType(r.Type),
			TrackBlockchainID: r.TrackBlockchainID,
			CreatedAt:         r.CreatedAt,
		}
	}
	return out
}
