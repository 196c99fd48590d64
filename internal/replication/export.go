package replication

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/store"
)

//go:generate mockgen -source=export.go -destination=../mocks/replication_export.go -package=mocks -mock_names=Exporter=MockExporter

// DefaultMaxRange is the widest clock window one export response may carry
const DefaultMaxRange int64 = 10000

// ExportRequest is a bounded-range read of one or more users' ledgers
type ExportRequest struct {
	Wallets       []string
	ClockRangeMin int64
	// ClockRangeMax is optional; nil means "as much as the server allows"
	ClockRangeMax *int64
}

// Exporter serves replication windows to pulling peers
type Exporter interface {
	// Export reads every requested user's records inside the effective
	// clock window in one consistent snapshot
	Export(ctx context.Context, req ExportRequest) (*ExportResponse, error)
}

// ExporterConfig identifies this node in export responses and bounds the
// served window
type ExporterConfig struct {
	// Endpoint is this node's advertised endpoint, sent as a peer hint
	Endpoint string
	// DelegateOwnerWallet identifies this node's operator, sent as a peer hint
	DelegateOwnerWallet string
	// MaxRange caps the clock window width per response
	MaxRange int64
}

type exporter struct {
	store  store.Store
	config ExporterConfig
}

// NewExporter creates an exporter over the given store
func NewExporter(st store.Store, config ExporterConfig) Exporter {
	if config.MaxRange <= 0 {
		config.MaxRange = DefaultMaxRange
	}
	return &exporter{store: st, config: config}
}

// Export reads every requested user's records inside the effective clock
// window. The response clock of a user whose ledger extends beyond the
// window is clamped to the window max; ClockInfo.LocalClockMax carries the
// true clock so the importer knows to come back for more.
func (e *exporter) Export(ctx context.Context, req ExportRequest) (*ExportResponse, error) {
	if len(req.Wallets) == 0 {
		return nil, fmt.Errorf("%w: no wallets requested", domain.ErrBadRequest)
	}

	wallets := make([]string, 0, len(req.Wallets))
	for _, wallet := range req.Wallets {
		normalized, err := domain.ValidateWallet(wallet)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, normalized)
	}

	rangeMin := req.ClockRangeMin
	if rangeMin < 0 {
		return nil, fmt.Errorf("%w: clock range min %d is negative", domain.ErrBadRange, rangeMin)
	}

	rangeMax := rangeMin + e.config.MaxRange - 1
	if req.ClockRangeMax != nil {
		if *req.ClockRangeMax < rangeMin {
			return nil, fmt.Errorf("%w: clock range [%d, %d]", domain.ErrBadRange, rangeMin, *req.ClockRangeMax)
		}
		if *req.ClockRangeMax < rangeMax {
			rangeMax = *req.ClockRangeMax
		}
	}

	users, err := e.store.FetchExportUsers(ctx, wallets, rangeMin, rangeMax)
	if err != nil {
		return nil, fmt.Errorf("failed to read export window: %w", err)
	}

	response := &ExportResponse{
		CNodeUsers: make(map[string]*ExportUser, len(users)),
		PeerInfo: PeerInfo{
			Endpoint:            e.config.Endpoint,
			DelegateOwnerWallet: e.config.DelegateOwnerWallet,
		},
	}

	for _, data := range users {
		user := userToWire(data.User)
		if user.Clock > rangeMax {
			user.Clock = rangeMax
		}

		response.CNodeUsers[data.User.CNodeUserUUID.String()] = &ExportUser{
			CNodeUser:    user,
			ClockRecords: clockRecordsToWire(data.ClockRecords),
			AudiusUsers:  audiusUsersToWire(data.AudiusUsers),
			Tracks:       tracksToWire(data.Tracks),
			Files:        filesToWire(data.Files),
			ClockInfo: ClockInfo{
				RequestedClockRangeMin: rangeMin,
				RequestedClockRangeMax: rangeMax,
				LocalClockMax:          data.LocalClockMax,
			},
		}
	}

	logger.DebugCtx(ctx, "Export window served",
		zap.Int("users", len(response.CNodeUsers)),
		zap.Int64("clockRangeMin", rangeMin),
		zap.Int64("clockRangeMax", rangeMax))

	return response, nil
}
