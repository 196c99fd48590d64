package replication

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/audfs/creator-node/internal/store/schema"
)

// Wire types for the node-to-node replication protocol. Rows mirror the
// schema structs field for field; the explicit mapping keeps the wire
// format independent of storage concerns.

// ExportResponse is the /export payload: one window per exported user plus
// an advisory hint about the serving node.
type ExportResponse struct {
	// CNodeUsers is keyed by the source node's user UUID
	CNodeUsers map[string]*ExportUser `json:"cnodeUsers"`
	PeerInfo   PeerInfo               `json:"peerInfo"`
}

// ExportUser is one user's slice of an export window
type ExportUser struct {
	CNodeUser    UserWire          `json:"cnodeUser"`
	ClockRecords []ClockRecordWire `json:"clockRecords"`
	AudiusUsers  []AudiusUserWire  `json:"audiusUsers"`
	Tracks       []TrackWire       `json:"tracks"`
	Files        []FileWire        `json:"files"`
	ClockInfo    ClockInfo         `json:"clockInfo"`
}

// ClockInfo reports the window actually served. LocalClockMax carries the
// user's true clock even when the response clock was clamped to the window,
// signalling the importer to request another window.
type ClockInfo struct {
	RequestedClockRangeMin int64 `json:"requestedClockRangeMin"`
	RequestedClockRangeMax int64 `json:"requestedClockRangeMax"`
	LocalClockMax          int64 `json:"localClockMax"`
}

// PeerInfo is an advisory hint about the exporting node. Importers may use
// it to reach the node's blob routes; failures to do so are never fatal.
type PeerInfo struct {
	Endpoint            string `json:"endpoint"`
	DelegateOwnerWallet string `json:"delegateOwnerWallet,omitempty"`
}

// SyncBody is the POST /sync request body
type SyncBody struct {
	Wallets             []string `json:"wallet"`
	CreatorNodeEndpoint string   `json:"creator_node_endpoint"`
	Immediate           bool     `json:"immediate,omitempty"`
	SyncType            string   `json:"sync_type,omitempty"`
}

// UserWire is the user row on the wire. Clock may be clamped to the export
// window; ClockInfo.LocalClockMax carries the true value.
type UserWire struct {
	CNodeUserUUID     uuid.UUID `json:"cnodeUserUUID"`
	WalletPublicKey   string    `json:"walletPublicKey"`
	LatestBlockNumber int64     `json:"latestBlockNumber"`
	Clock             int64     `json:"clock"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ClockRecordWire is a clock ledger entry on the wire
type ClockRecordWire struct {
	Clock      int64     `json:"clock"`
	SourceKind string    `json:"sourceKind"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AudiusUserWire is a user metadata revision on the wire
type AudiusUserWire struct {
	AudiusUserUUID     uuid.UUID      `json:"audiusUserUUID"`
	Clock              int64          `json:"clock"`
	BlockchainID       *string        `json:"blockchainId"`
	BlockNumber        *int64         `json:"blockNumber"`
	MetadataFileUUID   *uuid.UUID     `json:"metadataFileUUID"`
	MetadataJSON       datatypes.JSON `json:"metadataJSON"`
	CoverArtFileUUID   *uuid.UUID     `json:"coverArtFileUUID"`
	ProfilePicFileUUID *uuid.UUID     `json:"profilePicFileUUID"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// TrackWire is a track metadata revision on the wire
type TrackWire struct {
	TrackUUID        uuid.UUID      `json:"trackUUID"`
	Clock            int64          `json:"clock"`
	BlockchainID     *string        `json:"blockchainId"`
	BlockNumber      *int64         `json:"blockNumber"`
	MetadataFileUUID *uuid.UUID     `json:"metadataFileUUID"`
	MetadataJSON     datatypes.JSON `json:"metadataJSON"`
	CoverArtFileUUID *uuid.UUID     `json:"coverArtFileUUID"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// FileWire is a file row on the wire. StoragePath is the exporting node's
// path and is recomputed locally on import.
type FileWire struct {
	FileUUID          uuid.UUID `json:"fileUUID"`
	Clock             int64     `json:"clock"`
	Multihash         string    `json:"multihash"`
	SourceFile        *string   `json:"sourceFile"`
	FileName          *string   `json:"fileName"`
	DirMultihash      *string   `json:"dirMultihash"`
	StoragePath       string    `json:"storagePath"`
	Type              string    `json:"type"`
	TrackBlockchainID *string   `json:"trackBlockchainId"`
	CreatedAt         time.Time `json:"createdAt"`
}

// IsDir reports whether the row is an image directory anchor, which has no
// blob payload of its own.
func (f FileWire) IsDir() bool {
	return schema.FileType(f.Type) == schema.FileTypeDir
}

// IsTrackFile reports whether the row is an audio segment bound to a track
func (f FileWire) IsTrackFile() bool {
	return schema.FileType(f.Type) == schema.FileTypeAudio && f.TrackBlockchainID != nil
}

func userToWire(user *schema.CNodeUser) UserWire {
	return UserWire{
		CNodeUserUUID:     user.CNodeUserUUID,
		WalletPublicKey:   user.WalletPublicKey,
		LatestBlockNumber: user.LatestBlockNumber,
		Clock:             user.Clock,
		CreatedAt:         user.CreatedAt,
	}
}

func clockRecordsToWire(records []schema.ClockRecord) []ClockRecordWire {
	out := make([]ClockRecordWire, len(records))
	for i, r := range records {
		out[i] = ClockRecordWire{
			Clock:      r.Clock,
			SourceKind: string(r.SourceKind),
			CreatedAt:  r.CreatedAt,
		}
	}
	return out
}

func audiusUsersToWire(rows []schema.AudiusUser) []AudiusUserWire {
	out := make([]AudiusUserWire, len(rows))
	for i, r := range rows {
		out[i] = AudiusUserWire{
			AudiusUserUUID:     r.AudiusUserUUID,
			Clock:              r.Clock,
			BlockchainID:       r.BlockchainID,
			BlockNumber:        r.BlockNumber,
			MetadataFileUUID:   r.MetadataFileUUID,
			MetadataJSON:       r.MetadataJSON,
			CoverArtFileUUID:   r.CoverArtFileUUID,
			ProfilePicFileUUID: r.ProfilePicFileUUID,
			CreatedAt:          r.CreatedAt,
		}
	}
	return out
}

func tracksToWire(rows []schema.Track) []TrackWire {
	out := make([]TrackWire, len(rows))
	for i, r := range rows {
		out[i] = TrackWire{
			TrackUUID:        r.TrackUUID,
			Clock:            r.Clock,
			BlockchainID:     r.BlockchainID,
			BlockNumber:      r.BlockNumber,
			MetadataFileUUID: r.MetadataFileUUID,
			MetadataJSON:     r.MetadataJSON,
			CoverArtFileUUID: r.CoverArtFileUUID,
			CreatedAt:        r.CreatedAt,
		}
	}
	return out
}

func filesToWire(rows []schema.File) []FileWire {
	out := make([]FileWire, len(rows))
	for i, r := range rows {
		out[i] = FileWire{
			FileUUID:          r.FileUUID,
			Clock:             r.Clock,
			Multihash:         r.Multihash,
			SourceFile:        r.SourceFile,
			FileName:          r.FileName,
			DirMultihash:      r.DirMultihash,
			StoragePath:       r.StoragePath,
			Type:              string(r.Type),
			TrackBlockchainID: r.TrackBlockchainID,
			CreatedAt:         r.CreatedAt,
		}
	}
	return out
}

func clockRecordsToSchema(rows []ClockRecordWire) []schema.ClockRecord {
	out := make([]schema.ClockRecord, len(rows))
	for i, r := range rows {
		out[i] = schema.ClockRecord{
			Clock:      r.Clock,
			SourceKind: schema.SourceKind(r.SourceKind),
			CreatedAt:  r.CreatedAt,
		}
	}
	return out
}

func audiusUsersToSchema(rows []AudiusUserWire) []schema.AudiusUser {
	out := make([]schema.AudiusUser, len(rows))
	for i, r := range rows {
		out[i] = schema.AudiusUser{
			AudiusUserUUID:     r.AudiusUserUUID,
			Clock:              r.Clock,
			BlockchainID:       r.BlockchainID,
			BlockNumber:        r.BlockNumber,
			MetadataFileUUID:   r.MetadataFileUUID,
			MetadataJSON:       r.MetadataJSON,
			CoverArtFileUUID:   r.CoverArtFileUUID,
			ProfilePicFileUUID: r.ProfilePicFileUUID,
			CreatedAt:          r.CreatedAt,
		}
	}
	return out
}

func tracksToSchema(rows []TrackWire) []schema.Track {
	out := make([]schema.Track, len(rows))
	for i, r := range rows {
		out[i] = schema.Track{
			TrackUUID:        r.TrackUUID,
			Clock:            r.Clock,
			BlockchainID:     r.BlockchainID,
			BlockNumber:      r.BlockNumber,
			MetadataFileUUID: r.MetadataFileUUID,
			MetadataJSON:     r.MetadataJSON,
			CoverArtFileUUID: r.CoverArtFileUUID,
			CreatedAt:        r.CreatedAt,
		}
	}
	return out
}
