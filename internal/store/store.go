package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/audfs/creator-node/internal/store/schema"
)

//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore

// Store defines the interface for database operations
type Store interface {
	// GetUserByWallet retrieves a user by wallet public key.
	// Returns nil when the wallet is unknown to this node.
	GetUserByWallet(ctx context.Context, wallet string) (*schema.CNodeUser, error)

	// GetFileByUUID retrieves a file record by its primary key.
	// Returns nil when no such record exists.
	GetFileByUUID(ctx context.Context, fileUUID uuid.UUID) (*schema.File, error)

	// GetFileByMultihash retrieves a file record whose blob has the given
	// content address. Returns nil when the CID is unknown.
	GetFileByMultihash(ctx context.Context, multihash string) (*schema.File, error)

	// GetDirEntry retrieves the entry of an image directory by name.
	// Returns nil when no such entry exists.
	GetDirEntry(ctx context.Context, dirMultihash, fileName string) (*schema.File, error)

	// GetDirEntries retrieves all entries of an image directory.
	GetDirEntries(ctx context.Context, dirMultihash string) ([]schema.File, error)

	// GetLatestAudiusUser retrieves the user's newest metadata revision.
	// Returns nil when the user has no metadata yet.
	GetLatestAudiusUser(ctx context.Context, cnodeUserUUID uuid.UUID) (*schema.AudiusUser, error)

	// CreateMetadataFile commits a metadata blob reference under the
	// user's next clock value, creating the user on first write.
	CreateMetadataFile(ctx context.Context, input CreateMetadataFileInput) (*schema.File, error)

	// CreateAudiusUser commits a user metadata revision under the user's
	// next clock value.
	CreateAudiusUser(ctx context.Context, input CreateAudiusUserInput) (*schema.AudiusUser, error)

	// CreateTrack commits a track metadata revision under the user's
	// next clock value.
	CreateTrack(ctx context.Context, input CreateTrackInput) (*schema.Track, error)

	// CreateTrackContent commits an audio blob reference under the
	// user's next clock value.
	CreateTrackContent(ctx context.Context, input CreateTrackContentInput) (*schema.File, error)

	// CreateImageDirectory commits a directory row plus one row per
	// entry, consuming consecutive clock values in a single transaction.
	CreateImageDirectory(ctx context.Context, input CreateImageDirectoryInput) (*ImageDirectoryResult, error)

	// FetchExportUsers reads everything needed to serve an export
	// window for the given wallets in one consistent snapshot. Wallets
	// unknown to this node are absent from the result.
	FetchExportUsers(ctx context.Context, wallets []string, rangeMin, rangeMax int64) ([]*ExportUserData, error)

	// ApplyImport commits a validated sync window in a single
	// transaction, in an order that satisfies row references.
	ApplyImport(ctx context.Context, bundle ImportBundle) error
}

// CreateMetadataFileInput carries one metadata blob commit
type CreateMetadataFileInput struct {
	WalletPublicKey string
	Multihash       string
	StoragePath     string
	SourceFile      *string
}

// CreateAudiusUserInput carries one user metadata revision commit
type CreateAudiusUserInput struct {
	WalletPublicKey    string
	BlockchainID       *string
	BlockNumber        int64
	MetadataFileUUID   *uuid.UUID
	MetadataJSON       datatypes.JSON
	CoverArtFileUUID   *uuid.UUID
	ProfilePicFileUUID *uuid.UUID
}

// CreateTrackInput carries one track metadata revision commit
type CreateTrackInput struct {
	WalletPublicKey  string
	BlockchainID     *string
	BlockNumber      int64
	MetadataFileUUID *uuid.UUID
	MetadataJSON     datatypes.JSON
	CoverArtFileUUID *uuid.UUID
}

// CreateTrackContentInput carries one audio blob commit
type CreateTrackContentInput struct {
	WalletPublicKey   string
	Multihash         string
	StoragePath       string
	SourceFile        *string
	TrackBlockchainID *string
}

// ImageDirEntry is one named variant inside an image directory
type ImageDirEntry struct {
	FileName    string
	Multihash   string
	StoragePath string
}

// CreateImageDirectoryInput carries an image directory commit: the dir row
// plus all of its entries
type CreateImageDirectoryInput struct {
	WalletPublicKey string
	DirMultihash    string
	DirStoragePath  string
	SourceFile      *string
	Entries         []ImageDirEntry
}

// ImageDirectoryResult reports the committed directory and entry rows
type ImageDirectoryResult struct {
	Dir     *schema.File
	Entries []schema.File
}

// ExportUserData is one user's slice of an export window, read in a single
// snapshot. LocalClockMax carries the user's true clock, which can exceed
// the window the records were filtered to.
type ExportUserData struct {
	User          *schema.CNodeUser
	ClockRecords  []schema.ClockRecord
	AudiusUsers   []schema.AudiusUser
	Tracks        []schema.Track
	Files         []schema.File
	LocalClockMax int64
}

// ImportBundle is a validated sync window ready to commit. Row UUIDs are
// adopted from the source; CNodeUserUUID fields are rewritten to the local
// user identity inside the transaction.
type ImportBundle struct {
	WalletPublicKey   string
	SourceUserUUID    uuid.UUID
	LatestBlockNumber int64
	// Clock is the user clock after this window is applied.
	Clock int64
	// ExpectedLocalClock is the local clock observed when the sync was
	// validated, or -1 when the user was absent. The commit re-checks it
	// so a window can never apply over state it was not validated
	// against.
	ExpectedLocalClock int64
	ClockRecords       []schema.ClockRecord
	AudiusUsers        []schema.AudiusUser
	Tracks             []schema.Track
	Files              []schema.File
}
