package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Track represents the tracks table - one row per committed track metadata
// revision. Like audius_users, rows are append-only per user and ordered by
// clock; a track's audio segments live in the files table and point back
// via track_blockchain_id.
type Track struct {
	// TrackUUID is the primary key of this track revision
	TrackUUID uuid.UUID `gorm:"column:track_uuid;type:uuid;primaryKey"`
	// CNodeUserUUID identifies the owning user
	CNodeUserUUID uuid.UUID `gorm:"column:cnode_user_uuid;type:uuid;not null;index;uniqueIndex:idx_tracks_user_clock,priority:1"`
	// Clock is the clock value this revision was committed under
	Clock int64 `gorm:"column:clock;not null;uniqueIndex:idx_tracks_user_clock,priority:2"`
	// BlockchainID is the track's ledger identity. Revisions of the same
	// track share it, so it is indexed but not unique.
	BlockchainID *string `gorm:"column:blockchain_id;type:text;index"`
	// BlockNumber is the ledger block that anchored this revision
	BlockNumber *int64 `gorm:"column:block_number"`
	// MetadataFileUUID references the files row holding the metadata blob
	MetadataFileUUID *uuid.UUID `gorm:"column:metadata_file_uuid;type:uuid"`
	// MetadataJSON is the metadata document as committed
	MetadataJSON datatypes.JSON `gorm:"column:metadata_json;type:jsonb"`
	// CoverArtFileUUID references the files row of the cover art dir
	CoverArtFileUUID *uuid.UUID `gorm:"column:cover_art_file_uuid;type:uuid"`
	// CreatedAt is the timestamp this revision was committed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the Track model
func (Track) TableName() string {
	return "tracks"
}
