package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AudiusUser represents the audius_users table - one row per committed user
// metadata revision. Rows are append-only; the row with the highest clock is
// the user's current metadata.
type AudiusUser struct {
	// AudiusUserUUID is the primary key of this metadata revision
	AudiusUserUUID uuid.UUID `gorm:"column:audius_user_uuid;type:uuid;primaryKey"`
	// CNodeUserUUID identifies the owning user
	CNodeUserUUID uuid.UUID `gorm:"column:cnode_user_uuid;type:uuid;not null;index;uniqueIndex:idx_audius_users_user_clock,priority:1"`
	// Clock is the clock value this revision was committed under
	Clock int64 `gorm:"column:clock;not null;uniqueIndex:idx_audius_users_user_clock,priority:2"`
	// BlockchainID is the user's ledger identity
	BlockchainID *string `gorm:"column:blockchain_id;type:text;index"`
	// BlockNumber is the ledger block that anchored this revision
	BlockNumber *int64 `gorm:"column:block_number"`
	// MetadataFileUUID references the files row holding the metadata blob
	MetadataFileUUID *uuid.UUID `gorm:"column:metadata_file_uuid;type:uuid"`
	// MetadataJSON is the metadata document as committed
	MetadataJSON datatypes.JSON `gorm:"column:metadata_json;type:jsonb"`
	// CoverArtFileUUID references the files row of the cover photo dir
	CoverArtFileUUID *uuid.UUID `gorm:"column:cover_art_file_uuid;type:uuid"`
	// ProfilePicFileUUID references the files row of the profile picture dir
	ProfilePicFileUUID *uuid.UUID `gorm:"column:profile_pic_file_uuid;type:uuid"`
	// CreatedAt is the timestamp this revision was committed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the AudiusUser model
func (AudiusUser) TableName() string {
	return "audius_users"
}
