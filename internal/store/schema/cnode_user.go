package schema

import (
	"time"

	"github.com/google/uuid"
)

// CNodeUser represents the cnode_users table - one row per wallet stored on
// this node, carrying the user's replication clock.
type CNodeUser struct {
	// CNodeUserUUID is the internal identity of the user on this node
	CNodeUserUUID uuid.UUID `gorm:"column:cnode_user_uuid;type:uuid;primaryKey"`
	// WalletPublicKey is the user's wallet in canonical lower-case form
	WalletPublicKey string `gorm:"column:wallet_public_key;not null;uniqueIndex;type:text"`
	// LatestBlockNumber is the highest ledger block observed for this
	// user's content; it never decreases
	LatestBlockNumber int64 `gorm:"column:latest_block_number;not null;default:0"`
	// Clock is the user's current clock value. Committed clock records
	// for the user form the contiguous set {1..Clock}; 0 means the user
	// has no content yet.
	Clock int64 `gorm:"column:clock;not null;default:0"`
	// CreatedAt is the timestamp when the user was first seen
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	// UpdatedAt is bumped on every clock advance
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	ClockRecords []ClockRecord `gorm:"foreignKey:CNodeUserUUID;constraint:OnDelete:CASCADE"`
	AudiusUsers  []AudiusUser  `gorm:"foreignKey:CNodeUserUUID;constraint:OnDelete:CASCADE"`
	Tracks       []Track       `gorm:"foreignKey:CNodeUserUUID;constraint:OnDelete:CASCADE"`
	Files        []File        `gorm:"foreignKey:CNodeUserUUID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the CNodeUser model
func (CNodeUser) TableName() string {
	return "cnode_users"
}
