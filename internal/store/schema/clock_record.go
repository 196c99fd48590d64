package schema

import (
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies which content table a clock value was reserved for
type SourceKind string

const (
	// SourceKindUserMeta marks a clock value consumed by an audius_users row
	SourceKindUserMeta SourceKind = "user_meta"
	// SourceKindTrack marks a clock value consumed by a tracks row
	SourceKindTrack SourceKind = "track"
	// SourceKindFile marks a clock value consumed by a files row
	SourceKindFile SourceKind = "file"
)

// IsValidSourceKind checks if a source kind is valid
func IsValidSourceKind(kind SourceKind) bool {
	return kind == SourceKindUserMeta || kind == SourceKindTrack || kind == SourceKindFile
}

// ClockRecord represents the clock_records table - the append-only ledger
// that totally orders a user's writes. The composite primary key is what
// makes concurrent clock reservations collide instead of interleaving.
type ClockRecord struct {
	// CNodeUserUUID identifies the owning user
	CNodeUserUUID uuid.UUID `gorm:"column:cnode_user_uuid;type:uuid;primaryKey"`
	// Clock is the per-user sequence number, starting at 1
	Clock int64 `gorm:"column:clock;primaryKey;autoIncrement:false"`
	// SourceKind records which content kind consumed this clock value
	SourceKind SourceKind `gorm:"column:source_kind;not null;type:text"`
	// CreatedAt is the timestamp the clock value was committed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the ClockRecord model
func (ClockRecord) TableName() string {
	return "clock_records"
}
