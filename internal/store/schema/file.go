package schema

import (
	"time"

	"github.com/google/uuid"
)

// FileType classifies what a stored blob is used for
type FileType string

const (
	// FileTypeMetadata is a canonicalized JSON metadata document
	FileTypeMetadata FileType = "metadata"
	// FileTypeImage is a single image entry inside an image directory
	FileTypeImage FileType = "image"
	// FileTypeAudio is a track audio segment
	FileTypeAudio FileType = "audio"
	// FileTypeDir is an image directory row grouping its entries
	FileTypeDir FileType = "dir"
)

// IsValidFileType checks if a file type is valid
func IsValidFileType(t FileType) bool {
	return t == FileTypeMetadata || t == FileTypeImage || t == FileTypeAudio || t == FileTypeDir
}

// File represents the files table - the index of every blob this node
// stores for a user. The blob bytes live on disk under StoragePath; the
// row is what replication and the read path navigate by.
type File struct {
	// FileUUID is the primary key of this file record
	FileUUID uuid.UUID `gorm:"column:file_uuid;type:uuid;primaryKey"`
	// CNodeUserUUID identifies the owning user
	CNodeUserUUID uuid.UUID `gorm:"column:cnode_user_uuid;type:uuid;not null;index;uniqueIndex:idx_files_user_clock,priority:1"`
	// Clock is the clock value this record was committed under
	Clock int64 `gorm:"column:clock;not null;uniqueIndex:idx_files_user_clock,priority:2"`
	// Multihash is the blob's content address
	Multihash string `gorm:"column:multihash;not null;type:text;index"`
	// SourceFile is the client-supplied origin filename, when known
	SourceFile *string `gorm:"column:source_file;type:text"`
	// FileName is the entry name inside a directory (image variants)
	FileName *string `gorm:"column:file_name;type:text"`
	// DirMultihash is the content address of the directory this entry
	// belongs to, set only for image directory entries
	DirMultihash *string `gorm:"column:dir_multihash;type:text;index"`
	// StoragePath is where the blob lives on this node's disk
	StoragePath string `gorm:"column:storage_path;not null;type:text"`
	// Type classifies the blob
	Type FileType `gorm:"column:type;not null;type:text"`
	// TrackBlockchainID ties an audio segment to its track; nil for
	// non-track files
	TrackBlockchainID *string `gorm:"column:track_blockchain_id;type:text;index"`
	// CreatedAt is the timestamp this record was committed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the File model
func (File) TableName() string {
	return "files"
}

// IsTrackFile reports whether the record is an audio segment bound to a
// track. Track files are imported after their tracks; everything else is
// imported before.
func (f *File) IsTrackFile() bool {
	return f.Type == FileTypeAudio && f.TrackBlockchainID != nil
}
