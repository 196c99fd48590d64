package dto

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/audfs/creator-node/internal/store/schema"
)

// MetadataRequest carries the raw metadata document posted to the metadata
// routes. The document is canonicalized before hashing, so key order and
// whitespace in the request do not matter.
type MetadataRequest struct {
	Metadata json.RawMessage `json:"metadata" binding:"required"`
}

// MetadataResponse reports the committed metadata blob
type MetadataResponse struct {
	MetadataMultihash string    `json:"metadataMultihash"`
	MetadataFileUUID  uuid.UUID `json:"metadataFileUUID"`
}

// CreateAudiusUserRequest commits a previously uploaded metadata file as the
// user's newest revision
type CreateAudiusUserRequest struct {
	BlockchainUserID *int64    `json:"blockchainUserId" binding:"required"`
	BlockNumber      *int64    `json:"blockNumber" binding:"required"`
	MetadataFileUUID uuid.UUID `json:"metadataFileUUID" binding:"required"`
}

// CreateTrackRequest commits a previously uploaded metadata file as a track
// revision
type CreateTrackRequest struct {
	BlockchainTrackID *int64    `json:"blockchainTrackId" binding:"required"`
	BlockNumber       *int64    `json:"blockNumber" binding:"required"`
	MetadataFileUUID  uuid.UUID `json:"metadataFileUUID" binding:"required"`
}

// AudiusUserResponse represents a committed user metadata revision
type AudiusUserResponse struct {
	AudiusUserUUID   uuid.UUID  `json:"audiusUserUUID"`
	WalletPublicKey  string     `json:"walletPublicKey"`
	Clock            int64      `json:"clock"`
	BlockchainID     *string    `json:"blockchainId,omitempty"`
	BlockNumber      *int64     `json:"blockNumber,omitempty"`
	MetadataFileUUID *uuid.UUID `json:"metadataFileUUID,omitempty"`
}

// TrackResponse represents a committed track metadata revision
type TrackResponse struct {
	TrackUUID        uuid.UUID  `json:"trackUUID"`
	WalletPublicKey  string     `json:"walletPublicKey"`
	Clock            int64      `json:"clock"`
	BlockchainID     *string    `json:"blockchainId,omitempty"`
	BlockNumber      *int64     `json:"blockNumber,omitempty"`
	MetadataFileUUID *uuid.UUID `json:"metadataFileUUID,omitempty"`
}

// FileResponse represents a committed blob reference
type FileResponse struct {
	FileUUID  uuid.UUID `json:"fileUUID"`
	Multihash string    `json:"multihash"`
	FileName  *string   `json:"fileName,omitempty"`
	Clock     int64     `json:"clock"`
}

// ImageUploadResponse reports a committed image directory: the directory
// CID plus one file per generated variant
type ImageUploadResponse struct {
	DirCID      string         `json:"dirCID"`
	DirFileUUID uuid.UUID      `json:"dirFileUUID"`
	Files       []FileResponse `json:"files"`
}

// TrackContentResponse reports a committed audio blob
type TrackContentResponse struct {
	TrackContentMultihash string    `json:"trackContentMultihash"`
	FileUUID              uuid.UUID `json:"fileUUID"`
}

// MapAudiusUserToDTO maps a schema.AudiusUser to AudiusUserResponse
func MapAudiusUserToDTO(row *schema.AudiusUser, wallet string) *AudiusUserResponse {
	return &AudiusUserResponse{
		AudiusUserUUID:   row.AudiusUserUUID,
		WalletPublicKey:  wallet,
		Clock:            row.Clock,
		BlockchainID:     row.BlockchainID,
		BlockNumber:      row.BlockNumber,
		MetadataFileUUID: row.MetadataFileUUID,
	}
}

// MapTrackToDTO maps a schema.Track to TrackResponse
func MapTrackToDTO(row *schema.Track, wallet string) *TrackResponse {
	return &TrackResponse{
		TrackUUID:        row.TrackUUID,
		WalletPublicKey:  wallet,
		Clock:            row.Clock,
		BlockchainID:     row.BlockchainID,
		BlockNumber:      row.BlockNumber,
		MetadataFileUUID: row.MetadataFileUUID,
	}
}

// MapFileToDTO maps a schema.File to FileResponse
func MapFileToDTO(row *schema.File) FileResponse {
	return FileResponse{
		FileUUID:  row.FileUUID,
		Multihash: row.Multihash,
		FileName:  row.FileName,
		Clock:     row.Clock,
	}
}
