package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/audfs/creator-node/internal/api/middleware"
	"github.com/audfs/creator-node/internal/api/rest/dto"
	"github.com/audfs/creator-node/internal/blobstore"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/media"
	"github.com/audfs/creator-node/internal/store"
	"github.com/audfs/creator-node/internal/store/schema"
)

// CreateUserMetadata canonicalizes, hashes and stores a user metadata
// document
func (h *handler) CreateUserMetadata(c *gin.Context) {
	if resp, ok := h.commitMetadata(c); ok {
		c.JSON(http.StatusOK, resp)
	}
}

// CreateTrackMetadata canonicalizes, hashes and stores a track metadata
// document
func (h *handler) CreateTrackMetadata(c *gin.Context) {
	if resp, ok := h.commitMetadata(c); ok {
		c.JSON(http.StatusOK, resp)
	}
}

// commitMetadata is the shared body of the two metadata routes: both store
// a canonicalized document as a metadata file row; they diverge only at the
// later /audius_users and /tracks commits.
func (h *handler) commitMetadata(c *gin.Context) (*dto.MetadataResponse, bool) {
	wallet := middleware.WalletFromContext(c)

	var req dto.MetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return nil, false
	}

	// Canonical form decides the content address, so equivalent documents
	// posted with different key order or whitespace share one CID.
	canonical, err := h.deps.JCS.Transform(req.Metadata)
	if err != nil {
		respondBadRequest(c, "Metadata is not a valid JSON document", err.Error())
		return nil, false
	}

	cid, path, err := h.deps.Storage.Store(canonical)
	if err != nil {
		respondInternalError(c, err, "Failed to store metadata blob")
		return nil, false
	}

	ctx := c.Request.Context()
	var row *schema.File
	err = h.withWalletLock(ctx, wallet, func() error {
		created, err := h.deps.Store.CreateMetadataFile(ctx, store.CreateMetadataFileInput{
			WalletPublicKey: wallet,
			Multihash:       cid,
			StoragePath:     path,
		})
		if err != nil {
			return err
		}
		row = created
		return nil
	})
	if err != nil {
		respondDomainError(c, err)
		return nil, false
	}

	h.scheduleReplication(ctx, wallet)

	return &dto.MetadataResponse{
		MetadataMultihash: row.Multihash,
		MetadataFileUUID:  row.FileUUID,
	}, true
}

// CreateUser commits a previously uploaded metadata file as the user's
// newest revision
func (h *handler) CreateUser(c *gin.Context) {
	wallet := middleware.WalletFromContext(c)

	var req dto.CreateAudiusUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	ctx := c.Request.Context()
	metadataRow, metadataJSON, ok := h.loadMetadataFile(c, wallet, req.MetadataFileUUID)
	if !ok {
		return
	}

	blockchainID := strconv.FormatInt(*req.BlockchainUserID, 10)
	input := store.CreateAudiusUserInput{
		WalletPublicKey:    wallet,
		BlockchainID:       &blockchainID,
		BlockNumber:        *req.BlockNumber,
		MetadataFileUUID:   &metadataRow.FileUUID,
		MetadataJSON:       metadataJSON,
		CoverArtFileUUID:   h.linkedDirFile(ctx, metadataJSON, "cover_photo_sizes"),
		ProfilePicFileUUID: h.linkedDirFile(ctx, metadataJSON, "profile_picture_sizes"),
	}

	var row *schema.AudiusUser
	err := h.withWalletLock(ctx, wallet, func() error {
		created, err := h.deps.Store.CreateAudiusUser(ctx, input)
		if err != nil {
			return err
		}
		row = created
		return nil
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.scheduleReplication(ctx, wallet)
	c.JSON(http.StatusOK, dto.MapAudiusUserToDTO(row, wallet))
}

// CreateTrack commits a previously uploaded metadata file as a track
// revision
func (h *handler) CreateTrack(c *gin.Context) {
	wallet := middleware.WalletFromContext(c)

	var req dto.CreateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	ctx := c.Request.Context()
	metadataRow, metadataJSON, ok := h.loadMetadataFile(c, wallet, req.MetadataFileUUID)
	if !ok {
		return
	}

	blockchainID := strconv.FormatInt(*req.BlockchainTrackID, 10)
	input := store.CreateTrackInput{
		WalletPublicKey:  wallet,
		BlockchainID:     &blockchainID,
		BlockNumber:      *req.BlockNumber,
		MetadataFileUUID: &metadataRow.FileUUID,
		MetadataJSON:     metadataJSON,
		CoverArtFileUUID: h.linkedDirFile(ctx, metadataJSON, "cover_art_sizes"),
	}

	var row *schema.Track
	err := h.withWalletLock(ctx, wallet, func() error {
		created, err := h.deps.Store.CreateTrack(ctx, input)
		if err != nil {
			return err
		}
		row = created
		return nil
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.scheduleReplication(ctx, wallet)
	c.JSON(http.StatusOK, dto.MapTrackToDTO(row, wallet))
}

// UploadImage stores the resized variants of an image upload as a
// content-addressed directory
func (h *handler) UploadImage(c *gin.Context) {
	wallet := middleware.WalletFromContext(c)

	fileHeader, ok := h.formUpload(c)
	if !ok {
		return
	}
	square, _ := strconv.ParseBool(c.DefaultPostForm("square", "false"))

	data, ok := h.readUpload(c, fileHeader)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	variants, err := h.deps.Resizer.Resize(ctx, data, square)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			respondBadRequest(c, "Upload is not a supported image", err.Error())
			return
		}
		respondInternalError(c, err, "Failed to generate image variants")
		return
	}

	// The directory address is composed from its entries, then each
	// variant lands under it.
	entries := make([]blobstore.DirEntry, len(variants))
	for i, v := range variants {
		entries[i] = blobstore.DirEntry{Name: v.FileName, CID: blobstore.CID(v.Data)}
	}
	dirCID := blobstore.DirCID(entries)

	input := store.CreateImageDirectoryInput{
		WalletPublicKey: wallet,
		DirMultihash:    dirCID,
		DirStoragePath:  h.deps.Storage.PathFor(dirCID),
		Entries:         make([]store.ImageDirEntry, len(variants)),
	}
	if name := fileHeader.Filename; name != "" {
		input.SourceFile = &name
	}
	for i, v := range variants {
		cid, path, err := h.deps.Storage.StoreEntry(dirCID, v.Data)
		if err != nil {
			respondInternalError(c, err, "Failed to store image variant",
				zap.String("fileName", v.FileName))
			return
		}
		input.Entries[i] = store.ImageDirEntry{
			FileName:    v.FileName,
			Multihash:   cid,
			StoragePath: path,
		}
	}

	var result *store.ImageDirectoryResult
	err = h.withWalletLock(ctx, wallet, func() error {
		r, err := h.deps.Store.CreateImageDirectory(ctx, input)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.scheduleReplication(ctx, wallet)

	resp := dto.ImageUploadResponse{
		DirCID:      result.Dir.Multihash,
		DirFileUUID: result.Dir.FileUUID,
		Files:       make([]dto.FileResponse, len(result.Entries)),
	}
	for i := range result.Entries {
		resp.Files[i] = dto.MapFileToDTO(&result.Entries[i])
	}
	c.JSON(http.StatusOK, resp)
}

// UploadTrackContent stores an uploaded audio file
func (h *handler) UploadTrackContent(c *gin.Context) {
	wallet := middleware.WalletFromContext(c)

	fileHeader, ok := h.formUpload(c)
	if !ok {
		return
	}

	var trackID *string
	if v := strings.TrimSpace(c.PostForm("track_blockchain_id")); v != "" {
		trackID = &v
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "Failed to open upload")
		return
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("failed to close upload", zap.Error(err))
		}
	}()

	// Audio goes through the spooling stream path; it is never buffered
	// whole in memory.
	cid, path, err := h.deps.Storage.StoreStream(src)
	if err != nil {
		respondInternalError(c, err, "Failed to store audio blob")
		return
	}

	input := store.CreateTrackContentInput{
		WalletPublicKey:   wallet,
		Multihash:         cid,
		StoragePath:       path,
		TrackBlockchainID: trackID,
	}
	if name := fileHeader.Filename; name != "" {
		input.SourceFile = &name
	}

	ctx := c.Request.Context()
	var row *schema.File
	err = h.withWalletLock(ctx, wallet, func() error {
		created, err := h.deps.Store.CreateTrackContent(ctx, input)
		if err != nil {
			return err
		}
		row = created
		return nil
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.scheduleReplication(ctx, wallet)
	c.JSON(http.StatusOK, dto.TrackContentResponse{
		TrackContentMultihash: row.Multihash,
		FileUUID:              row.FileUUID,
	})
}

// formUpload opens the multipart "file" field and enforces the configured
// size limit
func (h *handler) formUpload(c *gin.Context) (*multipart.FileHeader, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "A multipart \"file\" field is required", err.Error())
		return nil, false
	}
	if h.config.MaxUploadSize > 0 && fileHeader.Size > h.config.MaxUploadSize {
		respondBadRequest(c, fmt.Sprintf("Upload exceeds the %d byte limit", h.config.MaxUploadSize))
		return nil, false
	}
	return fileHeader, true
}

// readUpload buffers an upload that must be decoded in memory
func (h *handler) readUpload(c *gin.Context, fileHeader *multipart.FileHeader) ([]byte, bool) {
	src, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "Failed to open upload")
		return nil, false
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("failed to close upload", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		respondInternalError(c, err, "Failed to read upload")
		return nil, false
	}
	return data, true
}

// loadMetadataFile resolves a previously committed metadata file owned by
// the acting wallet and reads the document back from disk
func (h *handler) loadMetadataFile(c *gin.Context, wallet string, fileUUID uuid.UUID) (*schema.File, datatypes.JSON, bool) {
	ctx := c.Request.Context()

	row, err := h.deps.Store.GetFileByUUID(ctx, fileUUID)
	if err != nil {
		respondInternalError(c, err, "Failed to look up metadata file")
		return nil, nil, false
	}
	if row == nil || row.Type != schema.FileTypeMetadata {
		respondBadRequest(c, "metadataFileUUID does not name a committed metadata file")
		return nil, nil, false
	}

	user, err := h.deps.Store.GetUserByWallet(ctx, wallet)
	if err != nil {
		respondInternalError(c, err, "Failed to look up user")
		return nil, nil, false
	}
	if user == nil || user.CNodeUserUUID != row.CNodeUserUUID {
		respondBadRequest(c, "metadataFileUUID does not belong to this wallet")
		return nil, nil, false
	}

	f, _, err := h.deps.Storage.Open(h.blobPath(row))
	if err != nil {
		respondInternalError(c, err, "Failed to read metadata blob",
			zap.String("cid", row.Multihash))
		return nil, nil, false
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close metadata blob", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		respondInternalError(c, err, "Failed to read metadata blob",
			zap.String("cid", row.Multihash))
		return nil, nil, false
	}
	return row, datatypes.JSON(data), true
}

// linkedDirFile resolves an image directory referenced by CID inside a
// metadata document (cover art, profile picture) to its files row. Broken
// or missing references are left unlinked rather than failing the commit.
func (h *handler) linkedDirFile(ctx context.Context, metadata []byte, key string) *uuid.UUID {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(metadata, &doc); err != nil {
		return nil
	}
	raw, ok := doc[key]
	if !ok {
		return nil
	}
	var cid string
	if err := json.Unmarshal(raw, &cid); err != nil || cid == "" {
		return nil
	}

	row, err := h.deps.Store.GetFileByMultihash(ctx, cid)
	if err != nil || row == nil || row.Type != schema.FileTypeDir {
		return nil
	}
	return &row.FileUUID
}
