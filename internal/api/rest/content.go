package rest

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/api/middleware"
	"github.com/audfs/creator-node/internal/blobstore"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
	"github.com/audfs/creator-node/internal/store/schema"
)

// ServeBlob streams a blob by CID with Range support
func (h *handler) ServeBlob(c *gin.Context) {
	cid := strings.TrimSpace(c.Param("cid"))
	if cid == "" {
		respondBadRequest(c, "A CID is required")
		return
	}

	row, err := h.deps.Store.GetFileByMultihash(c.Request.Context(), cid)
	if err != nil {
		respondInternalError(c, err, "Failed to look up content")
		return
	}
	if row == nil {
		respondNotFound(c, "Content not found")
		return
	}
	if row.Type == schema.FileTypeDir {
		respondBadRequest(c, "CID names a directory; request an entry by filename")
		return
	}
	if h.deps.Denylist.IsCIDDenied(cid) {
		respondForbidden(c, "Content is not served by this node")
		return
	}

	h.serveFileRow(c, row)
}

// ServeDirBlob streams an image directory entry by name
func (h *handler) ServeDirBlob(c *gin.Context) {
	dirCID := strings.TrimSpace(c.Param("cid"))
	fileName := strings.TrimSpace(c.Param("filename"))
	if dirCID == "" || fileName == "" {
		respondBadRequest(c, "A directory CID and filename are required")
		return
	}

	row, err := h.deps.Store.GetDirEntry(c.Request.Context(), dirCID, fileName)
	if err != nil {
		respondInternalError(c, err, "Failed to look up content")
		return
	}
	if row == nil {
		respondNotFound(c, "Content not found")
		return
	}
	if h.deps.Denylist.IsCIDDenied(dirCID) || h.deps.Denylist.IsCIDDenied(row.Multihash) {
		respondForbidden(c, "Content is not served by this node")
		return
	}

	h.serveFileRow(c, row)
}

// FileLookup streams a blob to an authenticated peer node. Peers call this
// to repair their replicas, so only local disk is served; a miss here must
// not recurse into another remote fetch.
func (h *handler) FileLookup(c *gin.Context) {
	cid := strings.TrimSpace(c.Query("multihash"))
	if cid == "" {
		respondBadRequest(c, "A multihash query parameter is required")
		return
	}

	row, err := h.deps.Store.GetFileByMultihash(c.Request.Context(), cid)
	if err != nil {
		respondInternalError(c, err, "Failed to look up content")
		return
	}
	if row == nil {
		respondNotFound(c, "Content not found")
		return
	}
	if row.Type == schema.FileTypeDir {
		respondBadRequest(c, "CID names a directory")
		return
	}
	if h.deps.Denylist.IsCIDDenied(cid) {
		respondForbidden(c, "Content is not served by this node")
		return
	}

	path := h.blobPath(row)
	if !h.deps.Storage.Has(path) {
		respondNotFound(c, "Content not on local disk")
		return
	}

	logger.DebugCtx(c.Request.Context(), "Serving peer file lookup",
		zap.String("cid", cid),
		zap.String("peer", middleware.PeerWalletFromContext(c)))

	h.streamFromDisk(c, row, path)
}

// serveFileRow streams the row's blob, pulling it from the owner's replica
// peers or a content gateway when local disk misses
func (h *handler) serveFileRow(c *gin.Context, row *schema.File) {
	path := h.blobPath(row)

	if !h.deps.Storage.Has(path) {
		fetched, err := h.fetchFromNetwork(c.Request.Context(), row)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		path = fetched
	}

	h.streamFromDisk(c, row, path)
}

// streamFromDisk serves a blob with Range semantics and a sniffed
// Content-Type. Every streamed blob queues a rehydration task to keep the
// content overlay warm.
func (h *handler) streamFromDisk(c *gin.Context, row *schema.File, path string) {
	f, info, err := h.deps.Storage.Open(path)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close blob",
				zap.String("path", path),
				zap.Error(err))
		}
	}()

	if mtype, err := mimetype.DetectReader(f); err == nil {
		c.Header("Content-Type", mtype.String())
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		respondInternalError(c, err, "Failed to stream content",
			zap.String("path", path))
		return
	}

	name := row.Multihash
	if row.FileName != nil && *row.FileName != "" {
		name = *row.FileName
	}
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)

	h.enqueueRehydration(row, path)
}

// blobPath recomputes the canonical disk path for a row. Paths derive from
// the content address rather than the stored column, so rows imported from
// nodes with a different storage root still resolve.
func (h *handler) blobPath(row *schema.File) string {
	if row.DirMultihash != nil {
		return h.deps.Storage.PathForEntry(*row.DirMultihash, row.Multihash)
	}
	return h.deps.Storage.PathFor(row.Multihash)
}

// fetchFromNetwork pulls a missing blob from the owner's replica peers,
// then the configured gateways, under a short deadline
func (h *handler) fetchFromNetwork(ctx context.Context, row *schema.File) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.RemoteFetchTimeout)
	defer cancel()

	task := blobstore.FetchTask{CID: row.Multihash}
	if row.DirMultihash != nil && row.FileName != nil {
		task.DirCID = *row.DirMultihash
		task.FileName = *row.FileName
	}

	return h.deps.Fetcher.FetchOne(ctx, task, h.readSources(ctx, row))
}

// readSources orders the fallback sources for a missing blob: the owner's
// replica peers first, carrying this node's signed identity so the peer
// serves /file_lookup, then the configured content gateways.
func (h *handler) readSources(ctx context.Context, row *schema.File) []blobstore.Source {
	var sources []blobstore.Source
	self := strings.TrimRight(h.config.SelfEndpoint, "/")

	latest, err := h.deps.Store.GetLatestAudiusUser(ctx, row.CNodeUserUUID)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to load replica set for read fallback",
			zap.String("cid", row.Multihash),
			zap.Error(err))
	} else if latest != nil {
		var header http.Header
		if h.deps.Signer != nil {
			if token, err := h.deps.Signer.Token(); err == nil {
				header = http.Header{"Authorization": []string{"Bearer " + token}}
			} else {
				logger.WarnCtx(ctx, "Failed to sign peer token", zap.Error(err))
			}
		}
		for _, endpoint := range domain.ReplicaSetFromMetadata(latest.MetadataJSON).Endpoints() {
			if endpoint == self {
				continue
			}
			sources = append(sources, blobstore.Source{Endpoint: endpoint, Peer: true, Header: header})
		}
	}

	for _, gateway := range h.config.Gateways {
		gateway = strings.TrimRight(strings.TrimSpace(gateway), "/")
		if gateway == "" || gateway == self {
			continue
		}
		sources = append(sources, blobstore.Source{Endpoint: gateway})
	}

	return sources
}

// enqueueRehydration re-warms the content overlay after a read; a full
// queue just drops the task
func (h *handler) enqueueRehydration(row *schema.File, path string) {
	if h.deps.Rehydrator == nil {
		return
	}
	task := blobstore.RehydrateTask{
		CID:         row.Multihash,
		StoragePath: path,
	}
	if row.DirMultihash != nil {
		task.DirCID = *row.DirMultihash
	}
	if row.FileName != nil {
		task.FileName = *row.FileName
	}
	h.deps.Rehydrator.Enqueue(task)
}
