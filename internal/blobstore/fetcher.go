package blobstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
)

// Source is one place a blob can be fetched from. Peers serve verified
// local content through /file_lookup and require the signed header;
// gateways serve /ipfs paths anonymously.
type Source struct {
	Endpoint string
	Peer     bool
	Header   http.Header
}

// FetchTask names one blob to bring onto local disk. DirCID and FileName
// are set for directory entries, whose gateway URL is composed from the
// directory address and the entry name.
type FetchTask struct {
	CID      string
	DirCID   string
	FileName string
}

// urlFor composes the fetch URL for a task against this source.
func (src Source) urlFor(task FetchTask) string {
	base := strings.TrimRight(src.Endpoint, "/")
	if src.Peer {
		return base + "/file_lookup?multihash=" + url.QueryEscape(task.CID)
	}
	if task.DirCID != "" {
		return base + "/ipfs/" + task.DirCID + "/" + url.PathEscape(task.FileName)
	}
	return base + "/ipfs/" + task.CID
}

// Fetcher pulls missing blobs from peers and gateways into Storage,
// verifying every byte against its content address before it lands.
type Fetcher struct {
	storage     *Storage
	httpClient  adapter.HTTPClient
	concurrency int
}

// NewFetcher creates a fetcher with the given per-batch parallelism.
func NewFetcher(storage *Storage, httpClient adapter.HTTPClient, concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Fetcher{
		storage:     storage,
		httpClient:  httpClient,
		concurrency: concurrency,
	}
}

// FetchOne downloads a single blob through the first source that serves
// it and returns the on-disk path.
func (f *Fetcher) FetchOne(ctx context.Context, task FetchTask, sources []Source) (string, error) {
	path := f.storage.PathFor(task.CID)
	if task.DirCID != "" {
		path = f.storage.PathForEntry(task.DirCID, task.CID)
	}
	if f.storage.Has(path) {
		return path, nil
	}

	for _, src := range sources {
		fetchURL := src.urlFor(task)

		body, err := f.httpClient.Download(ctx, fetchURL, src.Header)
		if err != nil {
			logger.WarnCtx(ctx, "blob source failed",
				zap.String("cid", task.CID),
				zap.String("url", fetchURL),
				zap.Error(err),
			)
			continue
		}

		if task.DirCID != "" {
			path, err = f.storage.StoreStreamEntryAs(task.DirCID, task.CID, body)
		} else {
			path, err = f.storage.StoreStreamAs(task.CID, body)
		}
		if closeErr := body.Close(); closeErr != nil {
			logger.WarnCtx(ctx, "failed to close blob stream", zap.Error(closeErr), zap.String("url", fetchURL))
		}
		if err != nil {
			logger.WarnCtx(ctx, "blob source served bad content",
				zap.String("cid", task.CID),
				zap.String("url", fetchURL),
				zap.Error(err),
			)
			continue
		}

		return path, nil
	}

	return "", fmt.Errorf("%w: no source served blob %s", domain.ErrUpstream, task.CID)
}

// FetchBatch downloads every missing blob in tasks with bounded
// parallelism. It fails if any blob could not be fetched from any source.
func (f *Fetcher) FetchBatch(ctx context.Context, tasks []FetchTask, sources []Source) error {
	if len(tasks) == 0 {
		return nil
	}

	pool := pond.NewPool(f.concurrency, pond.WithContext(ctx))

	var failed atomic.Int64
	for _, task := range tasks {
		pool.Submit(func() {
			if _, err := f.FetchOne(ctx, task, sources); err != nil {
				failed.Add(1)
				logger.ErrorCtx(ctx, err, zap.String("cid", task.CID))
			}
		})
	}
	pool.StopAndWait()

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%w: %d of %d blobs could not be fetched", domain.ErrUpstream, n, len(tasks))
	}
	return nil
}
