package blobstore

import (
	"context"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/logger"
)

const rehydrateTimeout = 60 * time.Second

// RehydrateTask asks for a post-read check of one blob: verify the disk
// copy still matches its content address and refetch it when it does not.
type RehydrateTask struct {
	CID         string
	DirCID      string
	FileName    string
	StoragePath string
}

// Rehydrator keeps served content warm. Reads enqueue tasks; workers
// re-verify the blob and repair it from the network when it is missing or
// corrupt. Everything here is best effort: failures are logged, never
// surfaced to readers.
type Rehydrator struct {
	storage *Storage
	fetcher *Fetcher
	sources func(ctx context.Context) []Source

	pool pond.Pool

	mu         sync.Mutex
	pending    map[string]struct{}
	maxPending int
}

// NewRehydrator creates a rehydrator. sources supplies the fetch
// candidates at execution time so registry refreshes are picked up.
func NewRehydrator(storage *Storage, fetcher *Fetcher, sources func(ctx context.Context) []Source, poolSize, maxPending int) *Rehydrator {
	if poolSize <= 0 {
		poolSize = 1
	}
	if maxPending <= 0 {
		maxPending = 1
	}
	return &Rehydrator{
		storage:    storage,
		fetcher:    fetcher,
		sources:    sources,
		pool:       pond.NewPool(poolSize),
		pending:    make(map[string]struct{}),
		maxPending: maxPending,
	}
}

// Enqueue schedules a task unless it is already pending or the queue is
// saturated. It reports whether the task was accepted.
func (r *Rehydrator) Enqueue(task RehydrateTask) bool {
	r.mu.Lock()
	if _, ok := r.pending[task.StoragePath]; ok {
		r.mu.Unlock()
		return false
	}
	if len(r.pending) >= r.maxPending {
		r.mu.Unlock()
		logger.Debug("rehydrate queue saturated, dropping task", zap.String("cid", task.CID))
		return false
	}
	r.pending[task.StoragePath] = struct{}{}
	r.mu.Unlock()

	r.pool.Submit(func() {
		defer func() {
			r.mu.Lock()
			delete(r.pending, task.StoragePath)
			r.mu.Unlock()
		}()
		r.run(task)
	})
	return true
}

// Stop drains the queue and waits for in-flight tasks.
func (r *Rehydrator) Stop() {
	r.pool.StopAndWait()
}

func (r *Rehydrator) run(task RehydrateTask) {
	// Reads outlive their request; rehydration runs on its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), rehydrateTimeout)
	defer cancel()

	if r.storage.Has(task.StoragePath) {
		ok, err := r.storage.Verify(task.CID, task.StoragePath)
		if err == nil && ok {
			return
		}
		if err != nil {
			logger.WarnCtx(ctx, "failed to verify blob", zap.Error(err), zap.String("cid", task.CID))
		} else {
			logger.WarnCtx(ctx, "blob no longer matches its content address",
				zap.String("cid", task.CID),
				zap.String("path", task.StoragePath),
			)
		}
		if err := r.storage.Discard(task.StoragePath); err != nil {
			logger.WarnCtx(ctx, "failed to discard blob", zap.Error(err), zap.String("path", task.StoragePath))
			return
		}
	}

	sources := r.sources(ctx)
	if len(sources) == 0 {
		logger.DebugCtx(ctx, "no rehydrate sources available", zap.String("cid", task.CID))
		return
	}

	fetchTask := FetchTask{CID: task.CID, DirCID: task.DirCID, FileName: task.FileName}
	if _, err := r.fetcher.FetchOne(ctx, fetchTask, sources); err != nil {
		logger.WarnCtx(ctx, "failed to rehydrate blob", zap.Error(err), zap.String("cid", task.CID))
		return
	}

	logger.InfoCtx(ctx, "rehydrated blob", zap.String("cid", task.CID))
}
