package replication

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
)

const (
	// DefaultDebounce is how long a scheduled sync waits for further
	// writes before dispatching
	DefaultDebounce = 10 * time.Second

	// DefaultReapInterval is how often due tasks are collected
	DefaultReapInterval = time.Second

	// triggerDispatchTimeout bounds one secondary notification
	triggerDispatchTimeout = 2 * time.Minute
)

// TriggerConfig configures the debounced sync trigger
type TriggerConfig struct {
	// SelfEndpoint is this node's advertised endpoint; secondaries pull
	// from it
	SelfEndpoint string
	// Debounce is the quiet period before a scheduled sync dispatches
	Debounce time.Duration
	// ReapInterval is how often due tasks are collected
	ReapInterval time.Duration
	// Concurrency bounds parallel secondary notifications
	Concurrency int
}

// pendingSync is one wallet's deferred notification. Rescheduling
// overwrites it in place, which is what keeps a single timer per wallet.
type pendingSync struct {
	dueAt       time.Time
	secondaries []string
	syncType    domain.SyncType
}

// Trigger asks the secondaries of a user's replica set to pull from this
// node after a primary write. Scheduled triggers are debounced per wallet:
// a burst of writes produces one notification carrying all of the deltas.
// The queue is in-process and not persisted; pending triggers are lost on
// restart and recovered by the next write.
type Trigger struct {
	client *Client
	clock  adapter.Clock
	config TriggerConfig
	pool   pond.Pool

	mu      sync.Mutex
	pending map[string]*pendingSync
	stopped bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTrigger creates the trigger and starts its reaper
func NewTrigger(client *Client, clock adapter.Clock, config TriggerConfig) *Trigger {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.ReapInterval <= 0 {
		config.ReapInterval = DefaultReapInterval
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	t := &Trigger{
		client:  client,
		clock:   clock,
		config:  config,
		pool:    pond.NewPool(config.Concurrency),
		pending: make(map[string]*pendingSync),
		stopCh:  make(chan struct{}),
	}
	go t.reapLoop()
	return t
}

// Schedule queues a debounced sync of the wallet to its secondaries. A
// wallet already queued has its deadline and payload overwritten.
func (t *Trigger) Schedule(wallet string, secondaries []string, syncType domain.SyncType) {
	wallet = domain.NormalizeWallet(wallet)
	if wallet == "" || len(secondaries) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.pending[wallet] = &pendingSync{
		dueAt:       t.clock.Now().Add(t.config.Debounce),
		secondaries: secondaries,
		syncType:    syncType,
	}
}

// Cancel removes the wallet's pending trigger, reporting whether one existed
func (t *Trigger) Cancel(wallet string) bool {
	wallet = domain.NormalizeWallet(wallet)

	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[wallet]
	delete(t.pending, wallet)
	return ok
}

// Pending reports whether the wallet has a queued trigger
func (t *Trigger) Pending(wallet string) bool {
	wallet = domain.NormalizeWallet(wallet)

	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[wallet]
	return ok
}

// SyncImmediate bypasses the queue: it asks every secondary to import the
// wallet right now and surfaces the first failure. Used by flows that need
// the replicas consistent before continuing.
func (t *Trigger) SyncImmediate(ctx context.Context, wallet string, secondaries []string, syncType domain.SyncType) error {
	wallet = domain.NormalizeWallet(wallet)

	for _, secondary := range secondaries {
		err := t.client.RequestSync(ctx, secondary, SyncBody{
			Wallets:             []string{wallet},
			CreatorNodeEndpoint: t.config.SelfEndpoint,
			Immediate:           true,
			SyncType:            string(syncType),
		})
		if err != nil {
			return fmt.Errorf("immediate sync of %s on %s failed: %w", wallet, secondary, err)
		}
	}
	return nil
}

// Stop halts the reaper and waits for in-flight notifications
func (t *Trigger) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		close(t.stopCh)
		t.pool.StopAndWait()
	})
}

// reapLoop periodically collects due tasks and dispatches them
func (t *Trigger) reapLoop() {
	for {
		select {
		case <-t.stopCh:
			return
		case <-t.clock.After(t.config.ReapInterval):
			t.reap()
		}
	}
}

// reap removes every due task and hands it to the dispatch pool
func (t *Trigger) reap() {
	now := t.clock.Now()

	t.mu.Lock()
	var due []struct {
		wallet string
		task   *pendingSync
	}
	for wallet, task := range t.pending {
		if !task.dueAt.After(now) {
			due = append(due, struct {
				wallet string
				task   *pendingSync
			}{wallet, task})
			delete(t.pending, wallet)
		}
	}
	t.mu.Unlock()

	for _, d := range due {
		wallet, task := d.wallet, d.task
		t.pool.Submit(func() {
			t.dispatch(wallet, task)
		})
	}
}

// dispatch notifies every secondary; failures are logged, never retried
// here. The next write's debounce cycle carries the missed deltas.
func (t *Trigger) dispatch(wallet string, task *pendingSync) {
	ctx, cancel := context.WithTimeout(context.Background(), triggerDispatchTimeout)
	defer cancel()

	for _, secondary := range task.secondaries {
		err := t.client.RequestSync(ctx, secondary, SyncBody{
			Wallets:             []string{wallet},
			CreatorNodeEndpoint: t.config.SelfEndpoint,
			SyncType:            string(task.syncType),
		})
		if err != nil {
			logger.WarnCtx(ctx, "Secondary sync notification failed",
				zap.String("wallet", wallet),
				zap.String("secondary", secondary),
				zap.Error(err))
			continue
		}
		logger.DebugCtx(ctx, "Secondary sync notified",
			zap.String("wallet", wallet),
			zap.String("secondary", secondary))
	}
}
