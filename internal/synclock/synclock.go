package synclock

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
)

// keyPrefix namespaces the per-wallet mutex keys in the shared store.
const keyPrefix = "nodeSync:"

// DefaultTTL bounds how long a crashed holder can block a wallet. It must
// exceed the longest expected sync run.
const DefaultTTL = time.Hour

// releaseScript deletes the key only while it still holds the caller's
// token, so an expired-and-reacquired lock is never released by the old
// holder.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// Lock is the per-wallet TTL mutex guarding sync critical sections. A
// token is returned on acquire and must be presented to release, making
// release idempotent and safe across TTL expiry.
//
//go:generate mockgen -source=synclock.go -destination=../mocks/synclock.go -package=mocks -mock_names=Lock=MockLock
type Lock interface {
	// Acquire takes the wallet's lock. Fails with domain.ErrLocked when a
	// holder exists.
	Acquire(ctx context.Context, wallet string) (string, error)

	// AcquireAll takes every wallet's lock or none: on the first held
	// wallet it releases what it already took and fails with
	// domain.ErrLocked.
	AcquireAll(ctx context.Context, wallets []string) (map[string]string, error)

	// Release drops the wallet's lock if the token still holds it.
	// Releasing an expired or foreign lock is a no-op.
	Release(ctx context.Context, wallet, token string) error

	// ReleaseAll best-effort releases a token set, logging failures.
	ReleaseAll(ctx context.Context, tokens map[string]string)

	// Held reports whether any holder currently has the wallet's lock.
	Held(ctx context.Context, wallet string) (bool, error)
}

// lock is the implementation of the Lock interface backed by Redis.
type lock struct {
	redis adapter.RedisClient
	clock adapter.Clock
	ttl   time.Duration
}

// NewLock creates a wallet lock with the given TTL (DefaultTTL when
// non-positive).
func NewLock(redis adapter.RedisClient, clock adapter.Clock, ttl time.Duration) Lock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &lock{redis: redis, clock: clock, ttl: ttl}
}

func key(wallet string) string {
	return keyPrefix + wallet
}

// Acquire takes the wallet's lock
func (l *lock) Acquire(ctx context.Context, wallet string) (string, error) {
	token := ulid.MustNewDefault(l.clock.Now()).String()

	ok, err := l.redis.SetNX(ctx, key(wallet), token, l.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: wallet %s is syncing", domain.ErrLocked, wallet)
	}
	return token, nil
}

// AcquireAll takes every wallet's lock or none
func (l *lock) AcquireAll(ctx context.Context, wallets []string) (map[string]string, error) {
	tokens := make(map[string]string, len(wallets))
	for _, wallet := range wallets {
		token, err := l.Acquire(ctx, wallet)
		if err != nil {
			l.ReleaseAll(ctx, tokens)
			return nil, err
		}
		tokens[wallet] = token
	}
	return tokens, nil
}

// Release drops the wallet's lock if the token still holds it
func (l *lock) Release(ctx context.Context, wallet, token string) error {
	if _, err := l.redis.Eval(ctx, releaseScript, []string{key(wallet)}, token); err != nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}
	return nil
}

// ReleaseAll best-effort releases a token set
func (l *lock) ReleaseAll(ctx context.Context, tokens map[string]string) {
	for wallet, token := range tokens {
		if err := l.Release(ctx, wallet, token); err != nil {
			logger.WarnCtx(ctx, "failed to release sync lock",
				zap.String("wallet", wallet),
				zap.Error(err),
			)
		}
	}
}

// Held reports whether any holder currently has the wallet's lock
func (l *lock) Held(ctx context.Context, wallet string) (bool, error) {
	n, err := l.redis.Exists(ctx, key(wallet))
	if err != nil {
		return false, fmt.Errorf("failed to probe sync lock: %w", err)
	}
	return n > 0, nil
}
