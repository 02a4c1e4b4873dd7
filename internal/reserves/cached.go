package reserves

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammScope/internal/retry"
)

// Cached serves snapshots from memory for ttl and refreshes them through src with retries.
// Concurrent misses share one refresh.
type Cached struct {
	src    Source
	ttl    time.Duration
	policy retry.Policy
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	snapshot  Snapshot
	fetchedAt time.Time
	valid     bool

	refresh sync.Mutex
}

// NewCached wraps src. A zero ttl refreshes on every call.
func NewCached(src Source, ttl time.Duration, policy retry.Policy, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{src: src, ttl: ttl, policy: policy, logger: logger, now: time.Now}
}

func (c *Cached) Snapshot(ctx context.Context) (Snapshot, error) {
	if snap, ok := c.fresh(); ok {
		return snap, nil
	}

	c.refresh.Lock()
	defer c.refresh.Unlock()
	if snap, ok := c.fresh(); ok {
		return snap, nil
	}

	var snap Snapshot
	err := retry.Do(ctx, c.policy, func(ctx context.Context) (err error) {
		snap, err = c.src.Snapshot(ctx)
		if err != nil {
			c.logger.Warn("reserve refresh failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	c.snapshot = snap.clone()
	c.fetchedAt = c.now()
	c.valid = true
	c.mu.Unlock()

	c.logger.Debug("reserves refreshed",
		zap.Uint64("block", snap.BlockNumber),
		zap.Stringer("reserves", snap.Reserves),
	)
	return snap, nil
}

// LPBalance is not cached. Unsupported lookups are not retried.
func (c *Cached) LPBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	var (
		balance     *big.Int
		unsupported error
	)
	err := retry.Do(ctx, c.policy, func(ctx context.Context) (err error) {
		balance, err = c.src.LPBalance(ctx, owner)
		if errors.Is(err, ErrUnsupported) {
			unsupported = err
			return nil
		}
		if err != nil {
			c.logger.Warn("lp balance lookup failed", zap.String("owner", owner.Hex()), zap.Error(err))
		}
		return err
	})
	if unsupported != nil {
		return nil, unsupported
	}
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// Invalidate drops the cached snapshot.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

func (c *Cached) fresh() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid || c.now().Sub(c.fetchedAt) >= c.ttl {
		return Snapshot{}, false
	}
	return c.snapshot.clone(), true
}
