package api

import (
	"context"
	"sync/atomic"
	"time"
)

// WorkerPool limits how many requests run at once. Fast slots serve cheap
// game operations (state reads, player moves); slow slots serve engine
// searches (CPU turns, analysis), which are CPU-bound.
type WorkerPool struct {
	fast lane
	slow lane
}

// lane is a counting semaphore with usage counters.
type lane struct {
	sem    chan struct{}
	queued int64
	active int64
	total  int64
}

func newLane(size int) lane {
	return lane{sem: make(chan struct{}, size)}
}

func (l *lane) acquire(ctx context.Context) error {
	atomic.AddInt64(&l.queued, 1)
	defer atomic.AddInt64(&l.queued, -1)

	select {
	case l.sem <- struct{}{}:
		atomic.AddInt64(&l.active, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *lane) tryAcquire() bool {
	select {
	case l.sem <- struct{}{}:
		atomic.AddInt64(&l.active, 1)
		return true
	default:
		return false
	}
}

func (l *lane) release() {
	atomic.AddInt64(&l.active, -1)
	atomic.AddInt64(&l.total, 1)
	<-l.sem
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	MaxFastWorkers int // Max concurrent game operations (default: 100)
	MaxSlowWorkers int // Max concurrent searches (default: 4)
}

// DefaultPoolConfig returns a PoolConfig with sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxFastWorkers: 100,
		MaxSlowWorkers: 4,
	}
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool(config PoolConfig) *WorkerPool {
	def := DefaultPoolConfig()
	if config.MaxFastWorkers <= 0 {
		config.MaxFastWorkers = def.MaxFastWorkers
	}
	if config.MaxSlowWorkers <= 0 {
		config.MaxSlowWorkers = def.MaxSlowWorkers
	}
	return &WorkerPool{
		fast: newLane(config.MaxFastWorkers),
		slow: newLane(config.MaxSlowWorkers),
	}
}

// AcquireFast waits for a fast slot or for ctx to end.
func (p *WorkerPool) AcquireFast(ctx context.Context) error {
	return p.fast.acquire(ctx)
}

// ReleaseFast releases a fast slot.
func (p *WorkerPool) ReleaseFast() {
	p.fast.release()
}

// AcquireSlow waits for a slow slot or for ctx to end.
func (p *WorkerPool) AcquireSlow(ctx context.Context) error {
	return p.slow.acquire(ctx)
}

// ReleaseSlow releases a slow slot.
func (p *WorkerPool) ReleaseSlow() {
	p.slow.release()
}

// TryAcquireFast takes a fast slot if one is free.
func (p *WorkerPool) TryAcquireFast() bool {
	return p.fast.tryAcquire()
}

// TryAcquireSlow takes a slow slot if one is free.
func (p *WorkerPool) TryAcquireSlow() bool {
	return p.slow.tryAcquire()
}

// AcquireSlowWithTimeout waits at most timeout for a slow slot.
func (p *WorkerPool) AcquireSlowWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.AcquireSlow(ctx)
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	ActiveFast int64 `json:"active_fast"`
	ActiveSlow int64 `json:"active_slow"`
	QueuedFast int64 `json:"queued_fast"`
	QueuedSlow int64 `json:"queued_slow"`
	TotalFast  int64 `json:"total_fast"`
	TotalSlow  int64 `json:"total_slow"`
	MaxFast    int   `json:"max_fast"`
	MaxSlow    int   `json:"max_slow"`
}

// Stats returns current pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		ActiveFast: atomic.LoadInt64(&p.fast.active),
		ActiveSlow: atomic.LoadInt64(&p.slow.active),
		QueuedFast: atomic.LoadInt64(&p.fast.queued),
		QueuedSlow: atomic.LoadInt64(&p.slow.queued),
		TotalFast:  atomic.LoadInt64(&p.fast.total),
		TotalSlow:  atomic.LoadInt64(&p.slow.total),
		MaxFast:    cap(p.fast.sem),
		MaxSlow:    cap(p.slow.sem),
	}
}
