package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrPoolClosed = errors.New("pool is closed")
	ErrPoolFull   = errors.New("pool is full")
)

// Task is a unit of work executed by the pool.
type Task func(ctx context.Context) error

// GoroutinePoolConfig bounds the pool. Zero values fall back to the defaults.
type GoroutinePoolConfig struct {
	MaxWorkers   int           `json:"max_workers"`
	QueueSize    int           `json:"queue_size"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	PanicHandler func(any)     `json:"-"`
}

// DefaultGoroutinePoolConfig sizes the pool for notification fan-out:
// a handful of webhook posts per query, never hundreds.
func DefaultGoroutinePoolConfig() GoroutinePoolConfig {
	return GoroutinePoolConfig{
		MaxWorkers:  8,
		QueueSize:   64,
		IdleTimeout: 60 * time.Second,
	}
}

// GoroutinePool runs tasks on a bounded set of worker goroutines. Workers
// spawn on demand up to MaxWorkers and exit after IdleTimeout without work,
// so an idle ActionAgent holds no goroutines between queries.
type GoroutinePool struct {
	cfg     GoroutinePoolConfig
	queue   chan job
	workers atomic.Int32
	active  atomic.Int32
	closed  atomic.Bool
	wg      sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

type job struct {
	ctx  context.Context
	task Task
	done chan error // nil for fire-and-forget submissions
}

// NewGoroutinePool creates an empty pool; the first Submit spawns a worker.
func NewGoroutinePool(cfg GoroutinePoolConfig) *GoroutinePool {
	def := DefaultGoroutinePoolConfig()
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = def.MaxWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	return &GoroutinePool{
		cfg:   cfg,
		queue: make(chan job, cfg.QueueSize),
	}
}

// Submit enqueues a task without waiting for it to run. A full queue returns
// ErrPoolFull immediately; callers treat that as "deliver inline instead".
// On any error the task has NOT been started and never will be.
func (p *GoroutinePool) Submit(ctx context.Context, task Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	p.submitted.Add(1)

	select {
	case p.queue <- job{ctx: ctx, task: task}:
		p.spawnIfNeeded()
		return nil
	default:
		p.rejected.Add(1)
		return ErrPoolFull
	}
}

// SubmitWait enqueues a task and blocks until it completes or ctx is done.
func (p *GoroutinePool) SubmitWait(ctx context.Context, task Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	p.submitted.Add(1)

	done := make(chan error, 1)
	select {
	case p.queue <- job{ctx: ctx, task: task, done: done}:
		p.spawnIfNeeded()
	case <-ctx.Done():
		p.rejected.Add(1)
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *GoroutinePool) spawnIfNeeded() {
	for {
		n := p.workers.Load()
		if n >= int32(p.cfg.MaxWorkers) {
			return
		}
		if p.workers.CompareAndSwap(n, n+1) {
			p.wg.Add(1)
			go p.worker()
			return
		}
	}
}

func (p *GoroutinePool) worker() {
	defer p.wg.Done()
	defer p.workers.Add(-1)

	idle := time.NewTimer(p.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			p.active.Add(1)
			err := p.run(j)
			p.active.Add(-1)
			if err != nil {
				p.failed.Add(1)
			} else {
				p.completed.Add(1)
			}
			if j.done != nil {
				j.done <- err
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(p.cfg.IdleTimeout)

		case <-idle.C:
			// Keep one worker warm; extras retire when idle.
			if p.workers.Load() > 1 {
				return
			}
			idle.Reset(p.cfg.IdleTimeout)
		}
	}
}

func (p *GoroutinePool) run(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if p.cfg.PanicHandler != nil {
				p.cfg.PanicHandler(r)
			}
			err = errors.New("task panicked")
		}
	}()
	return j.task(j.ctx)
}

// Close stops accepting work and waits for queued tasks to drain.
func (p *GoroutinePool) Close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.queue)
	p.wg.Wait()
}

// GoroutinePoolStats is a point-in-time snapshot of pool counters.
type GoroutinePoolStats struct {
	Workers   int   `json:"workers"`
	Active    int   `json:"active"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
}

// Stats reports current pool counters.
func (p *GoroutinePool) Stats() GoroutinePoolStats {
	return GoroutinePoolStats{
		Workers:   int(p.workers.Load()),
		Active:    int(p.active.Load()),
		Queued:    len(p.queue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
	}
}
