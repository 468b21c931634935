package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/farhan-ahmed1/seedcheck/internal/logger"
)

var (
	// ErrPoolClosed is returned when submitting to a pool that is not running
	ErrPoolClosed = errors.New("worker pool is not running")

	// ErrQueueFull is returned when the job queue has no free slot
	ErrQueueFull = errors.New("worker pool queue is full")
)

// PoolConfig holds configuration for the worker pool
type PoolConfig struct {
	Workers         int
	QueueSize       int
	ShutdownTimeout time.Duration
}

// Pool runs jobs on a fixed set of background goroutines
type Pool struct {
	jobs    chan Job
	workers []*Worker
	log     *logger.Logger

	mu      sync.RWMutex
	running bool
	stopped bool

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	shutdownTimeout time.Duration
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig, log *logger.Logger) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = cfg.Workers * 4
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())
	jobs := make(chan Job, cfg.QueueSize)

	p := &Pool{
		jobs:            jobs,
		log:             log.WithComponent("pool"),
		ctx:             ctx,
		cancelFunc:      cancel,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	for i := 0; i < cfg.Workers; i++ {
		p.workers = append(p.workers, newWorker(fmt.Sprintf("worker-%d", i+1), jobs, log))
	}
	return p
}

// Start launches the workers
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("worker pool is already running")
	}
	if p.stopped {
		return ErrPoolClosed
	}
	p.running = true

	for _, w := range p.workers {
		p.wg.Add(1)
		go w.run(p.ctx, &p.wg)
	}

	p.log.Info("pool started", logger.Fields{"workers": len(p.workers), "queue_size": cap(p.jobs)})
	return nil
}

// Submit queues a job without blocking
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued and running jobs to
// finish. If ctx expires first the pool context is cancelled and ctx.Err()
// is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.log.Info("shutting down pool", logger.Fields{"pending": len(p.jobs)})

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.shutdownTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancelFunc()
		p.log.Info("all workers shut down gracefully")
		return nil
	case <-ctx.Done():
		p.cancelFunc()
		p.log.Warn("shutdown timeout exceeded")
		return ctx.Err()
	}
}

// IsRunning returns whether the pool accepts jobs
func (p *Pool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return len(p.workers)
}

// Pending returns the number of queued jobs not yet picked up
func (p *Pool) Pending() int {
	return len(p.jobs)
}

// GetStats returns pool statistics
func (p *Pool) GetStats() map[string]interface{} {
	var processed, panicked int64
	busy := 0
	for _, w := range p.workers {
		pr, pa := w.Stats()
		processed += pr
		panicked += pa
		if w.IsBusy() {
			busy++
		}
	}

	return map[string]interface{}{
		"running":        p.IsRunning(),
		"total_workers":  p.Size(),
		"busy_workers":   busy,
		"idle_workers":   p.Size() - busy,
		"pending_jobs":   p.Pending(),
		"jobs_processed": processed,
		"jobs_panicked":  panicked,
	}
}
