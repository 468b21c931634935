// Package runner verifies seed phrases in the background and delivers the
// outcome back on the owner's execution context.
//
// Every accepted task follows the same sequence: the indicator is shown on
// the submitting goroutine, the verifier runs on a pool worker, and the
// delivery step hides the indicator and then invokes the callback on the
// owner loop. The callback fires exactly once per accepted task.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/farhan-ahmed1/seedcheck/internal/events"
	"github.com/farhan-ahmed1/seedcheck/internal/indicator"
	"github.com/farhan-ahmed1/seedcheck/internal/logger"
	"github.com/farhan-ahmed1/seedcheck/internal/monitoring"
	"github.com/farhan-ahmed1/seedcheck/internal/storage"
	"github.com/farhan-ahmed1/seedcheck/internal/task"
	"github.com/farhan-ahmed1/seedcheck/internal/wallet"
	"github.com/farhan-ahmed1/seedcheck/internal/worker"
)

var (
	ErrEmptyInput   = errors.New("input cannot be empty")
	ErrNilCallback  = errors.New("completion callback cannot be nil")
	ErrRunnerClosed = errors.New("runner is closed")
)

// recordTimeout bounds storage and publish calls made after a task finishes
const recordTimeout = 5 * time.Second

// Dispatcher posts functions to the owner's execution context
type Dispatcher interface {
	Post(fn func()) error
}

// Scheduler runs jobs off the caller's goroutine without blocking the caller
type Scheduler interface {
	Submit(job worker.Job) error
}

// Options configures a Runner. Verifier, Scheduler and Loop are required.
type Options struct {
	Verifier   wallet.Verifier
	Scheduler  Scheduler
	Loop       Dispatcher
	Indicators indicator.Factory

	// Zero means no timeout
	VerifyTimeout time.Duration

	Store     storage.Storage
	Publisher events.Publisher
	Metrics   *monitoring.Metrics
	Logger    *logger.Logger
}

// Runner is a one-shot asynchronous verification runner
type Runner struct {
	verifier   wallet.Verifier
	scheduler  Scheduler
	loop       Dispatcher
	indicators indicator.Factory
	timeout    time.Duration

	store     storage.Storage
	publisher events.Publisher
	metrics   *monitoring.Metrics
	log       *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a runner
func New(opts Options) (*Runner, error) {
	if opts.Verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if opts.Loop == nil {
		return nil, fmt.Errorf("owner loop is required")
	}
	if opts.VerifyTimeout < 0 {
		return nil, fmt.Errorf("verify timeout cannot be negative")
	}
	if opts.Indicators == nil {
		opts.Indicators = indicator.NopFactory()
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	return &Runner{
		verifier:   opts.Verifier,
		scheduler:  opts.Scheduler,
		loop:       opts.Loop,
		indicators: opts.Indicators,
		timeout:    opts.VerifyTimeout,
		store:      opts.Store,
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		log:        opts.Logger.WithComponent("runner"),
	}, nil
}

// Run verifies input and calls onComplete with the verifier's output, or
// with "" if verification failed for any reason. It returns immediately.
func (r *Runner) Run(input string, onComplete func(result string)) error {
	if onComplete == nil {
		return ErrNilCallback
	}
	_, err := r.Submit(context.Background(), input, func(res task.Result) {
		onComplete(res.Output)
	})
	return err
}

// Submit verifies input and calls onResult with the tagged outcome. ctx is
// passed to the verifier. The returned ID identifies the task in storage and
// events. A non-nil error means the task was not accepted and onResult will
// not be called.
func (r *Runner) Submit(ctx context.Context, input string, onResult func(task.Result)) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyInput
	}
	if onResult == nil {
		return "", ErrNilCallback
	}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return "", ErrRunnerClosed
	}
	r.wg.Add(1)
	r.mu.RUnlock()

	t := task.NewTask(input)
	ind := r.indicators()
	ind.Show()
	r.metrics.RecordSubmitted()

	r.log.Debug("verification submitted", logger.Fields{"task_id": t.ID})

	err := r.scheduler.Submit(func(poolCtx context.Context) {
		r.execute(ctx, poolCtx, t, ind, onResult)
	})
	if err != nil {
		r.log.Warn("verification rejected", logger.Fields{"task_id": t.ID, "error": err})
		res := task.NewFailure(t.ID, task.KindRejected, err)
		// Delivered from a new goroutine: the caller may be the loop itself
		go r.finish(t, ind, res, onResult)
	}

	return t.ID, nil
}

// Shutdown stops accepting tasks and waits for accepted ones to be
// delivered and recorded
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics returns the runner's metrics collector
func (r *Runner) Metrics() *monitoring.Metrics {
	return r.metrics
}

// execute is the work step, running on a pool worker
func (r *Runner) execute(ctx, poolCtx context.Context, t *task.Task, ind indicator.Indicator, onResult func(task.Result)) {
	if err := t.MarkStarted(); err != nil {
		r.log.Error("task started twice", logger.Fields{"task_id": t.ID, "error": err})
	}
	r.saveTask(t)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(poolCtx, cancel)
	defer stop()

	res := r.verify(ctx, t)
	r.finish(t, ind, res, onResult)
}

// verify calls the collaborator, converting errors and panics into a result
func (r *Runner) verify(ctx context.Context, t *task.Task) (res *task.Result) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = task.NewFailure(t.ID, task.KindPanic, fmt.Errorf("verifier panicked: %v", p))
		}
		res.Duration = time.Since(start)
	}()

	out, err := r.verifier.Verify(ctx, t.Input)
	if err != nil {
		return task.NewFailure(t.ID, task.Classify(err, wallet.IsInvalidSeed), err)
	}
	return task.NewSuccess(t.ID, out)
}

// finish completes the task, hands delivery to the owner loop and records
// the outcome
func (r *Runner) finish(t *task.Task, ind indicator.Indicator, res *task.Result, onResult func(task.Result)) {
	defer r.wg.Done()

	if t.State == task.StateCreated {
		// Rejected before reaching a worker
		_ = t.MarkStarted()
	}
	if err := t.MarkCompleted(res); err != nil {
		r.log.Error("task completed twice", logger.Fields{"task_id": t.ID, "error": err})
	}
	r.metrics.RecordCompleted(res)

	fields := logger.Fields{"task_id": t.ID, "duration": res.Duration}
	if res.OK() {
		r.log.Debug("verification completed", fields)
	} else {
		fields["kind"] = res.Kind
		fields["error"] = res.Error
		r.log.Warn("verification failed", fields)
	}

	delivered := *res
	deliver := func() {
		if ind.IsVisible() {
			ind.Hide()
		}
		onResult(delivered)
	}
	if err := r.loop.Post(deliver); err != nil {
		r.log.Warn("owner loop unavailable, delivering on worker", logger.Fields{"task_id": t.ID, "error": err})
		deliver()
	}

	r.record(t, res)
}

func (r *Runner) saveTask(t *task.Task) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.store.SaveTask(ctx, t); err != nil {
		r.log.Warn("failed to save task state", logger.Fields{"task_id": t.ID, "error": err})
	}
}

// record persists and publishes the outcome. Failures are logged only.
func (r *Runner) record(t *task.Task, res *task.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if r.store != nil {
		if err := r.store.SaveTask(ctx, t); err != nil {
			r.log.Warn("failed to save completed task", logger.Fields{"task_id": t.ID, "error": err})
		}
		if err := r.store.SaveResult(ctx, res); err != nil {
			r.log.Warn("failed to save result", logger.Fields{"task_id": t.ID, "error": err})
		}
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, events.FromResult(res)); err != nil {
			r.log.Warn("failed to publish completion", logger.Fields{"task_id": t.ID, "error": err})
		}
	}
}
