package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/farhan-ahmed1/seedcheck/internal/logger"
)

// Job is a unit of background work. It receives the pool's context, which is
// cancelled only when shutdown gives up waiting.
type Job func(ctx context.Context)

// Worker executes jobs from a shared channel until it is closed
type Worker struct {
	id   string
	jobs <-chan Job
	log  *logger.Logger

	processed int64
	panicked  int64
	busy      int32
}

func newWorker(id string, jobs <-chan Job, log *logger.Logger) *Worker {
	return &Worker{
		id:   id,
		jobs: jobs,
		log:  log.WithComponent(id),
	}
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	w.log.Debug("worker started")
	for job := range w.jobs {
		w.execute(ctx, job)
	}
	w.log.Debug("worker stopped")
}

// execute runs one job, keeping the worker alive if it panics
func (w *Worker) execute(ctx context.Context, job Job) {
	atomic.StoreInt32(&w.busy, 1)
	defer func() {
		atomic.StoreInt32(&w.busy, 0)
		atomic.AddInt64(&w.processed, 1)
		if r := recover(); r != nil {
			atomic.AddInt64(&w.panicked, 1)
			w.log.Error("job panicked", logger.Fields{"panic": r})
		}
	}()

	job(ctx)
}

// ID returns the worker's identifier
func (w *Worker) ID() string {
	return w.id
}

// IsBusy reports whether the worker is executing a job
func (w *Worker) IsBusy() bool {
	return atomic.LoadInt32(&w.busy) == 1
}

// Stats returns the number of jobs processed and how many of them panicked
func (w *Worker) Stats() (processed, panicked int64) {
	return atomic.LoadInt64(&w.processed), atomic.LoadInt64(&w.panicked)
}
