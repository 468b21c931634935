// Package mainloop implements an owner execution context: functions posted
// from any goroutine run one at a time, in order, on the goroutine that
// called Run.
package mainloop

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Post once the loop has stopped accepting work
var ErrClosed = errors.New("main loop closed")

const defaultBuffer = 64

// Loop is a single-goroutine event loop
type Loop struct {
	wake chan struct{}
	done chan struct{}

	mu        sync.Mutex
	queue     []func()
	closed    bool
	running   bool
	closeOnce sync.Once
}

// New creates a loop with room for buffer pending functions before the
// queue has to grow
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Loop{
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
		queue: make([]func(), 0, buffer),
	}
}

// Post schedules fn to run on the loop goroutine. It never blocks, so it is
// safe to call from a function already running on the loop. Once Post
// returns nil, fn runs exactly once before Run returns.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return errors.New("nil function")
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run executes posted functions on the calling goroutine until ctx is
// cancelled or Close is called. Functions accepted before shutdown are
// executed before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("main loop already running")
	}
	closed := l.closed
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.drain()
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()
	if closed {
		return ErrClosed
	}

	for {
		select {
		case <-l.wake:
			for {
				fn, ok := l.next()
				if !ok {
					break
				}
				fn()
			}
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the loop. Safe to call more than once and from any goroutine,
// including from a function running on the loop.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed once the loop stops accepting work
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) drain() {
	l.Close()
	for {
		fn, ok := l.next()
		if !ok {
			return
		}
		fn()
	}
}
