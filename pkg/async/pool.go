package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPoolClosed is returned by Submit after Shutdown.
	ErrPoolClosed = errors.New("worker pool shut down")
	// ErrQueueFull is returned by Submit when the buffered queue has no
	// room; the caller decides whether to retry or fail.
	ErrQueueFull = errors.New("worker pool queue full")
)

type job struct {
	name string
	fn   func(context.Context) error
}

// Pool runs short-lived jobs on a fixed set of workers. Submitting never
// blocks the caller; a full queue or a shut-down pool rejects new work.
type Pool struct {
	workCh chan job
	doneCh chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	log    *logrus.Logger

	mu     sync.RWMutex
	closed bool

	shutdownOnce sync.Once
}

// NewPool starts workers goroutines processing submitted jobs. A nil
// logger falls back to the logrus default.
func NewPool(ctx context.Context, workers int, log *logrus.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logrus.New()
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		workCh: make(chan job, workers*2),
		doneCh: make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}

	go func() {
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.worker()
			}()
		}
		wg.Wait()
		close(p.doneCh)
	}()

	return p
}

// Submit queues a named job without blocking. It returns ErrPoolClosed
// after Shutdown and ErrQueueFull when the buffered queue has no room;
// the job's own error is logged, not returned.
func (p *Pool) Submit(name string, fn func(context.Context) error) error {
	// The read lock excludes Shutdown's close of workCh, so the send below
	// can never hit a closed channel.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.workCh <- job{name: name, fn: fn}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and waits up to timeout for workers to
// drain the queue.
func (p *Pool) Shutdown(timeout time.Duration) error {
	var err error
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.workCh)
		p.mu.Unlock()

		select {
		case <-p.doneCh:
		case <-time.After(timeout):
			err = fmt.Errorf("worker pool shutdown timed out after %v", timeout)
		}
		p.cancel()
	})
	return err
}

func (p *Pool) worker() {
	for j := range p.workCh {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("Panic in %s: %v\n%s", j.name, r, debug.Stack())
		}
	}()

	if err := j.fn(p.ctx); err != nil {
		p.log.Warnf("Background job %s failed: %v", j.name, err)
	}
}
