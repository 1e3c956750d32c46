package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/go-resiliency/deadline"
	"github.com/kylycht/ledger/service/queue"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAlreadyStarted = errors.New("worker pool already started")
	ErrNotStarted     = errors.New("worker pool not started")
	ErrWaitTimeout    = errors.New("timed out waiting for workers")
)

// Handler applies one item. WorkerID identifies the calling worker.
type Handler[T any] func(workerID int, item T) error

// Stats contains worker pool statistics
type Stats struct {
	Name      string `json:"name"`
	Workers   int    `json:"workers"`
	Running   int64  `json:"running"`
	Active    int64  `json:"active"`
	Completed int64  `json:"completed"`
	Failed    int64  `json:"failed"`
	Pending   int    `json:"pending"`
}

// Pool runs a fixed set of goroutines draining a queue.
// Workers stop when the queue is closed and empty, or when
// Terminate cancels them between two items.
type Pool[T any] struct {
	name    string
	workers int
	queue   *queue.Queue[T]
	handler Handler[T]

	// atomic counters
	running   int64
	active    int64
	completed int64
	failed    int64

	started  atomic.Bool
	once     sync.Once
	stopOnce sync.Once
	stopC    chan struct{} // closed by Terminate
	doneC    chan struct{} // closed when every worker returned
}

func New[T any](name string, workers int, q *queue.Queue[T], handler Handler[T]) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}

	return &Pool[T]{
		name:    name,
		workers: workers,
		queue:   q,
		handler: handler,
		stopC:   make(chan struct{}),
		doneC:   make(chan struct{}),
	}
}

// Start launches the workers. ctx cancellation force-terminates them.
func (p *Pool[T]) Start(ctx context.Context) error {
	err := ErrAlreadyStarted

	p.once.Do(func() {
		err = nil
		p.started.Store(true)

		workCtx, cancel := context.WithCancel(ctx)
		go func() {
			defer cancel()
			select {
			case <-p.stopC:
			case <-p.doneC:
			}
		}()

		var g errgroup.Group
		for i := 0; i < p.workers; i++ {
			id := i
			atomic.AddInt64(&p.running, 1)
			g.Go(func() error {
				defer atomic.AddInt64(&p.running, -1)
				p.worker(workCtx, id)
				return nil
			})
		}

		go func() {
			_ = g.Wait()
			close(p.doneC)
			log.Debug().Str("pool", p.name).Msg("all workers exited")
		}()

		log.Debug().Str("pool", p.name).Int("workers", p.workers).Msg("worker pool started")
	})

	return err
}

func (p *Pool[T]) worker(ctx context.Context, id int) {
	for {
		select {
		case <-p.stopC:
			return
		default:
		}

		item, err := p.queue.Pop(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) {
				log.Debug().Str("pool", p.name).Int("worker", id).Err(err).Msg("worker cancelled")
			}
			return
		}

		p.process(id, item)
	}
}

func (p *Pool[T]) process(id int, item T) {
	atomic.AddInt64(&p.active, 1)
	defer atomic.AddInt64(&p.active, -1)

	// one bad item must not take the worker down
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.failed, 1)
			log.Error().Str("pool", p.name).Int("worker", id).Str("panic", fmt.Sprint(r)).Msg("panic in handler")
		}
	}()

	if err := p.handler(id, item); err != nil {
		atomic.AddInt64(&p.failed, 1)
		return
	}

	atomic.AddInt64(&p.completed, 1)
}

// Done is closed once every worker has returned
func (p *Pool[T]) Done() <-chan struct{} {
	return p.doneC
}

// Wait blocks until all workers returned or timeout elapses
func (p *Pool[T]) Wait(timeout time.Duration) error {
	if !p.started.Load() {
		return ErrNotStarted
	}

	err := deadline.New(timeout).Run(func(stopper <-chan struct{}) error {
		select {
		case <-p.doneC:
		case <-stopper:
		}
		return nil
	})
	if errors.Is(err, deadline.ErrTimedOut) {
		return fmt.Errorf("%s after %s: %w", p.name, timeout, ErrWaitTimeout)
	}

	return err
}

// Terminate cancels the workers. Each finishes the item it holds
// and returns without taking another one.
func (p *Pool[T]) Terminate() {
	p.stopOnce.Do(func() {
		close(p.stopC)
	})
}

// Stats returns current worker pool statistics
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Name:      p.name,
		Workers:   p.workers,
		Running:   atomic.LoadInt64(&p.running),
		Active:    atomic.LoadInt64(&p.active),
		Completed: atomic.LoadInt64(&p.completed),
		Failed:    atomic.LoadInt64(&p.failed),
		Pending:   p.queue.Len(),
	}
}
