package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"subburn/internal/logging"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("task queue is full")
	// ErrNotStarted is returned by Submit before Start.
	ErrNotStarted = errors.New("pool not started")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("pool stopped")
)

// Task is a unit of background work.
type Task func(ctx context.Context) error

// Ticket tracks one submitted task.
type Ticket struct {
	name      string
	submitted time.Time
	done      chan struct{}
	err       error
}

// Name returns the label given at submission.
func (t *Ticket) Name() string { return t.name }

// Done is closed when the task has returned.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Err returns the task's error. It is only meaningful after Done is closed.
func (t *Ticket) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx ends.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers   int
	Capacity  int
	Active    int
	Queued    int
	Completed uint64
	Failed    uint64
}

type work struct {
	ticket *Ticket
	task   Task
}

// Pool runs tasks on a bounded set of workers.
type Pool struct {
	size     int
	capacity int
	logger   *slog.Logger

	mu      sync.Mutex
	queue   chan work
	baseCtx context.Context
	started bool
	stopped bool

	workers sync.WaitGroup
	pending sync.WaitGroup

	active    atomic.Int64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// NewPool builds a pool with size workers and room for capacity queued tasks.
// Non-positive values are raised to 1.
func NewPool(size, capacity int, logger *slog.Logger) *Pool {
	return &Pool{
		size:     max(size, 1),
		capacity: max(capacity, 1),
		logger:   logging.NewComponentLogger(logger, "runner"),
	}
}

// Start launches the workers. Tasks inherit ctx's values but not its cancellation.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("pool already started")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p.baseCtx = context.WithoutCancel(ctx)
	p.queue = make(chan work, p.capacity)
	p.started = true

	for i := 0; i < p.size; i++ {
		p.workers.Add(1)
		go p.worker(p.queue)
	}
	p.logger.Debug("worker pool started",
		logging.Int("workers", p.size),
		logging.Int("queue_capacity", p.capacity),
	)
	return nil
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(name string, task Task) (*Ticket, error) {
	if task == nil {
		return nil, errors.New("submit: nil task")
	}
	ticket := &Ticket{name: name, submitted: time.Now(), done: make(chan struct{})}

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case !p.started:
		return nil, ErrNotStarted
	case p.stopped:
		return nil, ErrStopped
	}
	p.pending.Add(1)
	select {
	case p.queue <- work{ticket: ticket, task: task}:
		return ticket, nil
	default:
		p.pending.Done()
		return nil, ErrQueueFull
	}
}

// Wait blocks until every task submitted so far has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Stop refuses new tasks, lets queued tasks finish, and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.workers.Wait()
}

// Stats reports current counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued := 0
	if p.queue != nil {
		queued = len(p.queue)
	}
	p.mu.Unlock()
	return Stats{
		Workers:   p.size,
		Capacity:  p.capacity,
		Active:    int(p.active.Load()),
		Queued:    queued,
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *Pool) worker(queue <-chan work) {
	defer p.workers.Done()
	for item := range queue {
		p.run(item)
	}
}

func (p *Pool) run(item work) {
	p.active.Add(1)
	started := time.Now()
	defer func() {
		p.active.Add(-1)
		if item.ticket.err != nil {
			p.failed.Add(1)
		}
		p.completed.Add(1)
		close(item.ticket.done)
		p.pending.Done()
	}()
	defer func() {
		if r := recover(); r != nil {
			item.ticket.err = fmt.Errorf("task %s panicked: %v", item.ticket.name, r)
			logging.ErrorWithContext(p.logger, "background task panicked", "task_panic",
				logging.String("task", item.ticket.name),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
		}
	}()

	p.logger.Debug("task started",
		logging.String("task", item.ticket.name),
		logging.Duration("queued_for", started.Sub(item.ticket.submitted)),
	)
	item.ticket.err = item.task(p.baseCtx)
	p.logger.Debug("task finished",
		logging.String("task", item.ticket.name),
		logging.Duration("elapsed", time.Since(started)),
		logging.Bool("failed", item.ticket.err != nil),
	)
}
