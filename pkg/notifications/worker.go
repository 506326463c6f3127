package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/daoboard/notifier/pkg/logger"
)

const taskTimeout = 10 * time.Second

// task is a unit of background work. Detached tasks run on their own
// goroutine so a slow mirror never holds up persistence writes; the rest
// run in submission order.
type task struct {
	name   string
	detach bool
	run    func(ctx context.Context) error
}

// background is the single-consumer task queue behind a Store.
type background struct {
	logger *slog.Logger
	tasks  chan task
	done   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	detached sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	pending int
	idle    chan struct{}
}

func (b *background) start(size int, l *slog.Logger) {
	b.logger = l
	b.tasks = make(chan task, size)
	b.done = make(chan struct{})
	b.idle = make(chan struct{})
	close(b.idle)
	b.ctx, b.cancel = context.WithCancel(context.Background())
	go b.work()
}

// submit queues t without blocking. A full queue drops the task.
func (b *background) submit(t task) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.logger.Warn("notification task dropped: store closed", slog.String("task", t.name))
		return false
	}
	select {
	case b.tasks <- t:
		if b.pending == 0 {
			b.idle = make(chan struct{})
		}
		b.pending++
		return true
	default:
		b.logger.Warn("notification task dropped: queue full",
			slog.String("task", t.name),
			slog.Int("capacity", cap(b.tasks)),
		)
		return false
	}
}

func (b *background) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending--
	if b.pending == 0 {
		close(b.idle)
	}
}

func (b *background) work() {
	defer close(b.done)
	for t := range b.tasks {
		if t.detach {
			b.detached.Add(1)
			go func() {
				defer b.detached.Done()
				defer b.finish()
				b.exec(t)
			}()
			continue
		}
		b.exec(t)
		b.finish()
	}
}

func (b *background) exec(t task) {
	ctx := b.ctx
	if !t.detach {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(b.ctx, taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("notification task panicked", slog.String("task", t.name), slog.Any("panic", r))
		}
	}()

	if err := t.run(ctx); err != nil {
		b.logger.Warn("notification task failed", slog.String("task", t.name), logger.Error(err))
	}
}

func (b *background) flush(ctx context.Context) error {
	b.mu.Lock()
	idle := b.idle
	b.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *background) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *background) stop(ctx context.Context) error {
	flushErr := b.flush(ctx)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return flushErr
	}
	b.closed = true
	close(b.tasks)
	b.mu.Unlock()

	if flushErr != nil {
		b.cancel()
	}

	stopped := make(chan struct{})
	go func() {
		<-b.done
		b.detached.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		b.cancel()
		return flushErr
	case <-ctx.Done():
		b.cancel()
		<-stopped
		return ctx.Err()
	}
}
