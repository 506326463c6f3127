package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daoboard/notifier/pkg/async"
	"github.com/daoboard/notifier/pkg/email"
	"github.com/daoboard/notifier/pkg/logger"
	"github.com/daoboard/notifier/pkg/mailaddr"
)

// Engine queues, batches and delivers email jobs.
type Engine struct {
	cfg      Config
	chain    []email.ProviderConfig
	settings email.Settings
	logger   *slog.Logger
	snapshot SnapshotStore
	factory  TransportFactory

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	queue    []*pending
	draining bool
	started  bool
	closed   bool

	stats stats
}

// NewEngine creates an engine. It does not touch the snapshot until Start.
func NewEngine(cfg Config, opts ...Option) *Engine {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:      cfg,
		chain:    cfg.Providers.Chain(),
		settings: cfg.Providers.Settings(),
		logger:   slog.Default(),
		snapshot: NewMemorySnapshot(),
		factory:  buildTransport,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logger.Component("delivery"))
	return e
}

// Start restores persisted jobs into the queue and begins draining them.
// Calling it again is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started || e.closed {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.mu.Unlock()

	jobs, err := e.snapshot.Load(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "email queue snapshot unreadable, starting empty", logger.Error(err))
		return nil
	}
	if len(jobs) == 0 {
		return nil
	}

	e.mu.Lock()
	for _, job := range jobs {
		e.queue = append(e.queue, newPending(job, nil))
	}
	e.kickLocked()
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "restored queued email jobs", slog.Int("jobs", len(jobs)))
	return nil
}

// Send validates recipients, queues a job and waits for its outcome.
//
// It returns nil when no valid recipient remains, and a *DeliveryError
// when some recipients could not be delivered or when no configured
// provider is reachable (in which case nothing is queued). Cancelling ctx
// stops the wait but not the job.
func (e *Engine) Send(ctx context.Context, recipients []string, subject, body, kind string) error {
	valid, invalid := mailaddr.Partition(recipients)
	if len(invalid) > 0 {
		e.logger.WarnContext(ctx, "dropping invalid email recipients",
			logger.Recipients(len(invalid)),
			slog.String("subject", subject),
		)
	}
	if len(valid) == 0 {
		e.logger.InfoContext(ctx, "email skipped: no valid recipients", slog.String("subject", subject))
		e.stats.record(Event{Subject: subject, Type: kind, Outcome: OutcomeSkipped})
		return nil
	}

	if !e.cfg.DryRun {
		var cause error
		switch {
		case e.cfg.Disabled:
			cause = email.Unavailable(ErrEmailDisabled)
		case !e.cfg.Providers.AnyComplete():
			cause = email.Unavailable(ErrNoProvider)
		default:
			// Nothing is persisted or queued unless some provider answers.
			if _, err := e.resolve(ctx, nil); err != nil {
				cause = err
			}
		}
		if cause != nil {
			return e.reject(ctx, subject, kind, len(valid), cause)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("delivery: generate job id: %w", err)
	}
	job := Job{
		ID:         id.String(),
		Recipients: valid,
		Subject:    subject,
		Body:       body,
		Type:       kind,
		EnqueuedAt: time.Now().UTC(),
	}
	if e.isClosed() {
		return ErrEngineClosed
	}
	// Persist before the drainer can see the job so its removal always
	// follows the save.
	if err := e.snapshot.Save(ctx, job); err != nil {
		e.logger.WarnContext(ctx, "failed to persist email job", logger.JobID(job.ID), logger.Error(err))
	}

	done := make(chan error, 1)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		_ = e.snapshot.Remove(context.WithoutCancel(ctx), job.ID)
		return ErrEngineClosed
	}
	e.queue = append(e.queue, newPending(job, done))
	e.kickLocked()
	e.mu.Unlock()

	e.logger.DebugContext(ctx, "email job queued",
		logger.JobID(job.ID),
		logger.Recipients(len(valid)),
		slog.String("type", kind),
	)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) reject(ctx context.Context, subject, kind string, recipients int, cause error) error {
	e.stats.fail(recipients)
	e.stats.record(Event{Subject: subject, Type: kind, Recipients: recipients, Outcome: OutcomeRejected, Code: email.CodeTransportUnavailable})
	e.logger.ErrorContext(ctx, "email rejected: no transport available",
		logger.ErrorCode(email.CodeTransportUnavailable),
		logger.Recipients(recipients),
	)
	return &DeliveryError{
		Summary: Summary{Attempted: recipients, Failed: recipients},
		Err:     cause,
	}
}

// Shutdown stops accepting jobs and waits for the queue to drain. When ctx
// expires first, in-flight jobs are interrupted and kept in the snapshot
// with their undelivered recipients.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		<-drained
		return ctx.Err()
	}
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// kickLocked starts the drainer unless one is already running.
func (e *Engine) kickLocked() {
	if e.draining || len(e.queue) == 0 {
		return
	}
	e.draining = true
	e.wg.Add(1)
	go e.drain()
}

func (e *Engine) drain() {
	defer e.wg.Done()
	for {
		round := e.claim()
		if round == nil {
			return
		}
		// Jobs handle interruption themselves, so the fan-out must not
		// skip them when the engine context is cancelled.
		_, _ = async.Map(context.WithoutCancel(e.ctx), round, len(round), func(_ context.Context, p *pending) (Summary, error) {
			return e.process(e.ctx, p)
		})
		if e.QueueDepth() > 0 {
			_ = sleep(e.ctx, e.cfg.RoundDelay)
		}
	}
}

// claim takes the next round of jobs in FIFO order. It returns nil and
// releases the drainer when the queue is empty or the engine is stopping.
func (e *Engine) claim() []*pending {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx.Err() != nil {
		for _, p := range e.queue {
			p.finish(ErrEngineClosed)
		}
		e.queue = nil
	}
	if len(e.queue) == 0 {
		e.draining = false
		return nil
	}
	n := min(e.cfg.MaxConcurrent, len(e.queue))
	round := slices.Clone(e.queue[:n])
	e.queue = slices.Delete(e.queue, 0, n)
	return round
}

// QueueDepth is the number of jobs waiting for a drainer round.
func (e *Engine) QueueDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (p *pending) finish(err error) {
	if p.done != nil {
		p.done <- err
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

