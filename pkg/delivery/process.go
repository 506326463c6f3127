package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daoboard/notifier/pkg/email"
	"github.com/daoboard/notifier/pkg/logger"
)

// process runs a job through its attempts and resolves it.
func (e *Engine) process(ctx context.Context, p *pending) (Summary, error) {
	start := time.Now()
	log := e.logger.With(logger.JobID(p.job.ID))

	var err error
	for attempt := 1; attempt <= e.cfg.MaxRetry; attempt++ {
		err = e.attempt(ctx, p)
		if err == nil || ctx.Err() != nil || attempt == e.cfg.MaxRetry {
			break
		}
		var de *DeliveryError
		if errors.As(err, &de) && de.Permanent() {
			break
		}
		backoff := time.Duration(attempt) * e.cfg.RetryDelay
		log.WarnContext(ctx, "email job attempt failed, retrying",
			logger.Attempt(attempt),
			logger.Duration(backoff),
			logger.Error(err),
		)
		if sleep(ctx, backoff) != nil {
			break
		}
	}
	return e.resolveJob(ctx, p, err, time.Since(start)), err
}

// resolveJob records the outcome, updates the snapshot and wakes the caller.
func (e *Engine) resolveJob(ctx context.Context, p *pending, err error, took time.Duration) Summary {
	var de *DeliveryError
	summary := p.summary(nil)
	if errors.As(err, &de) {
		summary = p.summary(de.Summary.Failures)
		de.Summary = summary
	}
	persistCtx := context.WithoutCancel(ctx)
	log := e.logger.With(logger.JobID(p.job.ID))

	if err != nil && ctx.Err() != nil {
		job := p.job
		job.Recipients = p.remaining()
		if serr := e.snapshot.Save(persistCtx, job); serr != nil {
			log.WarnContext(persistCtx, "failed to persist interrupted email job", logger.Error(serr))
		}
		e.stats.send(summary.Sent)
		e.stats.record(eventFor(p.job, summary, OutcomeInterrupted, "interrupted"))
		log.WarnContext(persistCtx, "email job interrupted by shutdown",
			logger.Recipients(len(job.Recipients)),
		)
		p.finish(fmt.Errorf("%w: %w", ErrEngineClosed, err))
		return summary
	}

	if rerr := e.snapshot.Remove(persistCtx, p.job.ID); rerr != nil {
		log.WarnContext(persistCtx, "failed to remove email job from snapshot", logger.Error(rerr))
	}
	e.stats.send(summary.Sent)
	e.stats.fail(summary.Failed)

	switch {
	case err == nil:
		e.stats.record(eventFor(p.job, summary, OutcomeSent, ""))
		log.InfoContext(persistCtx, "email job delivered",
			logger.Recipients(summary.Sent),
			logger.Duration(took),
			slog.String("type", p.job.Type),
		)
	case de != nil:
		outcome := OutcomeFailed
		if summary.Sent > 0 {
			outcome = OutcomePartial
		}
		e.stats.record(eventFor(p.job, summary, outcome, de.Code()))
		log.ErrorContext(persistCtx, "email job not fully delivered",
			logger.ErrorCode(de.Code()),
			slog.Int("attempted", summary.Attempted),
			slog.Int("sent", summary.Sent),
			slog.Int("failed", summary.Failed),
			logger.Duration(took),
		)
	default:
		err = &DeliveryError{Summary: summary, Err: err}
		e.stats.record(eventFor(p.job, summary, OutcomeFailed, "unknown"))
		log.ErrorContext(persistCtx, "email job failed", logger.Error(err))
	}
	p.finish(err)
	return summary
}

// attempt sends every undelivered recipient once through the batch loop.
func (e *Engine) attempt(ctx context.Context, p *pending) error {
	remaining := p.remaining()
	if len(remaining) == 0 {
		return nil
	}
	if e.cfg.DryRun {
		for _, r := range remaining {
			p.delivered[r] = true
		}
		e.logger.DebugContext(ctx, "dry run: email marked sent",
			logger.JobID(p.job.ID),
			logger.Recipients(len(remaining)),
		)
		return nil
	}

	tr, err := e.resolve(ctx, p.excluded)
	if err != nil {
		return &DeliveryError{Summary: p.summary(nil), Err: err}
	}
	text, htmlBody, err := email.Body(ctx, p.job.Body)
	if err != nil {
		return &DeliveryError{Summary: p.summary(nil), Err: err}
	}

	var (
		failures []BatchFailure
		errs     []error
	)
	for i, batch := range chunk(remaining, e.cfg.BatchSize) {
		if i > 0 {
			if err := sleep(ctx, e.cfg.BatchDelay); err != nil {
				errs = append(errs, err)
				break
			}
		}
		msg := email.Message{
			Bcc:     batch,
			Subject: p.job.Subject,
			Text:    text,
			HTML:    htmlBody,
			Tag:     p.job.Type,
		}
		if err := e.sendBatch(ctx, p, &tr, msg); err != nil {
			failures = append(failures, BatchFailure{
				Batch:      i,
				Recipients: len(batch),
				Provider:   string(err.Provider),
				Code:       err.Code,
				Transient:  err.Transient(),
			})
			errs = append(errs, err)
			continue
		}
		for _, r := range batch {
			p.delivered[r] = true
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &DeliveryError{Summary: p.summary(failures), Err: errors.Join(errs...)}
}

// sendBatch delivers one batch, retrying transient failures and switching
// transport when the current host fails.
func (e *Engine) sendBatch(ctx context.Context, p *pending, tr *email.Transport, msg email.Message) *email.Error {
	var last *email.Error
	for try := 1; try <= e.cfg.BatchAttempts; try++ {
		err := (*tr).Send(ctx, msg)
		if err == nil {
			return nil
		}
		last = email.Classify((*tr).Provider(), err)
		e.stats.transportError(last)
		e.logger.WarnContext(ctx, "email batch failed",
			logger.JobID(p.job.ID),
			logger.Provider(string(last.Provider)),
			logger.ErrorCode(last.Code),
			logger.Attempt(try),
			logger.Recipients(len(msg.Bcc)),
		)
		if try == e.cfg.BatchAttempts || ctx.Err() != nil {
			break
		}

		if last.HostFailure() {
			failed := (*tr).Host()
			p.excluded[failed] = true
			if next, rerr := e.resolve(ctx, p.excluded); rerr == nil && next.Host() != failed {
				e.logger.InfoContext(ctx, "switching email provider",
					logger.JobID(p.job.ID),
					slog.String("from", string((*tr).Provider())),
					slog.String("to", string(next.Provider())),
				)
				*tr = next
				continue
			}
		}
		if !last.Transient() {
			break
		}
		if sleep(ctx, time.Duration(try)*e.cfg.BatchDelay) != nil {
			break
		}
	}
	return last
}

// resolve returns the first complete, reachable transport in the chain.
// Hosts excluded for this job are only reconsidered when nothing else is
// reachable.
func (e *Engine) resolve(ctx context.Context, excluded map[string]bool) (email.Transport, error) {
	if e.cfg.Disabled {
		return nil, email.Unavailable(ErrEmailDisabled)
	}

	var errs []error
	for _, retryExcluded := range []bool{false, true} {
		for _, pc := range e.chain {
			if !pc.Complete() || excluded[pc.Host()] != retryExcluded {
				continue
			}
			tr, err := e.factory(pc, e.settings)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", pc.Provider(), err))
				continue
			}
			if err := e.probe(ctx, tr); err != nil {
				ee := email.Classify(pc.Provider(), err)
				e.stats.transportError(ee)
				e.logger.WarnContext(ctx, "email provider probe failed",
					logger.Provider(string(pc.Provider())),
					logger.ErrorCode(ee.Code),
				)
				errs = append(errs, ee)
				continue
			}
			return tr, nil
		}
	}
	if len(errs) == 0 {
		errs = append(errs, ErrNoProvider)
	}
	return nil, email.Unavailable(errors.Join(errs...))
}

func (e *Engine) probe(ctx context.Context, tr email.Transport) error {
	if d := e.cfg.Providers.ConnectTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return tr.Probe(ctx)
}
