package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/daoboard/notifier/pkg/email"
)

// Outcome is the resolution recorded for a send request.
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomePartial     Outcome = "partial"
	OutcomeFailed      Outcome = "failed"
	OutcomeRejected    Outcome = "rejected"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeInterrupted Outcome = "interrupted"
)

const (
	eventLogSize  = 50
	recentEntries = 20
)

// Event is one entry of the diagnostic log.
type Event struct {
	Time       time.Time `json:"time"`
	JobID      string    `json:"jobId,omitempty"`
	Subject    string    `json:"subject"`
	Type       string    `json:"type,omitempty"`
	Recipients int       `json:"recipients"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Outcome    Outcome   `json:"outcome"`
	Code       string    `json:"code,omitempty"`
}

func eventFor(job Job, s Summary, outcome Outcome, code string) Event {
	return Event{
		JobID:      job.ID,
		Subject:    job.Subject,
		Type:       job.Type,
		Recipients: s.Attempted,
		Sent:       s.Sent,
		Failed:     s.Failed,
		Outcome:    outcome,
		Code:       code,
	}
}

// Diagnostics is a read-only view of the engine for operational checks.
type Diagnostics struct {
	Transport TransportStatus `json:"transport"`
	Queue     QueueStatus     `json:"queue"`
	Recent    []Event         `json:"recent"`
	Totals    Totals          `json:"totals"`
}

// TransportStatus describes the configured primary relay and chain.
type TransportStatus struct {
	Host          string     `json:"host"`
	Port          int        `json:"port"`
	Secure        bool       `json:"secure"`
	From          string     `json:"from"`
	Disabled      bool       `json:"disabled"`
	DryRun        bool       `json:"dryRun"`
	Providers     []string   `json:"providers"`
	LastError     string     `json:"lastError,omitempty"`
	LastErrorCode string     `json:"lastErrorCode,omitempty"`
	LastErrorAt   *time.Time `json:"lastErrorAt,omitempty"`
}

type QueueStatus struct {
	InMemory  int `json:"inMemory"`
	Persisted int `json:"persisted"`
}

type Totals struct {
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}

// Diagnostics returns the current transport configuration, queue depth,
// the most recent events (newest first) and cumulative counters.
func (e *Engine) Diagnostics(ctx context.Context) Diagnostics {
	persisted, err := e.snapshot.Count(ctx)
	if err != nil {
		persisted = -1
	}

	providers := make([]string, 0, len(e.chain))
	for _, pc := range e.chain {
		if pc.Complete() {
			providers = append(providers, pc.Provider().String())
		}
	}

	smtp := e.cfg.Providers.SMTP
	status := TransportStatus{
		Host:      smtp.Host,
		Port:      smtp.Port,
		Secure:    smtp.Secure,
		From:      e.settings.From,
		Disabled:  e.cfg.Disabled,
		DryRun:    e.cfg.DryRun,
		Providers: providers,
	}

	depth := e.QueueDepth()

	e.stats.mu.Lock()
	defer e.stats.mu.Unlock()
	if e.stats.lastErr != nil {
		at := e.stats.lastErrAt
		status.LastError = e.stats.lastErr.Error()
		status.LastErrorCode = e.stats.lastErr.Code
		status.LastErrorAt = &at
	}

	recent := make([]Event, 0, min(recentEntries, len(e.stats.events)))
	for i := len(e.stats.events) - 1; i >= 0 && len(recent) < recentEntries; i-- {
		recent = append(recent, e.stats.events[i])
	}

	return Diagnostics{
		Transport: status,
		Queue:     QueueStatus{InMemory: depth, Persisted: persisted},
		Recent:    recent,
		Totals:    Totals{Sent: e.stats.sent, Failed: e.stats.failed},
	}
}

type stats struct {
	mu        sync.Mutex
	events    []Event
	sent      int64
	failed    int64
	lastErr   *email.Error
	lastErrAt time.Time
}

func (s *stats) record(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if over := len(s.events) - eventLogSize; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
}

func (s *stats) send(n int) {
	s.mu.Lock()
	s.sent += int64(n)
	s.mu.Unlock()
}

func (s *stats) fail(n int) {
	s.mu.Lock()
	s.failed += int64(n)
	s.mu.Unlock()
}

func (s *stats) transportError(err *email.Error) {
	s.mu.Lock()
	s.lastErr = err
	s.lastErrAt = time.Now().UTC()
	s.mu.Unlock()
}
