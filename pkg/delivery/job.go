package delivery

import "time"

// Job is one queued send request. This is also the persisted form.
type Job struct {
	ID         string    `json:"id"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Type       string    `json:"type,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Summary describes the outcome of a job.
type Summary struct {
	Attempted int            `json:"attempted"`
	Sent      int            `json:"sent"`
	Failed    int            `json:"failed"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}

// BatchFailure is one batch that could not be delivered.
type BatchFailure struct {
	Batch      int    `json:"batch"`
	Recipients int    `json:"recipients"`
	Provider   string `json:"provider,omitempty"`
	Code       string `json:"code"`
	Transient  bool   `json:"transient"`
}

// pending tracks a job through its attempts.
type pending struct {
	job       Job
	delivered map[string]bool
	excluded  map[string]bool
	// done receives the final result; nil for restored jobs.
	done chan error
}

func newPending(job Job, done chan error) *pending {
	return &pending{
		job:       job,
		delivered: make(map[string]bool, len(job.Recipients)),
		excluded:  make(map[string]bool),
		done:      done,
	}
}

func (p *pending) remaining() []string {
	out := make([]string, 0, len(p.job.Recipients)-len(p.delivered))
	for _, r := range p.job.Recipients {
		if !p.delivered[r] {
			out = append(out, r)
		}
	}
	return out
}

func (p *pending) summary(failures []BatchFailure) Summary {
	sent := len(p.delivered)
	return Summary{
		Attempted: len(p.job.Recipients),
		Sent:      sent,
		Failed:    len(p.job.Recipients) - sent,
		Failures:  failures,
	}
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
