package delivery

import (
	"errors"
	"fmt"

	"github.com/daoboard/notifier/pkg/email"
)

var (
	// ErrEngineClosed is returned by Send after Shutdown.
	ErrEngineClosed = errors.New("delivery: engine closed")

	// ErrNoProvider is wrapped in transport_unavailable failures when the
	// chain has no complete, reachable provider.
	ErrNoProvider = errors.New("delivery: no email provider available")

	// ErrEmailDisabled is wrapped in transport_unavailable failures when
	// sending is switched off by configuration.
	ErrEmailDisabled = errors.New("delivery: email sending disabled")
)

// DeliveryError reports a job whose recipients were not all delivered.
type DeliveryError struct {
	Summary Summary
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery: %d of %d recipients not delivered (%s): %v",
		e.Summary.Failed, e.Summary.Attempted, e.Code(), e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Code is the categorical code of the first failure.
func (e *DeliveryError) Code() string {
	if len(e.Summary.Failures) > 0 {
		return e.Summary.Failures[0].Code
	}
	var ee *email.Error
	if errors.As(e.Err, &ee) {
		return ee.Code
	}
	return "unknown"
}

// ErrorCode mirrors Code for callers matching on a small interface.
func (e *DeliveryError) ErrorCode() string { return e.Code() }

// Permanent reports whether retrying the job cannot help: no transport
// was available, or every failed batch failed permanently.
func (e *DeliveryError) Permanent() bool {
	if len(e.Summary.Failures) == 0 {
		var ee *email.Error
		return errors.As(e.Err, &ee) && ee.Permanent()
	}
	for _, f := range e.Summary.Failures {
		if f.Transient {
			return false
		}
	}
	return true
}

// ErrSnapshot wraps failures writing the job snapshot.
var ErrSnapshot = errors.New("delivery: snapshot write failed")

// Counts returns the recipient counters of the failed job.
func (e *DeliveryError) Counts() (attempted, sent, failed int) {
	return e.Summary.Attempted, e.Summary.Sent, e.Summary.Failed
}
