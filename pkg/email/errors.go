package email

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/emersion/go-smtp"
)

var (
	// ErrInvalidConfig is returned when provider configuration is unusable.
	ErrInvalidConfig = errors.New("email: invalid config")

	// ErrInvalidMessage is returned when a message misses required parts.
	ErrInvalidMessage = errors.New("email: invalid message")

	// ErrUnknownProvider is returned when a provider name is not supported.
	ErrUnknownProvider = errors.New("email: unknown provider")
)

// Kind is the closed classification of a send failure.
type Kind int

const (
	// KindUnknown is any failure that could not be categorized. Not retried.
	KindUnknown Kind = iota
	// KindTimeout covers dial, command and context deadlines.
	KindTimeout
	// KindConnection covers refused, reset and prematurely closed connections.
	KindConnection
	// KindRateLimited means the provider asked us to slow down.
	KindRateLimited
	// KindDeferred is a temporary (4xx) rejection.
	KindDeferred
	// KindAuthRejected means the provider refused our credentials.
	KindAuthRejected
	// KindRejected is a permanent (5xx) rejection of the message or recipients.
	KindRejected
	// KindUnavailable means no transport could be resolved at all.
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindTimeout:      "timeout",
	KindConnection:   "connection",
	KindRateLimited:  "rate_limited",
	KindDeferred:     "deferred",
	KindAuthRejected: "auth_rejected",
	KindRejected:     "rejected",
	KindUnavailable:  "transport_unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is a classified transport failure.
type Error struct {
	Kind     Kind
	Code     string
	Provider Provider
	Err      error
}

// CodeTransportUnavailable is the code carried by KindUnavailable errors.
const CodeTransportUnavailable = "transport_unavailable"

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("email: ")
	if e.Provider != "" {
		b.WriteString(string(e.Provider))
		b.WriteString(": ")
	}
	b.WriteString(e.Code)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether retrying the same send may succeed.
func (e *Error) Transient() bool {
	switch e.Kind {
	case KindTimeout, KindConnection, KindRateLimited, KindDeferred:
		return true
	default:
		return false
	}
}

// Permanent is the negation of Transient.
func (e *Error) Permanent() bool { return !e.Transient() }

// HostFailure reports whether the failure points at the host itself rather
// than the message, which makes switching to another provider worthwhile.
func (e *Error) HostFailure() bool {
	switch e.Kind {
	case KindTimeout, KindConnection, KindAuthRejected:
		return true
	default:
		return false
	}
}

// ErrorCode returns the categorical code. Named to satisfy small
// interfaces in callers that should not import this package's types.
func (e *Error) ErrorCode() string { return e.Code }

// Unavailable wraps err as a KindUnavailable failure.
func Unavailable(err error) *Error {
	return &Error{Kind: KindUnavailable, Code: CodeTransportUnavailable, Err: err}
}

var rateLimitPhrases = []string{
	"rate limit",
	"ratelimit",
	"too many",
	"try again later",
	"throttl",
	"temporarily deferred",
}

func mentionsRateLimit(msg string) bool {
	msg = strings.ToLower(msg)
	for _, p := range rateLimitPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Classify converts any error returned while talking to provider into an
// *Error. Already classified errors are returned unchanged.
func Classify(provider Provider, err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	e := &Error{Provider: provider, Err: err}

	var smtpErr *smtp.SMTPError
	switch {
	case errors.As(err, &smtpErr):
		classifySMTP(e, smtpErr)
	case isTimeout(err):
		e.Kind, e.Code = KindTimeout, "timeout"
	case errors.Is(err, syscall.ECONNREFUSED):
		e.Kind, e.Code = KindConnection, "connection_refused"
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		e.Kind, e.Code = KindConnection, "connection_reset"
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		e.Kind, e.Code = KindConnection, "connection_closed"
	case isNetError(err):
		e.Kind, e.Code = KindConnection, "connection_error"
	case mentionsRateLimit(err.Error()):
		e.Kind, e.Code = KindRateLimited, "rate_limited"
	default:
		e.Kind, e.Code = KindUnknown, "unknown"
	}
	return e
}

func classifySMTP(e *Error, se *smtp.SMTPError) {
	e.Code = fmt.Sprintf("smtp_%d", se.Code)
	switch {
	case mentionsRateLimit(se.Message):
		e.Kind = KindRateLimited
	case se.Code == 530 || se.Code == 534 || se.Code == 535 || se.Code == 538:
		e.Kind = KindAuthRejected
	case se.Code == 421:
		e.Kind = KindConnection
	case se.Code >= 400 && se.Code < 500:
		e.Kind = KindDeferred
	case se.Code >= 500 && se.Code < 600:
		e.Kind = KindRejected
	default:
		e.Kind = KindUnknown
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isNetError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
