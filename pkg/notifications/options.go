package notifications

import (
	"log/slog"
	"time"

	"github.com/daoboard/notifier/pkg/directory"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStorage enables durable persistence.
func WithStorage(st Storage) Option {
	return func(s *Store) { s.storage = st }
}

// WithMailer enables email mirroring through m.
func WithMailer(m Mailer) Option {
	return func(s *Store) { s.mailer = m }
}

// WithDirectory sets where mirror recipients are resolved from.
// Either argument may be nil.
func WithDirectory(users directory.Users, records directory.Records) Option {
	return func(s *Store) {
		s.users = users
		s.records = records
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMirrorBackoff sets the first mirror retry delay and its cap.
func WithMirrorBackoff(base, limit time.Duration) Option {
	return func(s *Store) {
		if base > 0 {
			s.backoffBase = base
		}
		if limit > 0 {
			s.backoffMax = limit
		}
	}
}
