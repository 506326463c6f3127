package delivery

import (
	"log/slog"

	"github.com/daoboard/notifier/pkg/email"
)

// TransportFactory builds the transport for one provider variant.
type TransportFactory func(pc email.ProviderConfig, s email.Settings) (email.Transport, error)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSnapshot sets where queued jobs are persisted. Defaults to memory.
func WithSnapshot(s SnapshotStore) Option {
	return func(e *Engine) {
		if s != nil {
			e.snapshot = s
		}
	}
}

// WithTransportFactory replaces how provider variants become transports.
func WithTransportFactory(f TransportFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.factory = f
		}
	}
}

func buildTransport(pc email.ProviderConfig, s email.Settings) (email.Transport, error) {
	return pc.Build(s)
}
