package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPConfig configures an SMTP relay.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	// Secure selects implicit TLS. Otherwise the session is upgraded with
	// STARTTLS, and a relay that does not offer it is refused unless
	// DisableStartTLS is set.
	Secure          bool `env:"SECURE"`
	DisableStartTLS bool `env:"DISABLE_STARTTLS"`
	SkipTLSVerify   bool `env:"TLS_SKIP_VERIFY"`
}

// Complete reports whether the relay is addressable and credentials are
// either fully present or fully absent.
func (c SMTPConfig) Complete() bool {
	if c.Host == "" || c.Port <= 0 {
		return false
	}
	return (c.User == "") == (c.Password == "")
}

func (c SMTPConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// smtpVariant binds an SMTPConfig to the provider slot it fills.
type smtpVariant struct {
	cfg      SMTPConfig
	provider Provider
}

func (v smtpVariant) Provider() Provider { return v.provider }
func (v smtpVariant) Host() string       { return v.cfg.addr() }
func (v smtpVariant) Complete() bool     { return v.cfg.Complete() }

func (v smtpVariant) Build(s Settings) (Transport, error) {
	if !v.cfg.Complete() {
		return nil, fmt.Errorf("%w: %s requires host and matching credentials", ErrInvalidConfig, v.provider)
	}
	if s.From == "" {
		return nil, fmt.Errorf("%w: sender address is required", ErrInvalidConfig)
	}
	return NewSMTPTransport(v.provider, v.cfg, s), nil
}

// SMTPTransport sends over a fresh SMTP session per message.
type SMTPTransport struct {
	provider Provider
	cfg      SMTPConfig
	settings Settings
	now      func() time.Time
}

// NewSMTPTransport creates an SMTP transport for provider.
func NewSMTPTransport(provider Provider, cfg SMTPConfig, s Settings) *SMTPTransport {
	return &SMTPTransport{provider: provider, cfg: cfg, settings: s, now: time.Now}
}

func (t *SMTPTransport) Provider() Provider { return t.provider }
func (t *SMTPTransport) Host() string       { return t.cfg.addr() }

// Probe opens a session, authenticates and issues NOOP.
func (t *SMTPTransport) Probe(ctx context.Context) error {
	c, err := t.connect(ctx)
	if err != nil {
		return Classify(t.provider, err)
	}
	defer c.Close()
	if err := c.Noop(); err != nil {
		return Classify(t.provider, err)
	}
	_ = c.Quit()
	return nil
}

// Send delivers m with every batch address as an envelope recipient.
func (t *SMTPTransport) Send(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	raw, err := compose(t.settings, m, t.now())
	if err != nil {
		return err
	}

	c, err := t.connect(ctx)
	if err != nil {
		return Classify(t.provider, err)
	}
	defer c.Close()

	if err := c.Mail(t.settings.From, nil); err != nil {
		return Classify(t.provider, err)
	}
	for _, rcpt := range m.Bcc {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return Classify(t.provider, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return Classify(t.provider, err)
	}
	if _, err := bytes.NewReader(raw).WriteTo(w); err != nil {
		_ = w.Close()
		return Classify(t.provider, err)
	}
	if err := w.Close(); err != nil {
		return Classify(t.provider, err)
	}
	_ = c.Quit()
	return nil
}

func (t *SMTPTransport) connect(ctx context.Context) (*smtp.Client, error) {
	dialCtx := ctx
	if t.settings.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, t.settings.ConnectTimeout)
		defer cancel()
	}

	tlsConfig := &tls.Config{
		ServerName:         t.cfg.Host,
		InsecureSkipVerify: t.cfg.SkipTLSVerify, //nolint:gosec // opt-in for self-signed relays
		MinVersion:         tls.VersionTLS12,
	}

	var (
		conn net.Conn
		err  error
	)
	if t.cfg.Secure {
		d := &tls.Dialer{Config: tlsConfig}
		conn, err = d.DialContext(dialCtx, "tcp", t.cfg.addr())
	} else {
		var d net.Dialer
		conn, err = d.DialContext(dialCtx, "tcp", t.cfg.addr())
	}
	if err != nil {
		return nil, err
	}
	if deadline, ok := t.sessionDeadline(ctx); ok {
		_ = conn.SetDeadline(deadline)
	}

	var c *smtp.Client
	if t.cfg.Secure || t.cfg.DisableStartTLS {
		c = smtp.NewClient(conn)
	} else if c, err = smtp.NewClientStartTLS(conn, tlsConfig); err != nil {
		return nil, err
	}
	if t.cfg.User != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.cfg.User, t.cfg.Password)); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

// sessionDeadline is the earlier of the socket timeout and the ctx deadline.
func (t *SMTPTransport) sessionDeadline(ctx context.Context) (time.Time, bool) {
	deadline, ok := ctx.Deadline()
	if t.settings.SocketTimeout > 0 {
		socket := time.Now().Add(t.settings.SocketTimeout)
		if !ok || socket.Before(deadline) {
			return socket, true
		}
	}
	return deadline, ok
}
