package email

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Provider names a transport variant.
type Provider string

const (
	ProviderSMTP       Provider = "smtp"
	ProviderBackupSMTP Provider = "backup_smtp"
	ProviderPostmark   Provider = "postmark"
	ProviderFile       Provider = "file"
)

var providers = []Provider{ProviderSMTP, ProviderBackupSMTP, ProviderPostmark, ProviderFile}

// ParseProvider validates a provider name.
func ParseProvider(raw string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(providers, p) {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, raw)
	}
	return p, nil
}

// UnmarshalText lets env parsing reject unknown provider names.
func (p *Provider) UnmarshalText(text []byte) error {
	parsed, err := ParseProvider(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Provider) String() string { return string(p) }

// Settings are shared by every transport built from one Config.
type Settings struct {
	From           string
	ReplyTo        string
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
}

// ProviderConfig is one configured transport variant.
type ProviderConfig interface {
	Provider() Provider
	// Host identifies the endpoint for failover exclusion.
	Host() string
	// Complete reports whether required credentials are present.
	Complete() bool
	Build(s Settings) (Transport, error)
}

// Config is the provider configuration of the delivery pipeline.
type Config struct {
	From           string        `env:"EMAIL_FROM"`
	ReplyTo        string        `env:"EMAIL_REPLY_TO"`
	ConnectTimeout time.Duration `env:"EMAIL_CONNECT_TIMEOUT" envDefault:"10s"`
	SocketTimeout  time.Duration `env:"EMAIL_SOCKET_TIMEOUT" envDefault:"30s"`
	Fallbacks      []Provider    `env:"EMAIL_FALLBACK_PROVIDERS" envSeparator:"," envDefault:"backup_smtp,postmark"`

	SMTP     SMTPConfig     `envPrefix:"SMTP_"`
	Backup   SMTPConfig     `envPrefix:"SMTP_BACKUP_"`
	Postmark PostmarkConfig `envPrefix:"POSTMARK_"`
	File     FileConfig     `envPrefix:"EMAIL_FILE_"`
}

// Settings returns the shared transport settings. The sender defaults to
// the primary SMTP user when EMAIL_FROM is unset.
func (c Config) Settings() Settings {
	from := c.From
	if from == "" {
		from = c.SMTP.User
	}
	return Settings{
		From:           from,
		ReplyTo:        c.ReplyTo,
		ConnectTimeout: c.ConnectTimeout,
		SocketTimeout:  c.SocketTimeout,
	}
}

// Chain returns the provider variants in resolution order: primary SMTP
// first, then the configured fallbacks without duplicates.
func (c Config) Chain() []ProviderConfig {
	chain := []ProviderConfig{c.variant(ProviderSMTP)}
	seen := map[Provider]bool{ProviderSMTP: true}
	for _, p := range c.Fallbacks {
		if seen[p] {
			continue
		}
		seen[p] = true
		if v := c.variant(p); v != nil {
			chain = append(chain, v)
		}
	}
	return chain
}

// AnyComplete reports whether at least one variant in the chain can be built.
func (c Config) AnyComplete() bool {
	for _, pc := range c.Chain() {
		if pc.Complete() {
			return true
		}
	}
	return false
}

func (c Config) variant(p Provider) ProviderConfig {
	switch p {
	case ProviderSMTP:
		return smtpVariant{cfg: c.SMTP, provider: ProviderSMTP}
	case ProviderBackupSMTP:
		return smtpVariant{cfg: c.Backup, provider: ProviderBackupSMTP}
	case ProviderPostmark:
		return c.Postmark
	case ProviderFile:
		return c.File
	default:
		return nil
	}
}
