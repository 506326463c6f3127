package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

// PostmarkConfig configures the Postmark API fallback.
type PostmarkConfig struct {
	ServerToken  string `env:"SERVER_TOKEN"`
	AccountToken string `env:"ACCOUNT_TOKEN"`
	// BaseURL overrides the API endpoint.
	BaseURL string `env:"BASE_URL"`
}

func (c PostmarkConfig) Provider() Provider { return ProviderPostmark }
func (c PostmarkConfig) Complete() bool     { return c.ServerToken != "" }

func (c PostmarkConfig) Host() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "api.postmarkapp.com"
}

func (c PostmarkConfig) Build(s Settings) (Transport, error) {
	if !c.Complete() {
		return nil, fmt.Errorf("%w: postmark requires a server token", ErrInvalidConfig)
	}
	if s.From == "" {
		return nil, fmt.Errorf("%w: sender address is required", ErrInvalidConfig)
	}
	client := postmark.NewClient(c.ServerToken, c.AccountToken)
	if c.BaseURL != "" {
		client.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	}
	return &PostmarkTransport{client: client, cfg: c, settings: s}, nil
}

// PostmarkTransport sends through Postmark's transactional API.
type PostmarkTransport struct {
	client   *postmark.Client
	cfg      PostmarkConfig
	settings Settings
}

func (t *PostmarkTransport) Provider() Provider { return ProviderPostmark }
func (t *PostmarkTransport) Host() string       { return t.cfg.Host() }

// Probe only checks that a server token is configured; Postmark has no
// side-effect free endpoint scoped to a server token.
func (t *PostmarkTransport) Probe(context.Context) error {
	if !t.cfg.Complete() {
		return &Error{Kind: KindAuthRejected, Code: "auth_rejected", Provider: ProviderPostmark}
	}
	return nil
}

// Send delivers m with the batch in Bcc and the sender as visible recipient.
func (t *PostmarkTransport) Send(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	resp, err := t.client.SendEmail(ctx, postmark.Email{
		From:     t.settings.From,
		To:       t.settings.From,
		Bcc:      strings.Join(m.Bcc, ","),
		ReplyTo:  t.settings.ReplyTo,
		Subject:  m.Subject,
		Tag:      m.Tag,
		TextBody: m.Text,
		HTMLBody: m.HTML,
	})
	if resp.ErrorCode != 0 {
		return postmarkError(resp.ErrorCode, resp.Message)
	}
	var apiErr postmark.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode != 0 {
		return postmarkError(apiErr.ErrorCode, apiErr.Message)
	}
	if err != nil {
		return Classify(ProviderPostmark, err)
	}
	return nil
}

func postmarkError(code int64, message string) *Error {
	return &Error{
		Kind:     postmarkKind(code, message),
		Code:     fmt.Sprintf("postmark_%d", code),
		Provider: ProviderPostmark,
		Err:      fmt.Errorf("postmark error: %d - %s", code, message),
	}
}

// postmarkKind maps Postmark API error codes.
// See https://postmarkapp.com/developer/api/overview#error-codes
func postmarkKind(code int64, message string) Kind {
	switch {
	case code == 10 || code == 405 || code == 412:
		return KindAuthRejected
	case code == 429 || mentionsRateLimit(message):
		return KindRateLimited
	case code == 100:
		return KindDeferred
	default:
		return KindRejected
	}
}
