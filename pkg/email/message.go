package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// Message is one email addressed to a batch of hidden recipients.
type Message struct {
	Bcc     []string
	Subject string
	Text    string
	HTML    string
	// Tag is free-form metadata passed to providers that support it.
	Tag string
}

// Validate checks that the message can be handed to a transport.
func (m Message) Validate() error {
	switch {
	case len(m.Bcc) == 0:
		return fmt.Errorf("%w: no recipients", ErrInvalidMessage)
	case m.Subject == "":
		return fmt.Errorf("%w: empty subject", ErrInvalidMessage)
	case m.Text == "" && m.HTML == "":
		return fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}
	return nil
}

// Transport delivers messages through one provider.
type Transport interface {
	Provider() Provider
	Host() string
	// Probe verifies the provider is reachable and accepts our credentials.
	Probe(ctx context.Context) error
	// Send delivers m to every address in m.Bcc as one provider request.
	Send(ctx context.Context, m Message) error
}

// compose renders m as a multipart/alternative MIME message. The visible
// To header is the sender so recipients never see each other.
func compose(s Settings, m Message, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	sender := []*mail.Address{{Address: s.From}}
	h.SetAddressList("From", sender)
	h.SetAddressList("To", sender)
	if s.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*mail.Address{{Address: s.ReplyTo}})
	}
	h.SetSubject(m.Subject)
	if m.Tag != "" {
		h.Set("X-Notification-Type", m.Tag)
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create mime writer: %w", err)
	}
	alt, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("create alternative part: %w", err)
	}
	if err := writePart(alt, "text/plain", m.Text); err != nil {
		return nil, err
	}
	if m.HTML != "" {
		if err := writePart(alt, "text/html", m.HTML); err != nil {
			return nil, err
		}
	}
	if err := alt.Close(); err != nil {
		return nil, fmt.Errorf("close alternative part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(alt *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := alt.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	return w.Close()
}
