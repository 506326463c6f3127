package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

// FileConfig configures the file transport used for local development.
type FileConfig struct {
	Dir string `env:"DIR"`
}

func (c FileConfig) Provider() Provider { return ProviderFile }
func (c FileConfig) Host() string       { return "file://" + c.Dir }
func (c FileConfig) Complete() bool     { return c.Dir != "" }

func (c FileConfig) Build(s Settings) (Transport, error) {
	if !c.Complete() {
		return nil, fmt.Errorf("%w: file transport requires a directory", ErrInvalidConfig)
	}
	return NewFileTransport(c.Dir, s), nil
}

// FileTransport writes each message as an HTML file plus JSON metadata
// instead of sending it.
type FileTransport struct {
	dir      string
	settings Settings
	seq      atomic.Uint64
	now      func() time.Time
}

// NewFileTransport creates a file transport rooted at dir. The directory
// is created on first use.
func NewFileTransport(dir string, s Settings) *FileTransport {
	return &FileTransport{dir: dir, settings: s, now: time.Now}
}

type fileMetadata struct {
	Timestamp string   `json:"timestamp"`
	From      string   `json:"from"`
	Bcc       []string `json:"bcc"`
	Subject   string   `json:"subject"`
	Tag       string   `json:"tag,omitempty"`
	Text      string   `json:"text"`
}

func (t *FileTransport) Provider() Provider { return ProviderFile }
func (t *FileTransport) Host() string       { return "file://" + t.dir }

func (t *FileTransport) Probe(context.Context) error {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return Unavailable(err)
	}
	return nil
}

func (t *FileTransport) Send(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return Classify(ProviderFile, err)
	}
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return Unavailable(fmt.Errorf("create directory: %w", err))
	}

	now := t.now()
	identifier := m.Tag
	if identifier == "" {
		identifier = m.Subject
	}
	base := fmt.Sprintf("%s_%04d_%s", now.Format("2006_01_02_150405"), t.seq.Add(1), sanitizeFilename(identifier))

	htmlBody := m.HTML
	if htmlBody == "" {
		htmlBody = "<pre>" + m.Text + "</pre>"
	}
	if err := os.WriteFile(filepath.Join(t.dir, base+".html"), []byte(htmlBody), 0o644); err != nil {
		return Unavailable(fmt.Errorf("write html file: %w", err))
	}

	meta, err := json.MarshalIndent(fileMetadata{
		Timestamp: now.Format(time.RFC3339),
		From:      t.settings.From,
		Bcc:       m.Bcc,
		Subject:   m.Subject,
		Tag:       m.Tag,
		Text:      m.Text,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(t.dir, base+".json"), meta, 0o644); err != nil {
		return Unavailable(fmt.Errorf("write metadata file: %w", err))
	}
	return nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")
	if len(s) > 50 {
		s = s[:50]
	}
	if s == "" {
		s = "email"
	}
	return s
}
