package changes

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// LineKind tells renderers how a line relates to the change.
type LineKind int

const (
	LinePlain LineKind = iota
	LineBefore
	LineAfter
	LineAdded
	LineRemoved
)

// Line is one rendered statement.
type Line struct {
	Kind LineKind
	Text string
}

// Section is a titled group of lines.
type Section struct {
	Title string
	Lines []Line
}

// Summary is the structured content of a notification.
type Summary struct {
	Title    string
	Intro    string
	Sections []Section
}

// Diff returns the text of every line that describes a change.
func (s Summary) Diff() []string {
	var out []string
	for _, sec := range s.Sections {
		for _, l := range sec.Lines {
			if l.Kind != LinePlain {
				out = append(out, l.Text)
			}
		}
	}
	return out
}

// Text renders the summary as plain text with blank lines between sections.
func (s Summary) Text() string {
	var blocks []string
	if s.Intro != "" {
		blocks = append(blocks, s.Intro)
	}
	for _, sec := range s.Sections {
		if len(sec.Lines) == 0 {
			continue
		}
		var b strings.Builder
		if sec.Title != "" {
			b.WriteString(sec.Title)
			b.WriteString(" :\n")
		}
		for i, l := range sec.Lines {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(l.Text)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

var lineStyles = map[LineKind]string{
	LinePlain:   "color:#1f2933",
	LineBefore:  "color:#7b8794",
	LineAfter:   "color:#0b3d91;font-weight:bold",
	LineAdded:   "color:#0b7a3e",
	LineRemoved: "color:#b42318",
}

// Component renders the summary as a styled HTML fragment.
func (s Summary) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div style="font-family:Arial,sans-serif;line-height:1.5;color:#1f2933;max-width:640px">`)
		b.WriteString(`<h2 style="color:#0b3d91;font-size:18px;margin:0 0 12px">`)
		b.WriteString(templ.EscapeString(s.Title))
		b.WriteString(`</h2>`)
		if s.Intro != "" {
			b.WriteString(`<p style="margin:0 0 12px">`)
			b.WriteString(templ.EscapeString(s.Intro))
			b.WriteString(`</p>`)
		}
		for _, sec := range s.Sections {
			if len(sec.Lines) == 0 {
				continue
			}
			if sec.Title != "" {
				b.WriteString(`<h3 style="font-size:15px;margin:16px 0 6px">`)
				b.WriteString(templ.EscapeString(sec.Title))
				b.WriteString(`</h3>`)
			}
			b.WriteString(`<ul style="margin:0;padding-left:18px">`)
			for _, l := range sec.Lines {
				b.WriteString(`<li style="`)
				b.WriteString(lineStyles[l.Kind])
				b.WriteString(`">`)
				b.WriteString(templ.EscapeString(l.Text))
				b.WriteString(`</li>`)
			}
			b.WriteString(`</ul>`)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// HTML renders Component to a string.
func (s Summary) HTML(ctx context.Context) (string, error) {
	var b strings.Builder
	if err := s.Component().Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
