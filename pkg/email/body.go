package email

import (
	"context"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	htmlTagPattern = regexp.MustCompile(`(?i)</?(html|body|p|div|br|table|tr|td|h[1-6]|span|a|ul|ol|li|strong|em|b|i)(\s[^<>]*)?/?>`)
	anyTagPattern  = regexp.MustCompile(`<[^>]*>`)
	blockPattern   = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li|/h[1-6]|/tr)\s*/?>`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// LooksLikeHTML reports whether body contains markup.
func LooksLikeHTML(body string) bool {
	return htmlTagPattern.MatchString(body)
}

// Body builds the text and HTML alternatives from a single body. A plain
// text body gets an escaped HTML rendition; an HTML body gets a stripped
// text rendition.
func Body(ctx context.Context, body string) (text, htmlBody string, err error) {
	if LooksLikeHTML(body) {
		return PlainText(body), body, nil
	}
	var b strings.Builder
	if err := TextDocument(body).Render(ctx, &b); err != nil {
		return "", "", err
	}
	return body, b.String(), nil
}

// TextDocument renders plain text as a minimal HTML document: blank lines
// separate paragraphs and single newlines become line breaks.
func TextDocument(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;line-height:1.5;color:#1f2933">`); err != nil {
			return err
		}
		for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
			para = strings.Trim(para, "\n")
			if para == "" {
				continue
			}
			lines := strings.Split(para, "\n")
			for i := range lines {
				lines[i] = templ.EscapeString(lines[i])
			}
			if _, err := io.WriteString(w, "<p>"+strings.Join(lines, "<br>")+"</p>"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// PlainText strips markup from an HTML body.
func PlainText(body string) string {
	s := blockPattern.ReplaceAllString(body, "\n")
	s = anyTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}
