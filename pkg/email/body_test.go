package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/email"
)

func TestLooksLikeHTML(t *testing.T) {
	t.Parallel()

	assert.True(t, email.LooksLikeHTML("<p>Bonjour</p>"))
	assert.True(t, email.LooksLikeHTML("line<br/>line"))
	assert.True(t, email.LooksLikeHTML(`<div class="x">y</div>`))
	assert.False(t, email.LooksLikeHTML("Progression : 10% -> 30%"))
	assert.False(t, email.LooksLikeHTML("a < b and c > d"))
	assert.False(t, email.LooksLikeHTML("Délai < 3 jours, budget > 10k"))
	assert.False(t, email.LooksLikeHTML("x < p > y"))
	assert.True(t, email.LooksLikeHTML("Fin du paragraphe</p>"))
	assert.True(t, email.LooksLikeHTML(`<a href="https://daoboard.test">lien</a>`))
}

func TestBody_PlainText(t *testing.T) {
	t.Parallel()

	text, html, err := email.Body(context.Background(), "Objet : <Route> & pont\nligne 2\n\nParagraphe")
	require.NoError(t, err)

	assert.Equal(t, "Objet : <Route> & pont\nligne 2\n\nParagraphe", text)
	assert.Contains(t, html, "<p>Objet : &lt;Route&gt; &amp; pont<br>ligne 2</p><p>Paragraphe</p>")
	assert.Contains(t, html, "<!DOCTYPE html>")
}

func TestBody_HTML(t *testing.T) {
	t.Parallel()

	body := "<p>Dossier <strong>DAO-2025-001</strong></p><p>Progression&nbsp;: 30%</p>"
	text, html, err := email.Body(context.Background(), body)
	require.NoError(t, err)

	assert.Equal(t, body, html)
	assert.Equal(t, "Dossier DAO-2025-001\nProgression : 30%", text)
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\nb", email.PlainText("a<br>b"))
	assert.Equal(t, "un\n\ndeux", email.PlainText("<div>un</div>\n\n\n<div>deux</div>"))
}
