package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/email"
)

func TestFileTransport_Send(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "outbox")
	tr := email.NewFileTransport(dir, testSettings)
	require.NoError(t, tr.Probe(context.Background()))

	msg := email.Message{Bcc: []string{"a@x.io"}, Subject: "Dossier supprimé", Text: "texte", Tag: "dao_deleted"}
	require.NoError(t, tr.Send(context.Background(), msg))
	require.NoError(t, tr.Send(context.Background(), msg))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	var meta map[string]any
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		assert.Contains(t, e.Name(), "dao_deleted")
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &meta))
	}
	assert.Equal(t, "Dossier supprimé", meta["subject"])
	assert.Equal(t, []any{"a@x.io"}, meta["bcc"])
}

func TestFileConfig(t *testing.T) {
	t.Parallel()

	assert.False(t, email.FileConfig{}.Complete())
	_, err := email.FileConfig{}.Build(testSettings)
	assert.ErrorIs(t, err, email.ErrInvalidConfig)

	tr, err := email.FileConfig{Dir: t.TempDir()}.Build(testSettings)
	require.NoError(t, err)
	assert.Equal(t, email.ProviderFile, tr.Provider())
}
