package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/environment"
	"github.com/daoboard/notifier/pkg/logger"
)

type ctxKey struct{}

func TestAttrs(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	assert.Equal(t, "error", logger.Error(err).Key)
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
	assert.Len(t, logger.Errors(err, nil, err).Value.Group(), 2)

	assert.Equal(t, "job-1", logger.JobID("job-1").Value.String())
	assert.Equal(t, int64(3), logger.Recipients(3).Value.Int64())
	assert.Equal(t, int64(2), logger.Attempt(2).Value.Int64())
	assert.Equal(t, time.Second, logger.Duration(time.Second).Value.Duration())
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.True(t, logger.ErrorCode("").Equal(slog.Attr{}))
	assert.True(t, logger.RecordID("").Equal(slog.Attr{}))
	assert.Equal(t, "smtp_421", logger.ErrorCode("smtp_421").Value.String())
}

func TestNew_JSONDefaults(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("region", "eu")))
	log.Debug("hidden")
	log.Info("shown", logger.Component("delivery"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "delivery", rec["component"])
	assert.Equal(t, "eu", rec["region"])
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("development is text and debug", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment(environment.Development, "notifier"), logger.WithOutput(buf))
		log.Debug("details")
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "service=notifier")
		assert.Contains(t, buf.String(), "env=development")
	})

	t.Run("production is json and info", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment(environment.Production, "notifier"), logger.WithOutput(buf))
		log.Debug("dropped")
		assert.Empty(t, buf.String())
		log.Info("kept")
		assert.Contains(t, buf.String(), `"env":"production"`)
	})

	t.Run("test discards by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(environment.Test, "notifier"))
		log.Error("nobody reads this")
		assert.Empty(t, buf.String())
	})
}

func TestWithFormat_PanicsOnUnknown(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
}

func TestWithContextValue(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithContextValue("request_id", ctxKey{}))

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")
	log.With("static", 1).InfoContext(ctx, "with value")
	log.InfoContext(context.Background(), "without value")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"request_id":"req-42"`)
	assert.Contains(t, string(lines[0]), `"static":1`)
	assert.NotContains(t, string(lines[1]), "request_id")
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := logger.Discard()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
