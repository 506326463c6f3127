package opsapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/autouser"
	"github.com/daoboard/notifier/pkg/dao"
	"github.com/daoboard/notifier/pkg/delivery"
	"github.com/daoboard/notifier/pkg/directory"
	"github.com/daoboard/notifier/pkg/logger"
	"github.com/daoboard/notifier/pkg/notifications"
	"github.com/daoboard/notifier/pkg/opsapi"
)

type staticDiagnoser struct{ d delivery.Diagnostics }

func (s staticDiagnoser) Diagnostics(context.Context) delivery.Diagnostics { return s.d }

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		checks []opsapi.Check
		path   string
		want   int
		status string
	}{
		{name: "liveness", path: "/healthz", want: http.StatusOK, status: "ALIVE"},
		{name: "ready without checks", path: "/readyz", want: http.StatusOK, status: "READY"},
		{
			name:   "ready",
			checks: []opsapi.Check{{Name: "mongo", Fn: func(context.Context) error { return nil }}},
			path:   "/readyz", want: http.StatusOK, status: "READY",
		},
		{
			name:   "not ready",
			checks: []opsapi.Check{{Name: "redis", Fn: func(context.Context) error { return assert.AnError }}},
			path:   "/readyz", want: http.StatusServiceUnavailable, status: "NOT_READY",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := opsapi.Router(opsapi.Options{Checks: tt.checks, Logger: logger.Discard()})
			rec := do(t, r, http.MethodGet, tt.path)
			assert.Equal(t, tt.want, rec.Code)
			body := decode[map[string]any](t, rec)
			assert.Equal(t, tt.status, body["status"])
			assert.NotEmpty(t, rec.Header().Get(opsapi.RequestIDHeader))
		})
	}
}

func TestRouter_RequestID(t *testing.T) {
	t.Parallel()

	r := opsapi.Router(opsapi.Options{Logger: logger.Discard()})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(opsapi.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(opsapi.RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(opsapi.RequestIDHeader, "bad id!")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id!", rec.Header().Get(opsapi.RequestIDHeader))
}

func TestRouter_EmailDiagnostics(t *testing.T) {
	t.Parallel()

	d := delivery.Diagnostics{
		Transport: delivery.TransportStatus{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"},
		Queue:     delivery.QueueStatus{InMemory: 2, Persisted: 3},
		Totals:    delivery.Totals{Sent: 10, Failed: 1},
	}
	r := opsapi.Router(opsapi.Options{Delivery: staticDiagnoser{d}, Logger: logger.Discard()})

	rec := do(t, r, http.MethodGet, "/ops/email")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[delivery.Diagnostics](t, rec)
	assert.Equal(t, d.Transport.Host, got.Transport.Host)
	assert.Equal(t, 3, got.Queue.Persisted)
	assert.Equal(t, int64(10), got.Totals.Sent)
}

func TestRouter_AutoUsers(t *testing.T) {
	t.Parallel()

	log := autouser.NewLog()
	log.Append(autouser.Entry{Action: autouser.ActionCreated, Email: "awa@example.com", RecordID: "r1"})
	r := opsapi.Router(opsapi.Options{AutoUsers: log, Logger: logger.Discard()})

	rec := do(t, r, http.MethodGet, "/ops/auto-users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "awa@example.com")
	assert.Contains(t, rec.Body.String(), "a***@example.com")

	rec = do(t, r, http.MethodDelete, "/ops/auto-users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"cleared": 1}, decode[map[string]int](t, rec))
	assert.Zero(t, log.Len())
}

func TestRouter_Notifications(t *testing.T) {
	t.Parallel()

	store := notifications.NewStore(notifications.Config{}, notifications.WithLogger(logger.Discard()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = store.Shutdown(ctx)
	})
	n, err := store.Broadcast(context.Background(), notifications.Payload{Type: notifications.TypeSystem, Title: "Maintenance"})
	require.NoError(t, err)
	_, err = store.Add(context.Background(), notifications.Payload{Type: notifications.TypeRoleUpdate, Title: "Rôle"}, notifications.Users("u1"))
	require.NoError(t, err)

	r := opsapi.Router(opsapi.Options{Inbox: store, Logger: logger.Discard()})

	rec := do(t, r, http.MethodGet, "/users/u1/notifications")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items  []notifications.UserNotification `json:"items"`
		Unread int                              `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 2, list.Unread)

	rec = do(t, r, http.MethodPost, "/users/u2/notifications/"+n.ID+"/read")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, r, http.MethodPost, "/users/u2/notifications/missing/read")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/users/u1/notifications/read-all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"updated": 2}, decode[map[string]int](t, rec))
	assert.Zero(t, store.CountUnread("u1"))
}

func TestRouter_UnmountedRoutes(t *testing.T) {
	t.Parallel()

	r := opsapi.Router(opsapi.Options{Logger: logger.Discard()})
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/ops/email").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/users/u1/notifications").Code)
}

func TestRouter_SyncTeam(t *testing.T) {
	t.Parallel()

	users := directory.NewMemoryUsers()
	records := directory.NewMemoryRecords(dao.Record{
		ID:   "r1",
		Team: []dao.Member{{UserID: "u1", Email: "awa@example.com"}, {UserID: "u2", Email: "broken"}},
	})
	log := autouser.NewLog()
	r := opsapi.Router(opsapi.Options{
		AutoUsers: log,
		Teams:     autouser.NewSyncer(users, log, autouser.WithLogger(logger.Discard())),
		Records:   records,
		Logger:    logger.Discard(),
	})

	rec := do(t, r, http.MethodPost, "/ops/records/r1/sync-team")
	assert.Equal(t, http.StatusMultiStatus, rec.Code)
	assert.Equal(t, 2, log.Len())

	_, err := users.ByEmail(context.Background(), "awa@example.com")
	assert.NoError(t, err)

	rec = do(t, r, http.MethodPost, "/ops/records/missing/sync-team")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
