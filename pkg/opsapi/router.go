package opsapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daoboard/notifier/pkg/autouser"
	"github.com/daoboard/notifier/pkg/dao"
	"github.com/daoboard/notifier/pkg/delivery"
	"github.com/daoboard/notifier/pkg/directory"
	"github.com/daoboard/notifier/pkg/logger"
	"github.com/daoboard/notifier/pkg/notifications"
)

// Diagnoser reports delivery engine health.
type Diagnoser interface {
	Diagnostics(ctx context.Context) delivery.Diagnostics
}

// Inbox is the per-user view of the notification store.
type Inbox interface {
	ListForUser(userID string) []notifications.UserNotification
	CountUnread(userID string) int
	MarkRead(ctx context.Context, userID, id string) bool
	MarkAllRead(ctx context.Context, userID string) int
}

// AuditLog is the auto-user audit trail.
type AuditLog interface {
	List() []autouser.Entry
	Clear() int
}

// TeamSyncer provisions accounts for a record's team.
type TeamSyncer interface {
	Sync(ctx context.Context, record dao.Record) ([]autouser.Entry, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Options wires the router. Nil dependencies leave their routes unmounted.
type Options struct {
	Delivery     Diagnoser
	Inbox        Inbox
	AutoUsers    AuditLog
	Teams        TeamSyncer
	Records      directory.Records
	Checks       []Check
	CheckTimeout time.Duration
	Logger       *slog.Logger
}

type api struct {
	Options
	log *slog.Logger
}

// Router builds the HTTP handler.
func Router(opts Options) chi.Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 3 * time.Second
	}
	a := &api{Options: opts, log: opts.Logger.With(logger.Component("opsapi"))}

	r := chi.NewRouter()
	r.Use(withRequestID, accessLog(a.log))

	r.Get("/healthz", a.liveness)
	r.Get("/readyz", a.readiness)

	r.Route("/ops", func(ops chi.Router) {
		if a.Delivery != nil {
			ops.Get("/email", a.emailDiagnostics)
		}
		if a.AutoUsers != nil {
			ops.Get("/auto-users", a.listAutoUsers)
			ops.Delete("/auto-users", a.clearAutoUsers)
		}
		if a.Teams != nil && a.Records != nil {
			ops.Post("/records/{recordID}/sync-team", a.syncTeam)
		}
	})

	if a.Inbox != nil {
		r.Route("/users/{userID}/notifications", func(n chi.Router) {
			n.Get("/", a.listNotifications)
			n.Post("/read-all", a.markAllRead)
			n.Post("/{notificationID}/read", a.markRead)
		})
	}
	return r
}

func (a *api) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ALIVE"})
}

func (a *api) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.CheckTimeout)
	defer cancel()

	failed := []string{}
	for _, c := range a.Checks {
		if err := c.Fn(ctx); err != nil {
			a.log.WarnContext(ctx, "readiness check failed", slog.String("check", c.Name), logger.Error(err))
			failed = append(failed, c.Name)
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "NOT_READY", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "READY"})
}

func (a *api) emailDiagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Delivery.Diagnostics(r.Context()))
}

func (a *api) listAutoUsers(w http.ResponseWriter, _ *http.Request) {
	entries := a.AutoUsers.List()
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (a *api) clearAutoUsers(w http.ResponseWriter, r *http.Request) {
	n := a.AutoUsers.Clear()
	a.log.InfoContext(r.Context(), "auto-user log cleared", slog.Int("count", n))
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (a *api) syncTeam(w http.ResponseWriter, r *http.Request) {
	record, err := a.Records.Record(r.Context(), chi.URLParam(r, "recordID"))
	if errors.Is(err, directory.ErrRecordNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
		return
	}
	if err != nil {
		a.log.ErrorContext(r.Context(), "record lookup failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "record lookup failed"})
		return
	}

	entries, err := a.Teams.Sync(r.Context(), record)
	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{"entries": entries})
}

func (a *api) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  a.Inbox.ListForUser(userID),
		"unread": a.Inbox.CountUnread(userID),
	})
}

func (a *api) markRead(w http.ResponseWriter, r *http.Request) {
	if !a.Inbox.MarkRead(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "notificationID")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) markAllRead(w http.ResponseWriter, r *http.Request) {
	n := a.Inbox.MarkAllRead(r.Context(), chi.URLParam(r, "userID"))
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
