package notifications

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daoboard/notifier/pkg/directory"
	"github.com/daoboard/notifier/pkg/logger"
)

// Store holds recent notifications newest first and mirrors new ones to
// email in the background.
type Store struct {
	cfg     Config
	logger  *slog.Logger
	storage Storage
	mailer  Mailer
	users   directory.Users
	records directory.Records
	now     func() time.Time

	backoffBase time.Duration
	backoffMax  time.Duration

	mu    sync.RWMutex
	items []Notification

	cooldownMu sync.Mutex
	cooldown   map[string]time.Time

	bg background
}

// NewStore creates a store and starts its background worker.
func NewStore(cfg Config, opts ...Option) *Store {
	s := &Store{
		cfg:         cfg.withDefaults(),
		logger:      slog.Default(),
		now:         time.Now,
		backoffBase: 250 * time.Millisecond,
		backoffMax:  2 * time.Second,
		cooldown:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("notifications"))
	s.bg.start(s.cfg.QueueSize, s.logger)
	return s
}

// Start loads the most recent persisted notifications. A storage failure
// is logged and the store starts empty.
func (s *Store) Start(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	loaded, err := s.storage.Recent(ctx, s.cfg.Capacity)
	if err != nil {
		s.logger.WarnContext(ctx, "persisted notifications unavailable", logger.Error(err))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range loaded {
		if !slices.ContainsFunc(s.items, func(x Notification) bool { return x.ID == n.ID }) {
			s.items = append(s.items, n)
		}
	}
	slices.SortStableFunc(s.items, func(a, b Notification) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	s.truncateLocked()
	s.logger.InfoContext(ctx, "notifications restored", slog.Int("count", len(loaded)))
	return nil
}

// Add stores a notification for recipients and returns it. The
// notification is visible to ListForUser before Add returns; persistence
// and email mirroring happen in the background.
func (s *Store) Add(ctx context.Context, p Payload, recipients Recipients) (Notification, error) {
	if !p.Type.Valid() {
		return Notification{}, fmt.Errorf("%w: %q", ErrInvalidType, p.Type)
	}
	if p.Title == "" {
		return Notification{}, ErrEmptyTitle
	}
	if !recipients.IsAll() && len(recipients.users) == 0 {
		return Notification{}, ErrInvalidRecipients
	}
	if s.bg.isClosed() {
		return Notification{}, ErrStoreClosed
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Notification{}, fmt.Errorf("notifications: generate id: %w", err)
	}
	n := Notification{
		ID:         id.String(),
		Type:       p.Type,
		Title:      p.Title,
		Message:    p.Message,
		Data:       p.Data,
		Recipients: recipients,
		ReadBy:     []string{},
		CreatedAt:  s.now().UTC(),
	}
	n = n.clone()

	s.mu.Lock()
	s.items = slices.Insert(s.items, 0, n)
	s.truncateLocked()
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "notification added",
		logger.NotificationID(n.ID),
		slog.String("type", string(n.Type)),
		slog.Bool("broadcast", recipients.IsAll()),
	)

	if s.storage != nil {
		stored := n.clone()
		s.bg.submit(task{name: "persist", run: func(ctx context.Context) error {
			return s.storage.Insert(ctx, stored)
		}})
	}
	if s.cfg.MirrorEmail && s.mailer != nil && !n.SkipsEmail() {
		mirrored := n.clone()
		s.bg.submit(task{name: "mirror", detach: true, run: func(ctx context.Context) error {
			return s.mirror(ctx, mirrored)
		}})
	}
	return n.clone(), nil
}

// Broadcast adds a notification addressed to every user.
func (s *Store) Broadcast(ctx context.Context, p Payload) (Notification, error) {
	return s.Add(ctx, p, All())
}

// ListForUser returns the notifications userID may see, newest first,
// capped at ListLimit.
func (s *Store) ListForUser(userID string) []UserNotification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UserNotification, 0, min(len(s.items), ListLimit))
	for _, n := range s.items {
		if len(out) == ListLimit {
			break
		}
		if !n.Recipients.Includes(userID) {
			continue
		}
		out = append(out, UserNotification{
			Notification: n.clone(),
			Read:         slices.Contains(n.ReadBy, userID),
		})
	}
	return out
}

// CountUnread returns how many visible notifications userID has not read.
func (s *Store) CountUnread(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.items {
		if n.Recipients.Includes(userID) && !slices.Contains(n.ReadBy, userID) {
			count++
		}
	}
	return count
}

// MarkRead marks one notification read for userID. It reports false when
// the notification does not exist or is not addressed to userID.
func (s *Store) MarkRead(ctx context.Context, userID, id string) bool {
	s.mu.Lock()
	idx := slices.IndexFunc(s.items, func(n Notification) bool { return n.ID == id })
	if idx < 0 || !s.items[idx].Recipients.Includes(userID) {
		s.mu.Unlock()
		return false
	}
	changed := !slices.Contains(s.items[idx].ReadBy, userID)
	if changed {
		s.items[idx].ReadBy = append(s.items[idx].ReadBy, userID)
	}
	s.mu.Unlock()

	if changed {
		s.persistRead(ctx, userID, id)
	}
	return true
}

// MarkAllRead marks every visible unread notification read for userID and
// returns how many changed.
func (s *Store) MarkAllRead(ctx context.Context, userID string) int {
	var ids []string

	s.mu.Lock()
	for i := range s.items {
		n := &s.items[i]
		if n.Recipients.Includes(userID) && !slices.Contains(n.ReadBy, userID) {
			n.ReadBy = append(n.ReadBy, userID)
			ids = append(ids, n.ID)
		}
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		s.persistRead(ctx, userID, ids...)
	}
	return len(ids)
}

// ClearAll drops every notification, in memory and in storage.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	count := len(s.items)
	s.items = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "notifications cleared", slog.Int("count", count))
	if s.storage != nil {
		s.bg.submit(task{name: "clear", run: s.storage.Clear})
	}
}

// Len returns the number of notifications held in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Flush waits until every background task submitted so far, and any task
// those tasks submit, has finished.
func (s *Store) Flush(ctx context.Context) error {
	return s.bg.flush(ctx)
}

// Shutdown waits for background work to finish, then stops the worker.
// When ctx expires first, in-flight mirrors are cancelled.
func (s *Store) Shutdown(ctx context.Context) error {
	return s.bg.stop(ctx)
}

func (s *Store) persistRead(_ context.Context, userID string, ids ...string) {
	if s.storage == nil {
		return
	}
	s.bg.submit(task{name: "mark_read", run: func(ctx context.Context) error {
		return s.storage.AddReader(ctx, userID, ids...)
	}})
}

func (s *Store) truncateLocked() {
	if len(s.items) > s.cfg.Capacity {
		clear(s.items[s.cfg.Capacity:])
		s.items = s.items[:s.cfg.Capacity]
	}
}
