package autouser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/daoboard/notifier/pkg/dao"
	"github.com/daoboard/notifier/pkg/directory"
	"github.com/daoboard/notifier/pkg/logger"
	"github.com/daoboard/notifier/pkg/mailaddr"
	"github.com/daoboard/notifier/pkg/notifications"
)

// ErrInvalidEmail is recorded for team members whose email is unusable.
var ErrInvalidEmail = errors.New("autouser: invalid email")

// Notifier receives a notification for each account created.
type Notifier interface {
	Add(ctx context.Context, p notifications.Payload, r notifications.Recipients) (notifications.Notification, error)
}

// Syncer provisions accounts for team members.
type Syncer struct {
	users    directory.Users
	log      *Log
	notifier Notifier
	logger   *slog.Logger
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

func WithLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNotifier announces created accounts to their owner.
func WithNotifier(n Notifier) SyncerOption {
	return func(s *Syncer) { s.notifier = n }
}

func NewSyncer(users directory.Users, log *Log, opts ...SyncerOption) *Syncer {
	s := &Syncer{users: users, log: log, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("autouser"))
	return s
}

// Sync ensures every team member of record that has an email owns an
// active account. Members are handled independently; the returned error
// joins the failures.
func (s *Syncer) Sync(ctx context.Context, record dao.Record) ([]Entry, error) {
	var (
		entries []Entry
		errs    []error
	)
	for _, m := range record.Team {
		if m.Email == "" {
			continue
		}
		e, err := s.syncMember(ctx, record, m)
		entries = append(entries, s.log.Append(e))
		if err != nil {
			errs = append(errs, fmt.Errorf("autouser: member %s: %w", mailaddr.Mask(m.Email), err))
		}
	}
	return entries, errors.Join(errs...)
}

func (s *Syncer) syncMember(ctx context.Context, record dao.Record, m dao.Member) (Entry, error) {
	entry := Entry{Email: m.Email, RecordID: record.ID, DisplayName: m.DisplayName}

	addr, ok := mailaddr.Canonical(m.Email)
	if !ok {
		entry.Action = ActionError
		entry.Message = "Adresse email invalide"
		return entry, ErrInvalidEmail
	}
	entry.Email = addr

	u, err := s.users.ByEmail(ctx, addr)
	switch {
	case err == nil && u.Active:
		entry.Action = ActionAlreadyActive
		entry.Message = "Compte déjà actif"
		return entry, nil

	case err == nil:
		if _, err := s.users.Activate(ctx, u.ID); err != nil {
			return s.failed(ctx, entry, "Réactivation impossible", err)
		}
		entry.Action = ActionReactivated
		entry.Message = "Compte réactivé"
		s.logger.InfoContext(ctx, "user reactivated", logger.UserID(u.ID), logger.RecordID(record.ID))
		return entry, nil

	case errors.Is(err, directory.ErrUserNotFound):
		created, err := s.users.Create(ctx, directory.User{
			Email:       addr,
			DisplayName: m.DisplayName,
			Role:        dao.RoleUser,
			Active:      true,
		})
		if err != nil {
			return s.failed(ctx, entry, "Création impossible", err)
		}
		entry.Action = ActionCreated
		entry.Message = "Compte créé"
		s.logger.InfoContext(ctx, "user created", logger.UserID(created.ID), logger.RecordID(record.ID))
		s.announce(ctx, record, created)
		return entry, nil

	default:
		return s.failed(ctx, entry, "Recherche du compte impossible", err)
	}
}

func (s *Syncer) failed(ctx context.Context, entry Entry, msg string, err error) (Entry, error) {
	entry.Action = ActionError
	entry.Message = msg
	s.logger.WarnContext(ctx, "user provisioning failed",
		logger.RecordID(entry.RecordID),
		slog.String("email", mailaddr.Mask(entry.Email)),
		logger.Error(err),
	)
	return entry, err
}

func (s *Syncer) announce(ctx context.Context, record dao.Record, u directory.User) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Add(ctx, notifications.Payload{
		Type:    notifications.TypeUserCreated,
		Title:   "Bienvenue",
		Message: fmt.Sprintf("Un compte a été créé pour vous suite à votre ajout à l'équipe du dossier %s.", record.Number),
		Data: map[string]any{
			notifications.DataEvent:        "user_created",
			notifications.DataRecordNumber: record.Number,
		},
	}, notifications.Users(u.ID))
	if err != nil {
		s.logger.WarnContext(ctx, "welcome notification not stored", logger.UserID(u.ID), logger.Error(err))
	}
}
