package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daoboard/notifier/pkg/directory"
	"github.com/daoboard/notifier/pkg/logger"
	"github.com/daoboard/notifier/pkg/mailaddr"
)

// Mailer delivers one email to a set of recipients.
type Mailer interface {
	Send(ctx context.Context, recipients []string, subject, body, kind string) error
}

// EventEmailFailed is the event of the system notification emitted when
// mirroring gives up.
const EventEmailFailed = "email_delivery_failed"

// mirrorRecipients accumulates resolved addresses in first-seen order.
type mirrorRecipients struct {
	emails  []string
	seen    map[string]struct{}
	missing []string
	invalid []string
}

func (r *mirrorRecipients) add(raw string) bool {
	addr, ok := mailaddr.Canonical(raw)
	if !ok {
		return false
	}
	if _, dup := r.seen[addr]; !dup {
		r.seen[addr] = struct{}{}
		r.emails = append(r.emails, addr)
	}
	return true
}

func (s *Store) mirror(ctx context.Context, n Notification) error {
	log := s.logger.With(logger.NotificationID(n.ID), slog.String("type", string(n.Type)))

	body := n.dataString(DataHTML)
	if body == "" {
		body = n.Message
	}

	rcpt := s.resolve(ctx, n)
	if len(rcpt.missing) > 0 || len(rcpt.invalid) > 0 {
		log.WarnContext(ctx, "some notification recipients have no usable email",
			slog.Int("unknown_users", len(rcpt.missing)),
			slog.Int("invalid_emails", len(rcpt.invalid)),
		)
	}
	if len(rcpt.emails) == 0 {
		log.InfoContext(ctx, "notification email skipped: no recipients")
		return nil
	}

	start := s.now()
	err := s.sendWithRetry(ctx, rcpt.emails, n.Title, body, string(n.Type))
	if err == nil {
		log.InfoContext(ctx, "notification email sent",
			logger.Recipients(len(rcpt.emails)),
			logger.Duration(s.now().Sub(start)),
		)
		return nil
	}

	code := errorCode(err)
	log.ErrorContext(ctx, "notification email failed",
		logger.ErrorCode(code),
		logger.Recipients(len(rcpt.emails)),
		logger.Error(err),
	)
	s.reportFailure(ctx, n, code, len(rcpt.emails), err)
	return nil
}

// resolve builds the address set for n. Directory errors are logged and
// the addresses resolved so far are kept.
func (s *Store) resolve(ctx context.Context, n Notification) *mirrorRecipients {
	rcpt := &mirrorRecipients{seen: make(map[string]struct{})}

	if n.Recipients.IsAll() || s.cfg.BroadcastAll {
		if s.users != nil {
			active, err := s.users.ActiveUsers(ctx)
			if err != nil {
				s.logger.WarnContext(ctx, "active users unavailable for email mirror", logger.Error(err))
			}
			for _, u := range active {
				if !rcpt.add(u.Email) {
					rcpt.invalid = append(rcpt.invalid, u.ID)
				}
			}
		}
		s.addTeam(ctx, rcpt, n.dataString(DataRecordID))
		if s.cfg.AdminEmail != "" {
			rcpt.add(s.cfg.AdminEmail)
		}
		return rcpt
	}

	for _, id := range n.Recipients.IDs() {
		if s.users == nil {
			rcpt.missing = append(rcpt.missing, id)
			continue
		}
		u, err := s.users.User(ctx, id)
		if err != nil {
			if !errors.Is(err, directory.ErrUserNotFound) {
				s.logger.WarnContext(ctx, "user lookup failed for email mirror", logger.UserID(id), logger.Error(err))
			}
			rcpt.missing = append(rcpt.missing, id)
			continue
		}
		if !rcpt.add(u.Email) {
			rcpt.invalid = append(rcpt.invalid, id)
		}
	}
	s.addTeam(ctx, rcpt, n.dataString(DataRecordID))
	return rcpt
}

func (s *Store) addTeam(ctx context.Context, rcpt *mirrorRecipients, recordID string) {
	if recordID == "" || s.records == nil {
		return
	}
	record, err := s.records.Record(ctx, recordID)
	if err != nil {
		if !errors.Is(err, directory.ErrRecordNotFound) {
			s.logger.WarnContext(ctx, "record lookup failed for email mirror", logger.RecordID(recordID), logger.Error(err))
		}
		return
	}
	for _, m := range record.Team {
		addr := m.Email
		if addr == "" && m.UserID != "" && s.users != nil {
			if u, err := s.users.User(ctx, m.UserID); err == nil {
				addr = u.Email
			}
		}
		if addr != "" && !rcpt.add(addr) {
			rcpt.invalid = append(rcpt.invalid, m.UserID)
		}
	}
}

// sendWithRetry backs off exponentially between attempts and gives up at
// once on a permanent error.
func (s *Store) sendWithRetry(ctx context.Context, to []string, subject, body, kind string) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = s.mailer.Send(ctx, to, subject, body, kind)
		if err == nil || attempt >= s.cfg.MirrorAttempts || isPermanent(err) {
			return err
		}

		delay := min(s.backoffBase<<(attempt-1), s.backoffMax)
		s.logger.DebugContext(ctx, "retrying notification email",
			logger.Attempt(attempt),
			logger.Duration(delay),
			logger.ErrorCode(errorCode(err)),
		)
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return err
		}
	}
}

// reportFailure emits one system notification per error code and
// cooldown window. The message never carries provider error text.
func (s *Store) reportFailure(ctx context.Context, n Notification, code string, resolved int, err error) {
	now := s.now()
	s.cooldownMu.Lock()
	if last, ok := s.cooldown[code]; ok && now.Sub(last) < s.cfg.ErrorCooldown {
		s.cooldownMu.Unlock()
		s.logger.DebugContext(ctx, "email failure notification suppressed", logger.ErrorCode(code))
		return
	}
	s.cooldown[code] = now
	s.cooldownMu.Unlock()

	attempted, sent, failed := resolved, 0, resolved
	var counted interface{ Counts() (int, int, int) }
	if errors.As(err, &counted) {
		attempted, sent, failed = counted.Counts()
	}

	p := Payload{
		Type:  TypeSystem,
		Title: "Échec d'envoi des emails",
		Message: fmt.Sprintf("Les emails de la notification « %s » n'ont pas pu être envoyés.\n\n%d destinataire(s) concerné(s), %d envoyé(s), %d en échec.\nCode : %s",
			n.Title, attempted, sent, failed, code),
		Data: map[string]any{
			DataSkipEmail:    true,
			DataEvent:        EventEmailFailed,
			"errorCode":      code,
			"notificationId": n.ID,
			"attempted":      attempted,
			"sent":           sent,
			"failed":         failed,
		},
	}
	if _, err := s.Broadcast(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "email failure notification not stored", logger.Error(err))
	}
}

func isPermanent(err error) bool {
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}

func errorCode(err error) string {
	var c interface{ ErrorCode() string }
	if errors.As(err, &c) {
		if code := c.ErrorCode(); code != "" {
			return code
		}
	}
	return "unknown"
}
