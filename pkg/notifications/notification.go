package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Type is the closed set of notification kinds.
type Type string

const (
	TypeRoleUpdate       Type = "role_update"
	TypeTaskNotification Type = "task_notification"
	TypeDAOCreated       Type = "dao_created"
	TypeDAOUpdated       Type = "dao_updated"
	TypeDAODeleted       Type = "dao_deleted"
	TypeUserCreated      Type = "user_created"
	TypeSystem           Type = "system"
)

var types = []Type{
	TypeRoleUpdate,
	TypeTaskNotification,
	TypeDAOCreated,
	TypeDAOUpdated,
	TypeDAODeleted,
	TypeUserCreated,
	TypeSystem,
}

// Valid reports whether t is a known notification type.
func (t Type) Valid() bool { return slices.Contains(types, t) }

// Data keys with a meaning to the store.
const (
	// DataSkipEmail marks a notification as exempt from email mirroring.
	DataSkipEmail = "skipEmail"
	// DataHTML carries the HTML body used for the mirrored email.
	DataHTML = "html"
	// DataRecordID references the record whose team also gets the email.
	DataRecordID = "daoId"
	// DataRecordNumber names a record for display only.
	DataRecordNumber = "daoNumber"
	// DataEvent names the domain event that produced the notification.
	DataEvent = "event"
)

// Recipients is either everyone or an explicit set of user ids.
type Recipients struct {
	all   bool
	users []string
}

// All addresses every user.
func All() Recipients { return Recipients{all: true} }

// Users addresses the given user ids. Empty and duplicate ids are dropped;
// no ids means nobody.
func Users(ids ...string) Recipients {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return Recipients{users: out}
}

func (r Recipients) IsAll() bool { return r.all }

// IDs returns the explicit user ids. Nil when addressed to all.
func (r Recipients) IDs() []string { return slices.Clone(r.users) }

// Includes reports whether userID may see a notification with r.
func (r Recipients) Includes(userID string) bool {
	return r.all || slices.Contains(r.users, userID)
}

func (r Recipients) MarshalJSON() ([]byte, error) {
	if r.all {
		return []byte(`"all"`), nil
	}
	if r.users == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.users)
}

func (r *Recipients) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "all" {
			return fmt.Errorf("%w: recipients %q", ErrInvalidRecipients, s)
		}
		*r = All()
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecipients, err)
	}
	*r = Users(ids...)
	return nil
}

// Payload is the content of a notification before it is stored.
type Payload struct {
	Type    Type
	Title   string
	Message string
	Data    map[string]any
}

// Notification is a stored notification.
type Notification struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Data       map[string]any `json:"data,omitempty"`
	Recipients Recipients     `json:"recipients"`
	ReadBy     []string       `json:"readBy"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// UserNotification is a notification annotated with one user's read state.
type UserNotification struct {
	Notification
	Read bool `json:"read"`
}

// SkipsEmail reports whether the notification is exempt from mirroring.
func (n Notification) SkipsEmail() bool {
	skip, _ := n.Data[DataSkipEmail].(bool)
	return skip
}

func (n Notification) dataString(key string) string {
	s, _ := n.Data[key].(string)
	return s
}

func (n Notification) clone() Notification {
	n.Data = maps.Clone(n.Data)
	n.ReadBy = slices.Clone(n.ReadBy)
	return n
}
