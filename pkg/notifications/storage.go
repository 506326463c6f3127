package notifications

import "context"

// Storage persists notifications beyond the process. Every call is made
// from the background worker; failures are logged and never reach the
// caller of the store operation that caused them.
type Storage interface {
	Insert(ctx context.Context, n Notification) error
	// AddReader adds userID to the readers of the given notifications.
	AddReader(ctx context.Context, userID string, ids ...string) error
	Clear(ctx context.Context) error
	// Recent returns up to limit notifications, newest first.
	Recent(ctx context.Context, limit int) ([]Notification, error)
}
