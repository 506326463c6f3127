package notifications

import "errors"

var (
	ErrInvalidType       = errors.New("notifications: unknown notification type")
	ErrInvalidRecipients = errors.New("notifications: invalid recipients")
	ErrEmptyTitle        = errors.New("notifications: title is required")
	ErrStoreClosed       = errors.New("notifications: store closed")
)
