package domain

import "context"

// NotificationKind names a message sent to an entry. It doubles as the email template name.
type NotificationKind string

const (
	NotificationVerification NotificationKind = "waitlist_verify"
	NotificationInvited      NotificationKind = "waitlist_invited"
)

// Notifier delivers a typed message to an entry's email address.
type Notifier interface {
	Send(ctx context.Context, entry *Entry, kind NotificationKind) error
}
