package services

import (
	"context"
	"regexp"
	"time"

	"waitlist/internal/domain"
)

const (
	defaultWaitlistName        = "Default Waitlist"
	defaultWaitlistDescription = "Default waitlist"
	defaultContextTimeout      = 5 * time.Second
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Options holds the waitlist behaviour selected at startup.
type Options struct {
	DefaultSlug                     string
	AutoSendInvitation              bool
	InviteNotification              domain.NotificationKind
	VerificationEnabled             bool
	RequireVerificationBeforeInvite bool
	ContextTimeout                  time.Duration
}

// verificationRequired reports whether invite must refuse unverified entries.
func (o Options) verificationRequired() bool {
	return o.VerificationEnabled && o.RequireVerificationBeforeInvite
}

func (o Options) withDefaults() Options {
	if o.DefaultSlug == "" {
		o.DefaultSlug = "default"
	}
	if o.InviteNotification == "" {
		o.InviteNotification = domain.NotificationInvited
	}
	if o.ContextTimeout <= 0 {
		o.ContextTimeout = defaultContextTimeout
	}
	return o
}

func (o Options) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.ContextTimeout)
}
