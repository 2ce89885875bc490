package services

import (
	"context"
	"fmt"
	"net/url"

	"waitlist/internal/domain"
)

// NotifierConfig locates the public verification route.
type NotifierConfig struct {
	BaseURL     string
	RoutePrefix string
}

type emailNotifier struct {
	email     domain.EmailService
	waitlists domain.WaitlistRepository
	cfg       NotifierConfig
}

// NewEmailNotifier returns a Notifier that renders and mails waitlist messages
// synchronously.
func NewEmailNotifier(email domain.EmailService, waitlists domain.WaitlistRepository, cfg NotifierConfig) domain.Notifier {
	return &emailNotifier{email: email, waitlists: waitlists, cfg: cfg}
}

func (n *emailNotifier) Send(ctx context.Context, entry *domain.Entry, kind domain.NotificationKind) error {
	data := &domain.WaitlistEmailData{
		Email:     entry.Email,
		Name:      entry.Name,
		ActionURL: n.cfg.BaseURL,
	}
	if w, err := n.waitlists.GetByID(ctx, entry.WaitlistID); err == nil {
		data.WaitlistName = w.Name
	}
	if kind == domain.NotificationVerification {
		if entry.VerificationToken == nil {
			return fmt.Errorf("entry %s has no verification token", entry.ID)
		}
		u, err := VerificationURL(n.cfg.BaseURL, n.cfg.RoutePrefix, *entry.VerificationToken)
		if err != nil {
			return err
		}
		data.VerificationURL = u
	}
	return n.email.Send(ctx, kind, data)
}

// VerificationURL joins the public verify route for token onto base.
func VerificationURL(base, prefix, token string) (string, error) {
	u, err := url.JoinPath(base, prefix, "verify", token)
	if err != nil {
		return "", fmt.Errorf("build verification url: %w", err)
	}
	return u, nil
}
