package services

import (
	"context"
	"fmt"
	"log/slog"

	"waitlist/internal/domain"
)

type emailService struct {
	logger   *slog.Logger
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(logger *slog.Logger, mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{logger: logger, mailer: mailer, renderer: renderer}
}

// Send renders the template named after kind and mails it to data.Email.
func (s *emailService) Send(ctx context.Context, kind domain.NotificationKind, data *domain.WaitlistEmailData) error {
	if data == nil {
		return fmt.Errorf("%s email data is nil", kind)
	}
	name := string(kind)
	if !s.renderer.Has(name) {
		return fmt.Errorf("no email template for notification %q", kind)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(name, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", name, err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", name, err)
	}
	s.logger.Info("email sent", "kind", kind, "to", data.Email)
	return nil
}
