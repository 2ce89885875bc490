package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
	Has(templateName string) bool
}

// WaitlistEmailData holds data for every waitlist email template.
type WaitlistEmailData struct {
	Email           string
	Name            string
	WaitlistName    string
	VerificationURL string
	ActionURL       string
}

// EmailService defines the contract for sending waitlist emails.
type EmailService interface {
	Send(ctx context.Context, kind NotificationKind, data *WaitlistEmailData) error
}
