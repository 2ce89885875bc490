package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"waitlist/internal/domain"
)

// Mail providers understood by NewMailer.
const (
	ProviderSES  = "ses"
	ProviderNoop = "noop"
)

const charset = "UTF-8"

// SESConfig carries the AWS settings for the SES provider. Requests are
// signed with the static key pair.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailerConfig selects the provider that delivers verification and
// invitation emails and the sender they come from.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// NewMailer returns the mailer named by config.Provider. An empty or
// unrecognised provider logs instead of sending, so a fresh install can run
// the waitlist without email credentials.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case ProviderSES:
		return newSESMailer(config, logger)
	case ProviderNoop, "":
	default:
		logger.Warn("unknown email provider, waitlist emails will only be logged", "provider", config.Provider)
	}
	return &noopMailer{logger: logger}, nil
}

type sesMailer struct {
	client *ses.Client
	logger *slog.Logger
	source string
}

func newSESMailer(config MailerConfig, logger *slog.Logger) (*sesMailer, error) {
	c := config.SES
	if c.Region == "" {
		return nil, errors.New("ses mailer: region is required")
	}
	if config.FromAddress == "" {
		return nil, errors.New("ses mailer: from address is required")
	}
	if c.InsecureSkipVerify {
		logger.Warn("SES TLS verification disabled, do not use outside development")
	}

	client := ses.NewFromConfig(aws.Config{
		Region: c.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		),
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: c.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		},
	})
	return &sesMailer{
		client: client,
		logger: logger,
		source: formatSource(config.FromName, config.FromAddress),
	}, nil
}

// formatSource renders the From header, quoting the display name when it
// needs it.
func formatSource(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

func content(s string) *types.Content {
	if s == "" {
		return nil
	}
	return &types.Content{Data: aws.String(s), Charset: aws.String(charset)}
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: content(subject),
			Body:    &types.Body{Html: content(html), Text: content(text)},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", to, err)
	}
	s.logger.Debug("waitlist email sent", "provider", ProviderSES, "message_id", aws.ToString(out.MessageId))
	return nil
}

// noopMailer records what would have been sent.
type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(_ context.Context, to, subject, _, _ string) error {
	n.logger.Info("waitlist email not sent, no provider configured", "to", to, "subject", subject)
	return nil
}
