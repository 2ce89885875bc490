// Command notifier consumes queued waitlist notifications and sends them by email.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waitlist/config"
	"waitlist/internal/adapters/email"
	"waitlist/internal/adapters/queue"
	"waitlist/internal/repository"
	"waitlist/internal/services"
)

const connectRetryDelay = 2 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("notifier stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.StorageDriver != config.StoragePostgres {
		return fmt.Errorf("notifier needs shared storage, STORAGE_DRIVER=%s is process local", cfg.StorageDriver)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := repository.OpenPostgres(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer repos.Close()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	emailNotifier := services.NewEmailNotifier(
		services.NewEmailService(logger, mailer, email.NewTemplateRenderer()),
		repos.Waitlists,
		services.NotifierConfig{BaseURL: cfg.AppBaseURL, RoutePrefix: cfg.Waitlist.RoutesPrefix},
	)

	var consumer *queue.Consumer
	for {
		consumer, err = queue.NewConsumer(cfg.Notifier.RabbitURL, cfg.Notifier.Exchange, cfg.Notifier.Queue, queue.NotificationKeys())
		if err == nil {
			break
		}
		logger.Warn("connect to rabbitmq failed, retrying", "error", err, "retry_in", connectRetryDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(connectRetryDelay):
		}
	}
	defer consumer.Close()

	deliveries, err := consumer.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.Notifier.Queue, err)
	}

	logger.Info("notifier started", "exchange", cfg.Notifier.Exchange, "queue", cfg.Notifier.Queue)
	err = queue.NewDispatcher(logger, repos.Entries, emailNotifier).Run(ctx, deliveries)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
